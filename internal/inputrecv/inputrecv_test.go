package inputrecv

import (
	"net"
	"testing"
	"time"

	"inkstream/internal/wire"
)

func TestAcceptAndDrain(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	r, err := New(port)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Shutdown()

	clientDone := make(chan error, 1)
	go func() {
		conn, err := net.Dial("tcp", ln.Addr().String())
		if err != nil {
			clientDone <- err
			return
		}
		defer conn.Close()

		ev1 := wire.InputEvent{Type: wire.EventTouchDown, PointerID: 0, X: 0.1, Y: 0.2}
		ev2 := wire.InputEvent{Type: wire.EventTouchUp, PointerID: 0, X: 0.1, Y: 0.2}
		if _, err := conn.Write(ev1.Marshal()); err != nil {
			clientDone <- err
			return
		}
		if _, err := conn.Write(ev2.Marshal()); err != nil {
			clientDone <- err
			return
		}
		time.Sleep(50 * time.Millisecond)
		clientDone <- nil
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ok, err := r.TryAccept()
		if err != nil {
			t.Fatalf("TryAccept: %v", err)
		}
		if ok {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	var events []wire.InputEvent
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(events) < 2 {
		evs, err := r.DrainEvents()
		if err != nil {
			t.Fatalf("DrainEvents: %v", err)
		}
		events = append(events, evs...)
		time.Sleep(2 * time.Millisecond)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != wire.EventTouchDown || events[1].Type != wire.EventTouchUp {
		t.Fatalf("unexpected event order: %+v", events)
	}

	if err := <-clientDone; err != nil {
		t.Fatalf("client goroutine: %v", err)
	}
}
