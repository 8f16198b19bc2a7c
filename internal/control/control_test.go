package control

import (
	"net"
	"strconv"
	"testing"
	"time"

	"inkstream/internal/wire"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func TestHandshakeAndSteadyState(t *testing.T) {
	port := freePort(t)
	cs, err := New(port, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer cs.Shutdown()

	clientDone := make(chan error, 1)
	go func() {
		conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			clientDone <- err
			return
		}
		defer conn.Close()

		req := wire.ConfigRequest{ClientWidth: 1080, ClientHeight: 2340, VideoPort: 40001, InputPort: 40002}
		payload := make([]byte, wire.ConfigRequestSize)
		payload[0], payload[1] = byte(req.ClientWidth>>8), byte(req.ClientWidth)
		payload[2], payload[3] = byte(req.ClientHeight>>8), byte(req.ClientHeight)
		payload[4], payload[5] = byte(req.VideoPort>>8), byte(req.VideoPort)
		payload[6], payload[7] = byte(req.InputPort>>8), byte(req.InputPort)
		if err := wire.WriteMessage(conn, wire.MsgConfigRequest, payload); err != nil {
			clientDone <- err
			return
		}

		// Send a KEYFRAME_REQUEST after a short delay.
		time.Sleep(20 * time.Millisecond)
		if err := wire.WriteMessage(conn, wire.MsgKeyframeReq, nil); err != nil {
			clientDone <- err
			return
		}
		clientDone <- nil
	}()

	req, _, err := cs.AcceptClient()
	if err != nil {
		t.Fatalf("AcceptClient: %v", err)
	}
	if req.ClientWidth != 1080 || req.VideoPort != 40001 {
		t.Fatalf("got %+v", req)
	}

	if err := cs.SendConfigResponse(wire.ConfigResponse{ServerWidth: 1920, ServerHeight: 1080}); err != nil {
		t.Fatalf("SendConfigResponse: %v", err)
	}

	gotKeyframe := false
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ev, err := cs.Poll()
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if ev == EventKeyframeRequest {
			gotKeyframe = true
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if !gotKeyframe {
		t.Fatal("Poll never reported the KEYFRAME_REQUEST")
	}

	if err := <-clientDone; err != nil {
		t.Fatalf("client goroutine: %v", err)
	}
}
