// Package inputrecv implements the InputReceiver collaborator: a
// single-client TCP listener that reads fixed-size 28-byte binary input
// events, draining greedily until WouldBlock each poll. Grounded on
// original_source/server/src/network/input_receiver.cpp.
package inputrecv

import (
	"fmt"
	"io"
	"net"
	"time"

	"inkstream/internal/types"
	"inkstream/internal/wire"
)

// InputReceiver accepts a single TCP client and drains fixed-size binary
// input events from it non-blockingly.
type InputReceiver struct {
	listener net.Listener
	conn     net.Conn
}

func New(port int) (*InputReceiver, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, types.NewError(types.ErrTransport, "inputrecv.New", err)
	}
	return &InputReceiver{listener: ln}, nil
}

// pollWait bounds how long TryAccept and DrainEvents wait on the socket. A
// deadline of exactly time.Now() has already expired when the runtime
// checks it, so the accept/read would fail without looking at the socket.
const pollWait = time.Millisecond

// TryAccept is a near-non-blocking accept: it waits at most pollWait and
// returns ok=false if no client connected in that time. Called on each
// scheduler loop pass while no client is bound.
func (r *InputReceiver) TryAccept() (ok bool, err error) {
	tl, isTCP := r.listener.(*net.TCPListener)
	if !isTCP {
		return false, nil
	}
	if err := tl.SetDeadline(time.Now().Add(pollWait)); err != nil {
		return false, nil
	}
	conn, err := tl.Accept()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return false, nil
		}
		return false, types.NewError(types.ErrTransport, "inputrecv.TryAccept", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	r.conn = conn
	return true, nil
}

// DrainEvents reads every event that arrives within pollWait off the
// socket, returning them in arrival order. It stops when the read deadline
// expires or on the first error.
func (r *InputReceiver) DrainEvents() ([]wire.InputEvent, error) {
	if r.conn == nil {
		return nil, nil
	}
	if err := r.conn.SetReadDeadline(time.Now().Add(pollWait)); err != nil {
		return nil, nil
	}

	var events []wire.InputEvent
	buf := make([]byte, wire.InputEventSize)
	for {
		if _, err := io.ReadFull(r.conn, buf); err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return events, nil
			}
			return events, types.NewError(types.ErrPeerGone, "inputrecv.DrainEvents", err)
		}
		ev, err := wire.UnmarshalInputEvent(buf)
		if err != nil {
			return events, types.NewError(types.ErrProtocol, "inputrecv.DrainEvents", err)
		}
		events = append(events, ev)
	}
}

// Reset closes the client connection but keeps the listener open.
func (r *InputReceiver) Reset() {
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
}

func (r *InputReceiver) Shutdown() {
	r.Reset()
	r.listener.Close()
}
