// Package control implements the ControlServer collaborator: a
// single-client TCP listener, optionally TLS-wrapped, carrying the
// length-prefixed message protocol from the design. Grounded on
// original_source/server/src/network/control_server.cpp, adapted from
// OpenSSL to crypto/tls the way a self-signed cert helper
// already does for its WHEP server.
package control

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"time"

	"inkstream/internal/types"
	"inkstream/internal/wire"
)

// pollWait bounds how long Poll waits for the first byte of a message.
const pollWait = time.Millisecond

// Event is what Poll observed on its non-blocking pass.
type Event int

const (
	EventNone Event = iota
	EventKeyframeRequest
	EventDisconnect
)

// ControlServer is the single-client TLS/TCP control channel.
type ControlServer struct {
	listener  net.Listener
	tlsConfig *tls.Config

	conn   net.Conn
	reader *bufio.Reader
}

// New opens the control listener on port. If tlsConfig is non-nil the
// listener wraps every accepted connection in TLS 1.3 (minimum version is
// forced here regardless of what the caller's config requests); tlsConfig
// with a non-nil ClientCAs enables mutual-TLS client certificate
// verification.
func New(port int, tlsConfig *tls.Config) (*ControlServer, error) {
	addr := fmt.Sprintf(":%d", port)
	var ln net.Listener
	var err error
	if tlsConfig != nil {
		cfg := tlsConfig.Clone()
		cfg.MinVersion = tls.VersionTLS13
		if cfg.ClientCAs != nil {
			cfg.ClientAuth = tls.RequireAndVerifyClientCert
		}
		ln, err = tls.Listen("tcp", addr, cfg)
	} else {
		ln, err = net.Listen("tcp", addr)
	}
	if err != nil {
		return nil, types.NewError(types.ErrTransport, "control.New", err)
	}
	return &ControlServer{listener: ln, tlsConfig: tlsConfig}, nil
}

// AcceptClient blocks until a client connects (cancelled by Shutdown
// closing the listener), completes the optional TLS handshake, and reads
// exactly one CONFIG_REQUEST. Any deviation — wrong message type, short
// read, TLS failure — closes the connection and returns a Protocol error
// without ever having produced media, matching the handshake contract.
func (cs *ControlServer) AcceptClient() (wire.ConfigRequest, net.Addr, error) {
	conn, err := cs.listener.Accept()
	if err != nil {
		return wire.ConfigRequest{}, nil, types.NewError(types.ErrTransport, "control.AcceptClient", err)
	}
	if tc, ok := conn.(*tls.Conn); ok {
		if err := tc.Handshake(); err != nil {
			conn.Close()
			return wire.ConfigRequest{}, nil, types.NewError(types.ErrProtocol, "control.AcceptClient", fmt.Errorf("TLS handshake: %w", err))
		}
	}

	if tcpConn, ok := underlyingTCPConn(conn); ok {
		_ = tcpConn.SetNoDelay(true)
	}

	reader := bufio.NewReader(conn)
	msgType, payload, err := wire.ReadMessage(reader)
	if err != nil {
		conn.Close()
		return wire.ConfigRequest{}, nil, types.NewError(types.ErrProtocol, "control.AcceptClient", fmt.Errorf("read config request: %w", err))
	}
	if msgType != wire.MsgConfigRequest {
		conn.Close()
		return wire.ConfigRequest{}, nil, types.NewError(types.ErrProtocol, "control.AcceptClient", fmt.Errorf("expected CONFIG_REQUEST, got type 0x%02x", msgType))
	}
	req, err := wire.UnmarshalConfigRequest(payload)
	if err != nil {
		conn.Close()
		return wire.ConfigRequest{}, nil, types.NewError(types.ErrProtocol, "control.AcceptClient", err)
	}

	cs.conn = conn
	cs.reader = reader
	return req, conn.RemoteAddr(), nil
}

// SendConfigResponse replies with the negotiated session profile.
func (cs *ControlServer) SendConfigResponse(resp wire.ConfigResponse) error {
	if err := wire.WriteMessage(cs.conn, wire.MsgConfigResponse, resp.Marshal()); err != nil {
		return types.NewError(types.ErrTransport, "control.SendConfigResponse", err)
	}
	return nil
}

// Poll performs one non-blocking pass over the control socket: it echoes
// any PING as PONG internally, and reports KEYFRAME_REQUEST/DISCONNECT (or
// a read error, treated the same as DISCONNECT) to the caller.
//
// Readability is checked with a short deadline (pollWait) on Peek, which
// fills the bufio.Reader's buffer from the socket without consuming it —
// mirroring a non-blocking select() before a blocking read. A deadline of
// exactly time.Now() would already be expired and Peek would never read
// the socket. Once Peek confirms a byte
// is available, the deadline is cleared so the framed read below always
// gets the whole message: a length prefix that arrived but whose body is
// still in flight must not be torn apart by an expiring deadline, or the
// reader desyncs for every message that follows.
func (cs *ControlServer) Poll() (Event, error) {
	if cs.conn == nil {
		return EventNone, nil
	}
	if err := cs.conn.SetReadDeadline(time.Now().Add(pollWait)); err != nil {
		return EventNone, nil
	}
	if _, err := cs.reader.Peek(1); err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return EventNone, nil
		}
		return EventDisconnect, types.NewError(types.ErrPeerGone, "control.Poll", err)
	}
	if err := cs.conn.SetReadDeadline(time.Time{}); err != nil {
		return EventDisconnect, types.NewError(types.ErrPeerGone, "control.Poll", err)
	}

	msgType, payload, err := wire.ReadMessage(cs.reader)
	if err != nil {
		return EventDisconnect, types.NewError(types.ErrPeerGone, "control.Poll", err)
	}

	switch msgType {
	case wire.MsgKeyframeReq:
		return EventKeyframeRequest, nil
	case wire.MsgPing:
		if err := wire.WriteMessage(cs.conn, wire.MsgPong, payload); err != nil {
			log.Printf("control: failed to echo PONG: %v", err)
		}
		return EventNone, nil
	case wire.MsgDisconnect:
		return EventDisconnect, nil
	default:
		log.Printf("control: ignoring unexpected message type 0x%02x in steady state", msgType)
		return EventNone, nil
	}
}

// Reset closes the client connection but keeps the listener open for the
// next AcceptClient call.
func (cs *ControlServer) Reset() {
	if cs.conn != nil {
		cs.conn.Close()
		cs.conn = nil
		cs.reader = nil
	}
}

// Shutdown closes both the client connection and the listener.
func (cs *ControlServer) Shutdown() {
	cs.Reset()
	cs.listener.Close()
}

func underlyingTCPConn(c net.Conn) (*net.TCPConn, bool) {
	if tc, ok := c.(*tls.Conn); ok {
		if inner, ok := tc.NetConn().(*net.TCPConn); ok {
			return inner, true
		}
		return nil, false
	}
	tc, ok := c.(*net.TCPConn)
	return tc, ok
}
