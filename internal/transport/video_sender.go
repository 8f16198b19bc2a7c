// Package transport implements the UDP senders for the video and audio
// streams: MTU-safe fragmentation, framing, sequence numbering, and
// burst pacing via internal/pacing. Grounded on
// original_source/server/src/network/video_sender.cpp.
package transport

import (
	"context"
	"fmt"
	"log"
	"net"

	"inkstream/internal/pacing"
	"inkstream/internal/types"
	"inkstream/internal/wire"
)

// sendBufferBytes matches the original's SO_SNDBUF sizing so that bursts of
// UDP writes don't trip EAGAIN under normal load.
const sendBufferBytes = 4 << 20

// Fragment is one outgoing UDP datagram's worth of header + payload,
// produced by FragmentFrame without touching the network — kept separate so the
// fragmentation contract (testable property: framing round-trip) can be
// unit tested without a socket.
type Fragment struct {
	Header  wire.VideoHeader
	Payload []byte
}

// FragmentFrame splits one encoded access unit into MAX_PAYLOAD_SIZE-safe
// fragments sharing frameNumber, with fragment_idx running 0..count-1, the
// first carrying FLAG_START_OF_FRAME, the last FLAG_END_OF_FRAME, and every
// fragment carrying FLAG_KEYFRAME when isKeyframe is set. nextSeq is the
// first sequence number to assign; sequence increments (and wraps mod
// 2^16) across every returned fragment.
func FragmentFrame(data []byte, frameNumber uint16, nextSeq uint16, isKeyframe bool) ([]Fragment, uint16) {
	if len(data) == 0 {
		return nil, nextSeq
	}
	count := (len(data) + wire.MaxPayloadSize - 1) / wire.MaxPayloadSize
	frags := make([]Fragment, 0, count)
	seq := nextSeq

	for idx := 0; idx < count; idx++ {
		start := idx * wire.MaxPayloadSize
		end := start + wire.MaxPayloadSize
		if end > len(data) {
			end = len(data)
		}
		payload := data[start:end]

		var flags uint8
		if isKeyframe {
			flags |= wire.FlagKeyframe
		}
		if idx == 0 {
			flags |= wire.FlagStartOfFrame
		}
		if idx == count-1 {
			flags |= wire.FlagEndOfFrame
		}

		frags = append(frags, Fragment{
			Header: wire.VideoHeader{
				Magic:       wire.VideoMagic,
				Sequence:    seq,
				FrameNumber: frameNumber,
				Flags:       flags,
				FragmentIdx: uint16(idx),
				FragmentCnt: uint16(count),
				PayloadLen:  uint16(len(payload)),
			},
			Payload: payload,
		})
		seq++
	}
	return frags, seq
}

// VideoSender owns the UDP socket that streams fragmented, paced video to
// the single bound client. It is single-owner: only the session
// controller's scheduler thread calls into it.
type VideoSender struct {
	conn       *net.UDPConn
	clientAddr *net.UDPAddr
	pacingMode pacing.Mode

	seq         uint16
	frameNumber uint16
}

// NewVideoSender opens a UDP socket on port and configures its send buffer.
func NewVideoSender(port int, mode pacing.Mode) (*VideoSender, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, types.NewError(types.ErrTransport, "video_sender.listen", err)
	}
	if err := conn.SetWriteBuffer(sendBufferBytes); err != nil {
		log.Printf("video sender: SetWriteBuffer failed (non-fatal): %v", err)
	}
	return &VideoSender{conn: conn, pacingMode: mode}, nil
}

// SetClient binds the sender to a new client address and resets the
// per-session frame/sequence counters, matching the bind-cycle contract.
func (vs *VideoSender) SetClient(addr *net.UDPAddr) {
	vs.clientAddr = addr
	vs.seq = 0
	vs.frameNumber = 0
}

// Send fragments and transmits one encoded access unit, pacing bursts per
// the resolved mode. A send failure on any one fragment is logged and
// skipped (UDP is best-effort); Send only returns an error if there is no
// bound client.
func (vs *VideoSender) Send(ev types.EncodedVideo) error {
	if vs.clientAddr == nil {
		return fmt.Errorf("video sender: no client bound")
	}

	frags, nextSeq := FragmentFrame(ev.Data, vs.frameNumber, vs.seq, ev.IsKeyframe)
	vs.seq = nextSeq
	vs.frameNumber++

	params := pacing.Resolve(vs.pacingMode, vs.clientAddr.IP, len(ev.Data), ev.IsKeyframe)
	gate := pacing.NewGate(params, len(ev.Data))

	ctx := context.Background()
	headerBuf := make([]byte, wire.VideoHeaderSize)
	for _, f := range frags {
		if err := gate.Wait(ctx); err != nil {
			log.Printf("video sender: pacing wait: %v", err)
		}
		f.Header.Marshal(headerBuf)
		datagram := append(append([]byte(nil), headerBuf...), f.Payload...)
		if _, err := vs.conn.WriteToUDP(datagram, vs.clientAddr); err != nil {
			log.Printf("video sender: sendto failed (dropped, best-effort): %v", err)
		}
	}
	return nil
}

func (vs *VideoSender) Close() error {
	return vs.conn.Close()
}
