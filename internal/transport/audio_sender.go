package transport

import (
	"log"
	"net"
	"sync"

	"inkstream/internal/types"
	"inkstream/internal/wire"
)

// AudioSender owns the UDP socket that streams single-datagram Opus
// packets. Unlike VideoSender it is shared: the audio capture thread
// writes through it while the session controller thread may update the
// client address on bind/teardown, so access is guarded by one mutex per
// the concurrency design (held only across SetClient/Send, never across a
// blocking call other than the non-blocking sendto itself).
type AudioSender struct {
	mu         sync.Mutex
	conn       *net.UDPConn
	clientAddr *net.UDPAddr
	seq        uint16
}

func NewAudioSender(port int) (*AudioSender, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, types.NewError(types.ErrTransport, "audio_sender.listen", err)
	}
	if err := conn.SetWriteBuffer(sendBufferBytes); err != nil {
		log.Printf("audio sender: SetWriteBuffer failed (non-fatal): %v", err)
	}
	return &AudioSender{conn: conn}, nil
}

func (as *AudioSender) SetClient(addr *net.UDPAddr) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.clientAddr = addr
	as.seq = 0
}

// Send transmits one Opus packet as a single UDP datagram. timestampSamples
// is the running sample-unit timestamp at the session sample rate.
func (as *AudioSender) Send(pkt types.EncodedAudio, timestampSamples uint32) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.clientAddr == nil {
		return nil // no client bound yet; drop silently like a best-effort UDP send
	}
	if len(pkt.Data) > wire.MaxPayloadSize*4 {
		log.Printf("audio sender: packet of %d bytes exceeds sane bound, dropping", len(pkt.Data))
		return nil
	}

	h := wire.AudioHeader{
		Magic:      wire.AudioMagic,
		Sequence:   as.seq,
		Timestamp:  timestampSamples,
		PayloadLen: uint16(len(pkt.Data)),
	}
	as.seq++

	buf := make([]byte, wire.AudioHeaderSize+len(pkt.Data))
	h.Marshal(buf[:wire.AudioHeaderSize])
	copy(buf[wire.AudioHeaderSize:], pkt.Data)

	if _, err := as.conn.WriteToUDP(buf, as.clientAddr); err != nil {
		log.Printf("audio sender: sendto failed (dropped, best-effort): %v", err)
	}
	return nil
}

func (as *AudioSender) Close() error {
	return as.conn.Close()
}
