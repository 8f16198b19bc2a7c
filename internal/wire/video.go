// Package wire packs and unpacks the four on-the-wire layouts the design
// defines: video fragment headers, audio packet headers, control-channel
// framing, and input events. Every struct here round-trips through
// encoding/binary big-endian (video/audio/control) or a fixed little-endian
// layout (input), never through encoding/gob or reflection-based codecs, to
// match byte-for-byte what a non-Go client must also parse.
package wire

import (
	"encoding/binary"
	"fmt"
)

const (
	VideoMagic = 0x5354 // "ST"
	AudioMagic = 0x5341 // "SA"

	VideoHeaderSize = 16
	AudioHeaderSize = 12
	InputEventSize  = 28

	MaxPayloadSize = 1200
)

// Video fragment flag bits.
const (
	FlagKeyframe     = 1 << 0
	FlagStartOfFrame = 1 << 1
	FlagEndOfFrame   = 1 << 2
)

// VideoHeader is the 16-byte fragment header prepended to every UDP video
// datagram.
type VideoHeader struct {
	Magic        uint16
	Sequence     uint16
	FrameNumber  uint16
	Flags        uint8
	Reserved     uint8
	FragmentIdx  uint16
	FragmentCnt  uint16
	PayloadLen   uint16
	Reserved2    uint16
}

// Marshal writes the 16-byte header into dst, which must be at least
// VideoHeaderSize bytes.
func (h VideoHeader) Marshal(dst []byte) {
	binary.BigEndian.PutUint16(dst[0:2], h.Magic)
	binary.BigEndian.PutUint16(dst[2:4], h.Sequence)
	binary.BigEndian.PutUint16(dst[4:6], h.FrameNumber)
	dst[6] = h.Flags
	dst[7] = h.Reserved
	binary.BigEndian.PutUint16(dst[8:10], h.FragmentIdx)
	binary.BigEndian.PutUint16(dst[10:12], h.FragmentCnt)
	binary.BigEndian.PutUint16(dst[12:14], h.PayloadLen)
	binary.BigEndian.PutUint16(dst[14:16], h.Reserved2)
}

// UnmarshalVideoHeader parses the 16-byte fragment header from src.
func UnmarshalVideoHeader(src []byte) (VideoHeader, error) {
	if len(src) < VideoHeaderSize {
		return VideoHeader{}, fmt.Errorf("video header short read: %d bytes", len(src))
	}
	h := VideoHeader{
		Magic:       binary.BigEndian.Uint16(src[0:2]),
		Sequence:    binary.BigEndian.Uint16(src[2:4]),
		FrameNumber: binary.BigEndian.Uint16(src[4:6]),
		Flags:       src[6],
		Reserved:    src[7],
		FragmentIdx: binary.BigEndian.Uint16(src[8:10]),
		FragmentCnt: binary.BigEndian.Uint16(src[10:12]),
		PayloadLen:  binary.BigEndian.Uint16(src[12:14]),
		Reserved2:   binary.BigEndian.Uint16(src[14:16]),
	}
	if h.Magic != VideoMagic {
		return VideoHeader{}, fmt.Errorf("bad video magic: 0x%04x", h.Magic)
	}
	return h, nil
}
