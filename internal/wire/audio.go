package wire

import (
	"encoding/binary"
	"fmt"
)

// AudioHeader is the 12-byte header prepended to every UDP audio datagram.
// Audio packets are never fragmented: one Opus frame is one datagram.
type AudioHeader struct {
	Magic      uint16
	Sequence   uint16
	Timestamp  uint32 // sample units at the session sample rate, wraps
	PayloadLen uint16
	Reserved   uint16
}

func (h AudioHeader) Marshal(dst []byte) {
	binary.BigEndian.PutUint16(dst[0:2], h.Magic)
	binary.BigEndian.PutUint16(dst[2:4], h.Sequence)
	binary.BigEndian.PutUint32(dst[4:8], h.Timestamp)
	binary.BigEndian.PutUint16(dst[8:10], h.PayloadLen)
	binary.BigEndian.PutUint16(dst[10:12], h.Reserved)
}

func UnmarshalAudioHeader(src []byte) (AudioHeader, error) {
	if len(src) < AudioHeaderSize {
		return AudioHeader{}, fmt.Errorf("audio header short read: %d bytes", len(src))
	}
	h := AudioHeader{
		Magic:      binary.BigEndian.Uint16(src[0:2]),
		Sequence:   binary.BigEndian.Uint16(src[2:4]),
		Timestamp:  binary.BigEndian.Uint32(src[4:8]),
		PayloadLen: binary.BigEndian.Uint16(src[8:10]),
		Reserved:   binary.BigEndian.Uint16(src[10:12]),
	}
	if h.Magic != AudioMagic {
		return AudioHeader{}, fmt.Errorf("bad audio magic: 0x%04x", h.Magic)
	}
	return h, nil
}
