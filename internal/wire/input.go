package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Input event type taxonomy.
const (
	EventTouchDown  = 0
	EventTouchMove  = 1
	EventTouchUp    = 2
	EventStylusDown = 3
	EventStylusMove = 4
	EventStylusUp   = 5
	EventStylusHover = 6
	EventKeyDown    = 7
	EventKeyUp      = 8
)

// Button bitmask fields within InputEvent.Buttons.
const (
	ButtonSecondary = 1 << 1
	ButtonTertiary  = 1 << 2
	ButtonEraser    = 1 << 5
)

// InputEvent is the 28-byte packed, little-endian event the client sends
// over the TCP input channel.
type InputEvent struct {
	Type      uint8
	PointerID uint8
	X         float32
	Y         float32
	Pressure  float32
	TiltX     float32
	TiltY     float32
	Buttons   uint16
	Timestamp uint32
}

func UnmarshalInputEvent(src []byte) (InputEvent, error) {
	if len(src) != InputEventSize {
		return InputEvent{}, fmt.Errorf("input event is %d bytes, want %d", len(src), InputEventSize)
	}
	return InputEvent{
		Type:      src[0],
		PointerID: src[1],
		X:         math.Float32frombits(binary.LittleEndian.Uint32(src[2:6])),
		Y:         math.Float32frombits(binary.LittleEndian.Uint32(src[6:10])),
		Pressure:  math.Float32frombits(binary.LittleEndian.Uint32(src[10:14])),
		TiltX:     math.Float32frombits(binary.LittleEndian.Uint32(src[14:18])),
		TiltY:     math.Float32frombits(binary.LittleEndian.Uint32(src[18:22])),
		Buttons:   binary.LittleEndian.Uint16(src[22:24]),
		Timestamp: binary.LittleEndian.Uint32(src[24:28]),
	}, nil
}

func (e InputEvent) Marshal() []byte {
	buf := make([]byte, InputEventSize)
	buf[0] = e.Type
	buf[1] = e.PointerID
	binary.LittleEndian.PutUint32(buf[2:6], math.Float32bits(e.X))
	binary.LittleEndian.PutUint32(buf[6:10], math.Float32bits(e.Y))
	binary.LittleEndian.PutUint32(buf[10:14], math.Float32bits(e.Pressure))
	binary.LittleEndian.PutUint32(buf[14:18], math.Float32bits(e.TiltX))
	binary.LittleEndian.PutUint32(buf[18:22], math.Float32bits(e.TiltY))
	binary.LittleEndian.PutUint16(buf[22:24], e.Buttons)
	binary.LittleEndian.PutUint32(buf[24:28], e.Timestamp)
	return buf
}
