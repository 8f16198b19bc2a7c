package capture

import (
	"time"

	"inkstream/internal/types"
)

// SyntheticCapture is a deterministic animated-gradient VideoCapture used
// by tests and on platforms without a real X11/PipeWire backend. It
// reports PendingChangeCount()==1 every frame (always "changed") unless
// StaticAfter frames have elapsed, letting adaptive-FPS tests exercise the
// idle-ramp-down path without a real capture source.
type SyntheticCapture struct {
	Width, Height int
	StaticAfter   int // 0 = never go static

	frame int
	buf   []byte
}

func NewSyntheticCapture(width, height int) *SyntheticCapture {
	return &SyntheticCapture{Width: width, Height: height}
}

func (s *SyntheticCapture) Init(displayHint string) (int, int, error) {
	s.buf = make([]byte, s.Width*s.Height*4)
	return s.Width, s.Height, nil
}

func (s *SyntheticCapture) CaptureFrame() (types.RawFrame, error) {
	shift := byte(s.frame)
	for i := 0; i < s.Width*s.Height; i++ {
		s.buf[i*4+0] = shift
		s.buf[i*4+1] = byte(i)
		s.buf[i*4+2] = byte(i >> 8)
		s.buf[i*4+3] = 0xFF
	}
	s.frame++
	return types.RawFrame{
		Data:        s.buf,
		Width:       s.Width,
		Height:      s.Height,
		Stride:      s.Width * 4,
		TimestampUs: time.Now().UnixMicro(),
	}, nil
}

func (s *SyntheticCapture) PendingChangeCount() int {
	if s.StaticAfter > 0 && s.frame > s.StaticAfter {
		return 0
	}
	return 1
}

func (s *SyntheticCapture) Shutdown() {}
