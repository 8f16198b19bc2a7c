//go:build !linux

package inputsink

import (
	"fmt"

	"inkstream/internal/types"
)

// UInputSink is Linux-only; other platforms have no uinput equivalent
// wired up yet.
type UInputSink struct{}

func NewUInputSink(screenW, screenH int) (*UInputSink, error) {
	return nil, types.NewError(types.ErrResourceUnavailable, "inputsink.NewUInputSink", fmt.Errorf("uinput is only available on linux"))
}

func (s *UInputSink) ApplyStylus(rep StylusReport) error { return nil }

func (s *UInputSink) ApplyTouch(rep MultiTouchReport, wasActiveBefore bool) error { return nil }

func (s *UInputSink) Shutdown() {}
