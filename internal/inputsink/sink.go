package inputsink

import "inkstream/internal/wire"

// backend is satisfied by UInputSink on Linux and its non-Linux stub.
type backend interface {
	ApplyStylus(StylusReport) error
	ApplyTouch(rep MultiTouchReport, wasActiveBefore bool) error
	Shutdown()
}

// Sink owns the stylus and multi-touch state machines and routes decoded
// wire events to the platform uinput backend. It implements
// types.InputSink.
type Sink struct {
	transform *CoordinateTransform
	stylus    StylusState
	touch     MultiTouchState
	backend   backend
}

// NewSink builds a Sink bound to a platform uinput backend already sized
// to the current capture resolution.
func NewSink(transform *CoordinateTransform, b backend) *Sink {
	return &Sink{transform: transform, backend: b}
}

// NewUInputBackedSink wires a CoordinateTransform and the platform's
// uinput backend together: screenW/screenH is the capture resolution the
// virtual devices are sized to, tabletW/tabletH/mode/rotate90 describe the
// negotiated client digitizer.
func NewUInputBackedSink(screenW, screenH, tabletW, tabletH int, mode Mode, rotate90 bool) (*Sink, error) {
	b, err := NewUInputSink(screenW, screenH)
	if err != nil {
		return nil, err
	}
	tr := NewCoordinateTransform(screenW, screenH, tabletW, tabletH, mode, rotate90)
	return NewSink(tr, b), nil
}

// Dispatch advances the appropriate state machine for ev and writes the
// resulting uinput deltas.
func (s *Sink) Dispatch(ev wire.InputEvent) error {
	switch ev.Type {
	case wire.EventStylusDown, wire.EventStylusMove, wire.EventStylusUp, wire.EventStylusHover:
		return s.backend.ApplyStylus(s.stylus.Apply(ev, s.transform))
	case wire.EventTouchDown, wire.EventTouchMove, wire.EventTouchUp:
		wasActive := s.touch.findByPointer(ev.PointerID) >= 0
		rep := s.touch.Apply(ev, s.transform)
		return s.backend.ApplyTouch(rep, wasActive)
	}
	return nil
}

// Reset releases any stuck stylus/touch state, for client disconnect.
func (s *Sink) Reset() error {
	if err := s.backend.ApplyStylus(s.stylus.Reset()); err != nil {
		return err
	}
	updates := s.touch.Reset()
	for i, upd := range updates {
		// Report the contacts still held after this release so the backend
		// steps the BTN_TOOL_* line down one count at a time.
		rep := MultiTouchReport{Updated: true, Slot: upd, ActiveCount: len(updates) - 1 - i}
		if err := s.backend.ApplyTouch(rep, true); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown tears down the platform backend devices.
func (s *Sink) Shutdown() { s.backend.Shutdown() }
