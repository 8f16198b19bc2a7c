package inputsink

import "inkstream/internal/wire"

// StylusTool identifies which end of the pen last reported events.
type StylusTool int

const (
	ToolNone StylusTool = iota
	ToolPen
	ToolRubber
)

// StylusReport describes what a uinput backend must do in response to one
// input event: which BTN_TOOL_* / BTN_TOUCH lines changed state, and the
// absolute position/pressure/tilt to write regardless.
type StylusReport struct {
	ToolChanged    bool
	Tool           StylusTool
	InRangeChanged bool
	InRange        bool
	TipDownChanged bool
	TipDown        bool

	X, Y               int
	Pressure           float32
	TiltX, TiltY       float32
}

// StylusState tracks in_range/tip_down/tool across a stream of stylus
// events. STYLUS_DOWN and STYLUS_MOVE assert in_range and tip_down;
// STYLUS_UP and STYLUS_HOVER assert in_range but release tip_down — a pen
// lifted off the surface is still being tracked by the digitizer, it just
// isn't touching. Only Reset (client disconnect) fully releases in_range.
type StylusState struct {
	tool    StylusTool
	inRange bool
	tipDown bool
}

// Apply advances the state machine for one stylus event and reports the
// uinput-level deltas the caller must emit.
func (s *StylusState) Apply(ev wire.InputEvent, tr *CoordinateTransform) StylusReport {
	tool := ToolPen
	if ev.Buttons&wire.ButtonEraser != 0 {
		tool = ToolRubber
	}

	wantInRange := true
	wantTipDown := false
	switch ev.Type {
	case wire.EventStylusDown, wire.EventStylusMove:
		wantTipDown = true
	case wire.EventStylusUp, wire.EventStylusHover:
		wantTipDown = false
	}

	rep := StylusReport{
		Pressure: ev.Pressure,
		TiltX:    ev.TiltX,
		TiltY:    ev.TiltY,
	}
	if tr != nil {
		rep.X, rep.Y = tr.Transform(float64(ev.X), float64(ev.Y))
	}

	if tool != s.tool {
		rep.ToolChanged = true
		rep.Tool = tool
		s.tool = tool
	} else {
		rep.Tool = tool
	}
	if wantInRange != s.inRange {
		rep.InRangeChanged = true
		s.inRange = wantInRange
	}
	rep.InRange = s.inRange
	if wantTipDown != s.tipDown {
		rep.TipDownChanged = true
		s.tipDown = wantTipDown
	}
	rep.TipDown = s.tipDown

	return rep
}

// Reset releases in_range/tip_down/tool unconditionally. Called when the
// client disconnects so a stuck-down pen never leaks into the next
// session.
func (s *StylusState) Reset() StylusReport {
	rep := StylusReport{
		ToolChanged:    s.tool != ToolNone,
		Tool:           ToolNone,
		InRangeChanged: s.inRange,
		TipDownChanged: s.tipDown,
	}
	s.tool = ToolNone
	s.inRange = false
	s.tipDown = false
	return rep
}
