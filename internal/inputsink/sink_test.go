package inputsink

import (
	"testing"

	"inkstream/internal/wire"
)

type fakeBackend struct {
	stylusCalls int
	touchCalls  int
	lastTouch   MultiTouchReport
}

func (f *fakeBackend) ApplyStylus(rep StylusReport) error {
	f.stylusCalls++
	return nil
}

func (f *fakeBackend) ApplyTouch(rep MultiTouchReport, wasActiveBefore bool) error {
	f.touchCalls++
	f.lastTouch = rep
	return nil
}

func (f *fakeBackend) Shutdown() {}

func TestSinkRoutesStylusEvents(t *testing.T) {
	fb := &fakeBackend{}
	tr := NewCoordinateTransform(1920, 1080, 1920, 1080, ModeStretch, false)
	sink := NewSink(tr, fb)

	if err := sink.Dispatch(wire.InputEvent{Type: wire.EventStylusDown, X: 0.5, Y: 0.5}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if fb.stylusCalls != 1 || fb.touchCalls != 0 {
		t.Fatalf("got stylusCalls=%d touchCalls=%d, want 1,0", fb.stylusCalls, fb.touchCalls)
	}
}

func TestSinkRoutesTouchEvents(t *testing.T) {
	fb := &fakeBackend{}
	tr := NewCoordinateTransform(1920, 1080, 1920, 1080, ModeStretch, false)
	sink := NewSink(tr, fb)

	if err := sink.Dispatch(wire.InputEvent{Type: wire.EventTouchDown, PointerID: 3, X: 0.25, Y: 0.75}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if fb.touchCalls != 1 {
		t.Fatalf("got touchCalls=%d, want 1", fb.touchCalls)
	}
	if !fb.lastTouch.Slot.Active {
		t.Fatalf("expected slot active on touch down")
	}
}

func TestSinkResetReleasesState(t *testing.T) {
	fb := &fakeBackend{}
	tr := NewCoordinateTransform(1920, 1080, 1920, 1080, ModeStretch, false)
	sink := NewSink(tr, fb)

	sink.Dispatch(wire.InputEvent{Type: wire.EventStylusDown})
	sink.Dispatch(wire.InputEvent{Type: wire.EventTouchDown, PointerID: 1})

	if err := sink.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if fb.stylusCalls != 2 {
		t.Fatalf("got stylusCalls=%d, want 2 (down + reset)", fb.stylusCalls)
	}
	if fb.touchCalls != 2 {
		t.Fatalf("got touchCalls=%d, want 2 (down + reset)", fb.touchCalls)
	}
}
