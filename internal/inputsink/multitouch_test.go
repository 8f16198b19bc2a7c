package inputsink

import (
	"testing"

	"inkstream/internal/wire"
)

func TestMultiTouchAssignsDistinctSlots(t *testing.T) {
	var m MultiTouchState
	r1 := m.Apply(wire.InputEvent{Type: wire.EventTouchDown, PointerID: 0}, nil)
	r2 := m.Apply(wire.InputEvent{Type: wire.EventTouchDown, PointerID: 1}, nil)

	if r1.Slot.Slot == r2.Slot.Slot {
		t.Fatalf("expected distinct slots, both got %d", r1.Slot.Slot)
	}
	if r2.ActiveCount != 2 {
		t.Fatalf("got ActiveCount=%d, want 2", r2.ActiveCount)
	}
}

func TestMultiTouchUpFreesSlot(t *testing.T) {
	var m MultiTouchState
	m.Apply(wire.InputEvent{Type: wire.EventTouchDown, PointerID: 7}, nil)
	rep := m.Apply(wire.InputEvent{Type: wire.EventTouchUp, PointerID: 7}, nil)
	if rep.Slot.Active {
		t.Fatalf("expected slot released on touch up")
	}
	if rep.ActiveCount != 0 {
		t.Fatalf("got ActiveCount=%d, want 0", rep.ActiveCount)
	}

	// Slot must be reusable by a new pointer.
	rep2 := m.Apply(wire.InputEvent{Type: wire.EventTouchDown, PointerID: 9}, nil)
	if rep2.Slot.Slot != rep.Slot.Slot {
		t.Fatalf("expected freed slot to be reused")
	}
}

func TestMultiTouchFiveFingerCardinality(t *testing.T) {
	var m MultiTouchState
	var last MultiTouchReport
	for i := uint8(0); i < MaxTouchSlots; i++ {
		last = m.Apply(wire.InputEvent{Type: wire.EventTouchDown, PointerID: i}, nil)
	}
	if last.ActiveCount != MaxTouchSlots {
		t.Fatalf("got ActiveCount=%d, want %d", last.ActiveCount, MaxTouchSlots)
	}
}

func TestMultiTouchSixthContactDropped(t *testing.T) {
	var m MultiTouchState
	for i := uint8(0); i < MaxTouchSlots; i++ {
		m.Apply(wire.InputEvent{Type: wire.EventTouchDown, PointerID: i}, nil)
	}
	rep := m.Apply(wire.InputEvent{Type: wire.EventTouchDown, PointerID: 99}, nil)
	if rep.Updated {
		t.Fatalf("sixth contact should be dropped, not assigned a slot")
	}
	if rep.ActiveCount != MaxTouchSlots {
		t.Fatalf("got ActiveCount=%d, want %d", rep.ActiveCount, MaxTouchSlots)
	}
}

func TestMultiTouchTrackingIDMatchesSlotIndex(t *testing.T) {
	var m MultiTouchState
	for i := uint8(0); i < MaxTouchSlots; i++ {
		rep := m.Apply(wire.InputEvent{Type: wire.EventTouchDown, PointerID: i}, nil)
		if rep.Slot.TrackingID != rep.Slot.Slot {
			t.Fatalf("pointer %d: got TrackingID=%d for slot %d, want them equal", i, rep.Slot.TrackingID, rep.Slot.Slot)
		}
	}
}

func TestMultiTouchTrackingIDStaysBoundedAcrossManyContacts(t *testing.T) {
	var m MultiTouchState
	for pointerID := uint8(0); pointerID < 100; pointerID++ {
		down := m.Apply(wire.InputEvent{Type: wire.EventTouchDown, PointerID: pointerID}, nil)
		if down.Slot.TrackingID < 0 || down.Slot.TrackingID >= MaxTouchSlots {
			t.Fatalf("pointer %d: got TrackingID=%d, want it within 0..%d", pointerID, down.Slot.TrackingID, MaxTouchSlots-1)
		}
		m.Apply(wire.InputEvent{Type: wire.EventTouchUp, PointerID: pointerID}, nil)
	}
}

func TestMultiTouchResetReleasesAllSlots(t *testing.T) {
	var m MultiTouchState
	m.Apply(wire.InputEvent{Type: wire.EventTouchDown, PointerID: 0}, nil)
	m.Apply(wire.InputEvent{Type: wire.EventTouchDown, PointerID: 1}, nil)

	updates := m.Reset()
	if len(updates) != 2 {
		t.Fatalf("got %d release updates, want 2", len(updates))
	}
	if m.activeCount() != 0 {
		t.Fatalf("expected all slots inactive after Reset")
	}
}
