package inputsink

import "inkstream/internal/wire"

// MaxTouchSlots is the number of concurrent touch contacts the virtual
// device tracks, matching the five-finger gesture vocabulary the
// uinput backend exposes.
const MaxTouchSlots = 5

// touchSlot tracks one ABS_MT tracking-ID slot.
type touchSlot struct {
	active     bool
	pointerID  uint8
	trackingID int
	x, y       int
}

// SlotUpdate is one slot's state after an event, for the uinput backend to
// write as an ABS_MT_SLOT/ABS_MT_TRACKING_ID/ABS_MT_POSITION_* sequence.
type SlotUpdate struct {
	Slot       int
	Active     bool
	TrackingID int
	X, Y       int
}

// MultiTouchReport is what one touch event produces: the slot that
// changed (if any) and the BTN_TOOL_* finger-count line the caller should
// now assert, per the 1..5 finger cardinality mapping.
type MultiTouchReport struct {
	Updated     bool
	Slot        SlotUpdate
	ActiveCount int
}

// MultiTouchState assigns client pointer IDs to a fixed pool of tracking
// slots and reports the live finger count so the uinput backend can
// select BTN_TOOL_FINGER/DOUBLETAP/TRIPLETAP/QUADTAP/QUINTTAP. Grounded on
// original_source/server/src/input/uinput_backend.cpp's send_touch slot
// allocation and tool-button cardinality table.
type MultiTouchState struct {
	slots [MaxTouchSlots]touchSlot
}

// Apply advances the state machine for one touch event.
func (m *MultiTouchState) Apply(ev wire.InputEvent, tr *CoordinateTransform) MultiTouchReport {
	x, y := 0, 0
	if tr != nil {
		x, y = tr.Transform(float64(ev.X), float64(ev.Y))
	}

	switch ev.Type {
	case wire.EventTouchDown:
		idx := m.findByPointer(ev.PointerID)
		if idx < 0 {
			idx = m.findFree()
		}
		if idx < 0 {
			// No free slot: drop the contact, matching a five-finger
			// limited digitizer silently ignoring a sixth touch.
			return MultiTouchReport{ActiveCount: m.activeCount()}
		}
		// tracking_id = slot index, per the digitizer's contract: the set of
		// active tracking IDs must stay within {0..MaxTouchSlots-1}.
		m.slots[idx] = touchSlot{active: true, pointerID: ev.PointerID, trackingID: idx, x: x, y: y}
		return m.report(idx)

	case wire.EventTouchMove:
		idx := m.findByPointer(ev.PointerID)
		if idx < 0 {
			return MultiTouchReport{ActiveCount: m.activeCount()}
		}
		m.slots[idx].x, m.slots[idx].y = x, y
		return m.report(idx)

	case wire.EventTouchUp:
		idx := m.findByPointer(ev.PointerID)
		if idx < 0 {
			return MultiTouchReport{ActiveCount: m.activeCount()}
		}
		m.slots[idx].active = false
		rep := MultiTouchReport{
			Updated: true,
			Slot:    SlotUpdate{Slot: idx, Active: false, TrackingID: -1, X: x, Y: y},
		}
		m.slots[idx] = touchSlot{}
		rep.ActiveCount = m.activeCount()
		return rep
	}
	return MultiTouchReport{ActiveCount: m.activeCount()}
}

// Reset releases every tracked contact, for client disconnect.
func (m *MultiTouchState) Reset() []SlotUpdate {
	var updates []SlotUpdate
	for i := range m.slots {
		if m.slots[i].active {
			updates = append(updates, SlotUpdate{Slot: i, Active: false, TrackingID: -1})
		}
		m.slots[i] = touchSlot{}
	}
	return updates
}

func (m *MultiTouchState) report(idx int) MultiTouchReport {
	s := m.slots[idx]
	return MultiTouchReport{
		Updated:     true,
		Slot:        SlotUpdate{Slot: idx, Active: true, TrackingID: s.trackingID, X: s.x, Y: s.y},
		ActiveCount: m.activeCount(),
	}
}

func (m *MultiTouchState) findByPointer(pointerID uint8) int {
	for i := range m.slots {
		if m.slots[i].active && m.slots[i].pointerID == pointerID {
			return i
		}
	}
	return -1
}

func (m *MultiTouchState) findFree() int {
	for i := range m.slots {
		if !m.slots[i].active {
			return i
		}
	}
	return -1
}

func (m *MultiTouchState) activeCount() int {
	n := 0
	for i := range m.slots {
		if m.slots[i].active {
			n++
		}
	}
	return n
}
