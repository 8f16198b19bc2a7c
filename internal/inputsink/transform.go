// Package inputsink implements the InputSink collaborator: the coordinate
// transform from normalized client space to screen pixels, the stylus and
// multi-touch state machines, and (on Linux) the uinput virtual devices
// those state machines drive. Grounded on
// original_source/server/src/input/coord_transform.hpp and
// uinput_backend.cpp.
package inputsink

// Mode selects how the client's tablet aspect ratio maps onto the host
// screen's aspect ratio.
type Mode int

const (
	ModeLetterbox Mode = iota
	ModeFill
	ModeStretch
)

// CoordinateTransform maps normalized client coordinates (0..1) to screen
// pixel coordinates, accounting for a mismatched aspect ratio and an
// optional 90-degree rotation (portrait tablet against a landscape
// screen).
type CoordinateTransform struct {
	screenWidth, screenHeight int
	mode                      Mode
	rotate90                  bool

	scaleX, scaleY   float64
	offsetX, offsetY float64
}

// NewCoordinateTransform computes the letterbox/fill/stretch scale and
// offset once, up front, exactly as
// original_source/.../coord_transform.hpp's calculate_transform does.
func NewCoordinateTransform(screenW, screenH, tabletW, tabletH int, mode Mode, rotate90 bool) *CoordinateTransform {
	t := &CoordinateTransform{
		screenWidth: screenW, screenHeight: screenH,
		mode: mode, rotate90: rotate90,
	}

	screenAspect := float64(screenW) / float64(screenH)
	tabletAspect := float64(tabletW) / float64(tabletH)
	if rotate90 {
		tabletAspect = float64(tabletH) / float64(tabletW)
	}

	switch mode {
	case ModeLetterbox:
		if tabletAspect > screenAspect {
			t.scaleX = screenAspect / tabletAspect
			t.scaleY = 1.0
			t.offsetX = (1.0 - t.scaleX) / 2.0
		} else {
			t.scaleX = 1.0
			t.scaleY = tabletAspect / screenAspect
			t.offsetY = (1.0 - t.scaleY) / 2.0
		}
	case ModeFill:
		if tabletAspect > screenAspect {
			t.scaleX = 1.0
			t.scaleY = tabletAspect / screenAspect
			t.offsetY = (1.0 - t.scaleY) / 2.0
		} else {
			t.scaleX = screenAspect / tabletAspect
			t.scaleY = 1.0
			t.offsetX = (1.0 - t.scaleX) / 2.0
		}
	case ModeStretch:
		t.scaleX, t.scaleY = 1.0, 1.0
	}
	return t
}

// Transform maps one normalized (tx,ty) point to screen pixel coordinates,
// clamping to the visible edge when the point falls outside the mapped
// sub-rectangle.
func (t *CoordinateTransform) Transform(tx, ty float64) (sx, sy int) {
	if t.rotate90 {
		tx, ty = ty, 1.0-tx
	}

	screenX := (tx - t.offsetX) / t.scaleX
	screenY := (ty - t.offsetY) / t.scaleY

	screenX = clamp01(screenX)
	screenY = clamp01(screenY)

	return int(screenX * float64(t.screenWidth)), int(screenY * float64(t.screenHeight))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
