package inputsink

import "testing"

func TestTransformStretchIdentity(t *testing.T) {
	tr := NewCoordinateTransform(1920, 1080, 1920, 1080, ModeStretch, false)
	x, y := tr.Transform(0.5, 0.5)
	if x != 960 || y != 540 {
		t.Fatalf("got (%d,%d), want (960,540)", x, y)
	}
}

func TestTransformStretchCorners(t *testing.T) {
	tr := NewCoordinateTransform(1920, 1080, 1920, 1080, ModeStretch, false)
	if x, y := tr.Transform(0, 0); x != 0 || y != 0 {
		t.Fatalf("origin got (%d,%d)", x, y)
	}
	if x, y := tr.Transform(1, 1); x != 1920 || y != 1080 {
		t.Fatalf("far corner got (%d,%d)", x, y)
	}
}

func TestTransformLetterboxPortraitTabletOnLandscapeScreen(t *testing.T) {
	// Tablet is narrower (portrait) than the screen (landscape): letterbox
	// maps the screen onto the tablet's full width and a centred horizontal
	// band of its height (unmapped bars above and below), so the center of
	// the tablet maps to the center of the screen.
	tr := NewCoordinateTransform(1920, 1080, 1080, 1920, ModeLetterbox, false)
	x, y := tr.Transform(0.5, 0.5)
	if x != 960 || y != 540 {
		t.Fatalf("got (%d,%d), want (960,540)", x, y)
	}
}

func TestTransformClampsOutOfRange(t *testing.T) {
	tr := NewCoordinateTransform(1920, 1080, 1080, 1920, ModeLetterbox, false)
	x, y := tr.Transform(-1, -1)
	if x != 0 || y != 0 {
		t.Fatalf("got (%d,%d), want clamped (0,0)", x, y)
	}
	x, y = tr.Transform(2, 2)
	if x != 1920 || y != 1080 {
		t.Fatalf("got (%d,%d), want clamped (1920,1080)", x, y)
	}
}

func TestTransformRotate90(t *testing.T) {
	tr := NewCoordinateTransform(1920, 1080, 1080, 1920, ModeStretch, true)
	// Center should still map to center regardless of rotation.
	x, y := tr.Transform(0.5, 0.5)
	if x != 960 || y != 540 {
		t.Fatalf("got (%d,%d), want (960,540)", x, y)
	}
}
