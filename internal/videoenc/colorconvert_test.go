package videoenc

import "testing"

func solidFrame(width, height int, b, g, r, a byte) []byte {
	buf := make([]byte, width*height*4)
	for i := 0; i < width*height; i++ {
		buf[i*4+0], buf[i*4+1], buf[i*4+2], buf[i*4+3] = b, g, r, a
	}
	return buf
}

func TestColorConvertWhiteLuma(t *testing.T) {
	frame := solidFrame(4, 4, 255, 255, 255, 255)
	out := ColorConvertBGRAToNV12(frame, 4, 4, 16)
	for i, y := range out[:16] {
		if y != 235 {
			t.Fatalf("y[%d] = %d, want 235 for full-range white", i, y)
		}
	}
}

func TestColorConvertBlackLuma(t *testing.T) {
	frame := solidFrame(4, 4, 0, 0, 0, 255)
	out := ColorConvertBGRAToNV12(frame, 4, 4, 16)
	for i, y := range out[:16] {
		if y != 16 {
			t.Fatalf("y[%d] = %d, want 16 for full-range black", i, y)
		}
	}
}

func TestColorConvertNeutralChroma(t *testing.T) {
	// Equal R=G=B (grey) must produce U=V=128 (no colour).
	frame := solidFrame(4, 4, 128, 128, 128, 255)
	out := ColorConvertBGRAToNV12(frame, 4, 4, 16)
	uv := out[16:]
	for i := 0; i < len(uv); i++ {
		if uv[i] != 128 {
			t.Fatalf("uv[%d] = %d, want 128 for grey input", i, uv[i])
		}
	}
}

func TestColorConvertDeterministic(t *testing.T) {
	frame := make([]byte, 8*8*4)
	for i := range frame {
		frame[i] = byte(i * 7 % 256)
	}
	a := ColorConvertBGRAToNV12(frame, 8, 8, 32)
	b := ColorConvertBGRAToNV12(frame, 8, 8, 32)
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("byte %d differs across runs: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestColorConvertOutputSize(t *testing.T) {
	frame := solidFrame(6, 4, 10, 20, 30, 255)
	out := ColorConvertBGRAToNV12(frame, 6, 4, 24)
	want := 6*4 + (6*4)/2
	if len(out) != want {
		t.Fatalf("output size = %d, want %d", len(out), want)
	}
}
