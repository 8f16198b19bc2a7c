// Package videoenc implements BGRA->NV12 colour conversion and the
// hardware video encoder. Colour conversion is pure Go so it is
// deterministically testable without cgo/hardware; the encoder backend
// (encoder_linux.go) wraps FFmpeg via cgo, generalized to a
// probe-and-select algorithm and rate-control table.
package videoenc

// ColorConvertBGRAToNV12 converts one BGRA8 frame into an NV12 buffer
// (a Y plane of width*height bytes followed by an interleaved UV plane of
// width*height/2 bytes), using BT.601 full-range integer coefficients. It
// is bit-for-bit deterministic given identical inputs, grounded on
// original_source/server/src/encoder/vaapi_encoder.cpp's
// convert_bgra_to_nv12_fast: Y is computed per pixel; U/V are computed by
// first averaging each 2x2 BGRA block ("average-then-convert") and only
// then applying the chroma formula.
func ColorConvertBGRAToNV12(bgra []byte, width, height, stride int) []byte {
	ySize := width * height
	out := make([]byte, ySize+ySize/2)
	yPlane := out[:ySize]
	uvPlane := out[ySize:]

	for y := 0; y < height; y++ {
		row := bgra[y*stride : y*stride+width*4]
		yRow := yPlane[y*width : (y+1)*width]
		for x := 0; x < width; x++ {
			b := int(row[x*4+0])
			g := int(row[x*4+1])
			r := int(row[x*4+2])
			yRow[x] = byte(clamp255(((66*r + 129*g + 25*b + 128) >> 8) + 16))
		}
	}

	for by := 0; by < height; by += 2 {
		row0 := bgra[by*stride:]
		row1 := row0
		if by+1 < height {
			row1 = bgra[(by+1)*stride:]
		}
		uvRow := uvPlane[(by/2)*width:]
		for bx := 0; bx < width; bx += 2 {
			b0, g0, r0 := int(row0[bx*4+0]), int(row0[bx*4+1]), int(row0[bx*4+2])
			var b1, g1, r1, b2, g2, r2 int
			if bx+1 < width {
				b1, g1, r1 = int(row0[(bx+1)*4+0]), int(row0[(bx+1)*4+1]), int(row0[(bx+1)*4+2])
			} else {
				b1, g1, r1 = b0, g0, r0
			}
			b2, g2, r2 = int(row1[bx*4+0]), int(row1[bx*4+1]), int(row1[bx*4+2])
			var b3, g3, r3 int
			if bx+1 < width {
				b3, g3, r3 = int(row1[(bx+1)*4+0]), int(row1[(bx+1)*4+1]), int(row1[(bx+1)*4+2])
			} else {
				b3, g3, r3 = b2, g2, r2
			}

			r := (r0 + r1 + r2 + r3) >> 2
			g := (g0 + g1 + g2 + g3) >> 2
			b := (b0 + b1 + b2 + b3) >> 2

			u := clamp255(((-38*r - 74*g + 112*b + 128) >> 8) + 128)
			v := clamp255(((112*r - 94*g - 18*b + 128) >> 8) + 128)

			idx := bx
			uvRow[idx] = byte(u)
			uvRow[idx+1] = byte(v)
		}
	}

	return out
}

func clamp255(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
