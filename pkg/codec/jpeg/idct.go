package jpeg

import "math"

// cosTable[x][u] = C(u)/2 * cos((2x+1)u*pi/16), with C(0) = 1/sqrt(2).
var cosTable = func() (t [8][8]float32) {
	for x := 0; x < 8; x++ {
		for u := 0; u < 8; u++ {
			c := 1.0
			if u == 0 {
				c = 1 / math.Sqrt2
			}
			t[x][u] = float32(c / 2 * math.Cos(float64(2*x+1)*float64(u)*math.Pi/16))
		}
	}
	return t
}()

// idct is a separable floating point 8x8 inverse DCT. Output samples are
// level shifted by -128 (not yet restored).
func idct(in, out *[64]float32) {
	var tmp [64]float32
	// rows: horizontal frequencies to x
	for v := 0; v < 8; v++ {
		row := in[v*8 : v*8+8]
		for x := 0; x < 8; x++ {
			var s float32
			for u := 0; u < 8; u++ {
				s += cosTable[x][u] * row[u]
			}
			tmp[v*8+x] = s
		}
	}
	// columns: vertical frequencies to y
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			var s float32
			for v := 0; v < 8; v++ {
				s += cosTable[y][v] * tmp[v*8+x]
			}
			out[y*8+x] = s
		}
	}
}
