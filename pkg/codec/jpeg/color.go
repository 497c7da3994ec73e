package jpeg

import (
	"math"

	"github.com/jpfielding/media.go/pkg/media"
)

// clamp rounds a level-restored sample into 0..255.
func clamp(v float32) uint8 {
	r := math.Round(float64(v))
	switch {
	case r < 0:
		return 0
	case r > 255:
		return 255
	}
	return uint8(r)
}

// isRGB reports whether three components carry RGB rather than YCbCr.
func (d *decoder) isRGB() bool {
	if d.adobe {
		return d.adobeTransform == 0
	}
	return d.comps[0].id == 'R' && d.comps[1].id == 'G' && d.comps[2].id == 'B'
}

// convert point-samples every component at the output pixel and converts
// to RGBA.
func (d *decoder) convert() *media.ImageData {
	img := media.NewImage(d.width, d.height)
	out := img.Data

	if len(d.comps) == 1 {
		c := &d.comps[0]
		for y := 0; y < d.height; y++ {
			row := c.plane[y*c.width:]
			for x := 0; x < d.width; x++ {
				g := clamp(row[x] + 128)
				o := (y*d.width + x) * 4
				out[o], out[o+1], out[o+2], out[o+3] = g, g, g, 255
			}
		}
		return img
	}

	hmax, vmax := 1, 1
	for _, c := range d.comps {
		hmax = max(hmax, c.h)
		vmax = max(vmax, c.v)
	}
	c0, c1, c2 := &d.comps[0], &d.comps[1], &d.comps[2]
	rgb := d.isRGB()
	for y := 0; y < d.height; y++ {
		r0 := (y * c0.v / vmax) * c0.width
		r1 := (y * c1.v / vmax) * c1.width
		r2 := (y * c2.v / vmax) * c2.width
		for x := 0; x < d.width; x++ {
			a := c0.plane[r0+x*c0.h/hmax] + 128
			b := c1.plane[r1+x*c1.h/hmax]
			e := c2.plane[r2+x*c2.h/hmax]
			o := (y*d.width + x) * 4
			if rgb {
				out[o], out[o+1], out[o+2] = clamp(a), clamp(b+128), clamp(e+128)
			} else {
				// BT.601 full range; b is Cb, e is Cr, both centered on zero
				out[o] = clamp(a + 1.402*e)
				out[o+1] = clamp(a - 0.344136*b - 0.714136*e)
				out[o+2] = clamp(a + 1.772*b)
			}
			out[o+3] = 255
		}
	}
	return img
}
