package media

import (
	"image"
	"image/color"
	"image/draw"
)

// ToNRGBA wraps the raster as an *image.NRGBA without copying.
func (img *ImageData) ToNRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    img.Data,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}

// FromImage converts any image.Image to non-premultiplied RGBA.
func FromImage(src image.Image) *ImageData {
	b := src.Bounds()
	out := NewImage(b.Dx(), b.Dy())
	dst := out.ToNRGBA()
	if n, ok := src.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], n.Pix[n.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return out
	}
	if g, ok := src.(*image.Gray); ok {
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				v := g.GrayAt(b.Min.X+x, b.Min.Y+y).Y
				dst.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 0xFF})
			}
		}
		return out
	}
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return out
}
