package jpeg

import (
	"fmt"
	"log/slog"

	"github.com/jpfielding/media.go/pkg/binio"
	"github.com/jpfielding/media.go/pkg/huffman"
	"github.com/jpfielding/media.go/pkg/media"
)

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// allocate sizes each component plane to its 8-aligned sampled dimensions.
func (d *decoder) allocate() (hmax, vmax int) {
	// a lone component is never interleaved; its MCU is one block
	if len(d.comps) == 1 {
		d.comps[0].h, d.comps[0].v = 1, 1
	}
	hmax, vmax = 1, 1
	for _, c := range d.comps {
		hmax = max(hmax, c.h)
		vmax = max(vmax, c.v)
	}
	for i := range d.comps {
		c := &d.comps[i]
		c.width = ceilDiv(ceilDiv(d.width*c.h, hmax), 8) * 8
		c.height = ceilDiv(ceilDiv(d.height*c.v, vmax), 8) * 8
		c.plane = make([]float32, c.width*c.height)
	}
	return hmax, vmax
}

// decodeScan walks the interleaved MCUs of the single baseline scan.
func (d *decoder) decodeScan() error {
	hmax, vmax := d.allocate()
	mcux := ceilDiv(d.width, 8*hmax)
	mcuy := ceilDiv(d.height, 8*vmax)
	total := mcux * mcuy

	br := binio.NewBitReader(d.r)
	var coef [64]float32
	var block [64]float32

	for m := 0; m < total; m++ {
		if d.restartInterval > 0 && m > 0 && m%d.restartInterval == 0 {
			br.AlignToByte()
			for i := range d.comps {
				d.comps[i].pred = 0
			}
		}
		mx, my := m%mcux, m/mcux
		for ci := range d.comps {
			c := &d.comps[ci]
			for by := 0; by < c.v; by++ {
				for bx := 0; bx < c.h; bx++ {
					if err := d.decodeBlock(br, c, &coef); err != nil {
						return fmt.Errorf("jpeg: MCU %d component %d: %w", m, c.id, err)
					}
					idct(&coef, &block)
					c.store(&block, (mx*c.h+bx)*8, (my*c.v+by)*8)
				}
			}
		}
	}
	slog.Debug("jpeg: scan decoded",
		slog.Int("mcus", total),
		slog.Int("restarts", br.Restarts()))
	return nil
}

// decodeBlock reads one 8x8 block's DC difference and AC run/size pairs and
// leaves dequantized coefficients in natural order.
func (d *decoder) decodeBlock(br *binio.BitReader, c *component, coef *[64]float32) error {
	*coef = [64]float32{}
	q := d.qt[c.tq]

	s, err := d.dc[c.td].Decode(br)
	if err != nil {
		return err
	}
	diff, err := huffman.ReceiveExtend(br, int(s))
	if err != nil {
		return err
	}
	c.pred += diff
	coef[0] = float32(c.pred) * float32(q[0])

	ac := d.ac[c.ta]
	for k := 1; k < 64; {
		rs, err := ac.Decode(br)
		if err != nil {
			return err
		}
		r, s := int(rs>>4), int(rs&0x0F)
		if s == 0 {
			if r == 15 { // ZRL
				k += 16
				continue
			}
			break // EOB
		}
		k += r
		if k > 63 {
			return fmt.Errorf("coefficient index %d: %w", k, media.ErrInvalidHuffmanCode)
		}
		v, err := huffman.ReceiveExtend(br, s)
		if err != nil {
			return err
		}
		coef[zz[k]] = float32(v) * float32(q[zz[k]])
		k++
	}
	return nil
}

// store copies a spatial block into the plane, clipping at the padded edge.
func (c *component) store(block *[64]float32, x0, y0 int) {
	if x0 >= c.width || y0 >= c.height {
		return
	}
	for y := 0; y < 8 && y0+y < c.height; y++ {
		row := (y0 + y) * c.width
		for x := 0; x < 8 && x0+x < c.width; x++ {
			c.plane[row+x0+x] = block[y*8+x]
		}
	}
}
