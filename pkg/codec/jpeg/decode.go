// Package jpeg implements a pure Go baseline JPEG (ITU-T T.81 sequential DCT,
// Huffman coded) decoder producing RGBA.
package jpeg

import (
	"fmt"
	"log/slog"

	"github.com/jpfielding/media.go/pkg/binio"
	"github.com/jpfielding/media.go/pkg/huffman"
	"github.com/jpfielding/media.go/pkg/media"
)

// JPEG markers
const (
	MarkerSOF0  = 0xFFC0 // Baseline DCT
	MarkerSOF1  = 0xFFC1 // Extended sequential DCT
	MarkerSOF2  = 0xFFC2 // Progressive DCT
	MarkerDHT   = 0xFFC4 // Define Huffman Table
	MarkerRST0  = 0xFFD0 // Restart 0
	MarkerRST7  = 0xFFD7 // Restart 7
	MarkerSOI   = 0xFFD8 // Start of Image
	MarkerEOI   = 0xFFD9 // End of Image
	MarkerSOS   = 0xFFDA // Start of Scan
	MarkerDQT   = 0xFFDB // Define Quantization Table
	MarkerDRI   = 0xFFDD // Define Restart Interval
	MarkerAPP0  = 0xFFE0 // JFIF APP0
	MarkerAPP14 = 0xFFEE // Adobe
	MarkerCOM   = 0xFFFE // Comment
)

// maxPixels bounds the frame before any plane is allocated.
const maxPixels = 1 << 26

// zz maps zig-zag scan position to natural 8x8 position.
var zz = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10, 17, 24, 32, 25, 18,
	11, 4, 5, 12, 19, 26, 33, 40, 48, 41, 34, 27, 20, 13, 6, 7, 14, 21, 28, 35,
	42, 49, 56, 57, 50, 43, 36, 29, 22, 15, 23, 30, 37, 44, 51, 58, 59, 52, 45,
	38, 31, 39, 46, 53, 60, 61, 54, 47, 55, 62, 63,
}

// Config is the frame header summary returned by DecodeConfig.
type Config struct {
	Width       int
	Height      int
	Precision   int
	Components  int
	Sampling    []Sampling
	Progressive bool
	Restart     int
}

// Sampling is a component's horizontal/vertical sampling factor.
type Sampling struct {
	ID, H, V int
}

type component struct {
	id     int
	h, v   int
	tq     int // quantization table selector
	td, ta int // DC/AC Huffman table selectors, bound by SOS
	pred   int32

	// padded plane, 8-aligned
	width, height int
	plane         []float32
}

// decoder holds the state built up while scanning marker segments.
type decoder struct {
	r *binio.Reader

	frame       bool
	progressive bool
	precision   int
	width       int
	height      int
	comps       []component

	qt [4]*[64]uint16 // natural order
	dc [4]*huffman.Table
	ac [4]*huffman.Table

	restartInterval int

	// Adobe APP14 transform flag; 0 means the components are RGB
	adobe          bool
	adobeTransform int
}

// CanDecode sniffs the SOI marker followed by another marker.
func CanDecode(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
}

// Decode decodes a single-scan baseline JPEG into RGBA.
func Decode(data []byte) (*media.ImageData, error) {
	d := &decoder{r: binio.NewReader(data)}
	return d.decode(false)
}

// DecodeConfig parses marker segments up to the frame header.
func DecodeConfig(data []byte) (Config, error) {
	d := &decoder{r: binio.NewReader(data)}
	if _, err := d.decode(true); err != nil {
		return Config{}, err
	}
	cfg := Config{
		Width:       d.width,
		Height:      d.height,
		Precision:   d.precision,
		Components:  len(d.comps),
		Progressive: d.progressive,
		Restart:     d.restartInterval,
	}
	for _, c := range d.comps {
		cfg.Sampling = append(cfg.Sampling, Sampling{ID: c.id, H: c.h, V: c.v})
	}
	return cfg, nil
}

func (d *decoder) decode(configOnly bool) (*media.ImageData, error) {
	if d.r.Len() < 2 {
		return nil, fmt.Errorf("jpeg: %d bytes: %w", d.r.Len(), media.ErrInvalidSignature)
	}
	if soi, _ := d.r.U16BE(); soi != MarkerSOI {
		return nil, fmt.Errorf("jpeg: expected SOI, got 0x%04X: %w", soi, media.ErrInvalidSignature)
	}

	for {
		marker, err := d.readMarker()
		if err != nil {
			return nil, err
		}

		switch {
		case marker == MarkerEOI:
			return nil, fmt.Errorf("jpeg: EOI before scan data: %w", media.ErrMissingChunk)
		case marker == MarkerSOI, marker >= MarkerRST0 && marker <= MarkerRST7:
			// standalone markers
			continue
		case marker == MarkerSOF0, marker == MarkerSOF1, marker == MarkerSOF2:
			if err := d.readSOF(marker); err != nil {
				return nil, err
			}
			if configOnly {
				return nil, nil
			}
			if d.progressive {
				return nil, fmt.Errorf("jpeg: progressive DCT: %w", media.ErrUnsupportedFeature)
			}
		case marker >= 0xFFC3 && marker <= 0xFFCF && marker != MarkerDHT && marker != 0xFFC8 && marker != 0xFFCC:
			return nil, fmt.Errorf("jpeg: SOF marker 0x%04X: %w", marker, media.ErrUnsupportedFeature)
		case marker == 0xFFCC:
			return nil, fmt.Errorf("jpeg: arithmetic coding: %w", media.ErrUnsupportedFeature)
		case marker == MarkerDHT:
			if err := d.readDHT(); err != nil {
				return nil, err
			}
		case marker == MarkerDQT:
			if err := d.readDQT(); err != nil {
				return nil, err
			}
		case marker == MarkerDRI:
			if err := d.readDRI(); err != nil {
				return nil, err
			}
		case marker == MarkerAPP14:
			if err := d.readAPP14(); err != nil {
				return nil, err
			}
		case marker == MarkerSOS:
			if !d.frame {
				return nil, fmt.Errorf("jpeg: SOS before SOF: %w", media.ErrMissingChunk)
			}
			if err := d.readSOS(); err != nil {
				return nil, err
			}
			if err := d.decodeScan(); err != nil {
				return nil, err
			}
			return d.convert(), nil
		default:
			// APPn, COM and anything else with a length
			if _, err := d.segment(); err != nil {
				return nil, err
			}
		}
	}
}

// readMarker returns the next marker, skipping fill bytes.
func (d *decoder) readMarker() (int, error) {
	skipped := 0
	for {
		b, err := d.r.U8()
		if err != nil {
			return 0, fmt.Errorf("jpeg: reading marker: %w", err)
		}
		if b != 0xFF {
			skipped++
			continue
		}
		for b == 0xFF {
			if b, err = d.r.U8(); err != nil {
				return 0, fmt.Errorf("jpeg: reading marker: %w", err)
			}
		}
		if b == 0x00 {
			skipped += 2
			continue
		}
		if skipped > 0 {
			slog.Warn("jpeg: extraneous bytes before marker",
				slog.Int("bytes", skipped),
				slog.String("marker", fmt.Sprintf("0x%02X", b)))
		}
		return 0xFF00 | int(b), nil
	}
}

// segment reads a length-prefixed payload; the length counts itself.
func (d *decoder) segment() (*binio.Reader, error) {
	n, err := d.r.U16BE()
	if err != nil {
		return nil, fmt.Errorf("jpeg: segment length: %w", err)
	}
	if n < 2 {
		return nil, fmt.Errorf("jpeg: segment length %d: %w", n, media.ErrMalformedOpcode)
	}
	payload, err := d.r.Bytes(int(n) - 2)
	if err != nil {
		return nil, fmt.Errorf("jpeg: segment payload: %w", err)
	}
	return binio.NewReader(payload), nil
}

func (d *decoder) readSOF(marker int) error {
	if d.frame {
		return fmt.Errorf("jpeg: multiple SOF markers: %w", media.ErrUnsupportedFeature)
	}
	seg, err := d.segment()
	if err != nil {
		return err
	}
	precision, _ := seg.U8()
	height, _ := seg.U16BE()
	width, _ := seg.U16BE()
	nf, err := seg.U8()
	if err != nil {
		return fmt.Errorf("jpeg: SOF: %w", err)
	}
	d.precision = int(precision)
	d.height = int(height)
	d.width = int(width)
	d.progressive = marker == MarkerSOF2

	if d.precision != 8 {
		return fmt.Errorf("jpeg: %d-bit precision: %w", d.precision, media.ErrUnsupportedFeature)
	}
	if d.height == 0 {
		return fmt.Errorf("jpeg: height defined by DNL: %w", media.ErrUnsupportedFeature)
	}
	if d.width == 0 {
		return fmt.Errorf("jpeg: zero width: %w", media.ErrInvalidDimensions)
	}
	if d.width*d.height > maxPixels {
		return fmt.Errorf("jpeg: %dx%d exceeds %d pixels: %w", d.width, d.height, maxPixels, media.ErrInvalidDimensions)
	}
	if nf != 1 && nf != 3 {
		return fmt.Errorf("jpeg: %d components: %w", nf, media.ErrUnsupportedFeature)
	}

	d.comps = make([]component, nf)
	for i := range d.comps {
		id, _ := seg.U8()
		hv, _ := seg.U8()
		tq, err := seg.U8()
		if err != nil {
			return fmt.Errorf("jpeg: SOF component %d: %w", i, err)
		}
		c := component{id: int(id), h: int(hv >> 4), v: int(hv & 0x0F), tq: int(tq)}
		if c.h < 1 || c.h > 4 || c.v < 1 || c.v > 4 {
			return fmt.Errorf("jpeg: component %d sampling %dx%d: %w", c.id, c.h, c.v, media.ErrMalformedOpcode)
		}
		if c.tq > 3 {
			return fmt.Errorf("jpeg: component %d quant table %d: %w", c.id, c.tq, media.ErrMalformedOpcode)
		}
		d.comps[i] = c
	}
	d.frame = true

	slog.Debug("jpeg: SOF parsed",
		slog.Int("marker", marker),
		slog.Int("precision", d.precision),
		slog.Int("width", d.width),
		slog.Int("height", d.height),
		slog.Int("components", len(d.comps)))
	return nil
}

func (d *decoder) readDQT() error {
	seg, err := d.segment()
	if err != nil {
		return err
	}
	for seg.Remaining() > 0 {
		pqtq, _ := seg.U8()
		pq, tq := int(pqtq>>4), int(pqtq&0x0F)
		if tq > 3 || pq > 1 {
			return fmt.Errorf("jpeg: DQT precision %d id %d: %w", pq, tq, media.ErrMalformedOpcode)
		}
		q := new([64]uint16)
		for i := 0; i < 64; i++ {
			var v uint16
			if pq == 0 {
				b, err := seg.U8()
				if err != nil {
					return fmt.Errorf("jpeg: DQT table %d: %w", tq, err)
				}
				v = uint16(b)
			} else if v, err = seg.U16BE(); err != nil {
				return fmt.Errorf("jpeg: DQT table %d: %w", tq, err)
			}
			q[zz[i]] = v
		}
		d.qt[tq] = q
		slog.Debug("jpeg: DQT parsed", slog.Int("id", tq), slog.Int("precision", pq))
	}
	return nil
}

func (d *decoder) readDHT() error {
	seg, err := d.segment()
	if err != nil {
		return err
	}
	for seg.Remaining() > 0 {
		tcth, _ := seg.U8()
		class, id := int(tcth>>4), int(tcth&0x0F)
		if class > 1 || id > 3 {
			return fmt.Errorf("jpeg: DHT class %d id %d: %w", class, id, media.ErrMalformedOpcode)
		}
		counts, err := seg.Bytes(16)
		if err != nil {
			return fmt.Errorf("jpeg: DHT counts: %w", err)
		}
		var bits [16]uint8
		total := 0
		for i, n := range counts {
			bits[i] = n
			total += int(n)
		}
		values, err := seg.Bytes(total)
		if err != nil {
			return fmt.Errorf("jpeg: DHT values: %w", err)
		}
		t, err := huffman.NewTable(bits, values)
		if err != nil {
			return fmt.Errorf("jpeg: DHT class %d id %d: %w", class, id, err)
		}
		if class == 0 {
			d.dc[id] = t
		} else {
			d.ac[id] = t
		}
		slog.Debug("jpeg: DHT parsed",
			slog.Int("class", class),
			slog.Int("id", id),
			slog.Int("codes", total))
	}
	return nil
}

func (d *decoder) readDRI() error {
	seg, err := d.segment()
	if err != nil {
		return err
	}
	ri, err := seg.U16BE()
	if err != nil {
		return fmt.Errorf("jpeg: DRI: %w", err)
	}
	d.restartInterval = int(ri)
	return nil
}

func (d *decoder) readAPP14() error {
	seg, err := d.segment()
	if err != nil {
		return err
	}
	// "Adobe" version(2) flags0(2) flags1(2) transform(1)
	if b, err := seg.Bytes(12); err == nil && string(b[:5]) == "Adobe" {
		d.adobe = true
		d.adobeTransform = int(b[11])
	}
	return nil
}

func (d *decoder) readSOS() error {
	seg, err := d.segment()
	if err != nil {
		return err
	}
	ns, err := seg.U8()
	if err != nil {
		return fmt.Errorf("jpeg: SOS: %w", err)
	}
	if int(ns) != len(d.comps) {
		return fmt.Errorf("jpeg: scan with %d of %d components: %w", ns, len(d.comps), media.ErrUnsupportedFeature)
	}
	bound := make([]bool, len(d.comps))
	for i := 0; i < int(ns); i++ {
		cs, _ := seg.U8()
		tdta, err := seg.U8()
		if err != nil {
			return fmt.Errorf("jpeg: SOS component %d: %w", i, err)
		}
		ci := d.component(int(cs))
		if ci < 0 {
			return fmt.Errorf("jpeg: SOS references component %d: %w", cs, media.ErrMissingChunk)
		}
		if bound[ci] {
			return fmt.Errorf("jpeg: SOS lists component %d twice: %w", cs, media.ErrMalformedOpcode)
		}
		bound[ci] = true
		c := &d.comps[ci]
		c.td, c.ta = int(tdta>>4), int(tdta&0x0F)
	}
	// every frame component must have been bound with tables present
	for i := range d.comps {
		c := &d.comps[i]
		if !bound[i] {
			return fmt.Errorf("jpeg: component %d not in scan: %w", c.id, media.ErrMissingChunk)
		}
		if c.td > 3 || c.ta > 3 || d.dc[c.td] == nil || d.ac[c.ta] == nil {
			return fmt.Errorf("jpeg: component %d huffman tables %d/%d: %w", c.id, c.td, c.ta, media.ErrMissingChunk)
		}
		if c.tq > 3 || d.qt[c.tq] == nil {
			return fmt.Errorf("jpeg: component %d quant table %d: %w", c.id, c.tq, media.ErrMissingChunk)
		}
	}
	// Ss, Se, Ah/Al are fixed for baseline
	if _, err := seg.Bytes(3); err != nil {
		return fmt.Errorf("jpeg: SOS spectral selection: %w", err)
	}
	slog.Debug("jpeg: SOS parsed",
		slog.Int("components", int(ns)),
		slog.Int("restartInterval", d.restartInterval))
	return nil
}

// component returns the index of the frame component with the given id, or -1.
func (d *decoder) component(id int) int {
	for i := range d.comps {
		if d.comps[i].id == id {
			return i
		}
	}
	return -1
}
