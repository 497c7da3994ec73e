// Package qoi implements the Quite OK Image format.
//
// The format is specified at https://qoiformat.org/qoi-specification.pdf.
package qoi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/jpfielding/media.go/pkg/binio"
	"github.com/jpfielding/media.go/pkg/media"
)

// Start-of-chunk tags.
const (
	opIndex = 0b0000_0000
	opDiff  = 0b0100_0000
	opLuma  = 0b1000_0000
	opRun   = 0b1100_0000
	opRGB   = 0b1111_1110
	opRGBA  = 0b1111_1111

	// Mask for two-bit tags.
	opMask2 = 0b1100_0000
)

const (
	magic     = "qoif"
	headerLen = 14
	// a run of 63 or 64 would collide with the RGB/RGBA tags
	maxRun = 62
	// same ceiling as the reference implementation
	maxPixels = 400_000_000
)

var endMarker = []byte{0, 0, 0, 0, 0, 0, 0, 1}

// Colorspace is informative only; it does not change the pixel encoding.
type Colorspace uint8

const (
	SRGB   Colorspace = 0 // sRGB with linear alpha
	Linear Colorspace = 1 // all channels linear
)

// Header is the fixed 14-byte QOI header.
type Header struct {
	Width      uint32
	Height     uint32
	Channels   uint8
	Colorspace Colorspace
}

// Options configures encoding.
type Options struct {
	Colorspace Colorspace
}

type pixel [4]byte

func hash(p pixel) byte {
	return (p[0]*3 + p[1]*5 + p[2]*7 + p[3]*11) % 64
}

// CanDecode sniffs the magic.
func CanDecode(data []byte) bool {
	return len(data) >= len(magic) && string(data[:len(magic)]) == magic
}

// DecodeConfig parses and validates the header only.
func DecodeConfig(data []byte) (Header, error) {
	if len(data) < headerLen {
		return Header{}, fmt.Errorf("qoi: %d bytes, header needs %d: %w", len(data), headerLen, media.ErrTooSmall)
	}
	if !CanDecode(data) {
		return Header{}, fmt.Errorf("qoi: magic %q: %w", data[:4], media.ErrInvalidSignature)
	}
	h := Header{
		Width:      binary.BigEndian.Uint32(data[4:8]),
		Height:     binary.BigEndian.Uint32(data[8:12]),
		Channels:   data[12],
		Colorspace: Colorspace(data[13]),
	}
	if h.Width == 0 || h.Height == 0 || uint64(h.Width)*uint64(h.Height) > maxPixels {
		return h, fmt.Errorf("qoi: %dx%d: %w", h.Width, h.Height, media.ErrInvalidDimensions)
	}
	if h.Channels != 3 && h.Channels != 4 {
		return h, fmt.Errorf("qoi: channel count %d: %w", h.Channels, media.ErrInvalidSignature)
	}
	if h.Colorspace > Linear {
		return h, fmt.Errorf("qoi: colorspace %d: %w", h.Colorspace, media.ErrInvalidSignature)
	}
	return h, nil
}

// Decode reads a QOI stream into RGBA. Three-channel files decode with
// alpha 255.
func Decode(data []byte) (*media.ImageData, error) {
	h, err := DecodeConfig(data)
	if err != nil {
		return nil, err
	}
	if len(data) < headerLen+len(endMarker) || !bytes.Equal(data[len(data)-len(endMarker):], endMarker) {
		return nil, fmt.Errorf("qoi: missing end marker: %w", media.ErrUnexpectedEOF)
	}
	slog.Debug("qoi: header",
		slog.Int("width", int(h.Width)),
		slog.Int("height", int(h.Height)),
		slog.Int("channels", int(h.Channels)))

	img := media.NewImage(int(h.Width), int(h.Height))
	out := img.Data
	var index [64]pixel
	prev := pixel{0, 0, 0, 255}
	run := 0
	p := headerLen
	end := len(data) - len(endMarker)

	for o := 0; o < len(out); o += 4 {
		if run > 0 {
			run--
		} else {
			if p >= end {
				return nil, fmt.Errorf("qoi: opcodes ran out at pixel %d of %d: %w",
					o/4, len(out)/4, media.ErrUnexpectedEOF)
			}
			b1 := data[p]
			p++
			switch {
			case b1 == opRGB:
				if p+3 > end {
					return nil, fmt.Errorf("qoi: RGB literal at %d: %w", p-1, media.ErrUnexpectedEOF)
				}
				prev[0], prev[1], prev[2] = data[p], data[p+1], data[p+2]
				p += 3
			case b1 == opRGBA:
				if p+4 > end {
					return nil, fmt.Errorf("qoi: RGBA literal at %d: %w", p-1, media.ErrUnexpectedEOF)
				}
				prev = pixel{data[p], data[p+1], data[p+2], data[p+3]}
				p += 4
			case b1&opMask2 == opIndex:
				prev = index[b1]
			case b1&opMask2 == opDiff:
				prev[0] += (b1>>4)&0x03 - 2
				prev[1] += (b1>>2)&0x03 - 2
				prev[2] += b1&0x03 - 2
			case b1&opMask2 == opLuma:
				if p >= end {
					return nil, fmt.Errorf("qoi: LUMA at %d: %w", p-1, media.ErrUnexpectedEOF)
				}
				b2 := data[p]
				p++
				vg := b1&0x3F - 32
				prev[0] += vg - 8 + (b2>>4)&0x0F
				prev[1] += vg
				prev[2] += vg - 8 + b2&0x0F
			default:
				run = int(b1 & 0x3F)
			}
			index[hash(prev)] = prev
		}
		copy(out[o:o+4], prev[:])
	}
	return img, nil
}

// Encode writes img as QOI with the sRGB colorspace.
func Encode(img *media.ImageData) ([]byte, error) {
	return EncodeWith(img, Options{})
}

// EncodeWith writes img as QOI. An image with a zero dimension encodes to an
// empty slice.
func EncodeWith(img *media.ImageData, opts Options) ([]byte, error) {
	if img.Empty() {
		return []byte{}, nil
	}
	if err := img.Validate(); err != nil {
		return nil, fmt.Errorf("qoi: %w", err)
	}
	if uint64(img.Width)*uint64(img.Height) > maxPixels || uint64(img.Width) > 0xFFFFFFFF || uint64(img.Height) > 0xFFFFFFFF {
		return nil, fmt.Errorf("qoi: %dx%d: %w", img.Width, img.Height, media.ErrInvalidDimensions)
	}
	if opts.Colorspace > Linear {
		return nil, fmt.Errorf("qoi: colorspace %d: %w", opts.Colorspace, media.ErrUnsupportedFeature)
	}

	channels := uint8(4)
	if img.Opaque() {
		channels = 3
	}
	npx := img.Width * img.Height
	w := binio.NewWriter(headerLen + npx*5 + len(endMarker))
	w.Tag(magic)
	w.U32BE(uint32(img.Width))
	w.U32BE(uint32(img.Height))
	w.U8(channels)
	w.U8(uint8(opts.Colorspace))

	var index [64]pixel
	prev := pixel{0, 0, 0, 255}
	run := 0
	for i := 0; i < npx; i++ {
		px := pixel(img.Data[i*4 : i*4+4])
		if px == prev {
			run++
			if run == maxRun || i == npx-1 {
				w.U8(opRun | byte(run-1))
				run = 0
			}
			continue
		}
		if run > 0 {
			w.U8(opRun | byte(run-1))
			run = 0
		}

		h := hash(px)
		switch {
		case index[h] == px:
			w.U8(opIndex | h)
		case px[3] == prev[3]:
			vr := int8(px[0] - prev[0])
			vg := int8(px[1] - prev[1])
			vb := int8(px[2] - prev[2])
			vgr := vr - vg
			vgb := vb - vg
			switch {
			case vr > -3 && vr < 2 && vg > -3 && vg < 2 && vb > -3 && vb < 2:
				w.U8(opDiff | byte(vr+2)<<4 | byte(vg+2)<<2 | byte(vb+2))
			case vgr > -9 && vgr < 8 && vg > -33 && vg < 32 && vgb > -9 && vgb < 8:
				w.U8(opLuma | byte(vg+32))
				w.U8(byte(vgr+8)<<4 | byte(vgb+8))
			default:
				w.U8(opRGB)
				w.Raw(px[:3])
			}
		default:
			w.U8(opRGBA)
			w.Raw(px[:])
		}
		index[h] = px
		prev = px
	}
	w.Raw(endMarker)
	return w.Bytes(), nil
}
