// Package pcm converts between interleaved sample bytes and normalized
// float64 channels. The wav, aiff and au packages supply the framing.
package pcm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/jpfielding/media.go/pkg/binio"
	"github.com/jpfielding/media.go/pkg/media"
)

// Format describes one sample on the wire.
type Format struct {
	Bits  int              // 8, 16, 24, 32; 32 or 64 when Float
	Order binary.ByteOrder // nil means little endian
	// Unsigned8 selects offset binary for 8-bit samples (WAV).
	Unsigned8 bool
	Float     bool
	MuLaw     bool
}

// BytesPerSample is the width of one sample of one channel.
func (f Format) BytesPerSample() int {
	if f.MuLaw {
		return 1
	}
	return f.Bits / 8
}

func (f Format) order() binary.ByteOrder {
	if f.Order == nil {
		return binary.LittleEndian
	}
	return f.Order
}

func (f Format) bigEndian() bool {
	return f.order() == binary.BigEndian
}

// Validate reports whether the format can be coded.
func (f Format) Validate() error {
	switch {
	case f.MuLaw:
		return nil
	case f.Float:
		if f.Bits == 32 || f.Bits == 64 {
			return nil
		}
	case f.Bits == 8 || f.Bits == 16 || f.Bits == 24 || f.Bits == 32:
		return nil
	}
	return fmt.Errorf("pcm: %d-bit (float %t): %w", f.Bits, f.Float, media.ErrUnsupportedFeature)
}

// MaxChannels is the widest channel count a WAV or AIFF header can carry.
const MaxChannels = 0xFFFF

// CheckChannels rejects channel counts no container can describe.
func CheckChannels(n int) error {
	if n < 1 || n > MaxChannels {
		return fmt.Errorf("pcm: %d channels: %w", n, media.ErrInvalidFrameData)
	}
	return nil
}

// Decode de-interleaves data into channels. A trailing partial frame is
// ignored.
func Decode(data []byte, channels int, f Format) ([][]float64, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := CheckChannels(channels); err != nil {
		return nil, err
	}
	bps := f.BytesPerSample()
	frames := len(data) / (channels * bps)
	out := make([][]float64, channels)
	for c := range out {
		out[c] = make([]float64, frames)
	}

	r := binio.NewReader(data)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			v, err := f.read(r)
			if err != nil {
				return nil, fmt.Errorf("pcm: frame %d: %w", i, err)
			}
			out[c][i] = v
		}
	}
	return out, nil
}

func (f Format) read(r *binio.Reader) (float64, error) {
	be := f.bigEndian()
	switch {
	case f.MuLaw:
		b, err := r.U8()
		return float64(MuLawDecode(b)) / 32768, err
	case f.Float && f.Bits == 32:
		var v float32
		var err error
		if be {
			v, err = r.F32BE()
		} else {
			v, err = r.F32LE()
		}
		return float64(v), err
	case f.Float:
		if be {
			return r.F64BE()
		}
		return r.F64LE()
	}

	var v int64
	switch f.Bits {
	case 8:
		b, err := r.U8()
		if err != nil {
			return 0, err
		}
		if f.Unsigned8 {
			v = int64(b) - 128
		} else {
			v = int64(int8(b))
		}
	case 16:
		var u uint16
		var err error
		if be {
			u, err = r.U16BE()
		} else {
			u, err = r.U16LE()
		}
		if err != nil {
			return 0, err
		}
		v = int64(int16(u))
	case 24:
		b, err := r.Bytes(3)
		if err != nil {
			return 0, err
		}
		var u uint32
		if be {
			u = uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
		} else {
			u = uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0])
		}
		// sign extend from bit 23
		v = int64(int32(u<<8) >> 8)
	case 32:
		var u uint32
		var err error
		if be {
			u, err = r.U32BE()
		} else {
			u, err = r.U32LE()
		}
		if err != nil {
			return 0, err
		}
		v = int64(int32(u))
	}
	return float64(v) / float64(int64(1)<<(f.Bits-1)), nil
}

// Quantize maps a normalized sample onto a signed bits-wide integer,
// clamping the input to [-1, 1] and rounding half away from zero.
func Quantize(v float64, bits int) int64 {
	if math.IsNaN(v) {
		return 0
	}
	v = max(-1, min(1, v))
	scale := float64(int64(1) << (bits - 1))
	q := int64(math.Round(v * scale))
	return max(-int64(scale), min(int64(scale)-1, q))
}

// Encode interleaves channels into w. Every channel must hold the same
// number of frames.
func Encode(w *binio.Writer, channels [][]float64, f Format) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	for c, ch := range channels {
		if len(ch) != frames {
			return fmt.Errorf("pcm: channel %d has %d frames, want %d: %w", c, len(ch), frames, media.ErrInvalidFrameData)
		}
	}
	be := f.bigEndian()
	for i := 0; i < frames; i++ {
		for _, ch := range channels {
			f.write(w, ch[i], be)
		}
	}
	return nil
}

func (f Format) write(w *binio.Writer, v float64, be bool) {
	switch {
	case f.MuLaw:
		w.U8(MuLawEncode(int16(Quantize(v, 16))))
		return
	case f.Float && f.Bits == 32:
		if be {
			w.F32BE(float32(v))
		} else {
			w.F32LE(float32(v))
		}
		return
	case f.Float:
		if be {
			w.F64BE(v)
		} else {
			w.F64LE(v)
		}
		return
	}

	q := Quantize(v, f.Bits)
	switch f.Bits {
	case 8:
		if f.Unsigned8 {
			w.U8(uint8(q + 128))
		} else {
			w.U8(uint8(int8(q)))
		}
	case 16:
		if be {
			w.U16BE(uint16(q))
		} else {
			w.U16LE(uint16(q))
		}
	case 24:
		u := uint32(q)
		if be {
			w.Raw([]byte{byte(u >> 16), byte(u >> 8), byte(u)})
		} else {
			w.Raw([]byte{byte(u), byte(u >> 8), byte(u >> 16)})
		}
	case 32:
		if be {
			w.U32BE(uint32(q))
		} else {
			w.U32LE(uint32(q))
		}
	}
}
