// Package aiff reads AIFF and AIFC audio and writes AIFF, or AIFC when the
// samples are floating point.
package aiff

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/jpfielding/media.go/pkg/binio"
	"github.com/jpfielding/media.go/pkg/codec/pcm"
	"github.com/jpfielding/media.go/pkg/media"
)

// aifcVersion is the only FVER timestamp defined for AIFC.
const aifcVersion = 0xA2805140

// Options configures encoding. The zero value writes 16-bit PCM.
type Options struct {
	BitsPerSample int // 8, 16, 24, 32; 32 or 64 with Float
	Float         bool
}

// CanDecode sniffs FORM....AIFF or FORM....AIFC.
func CanDecode(data []byte) bool {
	if len(data) < 12 || string(data[0:4]) != "FORM" {
		return false
	}
	form := string(data[8:12])
	return form == "AIFF" || form == "AIFC"
}

// compression maps an AIFC compression type onto a sample format.
func compression(kind string, bits int) (pcm.Format, error) {
	switch kind {
	case "NONE", "twos":
		return pcm.Format{Bits: bits, Order: binary.BigEndian}, nil
	case "sowt":
		return pcm.Format{Bits: bits, Order: binary.LittleEndian}, nil
	case "fl32", "FL32":
		return pcm.Format{Bits: 32, Order: binary.BigEndian, Float: true}, nil
	case "fl64", "FL64":
		return pcm.Format{Bits: 64, Order: binary.BigEndian, Float: true}, nil
	case "ulaw", "ULAW":
		return pcm.Format{Bits: 8, MuLaw: true}, nil
	}
	return pcm.Format{}, fmt.Errorf("aiff: compression %q: %w", kind, media.ErrUnsupportedFeature)
}

func probe(data []byte) (pcm.Info, []byte, error) {
	if len(data) < 12 {
		return pcm.Info{}, nil, fmt.Errorf("aiff: %d bytes: %w", len(data), media.ErrTooSmall)
	}
	if !CanDecode(data) {
		return pcm.Info{}, nil, fmt.Errorf("aiff: header %q: %w", data[:12], media.ErrInvalidSignature)
	}
	aifc := string(data[8:12]) == "AIFC"

	chunks, err := pcm.Chunks(data, 12, binary.BigEndian)
	if err != nil {
		return pcm.Info{}, nil, fmt.Errorf("aiff: %w", err)
	}
	comm, err := pcm.Find(chunks, "COMM")
	if err != nil {
		return pcm.Info{}, nil, fmt.Errorf("aiff: %w", err)
	}
	ssnd, err := pcm.Find(chunks, "SSND")
	if err != nil {
		return pcm.Info{}, nil, fmt.Errorf("aiff: %w", err)
	}

	r := binio.NewReader(comm.Data)
	channels, _ := r.U16BE()
	numFrames, _ := r.U32BE()
	bits, _ := r.U16BE()
	rate, err := r.Extended80()
	if err != nil {
		return pcm.Info{}, nil, fmt.Errorf("aiff: COMM chunk: %w", err)
	}
	kind := "NONE"
	if aifc {
		if kind, err = r.Tag(); err != nil {
			return pcm.Info{}, nil, fmt.Errorf("aiff: AIFC compression type: %w", err)
		}
	}
	f, err := compression(kind, int(bits))
	if err != nil {
		return pcm.Info{}, nil, err
	}

	sr := binio.NewReader(ssnd.Data)
	offset, _ := sr.U32BE()
	if _, err := sr.U32BE(); err != nil { // block size
		return pcm.Info{}, nil, fmt.Errorf("aiff: SSND chunk: %w", err)
	}
	if err := sr.Skip(int(offset)); err != nil {
		return pcm.Info{}, nil, fmt.Errorf("aiff: SSND offset %d: %w", offset, err)
	}
	payload, _ := sr.Bytes(sr.Remaining())
	if need := uint64(numFrames) * uint64(channels) * uint64(f.BytesPerSample()); need < uint64(len(payload)) {
		payload = payload[:need]
	}

	info := pcm.NewInfo(int(channels), int(rate), f, len(payload))
	if err := info.Check(); err != nil {
		return info, nil, fmt.Errorf("aiff: %w", err)
	}
	slog.Debug("aiff: COMM",
		slog.Bool("aifc", aifc),
		slog.String("compression", kind),
		slog.Int("channels", info.Channels),
		slog.Int("sampleRate", info.SampleRate),
		slog.Int("bits", info.BitsPerSample),
		slog.Int("frames", info.Frames))
	return info, payload, nil
}

// Probe describes the stream without decoding samples.
func Probe(data []byte) (pcm.Info, error) {
	info, _, err := probe(data)
	return info, err
}

// Decode reads every sample frame of the SSND chunk.
func Decode(data []byte) (*media.AudioData, error) {
	info, payload, err := probe(data)
	if err != nil {
		return nil, err
	}
	a, err := info.Samples(payload)
	if err != nil {
		return nil, fmt.Errorf("aiff: %w", err)
	}
	return a, nil
}

// Encode writes big-endian signed PCM as AIFF, or floats as AIFC. Audio
// without samples encodes to an empty slice.
func Encode(a *media.AudioData, opts Options) ([]byte, error) {
	if a.Empty() {
		return []byte{}, nil
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("aiff: %w", err)
	}
	bits := opts.BitsPerSample
	if bits == 0 {
		bits = 16
	}
	f := pcm.Format{Bits: bits, Order: binary.BigEndian}
	kind, name := "", ""
	if opts.Float {
		f.Float = true
		if bits != 64 {
			f.Bits = 32
		}
		kind, name = fmt.Sprintf("fl%d", f.Bits), fmt.Sprintf("%d-bit floating point", f.Bits)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("aiff: %w", err)
	}
	if err := pcm.CheckChannels(a.Channels); err != nil {
		return nil, fmt.Errorf("aiff: %w", err)
	}

	dataLen := a.Frames() * a.Channels * f.BytesPerSample()
	w := binio.NewWriter(64 + dataLen)
	w.Tag("FORM")
	w.U32BE(0) // patched below
	if opts.Float {
		w.Tag("AIFC")
		w.Tag("FVER")
		w.U32BE(4)
		w.U32BE(aifcVersion)
	} else {
		w.Tag("AIFF")
	}

	w.Tag("COMM")
	commLen := 18
	if opts.Float {
		// type + pascal string padded to an even length
		commLen += 4 + 1 + len(name) + (1+len(name))%2
	}
	w.U32BE(uint32(commLen))
	w.U16BE(uint16(a.Channels))
	w.U32BE(uint32(a.Frames()))
	w.U16BE(uint16(f.Bits))
	w.Extended80(float64(a.SampleRate))
	if opts.Float {
		w.Tag(kind)
		w.U8(uint8(len(name)))
		w.Tag(name)
		w.Zeros((1 + len(name)) % 2)
	}

	w.Tag("SSND")
	w.U32BE(uint32(8 + dataLen))
	w.U32BE(0) // offset
	w.U32BE(0) // block size
	if err := pcm.Encode(w, a.Samples, f); err != nil {
		return nil, fmt.Errorf("aiff: %w", err)
	}
	w.Zeros(dataLen % 2)
	w.PutU32BEAt(4, uint32(w.Len()-8))
	return w.Bytes(), nil
}
