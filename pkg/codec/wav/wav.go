// Package wav reads and writes RIFF WAVE audio.
package wav

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/jpfielding/media.go/pkg/binio"
	"github.com/jpfielding/media.go/pkg/codec/pcm"
	"github.com/jpfielding/media.go/pkg/media"
)

// Format tags
const (
	TagPCM        = 0x0001
	TagFloat      = 0x0003
	TagMuLaw      = 0x0007
	TagExtensible = 0xFFFE
)

// Options configures encoding. The zero value writes 16-bit PCM.
type Options struct {
	BitsPerSample int // 8, 16, 24, 32; 32 or 64 with Float
	Float         bool
	MuLaw         bool
}

func (o Options) format() pcm.Format {
	switch {
	case o.MuLaw:
		return pcm.Format{Bits: 8, MuLaw: true}
	case o.Float:
		bits := o.BitsPerSample
		if bits != 64 {
			bits = 32
		}
		return pcm.Format{Bits: bits, Float: true}
	}
	bits := o.BitsPerSample
	if bits == 0 {
		bits = 16
	}
	return pcm.Format{Bits: bits, Unsigned8: true}
}

// CanDecode sniffs RIFF....WAVE.
func CanDecode(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// probe parses the header chunks and returns the stream description along
// with the data chunk payload.
func probe(data []byte) (pcm.Info, []byte, error) {
	if len(data) < 12 {
		return pcm.Info{}, nil, fmt.Errorf("wav: %d bytes: %w", len(data), media.ErrTooSmall)
	}
	if !CanDecode(data) {
		return pcm.Info{}, nil, fmt.Errorf("wav: header %q: %w", data[:12], media.ErrInvalidSignature)
	}
	chunks, err := pcm.Chunks(data, 12, binary.LittleEndian)
	if err != nil {
		return pcm.Info{}, nil, fmt.Errorf("wav: %w", err)
	}
	fmtChunk, err := pcm.Find(chunks, "fmt ")
	if err != nil {
		return pcm.Info{}, nil, fmt.Errorf("wav: %w", err)
	}
	dataChunk, err := pcm.Find(chunks, "data")
	if err != nil {
		return pcm.Info{}, nil, fmt.Errorf("wav: %w", err)
	}

	r := binio.NewReader(fmtChunk.Data)
	tag, _ := r.U16LE()
	channels, _ := r.U16LE()
	rate, _ := r.U32LE()
	_, _ = r.U32LE() // byte rate
	_, _ = r.U16LE() // block align
	bits, err := r.U16LE()
	if err != nil {
		return pcm.Info{}, nil, fmt.Errorf("wav: fmt chunk: %w", err)
	}
	if tag == TagExtensible {
		// cbSize, valid bits, channel mask, then the sub-format GUID whose
		// first two bytes carry the real tag
		if err := r.Skip(8); err != nil {
			return pcm.Info{}, nil, fmt.Errorf("wav: extensible fmt: %w", err)
		}
		if tag, err = r.U16LE(); err != nil {
			return pcm.Info{}, nil, fmt.Errorf("wav: extensible fmt: %w", err)
		}
	}

	var f pcm.Format
	switch tag {
	case TagPCM:
		f = pcm.Format{Bits: int(bits), Unsigned8: true}
	case TagFloat:
		f = pcm.Format{Bits: int(bits), Float: true}
	case TagMuLaw:
		f = pcm.Format{Bits: 8, MuLaw: true}
	default:
		return pcm.Info{}, nil, fmt.Errorf("wav: format tag 0x%04X: %w", tag, media.ErrUnsupportedFeature)
	}

	info := pcm.NewInfo(int(channels), int(rate), f, len(dataChunk.Data))
	if err := info.Check(); err != nil {
		return info, nil, fmt.Errorf("wav: %w", err)
	}
	slog.Debug("wav: fmt",
		slog.Int("tag", int(tag)),
		slog.Int("channels", info.Channels),
		slog.Int("sampleRate", info.SampleRate),
		slog.Int("bits", info.BitsPerSample),
		slog.Int("frames", info.Frames))
	return info, dataChunk.Data, nil
}

// Probe describes the stream without decoding samples.
func Probe(data []byte) (pcm.Info, error) {
	info, _, err := probe(data)
	return info, err
}

// Decode reads every sample of the data chunk.
func Decode(data []byte) (*media.AudioData, error) {
	info, payload, err := probe(data)
	if err != nil {
		return nil, err
	}
	a, err := info.Samples(payload)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	return a, nil
}

// Encode writes a canonical RIFF/WAVE file. Audio without samples encodes to
// an empty slice.
func Encode(a *media.AudioData, opts Options) ([]byte, error) {
	if a.Empty() {
		return []byte{}, nil
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	f := opts.format()
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	if err := pcm.CheckChannels(a.Channels); err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}

	tag := uint16(TagPCM)
	switch {
	case f.MuLaw:
		tag = TagMuLaw
	case f.Float:
		tag = TagFloat
	}
	blockAlign := a.Channels * f.BytesPerSample()
	dataLen := a.Frames() * blockAlign
	pad := dataLen % 2

	w := binio.NewWriter(44 + dataLen + pad)
	w.Tag("RIFF")
	w.U32LE(uint32(4 + 8 + 16 + 8 + dataLen + pad))
	w.Tag("WAVE")

	w.Tag("fmt ")
	w.U32LE(16)
	w.U16LE(tag)
	w.U16LE(uint16(a.Channels))
	w.U32LE(uint32(a.SampleRate))
	w.U32LE(uint32(a.SampleRate * blockAlign))
	w.U16LE(uint16(blockAlign))
	w.U16LE(uint16(f.BytesPerSample() * 8))

	w.Tag("data")
	w.U32LE(uint32(dataLen))
	if err := pcm.Encode(w, a.Samples, f); err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	w.Zeros(pad)
	return w.Bytes(), nil
}
