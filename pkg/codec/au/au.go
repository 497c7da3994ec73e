// Package au reads and writes Sun/NeXT .au audio.
package au

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/jpfielding/media.go/pkg/binio"
	"github.com/jpfielding/media.go/pkg/codec/pcm"
	"github.com/jpfielding/media.go/pkg/media"
)

const (
	magic     = ".snd"
	headerLen = 24
	// dataSize value meaning "until end of file"
	unknownSize = 0xFFFFFFFF
)

// Encodings
const (
	EncodingMuLaw = iota + 1
	EncodingLinear8
	EncodingLinear16
	EncodingLinear24
	EncodingLinear32
	EncodingFloat
	EncodingDouble
)

// Options configures encoding. The zero value writes 16-bit PCM.
type Options struct {
	BitsPerSample int // 8, 16, 24, 32; 32 or 64 with Float
	Float         bool
	MuLaw         bool
}

// Header is the fixed part of an .au file.
type Header struct {
	DataOffset uint32
	DataSize   uint32
	Encoding   uint32
	SampleRate uint32
	Channels   uint32
}

// CanDecode sniffs the .snd magic.
func CanDecode(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == magic
}

func format(encoding uint32) (pcm.Format, error) {
	be := binary.BigEndian
	switch encoding {
	case EncodingMuLaw:
		return pcm.Format{Bits: 8, MuLaw: true}, nil
	case EncodingLinear8:
		return pcm.Format{Bits: 8, Order: be}, nil
	case EncodingLinear16:
		return pcm.Format{Bits: 16, Order: be}, nil
	case EncodingLinear24:
		return pcm.Format{Bits: 24, Order: be}, nil
	case EncodingLinear32:
		return pcm.Format{Bits: 32, Order: be}, nil
	case EncodingFloat:
		return pcm.Format{Bits: 32, Order: be, Float: true}, nil
	case EncodingDouble:
		return pcm.Format{Bits: 64, Order: be, Float: true}, nil
	}
	return pcm.Format{}, fmt.Errorf("au: encoding %d: %w", encoding, media.ErrUnsupportedFeature)
}

func encoding(f pcm.Format) uint32 {
	switch {
	case f.MuLaw:
		return EncodingMuLaw
	case f.Float && f.Bits == 64:
		return EncodingDouble
	case f.Float:
		return EncodingFloat
	}
	return EncodingLinear8 + uint32(f.Bits/8-1)
}

// ReadHeader parses the 24-byte header.
func ReadHeader(data []byte) (Header, error) {
	if len(data) < headerLen {
		return Header{}, fmt.Errorf("au: %d bytes: %w", len(data), media.ErrTooSmall)
	}
	if !CanDecode(data) {
		return Header{}, fmt.Errorf("au: magic %q: %w", data[:4], media.ErrInvalidSignature)
	}
	r := binio.NewReader(data[4:headerLen])
	var h Header
	h.DataOffset, _ = r.U32BE()
	h.DataSize, _ = r.U32BE()
	h.Encoding, _ = r.U32BE()
	h.SampleRate, _ = r.U32BE()
	h.Channels, _ = r.U32BE()
	return h, nil
}

func probe(data []byte) (pcm.Info, []byte, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return pcm.Info{}, nil, err
	}
	if h.DataOffset < headerLen || uint64(h.DataOffset) > uint64(len(data)) {
		return pcm.Info{}, nil, fmt.Errorf("au: data offset %d: %w", h.DataOffset, media.ErrUnexpectedEOF)
	}
	f, err := format(h.Encoding)
	if err != nil {
		return pcm.Info{}, nil, err
	}
	payload := data[h.DataOffset:]
	if h.DataSize != unknownSize {
		if uint64(h.DataSize) > uint64(len(payload)) {
			slog.Warn("au: data size overruns file, clamping",
				slog.Int("declared", int(h.DataSize)),
				slog.Int("available", len(payload)))
		} else {
			payload = payload[:h.DataSize]
		}
	}
	info := pcm.NewInfo(int(h.Channels), int(h.SampleRate), f, len(payload))
	if err := info.Check(); err != nil {
		return info, nil, fmt.Errorf("au: %w", err)
	}
	slog.Debug("au: header",
		slog.Int("encoding", int(h.Encoding)),
		slog.Int("channels", info.Channels),
		slog.Int("sampleRate", info.SampleRate),
		slog.Int("frames", info.Frames))
	return info, payload, nil
}

// Probe describes the stream without decoding samples.
func Probe(data []byte) (pcm.Info, error) {
	info, _, err := probe(data)
	return info, err
}

// Decode reads every sample.
func Decode(data []byte) (*media.AudioData, error) {
	info, payload, err := probe(data)
	if err != nil {
		return nil, err
	}
	a, err := info.Samples(payload)
	if err != nil {
		return nil, fmt.Errorf("au: %w", err)
	}
	return a, nil
}

// Encode writes a 24-byte header followed by big-endian samples. Audio
// without samples encodes to an empty slice.
func Encode(a *media.AudioData, opts Options) ([]byte, error) {
	if a.Empty() {
		return []byte{}, nil
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("au: %w", err)
	}
	f := pcm.Format{Bits: opts.BitsPerSample, Order: binary.BigEndian}
	switch {
	case opts.MuLaw:
		f = pcm.Format{Bits: 8, MuLaw: true}
	case opts.Float && f.Bits != 64:
		f.Bits, f.Float = 32, true
	case opts.Float:
		f.Float = true
	case f.Bits == 0:
		f.Bits = 16
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("au: %w", err)
	}
	if err := pcm.CheckChannels(a.Channels); err != nil {
		return nil, fmt.Errorf("au: %w", err)
	}

	dataLen := a.Frames() * a.Channels * f.BytesPerSample()
	w := binio.NewWriter(headerLen + dataLen)
	w.Tag(magic)
	w.U32BE(headerLen)
	w.U32BE(uint32(dataLen))
	w.U32BE(encoding(f))
	w.U32BE(uint32(a.SampleRate))
	w.U32BE(uint32(a.Channels))
	if err := pcm.Encode(w, a.Samples, f); err != nil {
		return nil, fmt.Errorf("au: %w", err)
	}
	return w.Bytes(), nil
}
