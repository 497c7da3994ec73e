package pcm

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpfielding/media.go/pkg/binio"
	"github.com/jpfielding/media.go/pkg/media"
)

// Chunk is one (id, size, body) record of a RIFF or IFF container.
type Chunk struct {
	ID     string
	Offset int // of the body within the file
	Data   []byte
}

// Chunks walks the records starting at pos. Bodies of odd size are followed
// by a pad byte. A final chunk whose size runs past the end of data is
// clamped to what is available.
func Chunks(data []byte, pos int, order binary.ByteOrder) ([]Chunk, error) {
	r := binio.NewReader(data)
	if err := r.Seek(pos); err != nil {
		return nil, err
	}
	var chunks []Chunk
	for r.Remaining() >= 8 {
		id, _ := r.Tag()
		var size uint32
		if order == binary.BigEndian {
			size, _ = r.U32BE()
		} else {
			size, _ = r.U32LE()
		}
		n := int(size)
		if uint64(size) > uint64(r.Remaining()) {
			slog.Warn("pcm: chunk overruns file, clamping",
				slog.String("id", id),
				slog.Int("declared", int(size)),
				slog.Int("available", r.Remaining()))
			n = r.Remaining()
		}
		off := r.Pos()
		body, _ := r.Bytes(n)
		chunks = append(chunks, Chunk{ID: id, Offset: off, Data: body})
		slog.Debug("pcm: chunk", slog.String("id", id), slog.Int("offset", off), slog.Int("size", n))
		if n%2 == 1 && r.Remaining() > 0 {
			_ = r.Skip(1)
		}
	}
	return chunks, nil
}

// Find returns the first chunk with the given id.
func Find(chunks []Chunk, id string) (Chunk, error) {
	for _, c := range chunks {
		if c.ID == id {
			return c, nil
		}
	}
	return Chunk{}, fmt.Errorf("pcm: no %q chunk: %w", id, media.ErrMissingChunk)
}

// Info describes a stream without its samples.
type Info struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
	Frames        int
	Duration      time.Duration
	Format        Format
}

// NewInfo derives frame count and duration from the payload size.
func NewInfo(channels, sampleRate int, f Format, dataLen int) Info {
	info := Info{
		Channels:      channels,
		SampleRate:    sampleRate,
		BitsPerSample: f.BytesPerSample() * 8,
		Format:        f,
	}
	if bps := f.BytesPerSample(); channels > 0 && bps > 0 {
		info.Frames = dataLen / (channels * bps)
	}
	if sampleRate > 0 {
		info.Duration = time.Duration(info.Frames) * time.Second / time.Duration(sampleRate)
	}
	return info
}

// Check validates the header fields shared by every container.
func (i Info) Check() error {
	if err := CheckChannels(i.Channels); err != nil {
		return err
	}
	if i.SampleRate < 1 {
		return fmt.Errorf("pcm: sample rate %d: %w", i.SampleRate, media.ErrInvalidFrameData)
	}
	return i.Format.Validate()
}

// Samples decodes data into an AudioData using the info's format.
func (i Info) Samples(data []byte) (*media.AudioData, error) {
	samples, err := Decode(data, i.Channels, i.Format)
	if err != nil {
		return nil, err
	}
	return &media.AudioData{Samples: samples, SampleRate: i.SampleRate, Channels: i.Channels}, nil
}
