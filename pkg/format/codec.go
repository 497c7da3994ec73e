package format

import (
	"fmt"

	"github.com/jpfielding/media.go/pkg/codec/aiff"
	"github.com/jpfielding/media.go/pkg/codec/au"
	"github.com/jpfielding/media.go/pkg/codec/jpeg"
	"github.com/jpfielding/media.go/pkg/codec/pcm"
	"github.com/jpfielding/media.go/pkg/codec/qoi"
	"github.com/jpfielding/media.go/pkg/codec/wav"
	"github.com/jpfielding/media.go/pkg/media"
)

// ImageCodec converts between a file format and RGBA pixels.
type ImageCodec interface {
	Decode(data []byte) (*media.ImageData, error)
	Encode(img *media.ImageData) ([]byte, error)
	CanDecode(data []byte) bool
	Format() Format
}

// AudioCodec converts between a file format and float samples.
type AudioCodec interface {
	Decode(data []byte) (*media.AudioData, error)
	Encode(a *media.AudioData) ([]byte, error)
	CanDecode(data []byte) bool
	// Probe reads the stream description without decoding samples
	Probe(data []byte) (pcm.Info, error)
	Format() Format
}

// Options carries the encoder settings shared across formats. Fields that do
// not apply to a format are ignored.
type Options struct {
	Quality       int  // jpeg
	Linear        bool // qoi colorspace
	BitsPerSample int
	Float         bool
	MuLaw         bool // wav, au
}

// Image returns the codec for an image format.
func Image(f Format, opts Options) (ImageCodec, error) {
	switch f {
	case QOI:
		cs := qoi.SRGB
		if opts.Linear {
			cs = qoi.Linear
		}
		return &qoiCodec{opts: qoi.Options{Colorspace: cs}}, nil
	case JPEG:
		return &jpegCodec{opts: jpeg.Options{Quality: opts.Quality}}, nil
	}
	return nil, fmt.Errorf("format: %s is not an image format: %w", f, media.ErrUnsupportedFeature)
}

// Audio returns the codec for an audio format.
func Audio(f Format, opts Options) (AudioCodec, error) {
	switch f {
	case WAV:
		return &wavCodec{opts: wav.Options{BitsPerSample: opts.BitsPerSample, Float: opts.Float, MuLaw: opts.MuLaw}}, nil
	case AIFF:
		if opts.MuLaw {
			return nil, fmt.Errorf("format: aiff mu-law encoding: %w", media.ErrUnsupportedFeature)
		}
		return &aiffCodec{opts: aiff.Options{BitsPerSample: opts.BitsPerSample, Float: opts.Float}}, nil
	case AU:
		return &auCodec{opts: au.Options{BitsPerSample: opts.BitsPerSample, Float: opts.Float, MuLaw: opts.MuLaw}}, nil
	}
	return nil, fmt.Errorf("format: %s is not an audio format: %w", f, media.ErrUnsupportedFeature)
}

// qoiCodec implements ImageCodec for QOI
type qoiCodec struct{ opts qoi.Options }

func (c *qoiCodec) Decode(data []byte) (*media.ImageData, error) { return qoi.Decode(data) }
func (c *qoiCodec) Encode(img *media.ImageData) ([]byte, error) {
	return qoi.EncodeWith(img, c.opts)
}
func (c *qoiCodec) CanDecode(data []byte) bool { return qoi.CanDecode(data) }
func (c *qoiCodec) Format() Format { return QOI }

// jpegCodec implements ImageCodec for baseline JPEG
type jpegCodec struct{ opts jpeg.Options }

func (c *jpegCodec) Decode(data []byte) (*media.ImageData, error) { return jpeg.Decode(data) }
func (c *jpegCodec) Encode(img *media.ImageData) ([]byte, error) {
	return jpeg.Encode(img, c.opts)
}
func (c *jpegCodec) CanDecode(data []byte) bool { return jpeg.CanDecode(data) }
func (c *jpegCodec) Format() Format { return JPEG }

// wavCodec implements AudioCodec for RIFF/WAVE
type wavCodec struct{ opts wav.Options }

func (c *wavCodec) Decode(data []byte) (*media.AudioData, error) { return wav.Decode(data) }
func (c *wavCodec) Encode(a *media.AudioData) ([]byte, error) { return wav.Encode(a, c.opts) }
func (c *wavCodec) CanDecode(data []byte) bool { return wav.CanDecode(data) }
func (c *wavCodec) Probe(data []byte) (pcm.Info, error) { return wav.Probe(data) }
func (c *wavCodec) Format() Format { return WAV }

// aiffCodec implements AudioCodec for AIFF/AIFC
type aiffCodec struct{ opts aiff.Options }

func (c *aiffCodec) Decode(data []byte) (*media.AudioData, error) { return aiff.Decode(data) }
func (c *aiffCodec) Encode(a *media.AudioData) ([]byte, error) { return aiff.Encode(a, c.opts) }
func (c *aiffCodec) CanDecode(data []byte) bool { return aiff.CanDecode(data) }
func (c *aiffCodec) Probe(data []byte) (pcm.Info, error) { return aiff.Probe(data) }
func (c *aiffCodec) Format() Format { return AIFF }

// auCodec implements AudioCodec for Sun .au
type auCodec struct{ opts au.Options }

func (c *auCodec) Decode(data []byte) (*media.AudioData, error) { return au.Decode(data) }
func (c *auCodec) Encode(a *media.AudioData) ([]byte, error) { return au.Encode(a, c.opts) }
func (c *auCodec) CanDecode(data []byte) bool { return au.CanDecode(data) }
func (c *auCodec) Probe(data []byte) (pcm.Info, error) { return au.Probe(data) }
func (c *auCodec) Format() Format { return AU }
