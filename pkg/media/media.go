// Package media holds the in-memory image and audio model shared by every
// codec in this module.
package media

import (
	"fmt"
	"time"
)

// ImageData is an 8-bit RGBA raster, row-major, top to bottom.
type ImageData struct {
	Width  int
	Height int
	Data   []byte
}

// NewImage allocates a zeroed width x height image.
func NewImage(width, height int) *ImageData {
	return &ImageData{
		Width:  width,
		Height: height,
		Data:   make([]byte, width*height*4),
	}
}

// Empty reports whether the image has no pixels.
func (img *ImageData) Empty() bool {
	return img.Width == 0 || img.Height == 0
}

// Validate checks the buffer against the dimensions.
func (img *ImageData) Validate() error {
	if img.Width < 0 || img.Height < 0 {
		return fmt.Errorf("media: %w: %dx%d", ErrInvalidDimensions, img.Width, img.Height)
	}
	if want := img.Width * img.Height * 4; len(img.Data) != want {
		return fmt.Errorf("media: %w: %dx%d needs %d bytes, have %d",
			ErrInvalidDimensions, img.Width, img.Height, want, len(img.Data))
	}
	return nil
}

// Opaque reports whether every pixel has alpha 255.
func (img *ImageData) Opaque() bool {
	for i := 3; i < len(img.Data); i += 4 {
		if img.Data[i] != 0xFF {
			return false
		}
	}
	return true
}

// AudioData is de-interleaved audio; each channel holds normalized samples
// in [-1, 1].
type AudioData struct {
	Samples    [][]float64
	SampleRate int
	Channels   int
}

// NewAudio allocates channels x frames of silence.
func NewAudio(channels, frames, sampleRate int) *AudioData {
	samples := make([][]float64, channels)
	for c := range samples {
		samples[c] = make([]float64, frames)
	}
	return &AudioData{Samples: samples, SampleRate: sampleRate, Channels: channels}
}

// Frames returns the number of samples per channel.
func (a *AudioData) Frames() int {
	if len(a.Samples) == 0 {
		return 0
	}
	return len(a.Samples[0])
}

// Empty reports whether there is nothing to encode.
func (a *AudioData) Empty() bool {
	return a == nil || len(a.Samples) == 0 || len(a.Samples[0]) == 0
}

// Duration is Frames / SampleRate.
func (a *AudioData) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(a.Frames()) * time.Second / time.Duration(a.SampleRate)
}

// Validate enforces the channel count and equal channel lengths.
func (a *AudioData) Validate() error {
	if a.Channels != len(a.Samples) {
		return fmt.Errorf("media: %w: channels=%d but %d sample slices",
			ErrInvalidFrameData, a.Channels, len(a.Samples))
	}
	frames := a.Frames()
	for c, ch := range a.Samples {
		if len(ch) != frames {
			return fmt.Errorf("media: %w: channel %d has %d frames, want %d",
				ErrInvalidFrameData, c, len(ch), frames)
		}
	}
	if a.SampleRate <= 0 && frames > 0 {
		return fmt.Errorf("media: %w: sample rate %d", ErrInvalidFrameData, a.SampleRate)
	}
	return nil
}
