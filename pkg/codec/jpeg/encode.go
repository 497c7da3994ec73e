package jpeg

import (
	"bytes"
	"fmt"
	stdjpeg "image/jpeg"

	"github.com/jpfielding/media.go/pkg/media"
)

// DefaultQuality is used when Options.Quality is zero.
const DefaultQuality = 90

// Options configures encoding.
type Options struct {
	Quality int // 1..100
}

// Encode writes img as a baseline JFIF. Alpha is discarded.
func Encode(img *media.ImageData, opts Options) ([]byte, error) {
	if img.Empty() {
		return []byte{}, nil
	}
	if err := img.Validate(); err != nil {
		return nil, fmt.Errorf("jpeg: %w", err)
	}
	q := opts.Quality
	if q == 0 {
		q = DefaultQuality
	}
	if q < 1 || q > 100 {
		return nil, fmt.Errorf("jpeg: quality %d: %w", q, media.ErrUnsupportedFeature)
	}
	var buf bytes.Buffer
	if err := stdjpeg.Encode(&buf, img.ToNRGBA(), &stdjpeg.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("jpeg: encode: %w", err)
	}
	return buf.Bytes(), nil
}
