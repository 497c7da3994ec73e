// Package format identifies media formats and dispatches to their codecs.
package format

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jpfielding/media.go/pkg/codec/aiff"
	"github.com/jpfielding/media.go/pkg/codec/au"
	"github.com/jpfielding/media.go/pkg/codec/jpeg"
	"github.com/jpfielding/media.go/pkg/codec/ogg"
	"github.com/jpfielding/media.go/pkg/codec/qoi"
	"github.com/jpfielding/media.go/pkg/codec/wav"
	"github.com/jpfielding/media.go/pkg/media"
)

// Format is a supported file format.
type Format int

const (
	Unknown Format = iota
	QOI
	JPEG
	WAV
	AIFF
	AU
	OGG
)

// All lists every known format in detection order.
var All = []Format{QOI, JPEG, WAV, AIFF, AU, OGG}

// Kind groups formats by what they carry.
type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindAudio
	KindContainer
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindAudio:
		return "audio"
	case KindContainer:
		return "container"
	}
	return "unknown"
}

func (f Format) String() string {
	switch f {
	case QOI:
		return "qoi"
	case JPEG:
		return "jpeg"
	case WAV:
		return "wav"
	case AIFF:
		return "aiff"
	case AU:
		return "au"
	case OGG:
		return "ogg"
	}
	return "unknown"
}

// Kind reports whether f holds an image, audio or other streams.
func (f Format) Kind() Kind {
	switch f {
	case QOI, JPEG:
		return KindImage
	case WAV, AIFF, AU:
		return KindAudio
	case OGG:
		return KindContainer
	}
	return KindUnknown
}

// Parse accepts a format name or common file extension, with or without the
// leading dot.
func Parse(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "qoi":
		return QOI, nil
	case "jpeg", "jpg", "jpe", "jfif":
		return JPEG, nil
	case "wav", "wave":
		return WAV, nil
	case "aiff", "aif", "aifc":
		return AIFF, nil
	case "au", "snd":
		return AU, nil
	case "ogg", "oga":
		return OGG, nil
	}
	return Unknown, fmt.Errorf("format: unknown format %q: %w", s, media.ErrUnsupportedFeature)
}

// FromPath parses the extension of path.
func FromPath(path string) (Format, error) {
	return Parse(filepath.Ext(path))
}

// Detect sniffs the leading bytes of data.
func Detect(data []byte) Format {
	switch {
	case qoi.CanDecode(data):
		return QOI
	case jpeg.CanDecode(data):
		return JPEG
	case wav.CanDecode(data):
		return WAV
	case aiff.CanDecode(data):
		return AIFF
	case au.CanDecode(data):
		return AU
	case ogg.CanDecode(data):
		return OGG
	}
	return Unknown
}
