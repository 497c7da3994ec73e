package media

import "errors"

// Error kinds shared by every codec. Codecs wrap these with a package prefix
// and context, so callers test with errors.Is.
var (
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrUnexpectedEOF      = errors.New("unexpected end of data")
	ErrTooSmall           = errors.New("input too small")
	ErrMissingChunk       = errors.New("missing required chunk")
	ErrUnsupportedFeature = errors.New("unsupported feature")
	ErrMalformedOpcode    = errors.New("malformed opcode")
	ErrInvalidHuffmanCode = errors.New("invalid huffman code")
	ErrInvalidDimensions  = errors.New("invalid dimensions")
	ErrInvalidFrameData   = errors.New("invalid frame data")
	ErrChecksum           = errors.New("checksum mismatch")
)
