// Package binio provides sequential little/big-endian access to byte
// buffers, the 80-bit extended float used by AIFF, and the entropy-coded
// segment bit reader used by the JPEG decoder.
package binio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/jpfielding/media.go/pkg/media"
)

// Reader is a cursor over an immutable byte slice.
// A failed read leaves the position unchanged.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data; the slice is never modified.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos is the current offset.
func (r *Reader) Pos() int { return r.pos }

// Len is the total length of the underlying buffer.
func (r *Reader) Len() int { return len(r.data) }

// Remaining is the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// Seek moves to an absolute offset within [0, Len].
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return fmt.Errorf("binio: seek to %d of %d: %w", pos, len(r.data), media.ErrUnexpectedEOF)
	}
	r.pos = pos
	return nil
}

// Skip advances n bytes.
func (r *Reader) Skip(n int) error {
	if _, err := r.take(n); err != nil {
		return err
	}
	return nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("binio: need %d bytes at offset %d, have %d: %w",
			n, r.pos, len(r.data)-r.pos, media.ErrUnexpectedEOF)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Bytes returns the next n bytes as a sub-slice of the input.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.take(n)
}

// Peek returns the next byte without consuming it.
func (r *Reader) Peek() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("binio: peek at %d: %w", r.pos, media.ErrUnexpectedEOF)
	}
	return r.data[r.pos], nil
}

// Tag reads a four character code.
func (r *Reader) Tag() (string, error) {
	b, err := r.take(4)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) U16LE() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) U16BE() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) U32LE() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) U32BE() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) U64LE() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) U64BE() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *Reader) F32LE() (float32, error) {
	v, err := r.U32LE()
	return math.Float32frombits(v), err
}

func (r *Reader) F32BE() (float32, error) {
	v, err := r.U32BE()
	return math.Float32frombits(v), err
}

func (r *Reader) F64LE() (float64, error) {
	v, err := r.U64LE()
	return math.Float64frombits(v), err
}

func (r *Reader) F64BE() (float64, error) {
	v, err := r.U64BE()
	return math.Float64frombits(v), err
}

// Extended80 reads a big-endian IEEE 754 80-bit extended float.
func (r *Reader) Extended80() (float64, error) {
	b, err := r.take(10)
	if err != nil {
		return 0, err
	}
	return DecodeExtended80(b), nil
}
