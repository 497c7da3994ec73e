package binio

import (
	"encoding/binary"
	"math"
)

// Writer appends fixed-width values to a growable buffer.
type Writer struct {
	buf []byte
}

// NewWriter pre-sizes the buffer to capacity bytes.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the written buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len is the number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

// Write implements io.Writer; it never fails.
func (w *Writer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *Writer) Raw(p []byte) { w.buf = append(w.buf, p...) }
func (w *Writer) Tag(s string) { w.buf = append(w.buf, s...) }
func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }
func (w *Writer) U16LE(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *Writer) U16BE(v uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }
func (w *Writer) U32LE(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *Writer) U32BE(v uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }
func (w *Writer) U64LE(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *Writer) U64BE(v uint64) { w.buf = binary.BigEndian.AppendUint64(w.buf, v) }
func (w *Writer) F32LE(v float32) { w.U32LE(math.Float32bits(v)) }
func (w *Writer) F32BE(v float32) { w.U32BE(math.Float32bits(v)) }
func (w *Writer) F64LE(v float64) { w.U64LE(math.Float64bits(v)) }
func (w *Writer) F64BE(v float64) { w.U64BE(math.Float64bits(v)) }
func (w *Writer) Zeros(n int) { w.buf = append(w.buf, make([]byte, n)...) }

// Extended80 appends v as an 80-bit extended float.
func (w *Writer) Extended80(v float64) {
	var b [10]byte
	EncodeExtended80(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutU32LEAt back-patches a little-endian size field.
func (w *Writer) PutU32LEAt(off int, v uint32) {
	binary.LittleEndian.PutUint32(w.buf[off:], v)
}

// PutU32BEAt back-patches a big-endian size field.
func (w *Writer) PutU32BEAt(off int, v uint32) {
	binary.BigEndian.PutUint32(w.buf[off:], v)
}
