package binio

import (
	"math"
	"testing"

	"github.com/jpfielding/media.go/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_Integers(t *testing.T) {
	r := NewReader([]byte{
		0x01,
		0x02, 0x03,
		0x02, 0x03,
		0x01, 0x02, 0x03, 0x04,
		0x01, 0x02, 0x03, 0x04,
		1, 0, 0, 0, 0, 0, 0, 0,
	})
	u8, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(1), u8)

	le16, _ := r.U16LE()
	assert.Equal(t, uint16(0x0302), le16)
	be16, _ := r.U16BE()
	assert.Equal(t, uint16(0x0203), be16)
	le32, _ := r.U32LE()
	assert.Equal(t, uint32(0x04030201), le32)
	be32, _ := r.U32BE()
	assert.Equal(t, uint32(0x01020304), be32)
	le64, _ := r.U64LE()
	assert.Equal(t, uint64(1), le64)
	assert.Equal(t, 0, r.Remaining())
}

func TestReader_PastEnd(t *testing.T) {
	r := NewReader([]byte{0xAA, 0xBB, 0xCC})
	require.NoError(t, r.Skip(1))

	_, err := r.U32BE()
	assert.ErrorIs(t, err, media.ErrUnexpectedEOF)
	assert.Equal(t, 1, r.Pos(), "failed read must not advance")

	v, err := r.U16BE()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBBCC), v)

	_, err = r.U8()
	assert.ErrorIs(t, err, media.ErrUnexpectedEOF)
	_, err = r.Peek()
	assert.ErrorIs(t, err, media.ErrUnexpectedEOF)
	assert.ErrorIs(t, r.Seek(4), media.ErrUnexpectedEOF)
}

func TestWriter_MirrorsReader(t *testing.T) {
	w := NewWriter(0)
	w.Tag("RIFF")
	w.U8(7)
	w.U16LE(0xBEEF)
	w.U16BE(0xBEEF)
	w.U32LE(0xDEADBEEF)
	w.U32BE(0xDEADBEEF)
	w.U64BE(0x0102030405060708)
	w.F32LE(1.5)
	w.F64BE(-2.25)
	w.Extended80(44100)

	r := NewReader(w.Bytes())
	tag, _ := r.Tag()
	assert.Equal(t, "RIFF", tag)
	u8, _ := r.U8()
	assert.Equal(t, uint8(7), u8)
	a, _ := r.U16LE()
	b, _ := r.U16BE()
	assert.Equal(t, a, b)
	c, _ := r.U32LE()
	d, _ := r.U32BE()
	assert.Equal(t, c, d)
	e, _ := r.U64BE()
	assert.Equal(t, uint64(0x0102030405060708), e)
	f, _ := r.F32LE()
	assert.Equal(t, float32(1.5), f)
	g, _ := r.F64BE()
	assert.Equal(t, -2.25, g)
	h, err := r.Extended80()
	require.NoError(t, err)
	assert.Equal(t, 44100.0, h)
	assert.Equal(t, 0, r.Remaining())
}

func TestWriter_BackPatch(t *testing.T) {
	w := NewWriter(16)
	w.Tag("FORM")
	w.U32BE(0)
	w.Tag("AIFF")
	w.PutU32BEAt(4, uint32(w.Len()-8))
	assert.Equal(t, []byte("FORM\x00\x00\x00\x04AIFF"), w.Bytes())
}

func TestExtended80(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		bytes []byte
	}{
		{"zero", 0, []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"44100", 44100, []byte{0x40, 0x0E, 0xAC, 0x44, 0, 0, 0, 0, 0, 0}},
		{"48000", 48000, []byte{0x40, 0x0E, 0xBB, 0x80, 0, 0, 0, 0, 0, 0}},
		{"8000", 8000, []byte{0x40, 0x0B, 0xFA, 0x00, 0, 0, 0, 0, 0, 0}},
		{"one", 1, []byte{0x3F, 0xFF, 0x80, 0, 0, 0, 0, 0, 0, 0}},
		{"minus one", -1, []byte{0xBF, 0xFF, 0x80, 0, 0, 0, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b [10]byte
			EncodeExtended80(b[:], tt.value)
			assert.Equal(t, tt.bytes, b[:])
			assert.Equal(t, tt.value, DecodeExtended80(tt.bytes))
		})
	}
}

func TestExtended80_Specials(t *testing.T) {
	var b [10]byte
	EncodeExtended80(b[:], math.Inf(1))
	assert.True(t, math.IsInf(DecodeExtended80(b[:]), 1))
	EncodeExtended80(b[:], math.NaN())
	assert.True(t, math.IsNaN(DecodeExtended80(b[:])))
	EncodeExtended80(b[:], 22050.5)
	assert.Equal(t, 22050.5, DecodeExtended80(b[:]))
}

func TestBitReader_Stuffing(t *testing.T) {
	// 0xFF00 is a single 0xFF data byte
	br := NewBitReader(NewReader([]byte{0xFF, 0x00, 0x0F}))
	v, _ := br.ReadBits(8)
	assert.Equal(t, uint32(0xFF), v)
	v, _ = br.ReadBits(8)
	assert.Equal(t, uint32(0x0F), v)
}

func TestBitReader_SkipsRestartMarkers(t *testing.T) {
	br := NewBitReader(NewReader([]byte{0xA5, 0xFF, 0xD3, 0x5A}))
	v, _ := br.ReadBits(16)
	assert.Equal(t, uint32(0xA55A), v)
	assert.Equal(t, 1, br.Restarts())
}

func TestBitReader_PadsPastEnd(t *testing.T) {
	br := NewBitReader(NewReader([]byte{0xA0}))
	v, _ := br.ReadBits(4)
	assert.Equal(t, uint32(0xA), v)
	v, _ = br.ReadBits(8)
	assert.Equal(t, uint32(0x0F), v, "missing bits read as 1")
	v, _ = br.ReadBits(16)
	assert.Equal(t, uint32(0xFFFF), v)
}

func TestBitReader_StopsAtMarker(t *testing.T) {
	r := NewReader([]byte{0x12, 0xFF, 0xD9})
	br := NewBitReader(r)
	v, _ := br.ReadBits(16)
	assert.Equal(t, uint32(0x12FF), v)
	assert.Equal(t, 1, r.Pos(), "marker stays unread")
}

func TestBitReader_PeekAndAlign(t *testing.T) {
	br := NewBitReader(NewReader([]byte{0xB7, 0x3C}))
	assert.Equal(t, uint32(0xB), br.PeekBits(4))
	assert.Equal(t, uint32(0xB), br.PeekBits(4), "peek is non-destructive")
	v, _ := br.ReadBits(3)
	assert.Equal(t, uint32(0x5), v)
	br.AlignToByte()
	v, _ = br.ReadBits(8)
	assert.Equal(t, uint32(0x3C), v)
}
