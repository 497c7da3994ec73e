// Package huffman builds canonical Huffman decode tables from the JPEG DHT
// representation (ITU-T T.81 Annex C) and decodes symbols from a bit source.
package huffman

import (
	"fmt"

	"github.com/jpfielding/media.go/pkg/media"
)

// BitSource supplies MSB-first bits.
type BitSource interface {
	ReadBit() (uint32, error)
	ReadBits(n int) (uint32, error)
}

// Table is an immutable canonical Huffman decode table.
type Table struct {
	values  []byte    // HUFFVAL
	maxCode [17]int32 // largest code of each length, -1 if none
	minCode [17]int32
	valPtr  [17]int
}

// NewTable derives the decode arrays from BITS and HUFFVAL.
func NewTable(bits [16]uint8, values []byte) (*Table, error) {
	total := 0
	for _, n := range bits {
		total += int(n)
	}
	if total > 256 {
		return nil, fmt.Errorf("huffman: %d codes exceed 256: %w", total, media.ErrInvalidHuffmanCode)
	}
	if len(values) < total {
		return nil, fmt.Errorf("huffman: %d codes but %d values: %w", total, len(values), media.ErrInvalidHuffmanCode)
	}
	t := &Table{values: append([]byte(nil), values[:total]...)}

	// HUFFSIZE, zero terminated
	sizes := make([]int, 0, total+1)
	for l := 1; l <= 16; l++ {
		for i := 0; i < int(bits[l-1]); i++ {
			sizes = append(sizes, l)
		}
	}
	sizes = append(sizes, 0)

	// HUFFCODE
	codes := make([]int32, total)
	code := int32(0)
	si := sizes[0]
	for k := 0; sizes[k] != 0; {
		for sizes[k] == si {
			codes[k] = code
			code++
			k++
		}
		if code > 1<<si {
			return nil, fmt.Errorf("huffman: code space overflow at length %d: %w", si, media.ErrInvalidHuffmanCode)
		}
		code <<= 1
		si++
	}

	j := 0
	for l := 1; l <= 16; l++ {
		n := int(bits[l-1])
		if n == 0 {
			t.maxCode[l] = -1
			continue
		}
		t.valPtr[l] = j
		t.minCode[l] = codes[j]
		j += n
		t.maxCode[l] = codes[j-1]
	}
	return t, nil
}

// Lookup resolves a code of the given length, reporting whether it is
// assigned.
func (t *Table) Lookup(code int32, length int) (byte, bool) {
	if length < 1 || length > 16 {
		return 0, false
	}
	if t.maxCode[length] < 0 || code > t.maxCode[length] || code < t.minCode[length] {
		return 0, false
	}
	return t.values[t.valPtr[length]+int(code-t.minCode[length])], true
}

// Decode reads one symbol, a bit at a time.
func (t *Table) Decode(src BitSource) (byte, error) {
	code := int32(0)
	for l := 1; l <= 16; l++ {
		bit, err := src.ReadBit()
		if err != nil {
			return 0, err
		}
		code = code<<1 | int32(bit)
		if v, ok := t.Lookup(code, l); ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("huffman: no code matches %016b: %w", code, media.ErrInvalidHuffmanCode)
}

// Len is the number of symbols in the table.
func (t *Table) Len() int {
	return len(t.values)
}

// ReceiveExtend reads length bits and applies Extend.
func ReceiveExtend(src BitSource, length int) (int32, error) {
	if length == 0 {
		return 0, nil
	}
	if length > 16 {
		return 0, fmt.Errorf("huffman: magnitude category %d: %w", length, media.ErrInvalidHuffmanCode)
	}
	v, err := src.ReadBits(length)
	if err != nil {
		return 0, err
	}
	return Extend(int32(v), length), nil
}

// Extend maps an unsigned length-bit value onto the signed range of its
// magnitude category (T.81 F.2.2.1).
func Extend(v int32, length int) int32 {
	if length == 0 {
		return 0
	}
	if v < 1<<(length-1) {
		return v - (1<<length - 1)
	}
	return v
}
