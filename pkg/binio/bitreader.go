package binio

// BitReader reads MSB-first bits from a JPEG entropy-coded segment.
// It removes 0xFF00 byte stuffing and skips RST0-RST7 markers. Any other
// marker, or the end of the buffer, ends the segment; from then on the
// reader yields 1 bits, as if the input were padded with 0xFF forever.
type BitReader struct {
	r    *Reader
	acc  uint64
	bits int  // valid bits in acc
	done bool // marker or end of input reached
	rst  int
}

// NewBitReader starts reading at r's current position.
func NewBitReader(r *Reader) *BitReader {
	return &BitReader{r: r}
}

// next returns the next data byte of the segment.
func (b *BitReader) next() byte {
	for !b.done {
		c, err := b.r.U8()
		if err != nil {
			b.done = true
			break
		}
		if c != 0xFF {
			return c
		}
		m, err := b.r.Peek()
		if err != nil {
			// lone 0xFF at the end of the buffer
			b.done = true
			break
		}
		switch {
		case m == 0x00:
			b.r.pos++
			return 0xFF
		case m >= 0xD0 && m <= 0xD7:
			b.r.pos++
			b.rst++
		default:
			// leave the marker for whoever reads after the scan
			b.r.pos--
			b.done = true
		}
	}
	return 0xFF
}

func (b *BitReader) fill(n int) {
	for b.bits < n {
		b.acc = b.acc<<8 | uint64(b.next())
		b.bits += 8
	}
}

// ReadBits consumes n bits (0 <= n <= 32). It never fails; the error is
// kept so the reader satisfies the bit source interfaces used by decoders.
func (b *BitReader) ReadBits(n int) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	b.fill(n)
	b.bits -= n
	return uint32(b.acc>>b.bits) & uint32(1<<n-1), nil
}

// ReadBit consumes a single bit.
func (b *BitReader) ReadBit() (uint32, error) {
	return b.ReadBits(1)
}

// PeekBits returns the next n bits without consuming them.
func (b *BitReader) PeekBits(n int) uint32 {
	if n == 0 {
		return 0
	}
	b.fill(n)
	return uint32(b.acc>>(b.bits-n)) & uint32(1<<n-1)
}

// AlignToByte drops the bits left over from a partially consumed byte.
func (b *BitReader) AlignToByte() {
	b.bits &^= 7
}

// Restarts counts the RST markers skipped so far.
func (b *BitReader) Restarts() int {
	return b.rst
}
