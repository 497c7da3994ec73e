package binio

import (
	"encoding/binary"
	"math"
)

const extendedBias = 16383

// DecodeExtended80 converts ten big-endian bytes: 1 sign bit, 15 exponent
// bits and a 64-bit mantissa with an explicit integer bit.
func DecodeExtended80(b []byte) float64 {
	se := binary.BigEndian.Uint16(b[0:2])
	mant := binary.BigEndian.Uint64(b[2:10])
	exp := int(se & 0x7FFF)
	if exp == 0 && mant == 0 {
		return 0
	}
	if exp == 0x7FFF {
		if mant<<1 != 0 {
			return math.NaN()
		}
		if se&0x8000 != 0 {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	v := math.Ldexp(float64(mant), exp-extendedBias-63)
	if se&0x8000 != 0 {
		v = -v
	}
	return v
}

// EncodeExtended80 writes v into b[0:10].
func EncodeExtended80(b []byte, v float64) {
	clear(b[:10])
	var sign uint16
	if math.Signbit(v) {
		sign = 0x8000
		v = -v
	}
	switch {
	case math.IsNaN(v):
		binary.BigEndian.PutUint16(b[0:2], 0x7FFF)
		binary.BigEndian.PutUint64(b[2:10], 0xC000000000000000)
		return
	case math.IsInf(v, 0):
		binary.BigEndian.PutUint16(b[0:2], sign|0x7FFF)
		binary.BigEndian.PutUint64(b[2:10], 0x8000000000000000)
		return
	case v == 0:
		binary.BigEndian.PutUint16(b[0:2], sign)
		return
	}
	// v = frac * 2^e with frac in [0.5, 1); shifting frac by 64 sets the
	// integer bit of the mantissa.
	frac, e := math.Frexp(v)
	exp := e + extendedBias - 1
	if exp <= 0 {
		binary.BigEndian.PutUint16(b[0:2], sign)
		return
	}
	if exp >= 0x7FFF {
		binary.BigEndian.PutUint16(b[0:2], sign|0x7FFF)
		binary.BigEndian.PutUint64(b[2:10], 0x8000000000000000)
		return
	}
	binary.BigEndian.PutUint16(b[0:2], sign|uint16(exp))
	binary.BigEndian.PutUint64(b[2:10], uint64(math.Ldexp(frac, 64)))
}
