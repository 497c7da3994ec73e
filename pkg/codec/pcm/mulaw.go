package pcm

// G.711 mu-law companding.
const (
	muLawBias = 0x84
	muLawClip = 32635
)

// MuLawDecode expands a mu-law byte to linear 16-bit PCM.
func MuLawDecode(b byte) int16 {
	u := ^b
	t := (int32(u&0x0F) << 3) + muLawBias
	t <<= (u & 0x70) >> 4
	if u&0x80 != 0 {
		return int16(muLawBias - t)
	}
	return int16(t - muLawBias)
}

// MuLawEncode compresses a linear 16-bit sample.
func MuLawEncode(s int16) byte {
	v := int32(s)
	sign := byte(0)
	if v < 0 {
		sign = 0x80
		v = -v
	}
	v = min(v, muLawClip) + muLawBias

	seg := byte(7)
	for i, end := range [8]int32{0xFF, 0x1FF, 0x3FF, 0x7FF, 0xFFF, 0x1FFF, 0x3FFF, 0x7FFF} {
		if v <= end {
			seg = byte(i)
			break
		}
	}
	return ^(sign | seg<<4 | byte(v>>(seg+3))&0x0F)
}
