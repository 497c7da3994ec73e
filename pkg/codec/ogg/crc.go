package ogg

// crcTable holds the MSB-first remainders for polynomial 0x04C11DB7.
var crcTable = func() (t [256]uint32) {
	for i := range t {
		r := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04C11DB7
			} else {
				r <<= 1
			}
		}
		t[i] = r
	}
	return t
}()

// CRC32 is the Ogg page checksum: polynomial 0x04C11DB7, not reflected,
// initial value 0, no final xor. It is not the IEEE CRC of hash/crc32.
func CRC32(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}
