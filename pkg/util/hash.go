package util

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ContentHash is the xxHash64 digest of a decoded buffer.
func ContentHash(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// ContentHashHex formats ContentHash as 16 hex digits.
func ContentHashHex(b []byte) string {
	return fmt.Sprintf("%016x", ContentHash(b))
}
