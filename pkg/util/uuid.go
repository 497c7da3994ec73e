package util

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"

	"github.com/google/uuid"
)

// Md5ThenHex is a quick hasher
func Md5ThenHex(value []byte) string {
	hasher := md5.New()
	hasher.Write(value)
	return hex.EncodeToString(hasher.Sum(nil))
}

// ContentID is a name-based (SHA-1) UUID of value, stable across runs.
func ContentID(value []byte) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, value)
}

// StreamSerial derives an Ogg stream serial number from the content so
// rewrapping the same input yields identical pages.
func StreamSerial(value []byte) uint32 {
	id := ContentID(value)
	return binary.BigEndian.Uint32(id[:4])
}

// RandomSerial picks a serial number from a random (v4) UUID.
func RandomSerial() uint32 {
	id := uuid.New()
	return binary.BigEndian.Uint32(id[:4])
}
