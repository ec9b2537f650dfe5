package utils

import (
	"crypto/rand"
	"encoding/binary"
	"os"
)

// CreateFolder makes the directory (and parents) if it does not exist.
func CreateFolder(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0755)
	}
	return nil
}

// GenerateUniqueID returns a random 32-bit identifier.
func GenerateUniqueID() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return binary.BigEndian.Uint32(buf[:])
}
