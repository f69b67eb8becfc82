package duckdb

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

// ContentKey identifies a coverage file by its name and bytes. Editing or
// renaming the file yields a new key.
func ContentKey(name string, data []byte) string {
	h, _ := blake2b.New256(nil) // only fails for oversized keys
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Source describes one cached coverage file.
type Source struct {
	Key       string
	Name      string
	Genes     int
	CreatedAt time.Time
}
