package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new SHA-256 hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashFile computes the SHA-256 hash of a file's raw bytes, streaming in
// chunks so large artefacts never load fully into memory.
func HashFile(path string) (Hash, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, NewReadError(path, err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, NewReadError(path, err)
	}
	return Hash(hex.EncodeToString(h.Sum(nil))), n, nil
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	ArtefactHash Hash
	ConfigHash   Hash
)

// Constructors
func NewArtefactHash(data []byte) ArtefactHash { return ArtefactHash(NewHash(data)) }
func NewConfigHash(data []byte) ConfigHash     { return ConfigHash(NewHash(data)) }

// String conversions
func (h ArtefactHash) String() string { return Hash(h).String() }
func (h ConfigHash) String() string   { return Hash(h).String() }

// ComputeConfigHash hashes a flat parameter map in sorted key order so the
// result is independent of map iteration order.
func ComputeConfigHash(params map[string]interface{}) ConfigHash {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString(fmt.Sprintf("%v", params[key]))
	}

	return NewConfigHash([]byte(data.String()))
}
