package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/bytedance/sonic"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
)

// Hasher provides hashing of strings and JSON-serializable values
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{
		algorithm: algorithm,
	}
}

// DefaultHasher returns a hasher with the default algorithm
func DefaultHasher() *Hasher {
	return NewHasher(SHA256)
}

// Hash computes a hash of the input data
func (h *Hasher) Hash(data []byte) string {
	switch h.algorithm {
	case SHA256:
		fallthrough
	default:
		hash := sha256.Sum256(data)
		return hex.EncodeToString(hash[:])
	}
}

// HashJSON computes a hash of a JSON-serializable object.
// Map keys are sorted, so equal objects hash equally.
func (h *Hasher) HashJSON(v any) (string, error) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return h.Hash(data), nil
}

// PayloadComparer decides whether two opaque launch payloads are the same
type PayloadComparer struct {
	hasher *Hasher
}

// NewPayloadComparer creates a comparer; nil hasher means DefaultHasher
func NewPayloadComparer(hasher *Hasher) *PayloadComparer {
	if hasher == nil {
		hasher = DefaultHasher()
	}
	return &PayloadComparer{hasher: hasher}
}

// Equal reports whether a and b serialize to the same canonical JSON.
// Values that cannot be serialized are never equal to anything.
func (pc *PayloadComparer) Equal(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	ha, err := pc.hasher.HashJSON(a)
	if err != nil {
		return false
	}
	hb, err := pc.hasher.HashJSON(b)
	if err != nil {
		return false
	}
	return ha == hb
}
