package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
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

// Domain-specific hash types. A DesignHash fingerprints the study design
// (blocks, groups, thresholds); a FrameHash fingerprints the loaded dataset.
// Together they make a stored run traceable to its exact inputs.
type (
	DesignHash Hash
	FrameHash  Hash
)

// Constructors
func NewDesignHash(data []byte) DesignHash { return DesignHash(NewHash(data)) }
func NewFrameHash(data []byte) FrameHash   { return FrameHash(NewHash(data)) }

// String conversions
func (h DesignHash) String() string { return Hash(h).String() }
func (h FrameHash) String() string  { return Hash(h).String() }
