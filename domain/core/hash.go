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

// Short returns a 16-character prefix, enough to identify a report
func (h Hash) Short() string {
	if len(h) < 16 {
		return string(h)
	}
	return string(h[:16])
}

// Fingerprint identifies a derived artifact by the content that produced it.
// Two reports computed from identical inputs carry equal fingerprints.
type Fingerprint Hash

// NewFingerprint hashes the canonical byte form of an artifact
func NewFingerprint(data []byte) Fingerprint { return Fingerprint(NewHash(data)) }

func (f Fingerprint) String() string { return Hash(f).String() }
func (f Fingerprint) Short() string  { return Hash(f).Short() }
