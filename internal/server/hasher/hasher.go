// Package hasher provides one-way password hashing and verification.
//
// Both implementations salt every call with fresh randomness, so hashing the
// same password twice yields different digests. Verify never compares
// byte-by-byte with early exit.
package hasher

import (
	"fmt"
	"strings"
)

// Hasher hashes passwords and verifies candidates against stored digests.
type Hasher interface {
	Hash(password string) ([]byte, error)
	Verify(password string, digest []byte) bool
}

type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// New returns the hasher for the named algorithm. An empty name selects
// bcrypt; bcryptCost is ignored for argon2id.
func New(algorithm string, bcryptCost int) (Hasher, error) {
	switch Algorithm(strings.ToLower(algorithm)) {
	case "", AlgorithmBcrypt:
		return NewBcryptHasher(bcryptCost), nil
	case AlgorithmArgon2id:
		return NewArgon2Hasher(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
}
