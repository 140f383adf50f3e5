package common

import "github.com/google/uuid"

// NewOpaqueID returns a fresh random 128-bit identifier rendered as a string.
// It is used for identity ids, session ids and reset tokens alike; uniqueness
// is probabilistic.
func NewOpaqueID() string {
	return uuid.NewString()
}

// WipeByteArray overwrites b with zeros so a secret does not linger in memory.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
