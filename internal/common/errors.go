// Package common defines shared constants and sentinel errors used across
// gatekeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound   = errors.New("not found")
	ErrInvalidQuery = errors.New("invalid query")
	ErrUnknownField = errors.New("unknown field")

	// Service-level errors.
	ErrorInternal      = errors.New("internal error")
	ErrorAlreadyExists = errors.New("already exists")

	// Reset token redemption with a token no identity holds.
	ErrInvalidToken = errors.New("invalid token")

	// Password the configured hasher cannot accept, e.g. over bcrypt's 72 bytes.
	ErrInvalidPassword = errors.New("invalid password")

	// Basic header without the prefix, with bad base64 or without a separator.
	ErrMalformedCredential = errors.New("malformed credential")
)
