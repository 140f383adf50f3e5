package models

// Identity is a registered caller's credential record.
//
// SessionID and ResetToken are nil when unset. PasswordHash holds the
// encoded digest produced by the configured hasher, never a plaintext.
type Identity struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	PasswordHash []byte  `json:"-"`
	SessionID    *string `json:"-"`
	ResetToken   *string `json:"-"`
}

// HasSession reports whether a store-backed session id is set.
func (i *Identity) HasSession() bool {
	return i != nil && i.SessionID != nil && *i.SessionID != ""
}
