package models

import "time"

// SessionRecord maps an opaque session id to the subject it authenticates.
// CreatedAt is always UTC.
type SessionRecord struct {
	SessionID string
	SubjectID string
	CreatedAt time.Time
}
