package sessions

import (
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

// ExpirationPolicy decides whether a session is still usable. The zero
// value, and any non-positive Duration, never expires.
type ExpirationPolicy struct {
	Duration time.Duration
}

// NeverExpires is the policy of plain session authentication.
var NeverExpires = ExpirationPolicy{}

// Expired reports whether rec is past its lifetime at now. A session is
// valid while now <= CreatedAt + Duration.
func (p ExpirationPolicy) Expired(rec models.SessionRecord, now time.Time) bool {
	if p.Duration <= 0 {
		return false
	}
	if rec.CreatedAt.IsZero() {
		return true
	}
	return now.UTC().After(rec.CreatedAt.UTC().Add(p.Duration))
}
