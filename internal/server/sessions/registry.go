// Package sessions keeps the process-wide mapping from opaque session ids to
// subject ids. The registry is memory-only; nothing survives a restart.
package sessions

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

// Clock returns the current time. Registries always store UTC.
type Clock func() time.Time

func UTCClock() time.Time { return time.Now().UTC() }

// Registry is safe for concurrent use. A record becomes visible to readers
// only once it is complete.
type Registry struct {
	mu      sync.RWMutex
	records map[string]models.SessionRecord
	now     Clock
	newID   func() string
}

type Option func(*Registry)

// WithClock overrides the time source used to stamp CreatedAt.
func WithClock(c Clock) Option {
	return func(r *Registry) { r.now = c }
}

// WithIDGenerator overrides how session ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) { r.newID = gen }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		records: make(map[string]models.SessionRecord),
		now:     UTCClock,
		newID:   common.NewOpaqueID,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Now reports the registry's notion of the current time (UTC).
func (r *Registry) Now() time.Time {
	return r.now().UTC()
}

// Create mints a new session for subjectID. It returns false when subjectID
// is empty. A subject may hold any number of sessions.
func (r *Registry) Create(subjectID string) (string, bool) {
	if subjectID == "" {
		return "", false
	}

	rec := models.SessionRecord{
		SessionID: r.newID(),
		SubjectID: subjectID,
		CreatedAt: r.Now(),
	}

	r.mu.Lock()
	r.records[rec.SessionID] = rec
	r.mu.Unlock()

	return rec.SessionID, true
}

// Lookup returns the record for sessionID regardless of its age.
func (r *Registry) Lookup(sessionID string) (models.SessionRecord, bool) {
	if sessionID == "" {
		return models.SessionRecord{}, false
	}

	r.mu.RLock()
	rec, ok := r.records[sessionID]
	r.mu.RUnlock()

	return rec, ok
}

// SubjectFor resolves sessionID to its subject under the given policy.
// Expired records are reported as missing but left in place.
func (r *Registry) SubjectFor(sessionID string, policy ExpirationPolicy) (string, bool) {
	rec, ok := r.Lookup(sessionID)
	if !ok || rec.SubjectID == "" {
		return "", false
	}
	if policy.Expired(rec, r.Now()) {
		return "", false
	}
	return rec.SubjectID, true
}

// Delete removes sessionID and reports whether it was present.
func (r *Registry) Delete(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[sessionID]; !ok {
		return false
	}
	delete(r.records, sessionID)
	return true
}

// Len is the number of stored records, expired ones included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
