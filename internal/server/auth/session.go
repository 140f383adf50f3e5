package auth

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/identities"
	"github.com/dmitrijs2005/gatekeeper/internal/server/sessions"
)

// SessionAuth resolves callers from a session cookie. With a positive
// expiration policy it is the session_exp_auth kind; expired sessions read as
// missing but stay in the registry.
type SessionAuth struct {
	NoAuth
	kind     Kind
	registry *sessions.Registry
	policy   sessions.ExpirationPolicy
	finder   IdentityFinder
	log      logging.Logger
}

func NewSessionAuth(cookieName string, registry *sessions.Registry, finder IdentityFinder, log logging.Logger) *SessionAuth {
	return newSessionAuth(NewNoAuth(cookieName), KindSession, registry, finder, sessions.NeverExpires, log)
}

// NewExpiringSessionAuth builds the session_exp_auth kind. A non-positive
// policy Duration never expires.
func NewExpiringSessionAuth(cookieName string, registry *sessions.Registry, finder IdentityFinder, policy sessions.ExpirationPolicy, log logging.Logger) *SessionAuth {
	return newSessionAuth(NewNoAuth(cookieName), KindExpiringSession, registry, finder, policy, log)
}

func newSessionAuth(base NoAuth, kind Kind, registry *sessions.Registry, finder IdentityFinder, policy sessions.ExpirationPolicy, log logging.Logger) *SessionAuth {
	if registry == nil {
		registry = sessions.NewRegistry()
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &SessionAuth{
		NoAuth:   base,
		kind:     kind,
		registry: registry,
		policy:   policy,
		finder:   finder,
		log:      log.With("module", string(kind)),
	}
}

func (a *SessionAuth) Kind() Kind { return a.kind }

func (a *SessionAuth) Policy() sessions.ExpirationPolicy { return a.policy }

// CreateSession returns false for an empty subjectID.
func (a *SessionAuth) CreateSession(subjectID string) (string, bool) {
	return a.registry.Create(subjectID)
}

func (a *SessionAuth) UserIDForSessionID(sessionID string) (string, bool) {
	return a.registry.SubjectFor(sessionID, a.policy)
}

func (a *SessionAuth) CurrentUser(ctx context.Context, r Request) (*models.Identity, bool) {
	sessionID, ok := a.SessionCookie(r)
	if !ok {
		return nil, false
	}
	subjectID, ok := a.UserIDForSessionID(sessionID)
	if !ok || a.finder == nil {
		return nil, false
	}

	identity, err := a.finder.FindBy(ctx, identities.Filter{ID: subjectID})
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			a.log.Error(ctx, "identity lookup failed", "error", err)
		}
		return nil, false
	}
	return identity, true
}

// DestroySession removes the session named by the request's cookie. It
// reports false when there is no cookie, the session is unknown or expired,
// or it was removed concurrently.
func (a *SessionAuth) DestroySession(r Request) bool {
	sessionID, ok := a.SessionCookie(r)
	if !ok || sessionID == "" {
		return false
	}
	if _, ok := a.UserIDForSessionID(sessionID); !ok {
		return false
	}
	return a.registry.Delete(sessionID)
}
