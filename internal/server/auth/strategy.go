// Package auth decides, per request, whether authentication is required and
// who the caller is.
//
// Strategies form a closed set selected by Kind: NoAuth never resolves
// anyone, BasicAuth checks "Authorization: Basic" credentials against the
// credential store, and SessionAuth resolves a session cookie through the
// session registry, optionally under an expiration policy (the
// session_exp_auth kind). None of the methods return errors: every failure
// is an absent subject, and the caller picks the HTTP status.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/hasher"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/identities"
	"github.com/dmitrijs2005/gatekeeper/internal/server/sessions"
)

type Kind string

const (
	KindNone            Kind = "auth"
	KindBasic           Kind = "basic_auth"
	KindSession         Kind = "session_auth"
	KindExpiringSession Kind = "session_exp_auth"
)

// ParseKind maps a configured name onto a Kind. Matching ignores case.
func ParseKind(name string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(name))); k {
	case KindNone, KindBasic, KindSession, KindExpiringSession:
		return k, nil
	default:
		return "", fmt.Errorf("unknown auth type %q", name)
	}
}

// Strategy is the capability every variant provides.
type Strategy interface {
	Kind() Kind
	RequireAuth(path string, excluded []string) bool
	AuthorizationHeader(r Request) (string, bool)
	SessionCookie(r Request) (string, bool)
	CurrentUser(ctx context.Context, r Request) (*models.Identity, bool)
}

// SessionStrategy is implemented by the cookie-based variants.
type SessionStrategy interface {
	Strategy
	CreateSession(subjectID string) (string, bool)
	UserIDForSessionID(sessionID string) (string, bool)
	DestroySession(r Request) bool
}

// IdentityFinder looks identities up; credentials.Store satisfies it.
type IdentityFinder interface {
	FindBy(ctx context.Context, f identities.Filter) (*models.Identity, error)
}

// Settings is the part of the configuration the strategies consume.
type Settings struct {
	Kind            Kind
	CookieName      string
	SessionDuration time.Duration
}

// New builds the strategy selected by s.Kind. The registry is only used by
// the session kinds; finder and h may be nil for KindNone.
func New(s Settings, finder IdentityFinder, h hasher.Hasher, registry *sessions.Registry, log logging.Logger) (Strategy, error) {
	if log == nil {
		log = logging.Nop{}
	}
	base := NewNoAuth(s.CookieName)

	switch s.Kind {
	case KindNone:
		return base, nil
	case KindBasic:
		return &BasicAuth{NoAuth: base, finder: finder, hasher: h, log: log.With("module", "basic_auth")}, nil
	case KindSession:
		return newSessionAuth(base, KindSession, registry, finder, sessions.NeverExpires, log), nil
	case KindExpiringSession:
		policy := sessions.ExpirationPolicy{Duration: s.SessionDuration}
		return newSessionAuth(base, KindExpiringSession, registry, finder, policy, log), nil
	default:
		return nil, fmt.Errorf("unknown auth type %q", s.Kind)
	}
}

// NoAuth carries the behavior shared by every variant and resolves nobody.
type NoAuth struct {
	cookieName string
}

// NewNoAuth uses common.DefaultSessionCookieName when cookieName is empty.
func NewNoAuth(cookieName string) NoAuth {
	if cookieName == "" {
		cookieName = common.DefaultSessionCookieName
	}
	return NoAuth{cookieName: cookieName}
}

func (a NoAuth) Kind() Kind { return KindNone }

func (a NoAuth) CookieName() string { return a.cookieName }

func (a NoAuth) RequireAuth(path string, excluded []string) bool {
	return RequireAuth(path, excluded)
}

func (a NoAuth) AuthorizationHeader(r Request) (string, bool) {
	if r == nil {
		return "", false
	}
	return r.Header(common.AuthorizationHeaderName)
}

func (a NoAuth) SessionCookie(r Request) (string, bool) {
	if r == nil {
		return "", false
	}
	return r.Cookie(a.cookieName)
}

func (a NoAuth) CurrentUser(context.Context, Request) (*models.Identity, bool) {
	return nil, false
}
