package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/hasher"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/identities"
)

const basicPrefix = "Basic "

// BasicAuth resolves callers from "Authorization: Basic base64(email:password)".
type BasicAuth struct {
	NoAuth
	finder IdentityFinder
	hasher hasher.Hasher
	log    logging.Logger
}

func NewBasicAuth(cookieName string, finder IdentityFinder, h hasher.Hasher, log logging.Logger) *BasicAuth {
	if log == nil {
		log = logging.Nop{}
	}
	return &BasicAuth{NoAuth: NewNoAuth(cookieName), finder: finder, hasher: h, log: log}
}

func (a *BasicAuth) Kind() Kind { return KindBasic }

// ExtractBase64Header returns the part of header after "Basic ".
func (a *BasicAuth) ExtractBase64Header(header string) (string, bool) {
	if !strings.HasPrefix(header, basicPrefix) {
		return "", false
	}
	return header[len(basicPrefix):], true
}

// DecodeBase64Header decodes standard, padded base64 strictly and requires
// the result to be valid UTF-8.
func (a *BasicAuth) DecodeBase64Header(encoded string) (string, bool) {
	raw, err := base64.StdEncoding.Strict().DecodeString(encoded)
	if err != nil || !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

// ExtractCredentials splits decoded text on its first ':'.
func (a *BasicAuth) ExtractCredentials(decoded string) (email, password string, ok bool) {
	return strings.Cut(decoded, ":")
}

// ParseHeader runs the three steps above and reports which one failed.
func (a *BasicAuth) ParseHeader(header string) (email, password string, err error) {
	encoded, ok := a.ExtractBase64Header(header)
	if !ok {
		return "", "", fmt.Errorf("%w: missing %q prefix", common.ErrMalformedCredential, strings.TrimSpace(basicPrefix))
	}
	decoded, ok := a.DecodeBase64Header(encoded)
	if !ok {
		return "", "", fmt.Errorf("%w: invalid base64", common.ErrMalformedCredential)
	}
	email, password, ok = a.ExtractCredentials(decoded)
	if !ok {
		return "", "", fmt.Errorf("%w: missing separator", common.ErrMalformedCredential)
	}
	return email, password, nil
}

// UserFromCredentials returns the identity registered under email when
// password matches its stored hash.
func (a *BasicAuth) UserFromCredentials(ctx context.Context, email, password string) (*models.Identity, bool) {
	if a.finder == nil || a.hasher == nil {
		return nil, false
	}

	identity, err := a.finder.FindBy(ctx, identities.Filter{Email: email})
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) && !errors.Is(err, common.ErrInvalidQuery) {
			a.log.Error(ctx, "identity lookup failed", "error", err)
		}
		return nil, false
	}

	if !a.hasher.Verify(password, identity.PasswordHash) {
		return nil, false
	}
	return identity, true
}

func (a *BasicAuth) CurrentUser(ctx context.Context, r Request) (*models.Identity, bool) {
	header, ok := a.AuthorizationHeader(r)
	if !ok {
		return nil, false
	}

	email, password, err := a.ParseHeader(header)
	if err != nil {
		a.log.Debug(ctx, "rejecting authorization header", "reason", err.Error())
		return nil, false
	}

	return a.UserFromCredentials(ctx, email, password)
}
