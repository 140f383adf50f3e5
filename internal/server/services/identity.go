// Package services contains the server-side business logic. IdentityService
// registers identities, checks passwords, keeps the store-backed session
// field and runs the password-reset flow.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/credentials"
	"github.com/dmitrijs2005/gatekeeper/internal/server/hasher"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/identities"
)

// CredentialStore is the part of credentials.Store the service needs.
type CredentialStore interface {
	FindBy(ctx context.Context, f identities.Filter) (*models.Identity, error)
	Update(ctx context.Context, id string, changes identities.Changes) error
	UpdateIf(ctx context.Context, id string, guard identities.Filter, changes identities.Changes) error
	Batch() *credentials.Batch
}

type IdentityService struct {
	store  CredentialStore
	hasher hasher.Hasher
	log    logging.Logger
}

func NewIdentityService(store CredentialStore, h hasher.Hasher, log logging.Logger) *IdentityService {
	if log == nil {
		log = logging.Nop{}
	}
	return &IdentityService{store: store, hasher: h, log: log.With("module", "identity_service")}
}

// RegisterIdentity creates an identity for email. It fails with
// common.ErrorAlreadyExists when the email is taken. The check and the insert
// are not atomic: two concurrent registrations of one email can both succeed.
func (s *IdentityService) RegisterIdentity(ctx context.Context, email, password string) (*models.Identity, error) {
	_, err := s.store.FindBy(ctx, identities.Filter{Email: email})
	switch {
	case err == nil:
		return nil, common.ErrorAlreadyExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error looking up identity: %w", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	identity := &models.Identity{Email: email, PasswordHash: digest}
	batch := s.store.Batch()
	batch.Save(identity)
	if err := batch.Commit(ctx); err != nil {
		return nil, fmt.Errorf("error creating identity: %w", err)
	}

	s.log.Info(ctx, "identity registered", "email", email, "id", identity.ID)
	return identity, nil
}

// FindIdentity returns the identity registered under email.
func (s *IdentityService) FindIdentity(ctx context.Context, email string) (*models.Identity, bool) {
	identity, err := s.store.FindBy(ctx, identities.Filter{Email: email})
	if err != nil {
		s.logLookupError(ctx, err)
		return nil, false
	}
	return identity, true
}

// VerifyLogin reports whether password matches the identity stored for email.
func (s *IdentityService) VerifyLogin(ctx context.Context, email, password string) bool {
	identity, ok := s.FindIdentity(ctx, email)
	if !ok {
		return false
	}
	return s.hasher.Verify(password, identity.PasswordHash)
}

// CreateSession stores a fresh session id on the identity for email,
// replacing any previous one.
func (s *IdentityService) CreateSession(ctx context.Context, email string) (string, bool) {
	identity, ok := s.FindIdentity(ctx, email)
	if !ok {
		return "", false
	}

	sessionID := common.NewOpaqueID()
	if err := s.store.Update(ctx, identity.ID, identities.Changes{identities.FieldSessionID: sessionID}); err != nil {
		s.log.Error(ctx, "error storing session", "email", email, "error", err)
		return "", false
	}
	return sessionID, true
}

// ResolveSessionSubject returns the identity holding sessionID.
func (s *IdentityService) ResolveSessionSubject(ctx context.Context, sessionID string) (*models.Identity, bool) {
	if sessionID == "" {
		return nil, false
	}
	identity, err := s.store.FindBy(ctx, identities.Filter{SessionID: sessionID})
	if err != nil {
		s.logLookupError(ctx, err)
		return nil, false
	}
	return identity, true
}

// DestroySession clears the session of subjectID. An unknown subject or one
// without a session is left alone.
func (s *IdentityService) DestroySession(ctx context.Context, subjectID string) error {
	if subjectID == "" {
		return nil
	}
	identity, err := s.store.FindBy(ctx, identities.Filter{ID: subjectID})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return fmt.Errorf("error looking up identity: %w", err)
	}
	if !identity.HasSession() {
		return nil
	}

	if err := s.store.Update(ctx, identity.ID, identities.Changes{identities.FieldSessionID: nil}); err != nil {
		return fmt.Errorf("error clearing session: %w", err)
	}
	return nil
}

// IssueResetToken stores a new reset token on the identity for email and
// returns it. Unknown emails fail with common.ErrorNotFound.
func (s *IdentityService) IssueResetToken(ctx context.Context, email string) (string, error) {
	identity, err := s.store.FindBy(ctx, identities.Filter{Email: email})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrInvalidQuery) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("error looking up identity: %w", err)
	}

	token := common.NewOpaqueID()
	if err := s.store.Update(ctx, identity.ID, identities.Changes{identities.FieldResetToken: token}); err != nil {
		return "", fmt.Errorf("error storing reset token: %w", err)
	}

	s.log.Info(ctx, "reset token issued", "email", email)
	return token, nil
}

// RedeemResetToken sets a new password for the holder of token and clears
// the token in the same update, so a token works once. The update is guarded
// on the token, so of two concurrent redemptions only one succeeds.
func (s *IdentityService) RedeemResetToken(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return common.ErrInvalidToken
	}
	identity, err := s.store.FindBy(ctx, identities.Filter{ResetToken: token})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return fmt.Errorf("error looking up reset token: %w", err)
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	changes := identities.Changes{
		identities.FieldPasswordHash: digest,
		identities.FieldResetToken:   nil,
	}
	err = s.store.UpdateIf(ctx, identity.ID, identities.Filter{ResetToken: token}, changes)
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	s.log.Info(ctx, "password reset", "email", identity.Email)
	return nil
}

func (s *IdentityService) logLookupError(ctx context.Context, err error) {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrInvalidQuery) {
		return
	}
	s.log.Error(ctx, "identity lookup failed", "error", err)
}
