// Package credentials is the typed credential store: identity lookups, staged
// inserts and atomic field updates over a transactional SQL database.
//
// The store does not enforce email uniqueness. Callers that need it check
// before inserting, which is racy under concurrent registration.
package credentials

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gatekeeper/internal/dbx"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/identities"
)

// RepositoryFactory binds an identity repository to a connection or a
// transaction. repomanager.RepositoryManager satisfies it.
type RepositoryFactory interface {
	Identities(db dbx.DBTX) identities.Repository
}

type Store struct {
	db    *sql.DB
	repos RepositoryFactory
}

func NewStore(db *sql.DB, repos RepositoryFactory) *Store {
	return &Store{db: db, repos: repos}
}

// FindBy returns the first identity matching f. It fails with
// common.ErrorNotFound when nothing matches and common.ErrInvalidQuery for an
// empty filter.
func (s *Store) FindBy(ctx context.Context, f identities.Filter) (*models.Identity, error) {
	return s.repos.Identities(s.db).FindBy(ctx, f)
}

// Update applies every change to identity id in one transaction. Unknown
// fields are rejected with common.ErrUnknownField before anything is written.
func (s *Store) Update(ctx context.Context, id string, changes identities.Changes) error {
	if err := changes.Validate(); err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Identities(tx).Update(ctx, id, changes)
	})
}

// UpdateIf applies changes only while identity id still matches guard, as
// one conditional statement. A failed guard reports common.ErrorNotFound.
func (s *Store) UpdateIf(ctx context.Context, id string, guard identities.Filter, changes identities.Changes) error {
	if err := changes.Validate(); err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Identities(tx).UpdateIf(ctx, id, guard, changes)
	})
}

// Batch starts a unit of work. Identities passed to Save are only written
// when Commit succeeds.
func (s *Store) Batch() *Batch {
	return &Batch{store: s}
}

// Batch is not safe for concurrent use; each caller owns its own.
type Batch struct {
	store  *Store
	staged []*models.Identity
}

// Save stages identity for insertion.
func (b *Batch) Save(identity *models.Identity) {
	b.staged = append(b.staged, identity)
}

// Commit inserts all staged identities in one transaction and empties the
// batch. On error nothing is written and the batch keeps its contents.
func (b *Batch) Commit(ctx context.Context) error {
	if len(b.staged) == 0 {
		return nil
	}

	err := dbx.WithTx(ctx, b.store.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := b.store.repos.Identities(tx)
		for _, identity := range b.staged {
			if _, err := repo.Create(ctx, identity); err != nil {
				return fmt.Errorf("insert identity: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.staged = nil
	return nil
}

// Pending is the number of staged, uncommitted identities.
func (b *Batch) Pending() int {
	return len(b.staged)
}
