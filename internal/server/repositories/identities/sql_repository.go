package identities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/dbx"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

// Dialect picks the bind-parameter style of the generated statements.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) placeholder(n int) string {
	if d == SQLite {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

type SQLRepository struct {
	db      dbx.DBTX
	dialect Dialect
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, dialect: Postgres}
}

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, dialect: SQLite}
}

func (r *SQLRepository) FindBy(ctx context.Context, f Filter) (*models.Identity, error) {
	if f.IsEmpty() {
		return nil, common.ErrInvalidQuery
	}

	var (
		conds []string
		args  []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, column+" = "+r.dialect.placeholder(len(args)))
	}
	add("id", f.ID)
	add("email", f.Email)
	add("session_id", f.SessionID)
	add("reset_token", f.ResetToken)

	query :=
		`SELECT id, email, hashed_password, session_id, reset_token FROM identities
		 WHERE ` + strings.Join(conds, " AND ") + `
		 LIMIT 1`

	var (
		identity            models.Identity
		hash                string
		sessionID, resetTok sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&identity.ID, &identity.Email, &hash, &sessionID, &resetTok)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	identity.PasswordHash = []byte(hash)
	if sessionID.Valid {
		identity.SessionID = &sessionID.String
	}
	if resetTok.Valid {
		identity.ResetToken = &resetTok.String
	}
	return &identity, nil
}

// Create inserts identity, assigning a fresh id when it has none.
func (r *SQLRepository) Create(ctx context.Context, identity *models.Identity) (*models.Identity, error) {
	if identity.ID == "" {
		identity.ID = common.NewOpaqueID()
	}

	p := r.dialect.placeholder
	query := fmt.Sprintf(
		`INSERT INTO identities (id, email, hashed_password, session_id, reset_token)
		 VALUES (%s, %s, %s, %s, %s)`,
		p(1), p(2), p(3), p(4), p(5))

	sessionID, _ := columnValue(identity.SessionID)
	resetToken, _ := columnValue(identity.ResetToken)

	_, err := r.db.ExecContext(ctx, query,
		identity.ID, identity.Email, string(identity.PasswordHash), sessionID, resetToken)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return identity, nil
}

// Update applies changes to the identity with the given id in a single
// statement. It returns common.ErrorNotFound when no row has that id.
func (r *SQLRepository) Update(ctx context.Context, id string, changes Changes) error {
	return r.UpdateIf(ctx, id, Filter{}, changes)
}

// UpdateIf is Update restricted to a row that still matches every attribute
// set in guard. It returns common.ErrorNotFound when the guard no longer holds.
func (r *SQLRepository) UpdateIf(ctx context.Context, id string, guard Filter, changes Changes) error {
	if err := changes.Validate(); err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}

	sets := make([]string, 0, len(changes))
	args := make([]any, 0, len(changes)+5)
	for _, f := range changes.sortedFields() {
		v, _ := columnValue(changes[f])
		args = append(args, v)
		sets = append(sets, string(f)+" = "+r.dialect.placeholder(len(args)))
	}

	args = append(args, id)
	conds := []string{"id = " + r.dialect.placeholder(len(args))}
	for _, c := range []struct {
		col string
		val string
	}{
		{"id", guard.ID},
		{"email", guard.Email},
		{"session_id", guard.SessionID},
		{"reset_token", guard.ResetToken},
	} {
		if c.val == "" {
			continue
		}
		args = append(args, c.val)
		conds = append(conds, c.col+" = "+r.dialect.placeholder(len(args)))
	}

	query :=
		`UPDATE identities SET ` + strings.Join(sets, ", ") + `
		 WHERE ` + strings.Join(conds, " AND ")

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
