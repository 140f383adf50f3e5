package identities

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

// Repository is the record-store contract the credential store needs.
type Repository interface {
	FindBy(ctx context.Context, f Filter) (*models.Identity, error)
	Create(ctx context.Context, identity *models.Identity) (*models.Identity, error)
	Update(ctx context.Context, id string, changes Changes) error
	UpdateIf(ctx context.Context, id string, guard Filter, changes Changes) error
}

// Filter selects an identity by any combination of its lookup attributes.
// Empty strings are ignored; a filter with no attribute set is invalid.
type Filter struct {
	ID         string
	Email      string
	SessionID  string
	ResetToken string
}

func (f Filter) IsEmpty() bool {
	return f.ID == "" && f.Email == "" && f.SessionID == "" && f.ResetToken == ""
}

// Field names an updatable identity attribute. Values double as column names.
type Field string

const (
	FieldEmail        Field = "email"
	FieldPasswordHash Field = "hashed_password"
	FieldSessionID    Field = "session_id"
	FieldResetToken   Field = "reset_token"
)

var knownFields = map[Field]struct{}{
	FieldEmail:        {},
	FieldPasswordHash: {},
	FieldSessionID:    {},
	FieldResetToken:   {},
}

// Changes maps fields to new values. A nil value (or nil *string) clears the
// column. Accepted value types are string, *string, []byte and nil.
type Changes map[Field]any

// Validate rejects unrecognized fields and unsupported value types.
func (c Changes) Validate() error {
	for f, v := range c {
		if _, ok := knownFields[f]; !ok {
			return fmt.Errorf("%w: %q", common.ErrUnknownField, string(f))
		}
		if _, err := columnValue(v); err != nil {
			return fmt.Errorf("field %q: %w", string(f), err)
		}
	}
	return nil
}

// sortedFields gives a stable column order for generated statements.
func (c Changes) sortedFields() []Field {
	fields := make([]Field, 0, len(c))
	for f := range c {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

func columnValue(v any) (any, error) {
	switch value := v.(type) {
	case nil:
		return nil, nil
	case string:
		return value, nil
	case *string:
		if value == nil {
			return nil, nil
		}
		return *value, nil
	case []byte:
		if value == nil {
			return nil, nil
		}
		return string(value), nil
	default:
		return nil, fmt.Errorf("%w: unsupported value type %T", common.ErrInvalidQuery, v)
	}
}
