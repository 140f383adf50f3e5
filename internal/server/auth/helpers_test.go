package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/hasher"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/identities"
)

type fakeFinder struct {
	byID    map[string]*models.Identity
	byEmail map[string]*models.Identity
	err     error
}

func newFakeFinder() *fakeFinder {
	return &fakeFinder{byID: map[string]*models.Identity{}, byEmail: map[string]*models.Identity{}}
}

func (f *fakeFinder) add(t *testing.T, h hasher.Hasher, id, email, password string) *models.Identity {
	t.Helper()
	digest, err := h.Hash(password)
	require.NoError(t, err)
	identity := &models.Identity{ID: id, Email: email, PasswordHash: digest}
	f.byID[id] = identity
	f.byEmail[email] = identity
	return identity
}

func (f *fakeFinder) FindBy(_ context.Context, filter identities.Filter) (*models.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	if filter.IsEmpty() {
		return nil, common.ErrInvalidQuery
	}
	if filter.ID != "" {
		if i, ok := f.byID[filter.ID]; ok {
			return i, nil
		}
		return nil, common.ErrorNotFound
	}
	if i, ok := f.byEmail[filter.Email]; ok {
		return i, nil
	}
	return nil, common.ErrorNotFound
}

var errBoom = errors.New("boom")

func testHasher() hasher.Hasher {
	return hasher.NewBcryptHasher(bcrypt.MinCost)
}

func basicHeader(email, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(email+":"+password))
}

func newRequest(path string, header map[string]string, cookies map[string]string) Request {
	r := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	for k, v := range header {
		r.Header.Set(k, v)
	}
	for k, v := range cookies {
		r.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	return HTTPRequest{R: r}
}
