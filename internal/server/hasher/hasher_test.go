package hasher

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashers() map[string]Hasher {
	return map[string]Hasher{
		"bcrypt":   NewBcryptHasher(bcrypt.MinCost),
		"argon2id": NewArgon2Hasher(),
	}
}

func TestHasher_RoundTrip(t *testing.T) {
	for name, h := range hashers() {
		t.Run(name, func(t *testing.T) {
			digest, err := h.Hash("s3cret pass")
			require.NoError(t, err)
			assert.NotContains(t, string(digest), "s3cret")

			assert.True(t, h.Verify("s3cret pass", digest))
			assert.False(t, h.Verify("s3cret pas", digest))
			assert.False(t, h.Verify("", digest))
		})
	}
}

func TestHasher_SaltedPerCall(t *testing.T) {
	for name, h := range hashers() {
		t.Run(name, func(t *testing.T) {
			a, err := h.Hash("same")
			require.NoError(t, err)
			b, err := h.Hash("same")
			require.NoError(t, err)
			assert.NotEqual(t, a, b)
			assert.True(t, h.Verify("same", a))
			assert.True(t, h.Verify("same", b))
		})
	}
}

func TestHasher_GarbageDigest(t *testing.T) {
	for name, h := range hashers() {
		t.Run(name, func(t *testing.T) {
			assert.False(t, h.Verify("pw", nil))
			assert.False(t, h.Verify("pw", []byte("not a digest")))
		})
	}
}

func TestArgon2_OutOfRangeParams(t *testing.T) {
	h := NewArgon2Hasher()
	digest, err := h.Hash("pw")
	require.NoError(t, err)

	for _, params := range []string{
		"m=65536,t=0,p=4",
		"m=65536,t=1,p=0",
		"m=1,t=1,p=4",
		"m=4294967295,t=1,p=4",
		"m=65536,t=100000,p=4",
	} {
		t.Run(params, func(t *testing.T) {
			parts := strings.Split(string(digest), "$")
			parts[3] = params
			tampered := []byte(strings.Join(parts, "$"))
			assert.NotPanics(t, func() {
				assert.False(t, h.Verify("pw", tampered))
			})
		})
	}
}

func TestBcrypt_PasswordTooLong(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("x", 73))
	require.ErrorIs(t, err, common.ErrInvalidPassword)

	digest, err := h.Hash(strings.Repeat("x", 72))
	require.NoError(t, err)
	assert.True(t, h.Verify(strings.Repeat("x", 72), digest))
}

func TestArgon2_TamperedDigest(t *testing.T) {
	h := NewArgon2Hasher()
	digest, err := h.Hash("pw")
	require.NoError(t, err)

	parts := strings.Split(string(digest), "$")
	parts[2] = "v=1"
	assert.False(t, h.Verify("pw", []byte(strings.Join(parts, "$"))))

	parts = strings.Split(string(digest), "$")
	parts[5] = "!!!"
	assert.False(t, h.Verify("pw", []byte(strings.Join(parts, "$"))))
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).cost)
	assert.Equal(t, 5, NewBcryptHasher(5).cost)
}

func TestNew(t *testing.T) {
	h, err := New("", 4)
	require.NoError(t, err)
	assert.IsType(t, &BcryptHasher{}, h)

	h, err = New("ARGON2ID", 0)
	require.NoError(t, err)
	assert.IsType(t, &Argon2Hasher{}, h)

	_, err = New("md5", 0)
	require.Error(t, err)
}
