package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultExcluded = []string{
	"/api/v1/status/",
	"/api/v1/unauthorized/",
	"/api/v1/forbidden/",
	"/api/v1/auth_session/login/",
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		excluded []string
		want     bool
	}{
		{name: "empty path", path: "", excluded: defaultExcluded, want: true},
		{name: "nil patterns", path: "/api/v1/status", excluded: nil, want: true},
		{name: "empty patterns", path: "/api/v1/status", excluded: []string{}, want: true},
		{name: "exact with slash", path: "/api/v1/status/", excluded: defaultExcluded, want: false},
		{name: "exact without slash", path: "/api/v1/status", excluded: defaultExcluded, want: false},
		{name: "not excluded", path: "/api/v1/users", excluded: defaultExcluded, want: true},
		{name: "only one trailing slash is stripped", path: "/api/v1/status//", excluded: defaultExcluded, want: true},
		{name: "case sensitive", path: "/api/v1/STATUS", excluded: defaultExcluded, want: true},
		{name: "star", path: "/api/v1/stats", excluded: []string{"/api/v1/stat*"}, want: false},
		{name: "star crosses separators", path: "/api/v1/status/deep/path", excluded: []string{"/api/v1/stat*"}, want: false},
		{name: "question mark", path: "/api/v1/users/7", excluded: []string{"/api/v1/users/?"}, want: false},
		{name: "question mark is one char", path: "/api/v1/users/77", excluded: []string{"/api/v1/users/?"}, want: true},
		{name: "class", path: "/api/v2/status", excluded: []string{"/api/v[12]/status"}, want: false},
		{name: "negated class", path: "/api/v2/status", excluded: []string{"/api/v[!2]/status"}, want: true},
		{name: "braces are literal", path: "/a/{b}", excluded: []string{"/a/{b}"}, want: false},
		{name: "brace alternation not supported", path: "/a/b", excluded: []string{"/a/{b,c}"}, want: true},
		{name: "root pattern", path: "/", excluded: []string{"/"}, want: false},
		{name: "unclosed bracket is literal", path: "/api/[v1/status", excluded: []string{"/api/[v1/*"}, want: false},
		{name: "unclosed bracket keeps wildcards", path: "/api/[v1/users/7", excluded: []string{"/api/[v1/users/?"}, want: false},
		{name: "backslash is literal", path: `/a\b`, excluded: []string{`/a\b`}, want: false},
		{name: "backslash does not escape", path: "/ab", excluded: []string{`/a\b`}, want: true},
		{name: "backslash before star", path: `/a\xyz`, excluded: []string{`/a\*`}, want: false},
		{name: "mixed class", path: "/v9", excluded: []string{"/v[a-z0-9]"}, want: false},
		{name: "mixed class miss", path: "/v_", excluded: []string{"/v[a-z0-9]"}, want: true},
		{name: "leading close bracket is a member", path: "/x]", excluded: []string{"/x[]a]"}, want: false},
		{name: "bang inside class", path: "/x!", excluded: []string{"/x[a!]"}, want: false},
		{name: "negated dash", path: "/x-", excluded: []string{"/x[!-]"}, want: true},
		{name: "negated dash other char", path: "/xa", excluded: []string{"/x[!-]"}, want: false},
		{name: "dash member", path: "/x-", excluded: []string{"/x[a-]"}, want: false},
		{name: "braces inside class", path: "/x{", excluded: []string{"/x[{}]"}, want: false},
		{name: "reversed range matches nothing", path: "/xb", excluded: []string{"/x[z-a]"}, want: true},
		{name: "negated reversed range matches any", path: "/xq", excluded: []string{"/x[!z-a]"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RequireAuth(tt.path, tt.excluded))
		})
	}
}

func TestTranslatePattern(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"/api/v1/*", "/api/v1/*"},
		{"/a/[bc]", "/a/[bc]"},
		{"/a/[!b-d]", "/a/[!b-d]"},
		{"/a/[", `/a/\[`},
		{`/a\b`, `/a\\b`},
		{"/a/{b,c}", `/a/\{b,c\}`},
		{"/a/[x]", `/a/\x`},
		{"/a/[!-]", "/a/[!---]"},
		{"/a/[-ab]", `/a/[ab\-]`},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := translatePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := translatePattern("/a/[z-a]")
	assert.ErrorIs(t, err, errEmptyClass)
	_, err = translatePattern("/a/[0-9a-\U0010FFFF]")
	assert.ErrorIs(t, err, errClassTooWide)
}

func TestRequireAuth_WideClassFallsBackToLiteral(t *testing.T) {
	pattern := "/a/[0-9a-\U0010FFFF]"
	assert.False(t, RequireAuth(pattern, []string{pattern}))
	assert.True(t, RequireAuth("/a/b", []string{pattern}))
}

func TestRequireAuth_OrderIndependent(t *testing.T) {
	patterns := []string{"/x/*", "/api/v1/status/"}
	reversed := []string{"/api/v1/status/", "/x/*"}

	for _, p := range []string{"/x/1", "/api/v1/status", "/nope"} {
		assert.Equal(t, RequireAuth(p, patterns), RequireAuth(p, reversed), p)
	}
}

func TestNoAuth_RequireAuthDelegates(t *testing.T) {
	a := NewNoAuth("")
	assert.False(t, a.RequireAuth("/api/v1/forbidden", defaultExcluded))
	assert.True(t, a.RequireAuth("/api/v1/users/me", defaultExcluded))
}
