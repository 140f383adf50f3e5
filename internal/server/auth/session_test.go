package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gatekeeper/internal/server/sessions"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClockRegistry() (*sessions.Registry, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return sessions.NewRegistry(sessions.WithClock(clock.Now)), clock
}

func TestSessionAuth_CreateAndResolve(t *testing.T) {
	a := NewSessionAuth("", nil, nil, nil)

	id1, ok := a.CreateSession("user-1")
	require.True(t, ok)
	id2, ok := a.CreateSession("user-1")
	require.True(t, ok)
	assert.NotEqual(t, id1, id2)

	for _, id := range []string{id1, id2} {
		subject, ok := a.UserIDForSessionID(id)
		assert.True(t, ok)
		assert.Equal(t, "user-1", subject)
	}

	_, ok = a.CreateSession("")
	assert.False(t, ok)

	_, ok = a.UserIDForSessionID("")
	assert.False(t, ok)
	_, ok = a.UserIDForSessionID("unknown")
	assert.False(t, ok)
}

func TestSessionAuth_SessionCookieName(t *testing.T) {
	a := NewSessionAuth("", nil, nil, nil)
	r := newRequest("/", nil, map[string]string{"_my_session_id": "abc"})

	v, ok := a.SessionCookie(r)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	custom := NewSessionAuth("sid", nil, nil, nil)
	_, ok = custom.SessionCookie(r)
	assert.False(t, ok)

	_, ok = a.SessionCookie(nil)
	assert.False(t, ok)
}

func TestSessionAuth_CurrentUser(t *testing.T) {
	ctx := context.Background()
	h := testHasher()
	finder := newFakeFinder()
	bob := finder.add(t, h, "id-bob", "bob@example.com", "pw")
	a := NewSessionAuth("", nil, finder, nil)

	sid, ok := a.CreateSession(bob.ID)
	require.True(t, ok)

	got, ok := a.CurrentUser(ctx, newRequest("/", nil, map[string]string{"_my_session_id": sid}))
	assert.True(t, ok)
	assert.Equal(t, bob, got)

	_, ok = a.CurrentUser(ctx, newRequest("/", nil, map[string]string{"_my_session_id": "stale"}))
	assert.False(t, ok)

	_, ok = a.CurrentUser(ctx, newRequest("/", nil, nil))
	assert.False(t, ok)

	orphan, ok := a.CreateSession("deleted-user")
	require.True(t, ok)
	_, ok = a.CurrentUser(ctx, newRequest("/", nil, map[string]string{"_my_session_id": orphan}))
	assert.False(t, ok)
}

func TestSessionAuth_DestroySession(t *testing.T) {
	a := NewSessionAuth("", nil, nil, nil)
	sid, ok := a.CreateSession("user-1")
	require.True(t, ok)

	assert.False(t, a.DestroySession(nil))
	assert.False(t, a.DestroySession(newRequest("/", nil, nil)))
	assert.False(t, a.DestroySession(newRequest("/", nil, map[string]string{"_my_session_id": "unknown"})))

	r := newRequest("/", nil, map[string]string{"_my_session_id": sid})
	assert.True(t, a.DestroySession(r))
	_, ok = a.UserIDForSessionID(sid)
	assert.False(t, ok)
	assert.False(t, a.DestroySession(r), "second destroy fails")
}

func TestExpiringSessionAuth(t *testing.T) {
	registry, clock := newClockRegistry()
	a := NewExpiringSessionAuth("", registry, nil, sessions.ExpirationPolicy{Duration: time.Second}, nil)
	assert.Equal(t, KindExpiringSession, a.Kind())

	sid, ok := a.CreateSession("user-1")
	require.True(t, ok)

	clock.Advance(time.Second)
	subject, ok := a.UserIDForSessionID(sid)
	assert.True(t, ok, "still valid at the boundary")
	assert.Equal(t, "user-1", subject)

	clock.Advance(time.Second)
	_, ok = a.UserIDForSessionID(sid)
	assert.False(t, ok)
	assert.Equal(t, 1, registry.Len(), "expired sessions are not swept")

	assert.False(t, a.DestroySession(newRequest("/", nil, map[string]string{"_my_session_id": sid})))
}

func TestExpiringSessionAuth_NonPositiveDurationNeverExpires(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		registry, clock := newClockRegistry()
		a := NewExpiringSessionAuth("", registry, nil, sessions.ExpirationPolicy{Duration: d}, nil)

		sid, ok := a.CreateSession("user-1")
		require.True(t, ok)
		clock.Advance(24 * 365 * time.Hour)

		_, ok = a.UserIDForSessionID(sid)
		assert.True(t, ok, d.String())
	}
}

func TestSessionAuth_SharedRegistry(t *testing.T) {
	registry, clock := newClockRegistry()
	plain := NewSessionAuth("", registry, nil, nil)
	expiring := NewExpiringSessionAuth("", registry, nil, sessions.ExpirationPolicy{Duration: time.Minute}, nil)

	sid, ok := plain.CreateSession("user-1")
	require.True(t, ok)
	clock.Advance(time.Hour)

	_, ok = plain.UserIDForSessionID(sid)
	assert.True(t, ok)
	_, ok = expiring.UserIDForSessionID(sid)
	assert.False(t, ok)
}
