package sessions

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func TestCreate_EmptySubject(t *testing.T) {
	r := NewRegistry()
	id, ok := r.Create("")
	assert.False(t, ok)
	assert.Empty(t, id)
	assert.Equal(t, 0, r.Len())
}

func TestCreate_ResolvesBackToSubject(t *testing.T) {
	clk := newClock()
	r := NewRegistry(WithClock(clk.Now))

	id, ok := r.Create("user-1")
	require.True(t, ok)
	require.NotEmpty(t, id)

	rec, ok := r.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, "user-1", rec.SubjectID)
	assert.Equal(t, clk.Now(), rec.CreatedAt)

	subject, ok := r.SubjectFor(id, NeverExpires)
	require.True(t, ok)
	assert.Equal(t, "user-1", subject)
}

func TestCreate_SubjectMayHoldManySessions(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Create("user-1")
	b, _ := r.Create("user-1")
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, r.Len())
}

func TestSubjectFor_Expiration(t *testing.T) {
	clk := newClock()
	r := NewRegistry(WithClock(clk.Now))
	id, _ := r.Create("user-1")

	policy := ExpirationPolicy{Duration: time.Second}

	subject, ok := r.SubjectFor(id, policy)
	require.True(t, ok)
	assert.Equal(t, "user-1", subject)

	clk.Advance(time.Second)
	_, ok = r.SubjectFor(id, policy)
	assert.True(t, ok, "valid up to and including createdAt+duration")

	clk.Advance(time.Second)
	_, ok = r.SubjectFor(id, policy)
	assert.False(t, ok)

	_, ok = r.Lookup(id)
	assert.True(t, ok, "expired sessions are not evicted")

	subject, ok = r.SubjectFor(id, NeverExpires)
	require.True(t, ok)
	assert.Equal(t, "user-1", subject)
}

func TestSubjectFor_ZeroDurationNeverExpires(t *testing.T) {
	clk := newClock()
	r := NewRegistry(WithClock(clk.Now))
	id, _ := r.Create("user-1")

	clk.Advance(24 * 365 * time.Hour)
	_, ok := r.SubjectFor(id, ExpirationPolicy{Duration: 0})
	assert.True(t, ok)
	_, ok = r.SubjectFor(id, ExpirationPolicy{Duration: -time.Second})
	assert.True(t, ok)
}

func TestSubjectFor_Unknown(t *testing.T) {
	r := NewRegistry()
	_, ok := r.SubjectFor("", NeverExpires)
	assert.False(t, ok)
	_, ok = r.SubjectFor("nope", NeverExpires)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	r := NewRegistry()
	id, _ := r.Create("user-1")

	assert.True(t, r.Delete(id))
	assert.False(t, r.Delete(id))
	_, ok := r.Lookup(id)
	assert.False(t, ok)
}

func TestPolicy_ZeroCreatedAtIsExpired(t *testing.T) {
	p := ExpirationPolicy{Duration: time.Minute}
	assert.True(t, p.Expired(models.SessionRecord{SubjectID: "x"}, time.Now()))
}

func TestWithIDGenerator(t *testing.T) {
	n := 0
	r := NewRegistry(WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("sess-%d", n)
	}))
	id, _ := r.Create("u")
	assert.Equal(t, "sess-1", id)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRegistry()
	var wg sync.WaitGroup
	ids := make(chan string, 200)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			subject := fmt.Sprintf("user-%d", i)
			for j := 0; j < 4; j++ {
				id, ok := r.Create(subject)
				if !ok {
					t.Errorf("create failed for %s", subject)
					return
				}
				got, ok := r.SubjectFor(id, NeverExpires)
				if !ok || got != subject {
					t.Errorf("read back %q, want %q", got, subject)
				}
				ids <- id
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	assert.Equal(t, 200, r.Len())

	for id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			r.Delete(id)
		}(id)
	}
	wg.Wait()
	assert.Equal(t, 0, r.Len())
}
