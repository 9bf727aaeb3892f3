package throttle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
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

func newTestGuard() (*Guard, *fakeClock, *MemoryStore) {
	clock := &fakeClock{now: time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)}
	store := NewMemoryStore()
	return NewGuard(store, WithClock(clock)), clock, store
}

func TestGuard_RemainingForUnseenIdentifier(t *testing.T) {
	t.Parallel()

	g, _, _ := newTestGuard()
	n, err := g.Remaining(context.Background(), "ana@yuraqwasi.pe")
	if err != nil {
		t.Fatalf("Remaining returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 attempts for unseen identifier, got %d", n)
	}
}

func TestGuard_LocksAfterThreeFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, clock, _ := newTestGuard()
	id := "ana@yuraqwasi.pe"

	for i, want := range []int{2, 1} {
		st, err := g.RecordFailure(ctx, id)
		if err != nil {
			t.Fatalf("RecordFailure returned error: %v", err)
		}
		if st.Locked {
			t.Fatalf("failure %d should not lock", i+1)
		}
		if n, _ := g.Remaining(ctx, id); n != want {
			t.Fatalf("after failure %d expected %d remaining, got %d", i+1, want, n)
		}
	}

	st, err := g.RecordFailure(ctx, id)
	if err != nil {
		t.Fatalf("RecordFailure returned error: %v", err)
	}
	if !st.Locked || st.RetryAfter != DefaultLockout {
		t.Fatalf("expected lockout of %v, got %+v", DefaultLockout, st)
	}
	if n, _ := g.Remaining(ctx, id); n != 0 {
		t.Fatalf("expected 0 remaining while locked, got %d", n)
	}

	clock.Advance(2 * time.Minute)
	st, err = g.Status(ctx, id)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !st.Locked || st.RetryAfter != 3*time.Minute {
		t.Fatalf("expected 3m left, got %+v", st)
	}
}

func TestGuard_LockoutExpiresAtLookup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, clock, _ := newTestGuard()
	id := "luis@yuraqwasi.pe"

	for i := 0; i < 3; i++ {
		if _, err := g.RecordFailure(ctx, id); err != nil {
			t.Fatalf("RecordFailure returned error: %v", err)
		}
	}

	clock.Advance(DefaultLockout)

	st, err := g.Status(ctx, id)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if st.Locked {
		t.Fatalf("lock should have expired, got %+v", st)
	}
	if n, _ := g.Remaining(ctx, id); n != 2 {
		t.Fatalf("expired lock should read as unseen, got %d", n)
	}

	// A new failure starts a fresh window instead of relocking.
	st, err = g.RecordFailure(ctx, id)
	if err != nil {
		t.Fatalf("RecordFailure returned error: %v", err)
	}
	if st.Locked {
		t.Fatalf("first failure after expiry must not lock")
	}
	if n, _ := g.Remaining(ctx, id); n != 2 {
		t.Fatalf("expected 2 remaining after one fresh failure, got %d", n)
	}
}

func TestGuard_ResetClearsEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, _, store := newTestGuard()

	if _, err := g.RecordFailure(ctx, "a@b.pe"); err != nil {
		t.Fatalf("RecordFailure returned error: %v", err)
	}
	if err := g.Reset(ctx, "a@b.pe"); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d entries", store.Len())
	}
}

func TestGuard_CustomPolicy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	g := NewGuard(nil, WithClock(clock), WithPolicy(5, time.Minute))

	for i := 0; i < 4; i++ {
		if st, _ := g.RecordFailure(ctx, "x"); st.Locked {
			t.Fatalf("locked too early at failure %d", i+1)
		}
	}
	st, _ := g.RecordFailure(ctx, "x")
	if !st.Locked || st.RetryAfter != time.Minute {
		t.Fatalf("expected 1m lockout, got %+v", st)
	}
	if g.Lockout() != time.Minute {
		t.Fatalf("unexpected lockout %v", g.Lockout())
	}
}

func TestGuard_ConcurrentFailuresAreNotLost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	g := NewGuard(nil, WithClock(clock), WithPolicy(1000, time.Minute))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = g.RecordFailure(ctx, "shared")
		}()
	}
	wg.Wait()

	if n, _ := g.Remaining(ctx, "shared"); n != 900 {
		t.Fatalf("expected 900 remaining, got %d", n)
	}
}

type failingStore struct{ *MemoryStore }

var errStoreDown = errors.New("store down")

func (*failingStore) Get(context.Context, string) (Record, bool, error) {
	return Record{}, false, errStoreDown
}

func TestGuard_PropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	g := NewGuard(&failingStore{MemoryStore: NewMemoryStore()})
	if _, err := g.Status(context.Background(), "x"); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := g.Remaining(context.Background(), "x"); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
}
