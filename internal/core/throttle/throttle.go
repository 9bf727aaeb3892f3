// Package throttle locks an identifier out after repeated failed logins.
package throttle

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultMaxFailures = 3
	DefaultLockout     = 5 * time.Minute
)

// Record is the throttle state kept per identifier.
type Record struct {
	Failures    int
	LockedUntil time.Time
}

// lockedAt reports whether the record is locked at now.
func (r Record) lockedAt(now time.Time) bool {
	return !r.LockedUntil.IsZero() && now.Before(r.LockedUntil)
}

// expiredAt reports whether the record carries a lockout that has ended.
func (r Record) expiredAt(now time.Time) bool {
	return !r.LockedUntil.IsZero() && !now.Before(r.LockedUntil)
}

// Store keeps throttle records. Update must apply fn atomically per key so
// concurrent failures for one identifier are not lost. fn receives the
// current record (zero value and false when absent) and returns the record
// to store, or false to delete the key.
type Store interface {
	Get(ctx context.Context, key string) (Record, bool, error)
	Update(ctx context.Context, key string, fn func(rec Record, found bool) (Record, bool)) (Record, error)
	Delete(ctx context.Context, key string) error
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Status is the lock state of an identifier.
type Status struct {
	Locked     bool
	RetryAfter time.Duration
}

// Guard applies the fixed-window lockout policy on top of a Store.
type Guard struct {
	store       Store
	clock       Clock
	maxFailures int
	lockout     time.Duration
}

// Option customizes a Guard.
type Option func(*Guard)

// WithPolicy overrides the failure budget and the lockout length.
func WithPolicy(maxFailures int, lockout time.Duration) Option {
	return func(g *Guard) {
		if maxFailures > 0 {
			g.maxFailures = maxFailures
		}
		if lockout > 0 {
			g.lockout = lockout
		}
	}
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(g *Guard) {
		if c != nil {
			g.clock = c
		}
	}
}

// NewGuard creates a Guard. A nil store falls back to a fresh MemoryStore.
func NewGuard(store Store, opts ...Option) *Guard {
	if store == nil {
		store = NewMemoryStore()
	}
	g := &Guard{
		store:       store,
		clock:       realClock{},
		maxFailures: DefaultMaxFailures,
		lockout:     DefaultLockout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Lockout returns the configured lockout length.
func (g *Guard) Lockout() time.Duration {
	return g.lockout
}

// Status reports whether id is currently locked and for how long.
func (g *Guard) Status(ctx context.Context, id string) (Status, error) {
	rec, found, err := g.store.Get(ctx, id)
	if err != nil {
		return Status{}, fmt.Errorf("throttle: get %q: %w", id, err)
	}
	now := g.clock.Now()
	if !found || !rec.lockedAt(now) {
		return Status{}, nil
	}
	return Status{Locked: true, RetryAfter: rec.LockedUntil.Sub(now)}, nil
}

// RecordFailure counts a failed attempt for id. Reaching the failure budget
// locks id for the lockout window and resets the counter.
func (g *Guard) RecordFailure(ctx context.Context, id string) (Status, error) {
	now := g.clock.Now()
	rec, err := g.store.Update(ctx, id, func(rec Record, found bool) (Record, bool) {
		if !found || rec.expiredAt(now) {
			rec = Record{}
		}
		rec.Failures++
		if rec.Failures >= g.maxFailures {
			rec.LockedUntil = now.Add(g.lockout)
			rec.Failures = 0
		}
		return rec, true
	})
	if err != nil {
		return Status{}, fmt.Errorf("throttle: record failure %q: %w", id, err)
	}
	if rec.lockedAt(now) {
		return Status{Locked: true, RetryAfter: rec.LockedUntil.Sub(now)}, nil
	}
	return Status{}, nil
}

// Reset forgets id after a successful login.
func (g *Guard) Reset(ctx context.Context, id string) error {
	if err := g.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("throttle: reset %q: %w", id, err)
	}
	return nil
}

// Remaining returns how many attempts id has left before a lockout. Unseen
// identifiers report one less than the budget, matching the first-attempt
// wording the login form has always shown.
func (g *Guard) Remaining(ctx context.Context, id string) (int, error) {
	rec, found, err := g.store.Get(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("throttle: get %q: %w", id, err)
	}
	now := g.clock.Now()
	switch {
	case !found || rec.expiredAt(now):
		return g.maxFailures - 1, nil
	case rec.lockedAt(now):
		return 0, nil
	default:
		return g.maxFailures - rec.Failures, nil
	}
}
