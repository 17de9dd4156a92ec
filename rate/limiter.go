package rate

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the limiter's backing store is unreachable.
var ErrUnavailable = errors.New("rate limit backend unavailable")

// Result is the outcome of one limiter check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // time until the oldest counted request ages out; zero when allowed
}

// Store holds per-key timestamp lists. Take must prune, decide, and record
// atomically with respect to concurrent calls bearing the same key.
type Store interface {
	Take(ctx context.Context, key string, now time.Time, window time.Duration, max int) (Result, error)
}

// Limiter enforces a sliding-window budget over a [Store].
type Limiter struct {
	store Store
	now   func() time.Time
}

// NewLimiter returns a Limiter over store. now is injectable for tests;
// nil means time.Now.
func NewLimiter(store Store, now func() time.Time) (*Limiter, error) {
	if store == nil {
		return nil, errors.New("rate limiter requires a store")
	}
	if now == nil {
		now = time.Now
	}
	return &Limiter{store: store, now: now}, nil
}

// Check applies the window/max budget to key. When allowed, the call itself
// is recorded against the budget.
func (l *Limiter) Check(ctx context.Context, key string, window time.Duration, max int) (Result, error) {
	if key == "" {
		return Result{}, errors.New("rate limit key must not be empty")
	}
	if window <= 0 || max < 1 {
		return Result{}, errors.New("invalid rate limit budget")
	}

	return l.store.Take(ctx, key, l.now(), window, max)
}

// RetryAfterSeconds converts a retry-after duration to the whole-second
// value reported to clients, rounding up so "retry after N" is never early.
func RetryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	s := int(d / time.Second)
	if d%time.Second != 0 {
		s++
	}
	return s
}
