// Package ratelimit guards the completion pipeline against brute-force
// submission. The default limiter is a process-local sliding window; a
// Redis-backed variant is available for multi-instance deployments and
// falls back to the local window when Redis is unhealthy.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Defaults for the completion quota.
const (
	DefaultMaxAttempts = 10
	DefaultWindow      = time.Hour
)

// Limiter decides whether a user may make another completion attempt.
// Allow never returns an error: a limiter that cannot decide fails open
// or closed internally according to its own policy.
type Limiter interface {
	Allow(ctx context.Context, userID string) bool
}

// Config holds sliding window parameters.
type Config struct {
	// MaxAttempts is the number of attempts permitted per window.
	MaxAttempts int

	// Window is the sliding window duration.
	Window time.Duration
}

// DefaultConfig returns the standard completion quota.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		Window:      DefaultWindow,
	}
}

// SlidingWindow is a process-local sliding window limiter. It tracks the
// timestamps of permitted attempts per user; an attempt is allowed while
// fewer than MaxAttempts permitted attempts fall inside the trailing
// window. Memory per user is bounded by MaxAttempts.
type SlidingWindow struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	cfg      Config

	// now is injectable for tests.
	now func() time.Time
}

var _ Limiter = (*SlidingWindow)(nil)

// NewSlidingWindow creates a sliding window limiter.
func NewSlidingWindow(cfg Config) *SlidingWindow {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	return &SlidingWindow{
		attempts: make(map[string][]time.Time),
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NewSlidingWindowWithClock creates a limiter with an injected clock.
func NewSlidingWindowWithClock(cfg Config, now func() time.Time) *SlidingWindow {
	sw := NewSlidingWindow(cfg)
	sw.now = now
	return sw
}

// Allow records an attempt for userID and reports whether it is within
// the quota. Rejected attempts are not recorded: the quota refills as the
// oldest permitted attempt slides out of the window.
func (sw *SlidingWindow) Allow(_ context.Context, userID string) bool {
	now := sw.now()
	cutoff := now.Add(-sw.cfg.Window)

	sw.mu.Lock()
	defer sw.mu.Unlock()

	recent := pruneBefore(sw.attempts[userID], cutoff)
	if len(recent) >= sw.cfg.MaxAttempts {
		sw.attempts[userID] = recent
		return false
	}

	sw.attempts[userID] = append(recent, now)
	return true
}

// Remaining reports how many attempts userID has left in the current
// window. Informational only; Allow is the deciding call.
func (sw *SlidingWindow) Remaining(userID string) int {
	cutoff := sw.now().Add(-sw.cfg.Window)

	sw.mu.Lock()
	defer sw.mu.Unlock()

	recent := pruneBefore(sw.attempts[userID], cutoff)
	sw.attempts[userID] = recent
	return sw.cfg.MaxAttempts - len(recent)
}

// Prune drops users whose attempts have all aged out of the window.
// Called periodically so idle users do not accumulate in the map.
func (sw *SlidingWindow) Prune() int {
	cutoff := sw.now().Add(-sw.cfg.Window)

	sw.mu.Lock()
	defer sw.mu.Unlock()

	removed := 0
	for userID, ts := range sw.attempts {
		recent := pruneBefore(ts, cutoff)
		if len(recent) == 0 {
			delete(sw.attempts, userID)
			removed++
			continue
		}
		sw.attempts[userID] = recent
	}
	return removed
}

// pruneBefore returns the suffix of ts at or after cutoff. ts is
// append-only per user, so it is already sorted.
func pruneBefore(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && ts[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append([]time.Time(nil), ts[i:]...)
}
