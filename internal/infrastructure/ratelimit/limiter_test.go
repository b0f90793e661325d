package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(cfg Config) (*SlidingWindow, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewSlidingWindowWithClock(cfg, clock.Now), clock
}

func TestSlidingWindow_AllowsUpToLimit(t *testing.T) {
	limiter, _ := newTestLimiter(DefaultConfig())
	ctx := context.Background()

	for i := 0; i < DefaultMaxAttempts; i++ {
		assert.True(t, limiter.Allow(ctx, "user-1"), "attempt %d should be allowed", i+1)
	}
	assert.False(t, limiter.Allow(ctx, "user-1"), "attempt 11 should be rejected")
}

func TestSlidingWindow_WindowSlides(t *testing.T) {
	limiter, clock := newTestLimiter(Config{MaxAttempts: 2, Window: time.Hour})
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "user-1"))
	clock.Advance(30 * time.Minute)
	assert.True(t, limiter.Allow(ctx, "user-1"))
	assert.False(t, limiter.Allow(ctx, "user-1"))

	// 61 minutes after the first attempt it has left the window,
	// freeing one slot. The second attempt is still inside.
	clock.Advance(31 * time.Minute)
	assert.True(t, limiter.Allow(ctx, "user-1"))
	assert.False(t, limiter.Allow(ctx, "user-1"))
}

func TestSlidingWindow_RejectionsDoNotConsumeQuota(t *testing.T) {
	limiter, clock := newTestLimiter(Config{MaxAttempts: 1, Window: time.Hour})
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "user-1"))
	for i := 0; i < 5; i++ {
		assert.False(t, limiter.Allow(ctx, "user-1"))
	}

	// Only the permitted attempt occupies the window; once it ages out
	// the quota refills regardless of the rejected attempts.
	clock.Advance(time.Hour + time.Second)
	assert.True(t, limiter.Allow(ctx, "user-1"))
}

func TestSlidingWindow_UsersAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(Config{MaxAttempts: 1, Window: time.Hour})
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "user-1"))
	assert.False(t, limiter.Allow(ctx, "user-1"))
	assert.True(t, limiter.Allow(ctx, "user-2"))
}

func TestSlidingWindow_Remaining(t *testing.T) {
	limiter, _ := newTestLimiter(Config{MaxAttempts: 3, Window: time.Hour})
	ctx := context.Background()

	assert.Equal(t, 3, limiter.Remaining("user-1"))
	limiter.Allow(ctx, "user-1")
	limiter.Allow(ctx, "user-1")
	assert.Equal(t, 1, limiter.Remaining("user-1"))
}

func TestSlidingWindow_Prune(t *testing.T) {
	limiter, clock := newTestLimiter(Config{MaxAttempts: 2, Window: time.Hour})
	ctx := context.Background()

	limiter.Allow(ctx, "user-1")
	limiter.Allow(ctx, "user-2")

	clock.Advance(2 * time.Hour)
	limiter.Allow(ctx, "user-3")

	removed := limiter.Prune()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 2, limiter.Remaining("user-1"))
	assert.Equal(t, 1, limiter.Remaining("user-3"))
}

func TestSlidingWindow_DefaultsApplied(t *testing.T) {
	limiter := NewSlidingWindow(Config{})
	assert.Equal(t, DefaultMaxAttempts, limiter.cfg.MaxAttempts)
	assert.Equal(t, DefaultWindow, limiter.cfg.Window)
}
