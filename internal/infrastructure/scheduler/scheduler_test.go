package scheduler

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingora-app/lingora/internal/domain/session"
	"github.com/lingora-app/lingora/internal/infrastructure/persistence/memory"
	"github.com/lingora-app/lingora/internal/infrastructure/ratelimit"
	"github.com/lingora-app/lingora/internal/infrastructure/scheduler/jobs"
	"github.com/lingora-app/lingora/pkg/logger"
)

func testLog() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
}

func TestScheduler_RegisterValidation(t *testing.T) {
	s := NewScheduler(testLog())
	store := memory.NewSessionStore()
	job := jobs.NewTokenGC(store, testLog())

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(job, nil), ErrNilSchedule)

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))
	assert.ErrorIs(t, s.Register(job, NewIntervalSchedule(time.Minute)), ErrJobAlreadyExists)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(testLog())

	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestScheduler_RunNow_TokenGC(t *testing.T) {
	store := memory.NewSessionStore()
	ctx := context.Background()

	// One token past retention, one fresh.
	old, err := session.NewSessionToken("user-1", "lesson-1", 3)
	require.NoError(t, err)
	old.IssuedAt = time.Now().UTC().Add(-session.TokenRetention - time.Hour)
	require.NoError(t, store.Save(ctx, old))

	fresh, err := session.NewSessionToken("user-1", "lesson-2", 3)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, fresh))

	s := NewScheduler(testLog())
	gc := jobs.NewTokenGC(store, testLog())
	require.NoError(t, s.Register(gc, NewIntervalSchedule(jobs.TokenGCInterval)))

	result, err := s.RunNow(ctx, gc.Name())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, store.Len())

	last, ok := s.LastRun(gc.Name())
	require.True(t, ok)
	assert.Equal(t, gc.Name(), last.JobName)
}

func TestScheduler_RunNow_UnknownJob(t *testing.T) {
	s := NewScheduler(testLog())

	_, err := s.RunNow(context.Background(), "no_such_job")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RunNow_LimiterPrune(t *testing.T) {
	window := ratelimit.NewSlidingWindow(ratelimit.Config{MaxAttempts: 2, Window: time.Millisecond})
	window.Allow(context.Background(), "user-1")
	time.Sleep(5 * time.Millisecond)

	s := NewScheduler(testLog())
	prune := jobs.NewLimiterPrune(window, testLog())
	require.NoError(t, s.Register(prune, NewIntervalSchedule(jobs.LimiterPruneInterval)))

	result, err := s.RunNow(context.Background(), prune.Name())
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestIntervalSchedule(t *testing.T) {
	sched := NewIntervalSchedule(15 * time.Minute)
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, base.Add(15*time.Minute), sched.Next(base))
	assert.Equal(t, "@every 15m0s", sched.String())
}
