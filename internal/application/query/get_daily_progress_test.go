package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingora-app/lingora/internal/infrastructure/persistence/memory"
)

func TestGetDailyProgress_HistoryAndStreak(t *testing.T) {
	repo := memory.NewProgressRepo()
	ctx := context.Background()

	day := func(d int) time.Time {
		return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
	}
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	// Active on the 7th, 8th, 9th, and 10th; 5th is an older, separate run.
	require.NoError(t, repo.AddDailyXP(ctx, "user-1", day(5), 10))
	require.NoError(t, repo.AddDailyXP(ctx, "user-1", day(7), 10))
	require.NoError(t, repo.AddDailyXP(ctx, "user-1", day(8), 20))
	require.NoError(t, repo.AddDailyXP(ctx, "user-1", day(9), 10))
	require.NoError(t, repo.AddDailyXP(ctx, "user-1", day(10), 10))

	handler := NewGetDailyProgressHandlerWithClock(repo, func() time.Time { return now })

	result, err := handler.Handle(ctx, GetDailyProgressQuery{UserID: "user-1", Days: 30})

	require.NoError(t, err)
	assert.Len(t, result.Days, 5)
	assert.Equal(t, 60, result.TotalXP)
	assert.Equal(t, 4, result.CurrentStreak)
	assert.Equal(t, 4, result.BestStreak)
	assert.True(t, result.ActiveToday)

	// Oldest first, with day keys.
	assert.Equal(t, "2026-03-05", result.Days[0].DayKey)
	assert.Equal(t, "2026-03-10", result.Days[4].DayKey)
}

func TestGetDailyProgress_BrokenStreakReportsZero(t *testing.T) {
	repo := memory.NewProgressRepo()
	ctx := context.Background()

	// Last activity three days before "now".
	require.NoError(t, repo.AddDailyXP(ctx, "user-1", time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC), 10))
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	handler := NewGetDailyProgressHandlerWithClock(repo, func() time.Time { return now })

	result, err := handler.Handle(ctx, GetDailyProgressQuery{UserID: "user-1"})

	require.NoError(t, err)
	assert.Equal(t, 0, result.CurrentStreak)
	assert.Equal(t, 1, result.BestStreak)
	assert.False(t, result.ActiveToday)
}

func TestGetDailyProgress_WindowExcludesOlderRows(t *testing.T) {
	repo := memory.NewProgressRepo()
	ctx := context.Background()

	require.NoError(t, repo.AddDailyXP(ctx, "user-1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 50))
	require.NoError(t, repo.AddDailyXP(ctx, "user-1", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), 10))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	handler := NewGetDailyProgressHandlerWithClock(repo, func() time.Time { return now })

	result, err := handler.Handle(ctx, GetDailyProgressQuery{UserID: "user-1", Days: 7})

	require.NoError(t, err)
	assert.Len(t, result.Days, 1)
	assert.Equal(t, 10, result.TotalXP)
}

func TestGetDailyProgress_EmptyHistory(t *testing.T) {
	handler := NewGetDailyProgressHandler(memory.NewProgressRepo())

	result, err := handler.Handle(context.Background(), GetDailyProgressQuery{UserID: "user-1"})

	require.NoError(t, err)
	assert.Empty(t, result.Days)
	assert.Equal(t, 0, result.CurrentStreak)
	assert.False(t, result.ActiveToday)
}

func TestGetDailyProgress_RequiresUser(t *testing.T) {
	handler := NewGetDailyProgressHandler(memory.NewProgressRepo())

	_, err := handler.Handle(context.Background(), GetDailyProgressQuery{})
	assert.Error(t, err)
}
