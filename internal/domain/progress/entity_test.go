package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(yearDay int) time.Time {
	return time.Date(2026, 3, yearDay, 0, 0, 0, 0, time.UTC)
}

func TestLessonStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    LessonStatus
		to      LessonStatus
		allowed bool
	}{
		{StatusNotStarted, StatusInProgress, true},
		{StatusNotStarted, StatusCompleted, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusInProgress, true},
		{StatusCompleted, StatusCompleted, true},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusNotStarted, false},
		{StatusInProgress, StatusNotStarted, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestLessonProgress_IsCompleted_NilSafe(t *testing.T) {
	var lp *LessonProgress
	assert.False(t, lp.IsCompleted())

	lp = &LessonProgress{Status: StatusInProgress}
	assert.False(t, lp.IsCompleted())

	lp.Status = StatusCompleted
	assert.True(t, lp.IsCompleted())
}

func TestCompletedExercise_ReinforceAndDecay(t *testing.T) {
	ce := &CompletedExercise{Strength: StrengthFull, ReviewCount: 1}

	ce.Decay(day(2))
	assert.InDelta(t, 0.75, ce.Strength, 1e-9)
	assert.Equal(t, 2, ce.ReviewCount)

	ce.Decay(day(3))
	assert.InDelta(t, 0.625, ce.Strength, 1e-9)

	// Decay converges to the floor, never below it.
	for i := 0; i < 50; i++ {
		ce.Decay(day(4))
	}
	assert.GreaterOrEqual(t, ce.Strength, StrengthFloor)
	assert.InDelta(t, StrengthFloor, ce.Strength, 1e-6)

	ce.Reinforce(day(5))
	assert.Equal(t, StrengthFull, ce.Strength)
	assert.Equal(t, day(5), ce.CompletedAt)
}

func TestStreak_RecordActivity(t *testing.T) {
	s := &Streak{UserID: "user-1"}

	s.RecordActivity(day(1))
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 1, s.Best)

	// Same day is a no-op.
	s.RecordActivity(day(1).Add(5 * time.Hour))
	assert.Equal(t, 1, s.Current)

	s.RecordActivity(day(2))
	s.RecordActivity(day(3))
	assert.Equal(t, 3, s.Current)
	assert.Equal(t, 3, s.Best)

	// A gap resets the current run but keeps the best.
	s.RecordActivity(day(7))
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 3, s.Best)
}

func TestStreak_IsBroken(t *testing.T) {
	s := &Streak{UserID: "user-1"}
	assert.False(t, s.IsBroken(day(10)), "empty streak is not broken")

	s.RecordActivity(day(5))
	assert.False(t, s.IsBroken(day(5)))
	assert.False(t, s.IsBroken(day(6)), "yesterday's activity still counts")
	assert.True(t, s.IsBroken(day(7)))
}

func TestStreakFromDailyHistory(t *testing.T) {
	history := []*DailyProgress{
		{UserID: "user-1", Date: day(1), XPAccrued: 10, LessonsCompleted: 1},
		{UserID: "user-1", Date: day(2), XPAccrued: 20, LessonsCompleted: 2},
		{UserID: "user-1", Date: day(3), XPAccrued: 0, LessonsCompleted: 0}, // idle row
		{UserID: "user-1", Date: day(4), XPAccrued: 10, LessonsCompleted: 1},
		{UserID: "user-1", Date: day(5), XPAccrued: 10, LessonsCompleted: 1},
	}

	s := StreakFromDailyHistory("user-1", history)

	assert.Equal(t, 2, s.Current, "idle day broke the first run")
	assert.Equal(t, 2, s.Best)
	assert.Equal(t, day(5), s.LastActiveDate)
}
