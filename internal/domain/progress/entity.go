// Package progress contains domain entities and business logic for lesson
// progress, per-exercise completion strength, and daily XP accrual.
// This is a pure domain layer with zero external dependencies.
package progress

import (
	"errors"
	"time"

	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/user"
	"github.com/lingora-app/lingora/pkg/timeutil"
)

// Domain errors for progress package.
var (
	ErrInvalidStatus   = errors.New("progress: invalid lesson status")
	ErrInvalidScore    = errors.New("progress: score must be between 0 and 100")
	ErrInvalidStrength = errors.New("progress: strength must be between 0 and 1")
)

// LessonStatus is the lifecycle state of a user's progress on a lesson.
type LessonStatus string

const (
	// StatusNotStarted - the user has never opened the lesson.
	StatusNotStarted LessonStatus = "not_started"

	// StatusInProgress - a session token has been issued but the lesson
	// has not been completed yet.
	StatusInProgress LessonStatus = "in_progress"

	// StatusCompleted - the lesson has been completed at least once.
	StatusCompleted LessonStatus = "completed"
)

// IsValid checks the status is a known value.
func (s LessonStatus) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status may move to next.
// Transitions only go forward, except re-completion (completed →
// completed), which is allowed but must not re-award XP.
func (s LessonStatus) CanTransitionTo(next LessonStatus) bool {
	switch s {
	case StatusNotStarted:
		return next == StatusInProgress || next == StatusCompleted
	case StatusInProgress:
		return next == StatusInProgress || next == StatusCompleted
	case StatusCompleted:
		return next == StatusCompleted
	}
	return false
}

// LessonProgress is one user's progress on one lesson.
type LessonProgress struct {
	// UserID identifies the user.
	UserID user.UserID

	// LessonID identifies the lesson.
	LessonID lesson.LessonID

	// Status is the lifecycle state.
	Status LessonStatus

	// Score is the latest submitted score (0-100).
	Score int

	// CompletedAt is when the lesson was last completed.
	CompletedAt time.Time

	// UpdatedAt is when this record was last written.
	UpdatedAt time.Time
}

// IsCompleted reports whether the lesson has ever been completed.
func (lp *LessonProgress) IsCompleted() bool {
	return lp != nil && lp.Status == StatusCompleted
}

// Exercise strength model. Strength is the spaced-repetition signal the
// review subsystem reads: 1.0 means fresh, values decay toward 0.5 as a
// memory weakens.
const (
	// StrengthFull is the strength assigned on lesson completion.
	StrengthFull = 1.0

	// StrengthFloor is the value decay converges to.
	StrengthFloor = 0.5
)

// CompletedExercise is one user's record for one exercise.
type CompletedExercise struct {
	// UserID identifies the user.
	UserID user.UserID

	// ExerciseID identifies the exercise.
	ExerciseID lesson.ExerciseID

	// LessonID is the lesson the exercise belongs to.
	LessonID lesson.LessonID

	// SkillType is what the exercise trains.
	SkillType lesson.SkillType

	// Strength is the spaced-repetition strength in [0, 1].
	Strength float64

	// CompletedAt is when the exercise was last completed.
	CompletedAt time.Time

	// ReviewCount is how many times the exercise has been completed
	// or reviewed.
	ReviewCount int
}

// Reinforce records a correct completion: strength jumps to full and the
// review counter advances.
func (ce *CompletedExercise) Reinforce(now time.Time) {
	ce.Strength = StrengthFull
	ce.CompletedAt = now
	ce.ReviewCount++
}

// Decay records a missed review: strength moves halfway toward the floor.
func (ce *CompletedExercise) Decay(now time.Time) {
	ce.Strength -= (ce.Strength - StrengthFloor) / 2
	if ce.Strength < StrengthFloor {
		ce.Strength = StrengthFloor
	}
	ce.CompletedAt = now
	ce.ReviewCount++
}

// DailyProgress is one user's XP accrual for one UTC day.
type DailyProgress struct {
	// UserID identifies the user.
	UserID user.UserID

	// Date is the start of the UTC day.
	Date time.Time

	// XPAccrued is the XP earned that day.
	XPAccrued int

	// LessonsCompleted is the number of first-time lesson completions
	// that day.
	LessonsCompleted int
}

// Streak tracks a user's run of consecutive active days.
type Streak struct {
	// UserID identifies the user.
	UserID user.UserID

	// Current is the length of the current run.
	Current int

	// Best is the longest run ever.
	Best int

	// LastActiveDate is the start of the last active UTC day.
	LastActiveDate time.Time
}

// RecordActivity updates the streak for activity on the given day.
func (s *Streak) RecordActivity(date time.Time) {
	day := timeutil.StartOfDay(date)

	if s.LastActiveDate.IsZero() {
		s.Current = 1
		s.Best = 1
		s.LastActiveDate = day
		return
	}

	switch {
	case timeutil.IsSameDay(s.LastActiveDate, day):
		// Same day, nothing changes
		return
	case timeutil.IsConsecutiveDay(s.LastActiveDate, day):
		s.Current++
		if s.Current > s.Best {
			s.Best = s.Current
		}
	default:
		// Missed at least one day
		s.Current = 1
	}

	s.LastActiveDate = day
}

// IsBroken reports whether the streak has lapsed (no activity yesterday
// or today).
func (s *Streak) IsBroken(now time.Time) bool {
	if s.LastActiveDate.IsZero() {
		return false
	}
	return timeutil.DaysBetween(s.LastActiveDate, now) > 1
}

// StreakFromDailyHistory rebuilds a streak from daily progress rows
// (oldest first). Used by the read side; the write side never stores
// streaks directly.
func StreakFromDailyHistory(userID user.UserID, days []*DailyProgress) *Streak {
	s := &Streak{UserID: userID}
	for _, d := range days {
		if d.XPAccrued > 0 || d.LessonsCompleted > 0 {
			s.RecordActivity(d.Date)
		}
	}
	return s
}
