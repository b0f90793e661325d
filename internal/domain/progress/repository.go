package progress

import (
	"context"
	"time"

	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/user"
)

// Repository defines the interface for progress persistence.
// The Ledger is the only writer; queries read through the same interface.
// Upserts are last-writer-wins, which is acceptable because lesson
// completion is idempotent.
type Repository interface {
	// Lesson progress

	// GetLessonProgress returns the progress row for (user, lesson).
	// Returns shared.ErrNotFound if the user has never touched the lesson.
	GetLessonProgress(ctx context.Context, userID user.UserID, lessonID lesson.LessonID) (*LessonProgress, error)

	// UpsertLessonProgress creates or replaces the progress row for
	// (user, lesson).
	UpsertLessonProgress(ctx context.Context, lp *LessonProgress) error

	// GetLessonProgressByUser returns all progress rows for a user.
	GetLessonProgressByUser(ctx context.Context, userID user.UserID) ([]*LessonProgress, error)

	// Completed exercises

	// UpsertCompletedExercise creates or replaces the record for
	// (user, exercise).
	UpsertCompletedExercise(ctx context.Context, ce *CompletedExercise) error

	// GetCompletedExercise returns the record for (user, exercise).
	// Returns shared.ErrNotFound if the exercise was never completed.
	GetCompletedExercise(ctx context.Context, userID user.UserID, exerciseID lesson.ExerciseID) (*CompletedExercise, error)

	// GetCompletedExercisesByLesson returns the user's records for a
	// lesson's exercises.
	GetCompletedExercisesByLesson(ctx context.Context, userID user.UserID, lessonID lesson.LessonID) ([]*CompletedExercise, error)

	// Daily progress

	// AddDailyXP atomically adds xp (and one completed lesson) to the
	// user's row for the given UTC day, creating the row if absent.
	AddDailyXP(ctx context.Context, userID user.UserID, date time.Time, xp int) error

	// GetDailyProgress returns the row for (user, day).
	// Returns shared.ErrNotFound if there was no activity that day.
	GetDailyProgress(ctx context.Context, userID user.UserID, date time.Time) (*DailyProgress, error)

	// GetDailyProgressRange returns rows for [from, to], oldest first.
	GetDailyProgressRange(ctx context.Context, userID user.UserID, from, to time.Time) ([]*DailyProgress, error)
}
