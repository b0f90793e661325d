package memory

import (
	"context"
	"sync"
	"time"

	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/progress"
	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/domain/user"
	"github.com/lingora-app/lingora/pkg/timeutil"
)

type lessonKey struct {
	userID   user.UserID
	lessonID lesson.LessonID
}

type exerciseKey struct {
	userID     user.UserID
	exerciseID lesson.ExerciseID
}

type dailyKey struct {
	userID user.UserID
	day    string
}

// ProgressRepo is an in-memory progress repository.
type ProgressRepo struct {
	mu        sync.Mutex
	lessons   map[lessonKey]*progress.LessonProgress
	exercises map[exerciseKey]*progress.CompletedExercise
	daily     map[dailyKey]*progress.DailyProgress
}

var _ progress.Repository = (*ProgressRepo)(nil)

// NewProgressRepo creates an empty in-memory progress repository.
func NewProgressRepo() *ProgressRepo {
	return &ProgressRepo{
		lessons:   make(map[lessonKey]*progress.LessonProgress),
		exercises: make(map[exerciseKey]*progress.CompletedExercise),
		daily:     make(map[dailyKey]*progress.DailyProgress),
	}
}

// GetLessonProgress returns the row for (user, lesson).
func (r *ProgressRepo) GetLessonProgress(_ context.Context, userID user.UserID, lessonID lesson.LessonID) (*progress.LessonProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lp, ok := r.lessons[lessonKey{userID, lessonID}]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *lp
	return &cp, nil
}

// UpsertLessonProgress creates or replaces the row for (user, lesson).
func (r *ProgressRepo) UpsertLessonProgress(_ context.Context, lp *progress.LessonProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *lp
	r.lessons[lessonKey{lp.UserID, lp.LessonID}] = &cp
	return nil
}

// GetLessonProgressByUser returns all progress rows for a user.
func (r *ProgressRepo) GetLessonProgressByUser(_ context.Context, userID user.UserID) ([]*progress.LessonProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*progress.LessonProgress
	for key, lp := range r.lessons {
		if key.userID == userID {
			cp := *lp
			out = append(out, &cp)
		}
	}
	return out, nil
}

// UpsertCompletedExercise creates or replaces the row for (user, exercise).
func (r *ProgressRepo) UpsertCompletedExercise(_ context.Context, ce *progress.CompletedExercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *ce
	r.exercises[exerciseKey{ce.UserID, ce.ExerciseID}] = &cp
	return nil
}

// GetCompletedExercise returns the row for (user, exercise).
func (r *ProgressRepo) GetCompletedExercise(_ context.Context, userID user.UserID, exerciseID lesson.ExerciseID) (*progress.CompletedExercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ce, ok := r.exercises[exerciseKey{userID, exerciseID}]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *ce
	return &cp, nil
}

// GetCompletedExercisesByLesson returns the user's rows for a lesson.
func (r *ProgressRepo) GetCompletedExercisesByLesson(_ context.Context, userID user.UserID, lessonID lesson.LessonID) ([]*progress.CompletedExercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*progress.CompletedExercise
	for key, ce := range r.exercises {
		if key.userID == userID && ce.LessonID == lessonID {
			cp := *ce
			out = append(out, &cp)
		}
	}
	return out, nil
}

// AddDailyXP atomically adds xp and one completed lesson to the user's
// row for the given UTC day.
func (r *ProgressRepo) AddDailyXP(_ context.Context, userID user.UserID, date time.Time, xp int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := dailyKey{userID, timeutil.DayKey(date)}
	dp, ok := r.daily[key]
	if !ok {
		dp = &progress.DailyProgress{
			UserID: userID,
			Date:   timeutil.StartOfDay(date),
		}
		r.daily[key] = dp
	}
	dp.XPAccrued += xp
	dp.LessonsCompleted++
	return nil
}

// GetDailyProgress returns the row for (user, day).
func (r *ProgressRepo) GetDailyProgress(_ context.Context, userID user.UserID, date time.Time) (*progress.DailyProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dp, ok := r.daily[dailyKey{userID, timeutil.DayKey(date)}]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *dp
	return &cp, nil
}

// GetDailyProgressRange returns rows for [from, to], oldest first.
func (r *ProgressRepo) GetDailyProgressRange(_ context.Context, userID user.UserID, from, to time.Time) ([]*progress.DailyProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*progress.DailyProgress
	for day := timeutil.StartOfDay(from); !day.After(timeutil.StartOfDay(to)); day = day.AddDate(0, 0, 1) {
		if dp, ok := r.daily[dailyKey{userID, timeutil.DayKey(day)}]; ok {
			cp := *dp
			out = append(out, &cp)
		}
	}
	return out, nil
}
