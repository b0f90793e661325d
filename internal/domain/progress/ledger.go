package progress

import (
	"context"
	"time"

	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/domain/user"
)

// Ledger is the idempotent recorder of completion effects: per-exercise
// records, the lesson status transition, and per-day XP accrual. It is the
// only component allowed to mutate LessonProgress, CompletedExercise, and
// DailyProgress for a user.
type Ledger struct {
	repo Repository

	// now is injectable for tests.
	now func() time.Time
}

// NewLedger creates a Ledger over the given repository.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// NewLedgerWithClock creates a Ledger with an injected clock.
func NewLedgerWithClock(repo Repository, now func() time.Time) *Ledger {
	return &Ledger{repo: repo, now: now}
}

// ExerciseFailure records a per-exercise upsert that failed and was
// skipped. These are best-effort enrichment; they never fail the
// completion.
type ExerciseFailure struct {
	ExerciseID lesson.ExerciseID
	Err        error
}

// CompletionApplied is the result of applying a completion.
type CompletionApplied struct {
	// XPEarned is the XP awarded: the lesson's reward on first
	// completion, zero on re-completion.
	XPEarned int

	// AlreadyCompleted reports whether the lesson had been completed
	// before this application.
	AlreadyCompleted bool

	// LessonCommitted reports whether the LessonProgress write
	// succeeded. When true alongside a returned error, the lesson is
	// completed but the XP accrual failed; the caller must surface
	// both facts.
	LessonCommitted bool

	// SkippedExercises are per-exercise upserts that failed. The
	// caller logs them.
	SkippedExercises []ExerciseFailure

	// CompletedAt is the timestamp stamped on the completion.
	CompletedAt time.Time
}

// ApplyCompletion applies the effects of a validated completion exactly
// once per first completion:
//
//   - every exercise in the lesson gets a CompletedExercise at full
//     strength (individual failures are skipped, not fatal),
//   - LessonProgress moves to completed regardless of prior state
//     (idempotent terminal state),
//   - DailyProgress accrues the lesson's XP only if the lesson had never
//     reached completed before.
//
// LessonProgress and DailyProgress failures are fatal and surfaced as
// shared.ErrPersistenceFailure.
func (l *Ledger) ApplyCompletion(ctx context.Context, userID user.UserID, lsn *lesson.Lesson, score int) (*CompletionApplied, error) {
	now := l.now()
	result := &CompletionApplied{CompletedAt: now}

	prior, err := l.repo.GetLessonProgress(ctx, userID, lsn.ID)
	if err != nil && !shared.IsNotFound(err) {
		return result, shared.WrapError("progress", "ApplyCompletion", shared.ErrPersistence, "failed to read prior lesson progress", err)
	}
	result.AlreadyCompleted = prior.IsCompleted()

	// Best-effort per-exercise records. A failed upsert loses some
	// spaced-repetition signal but must not void the completion.
	for _, ex := range lsn.Exercises {
		ce := &CompletedExercise{
			UserID:      userID,
			ExerciseID:  ex.ID,
			LessonID:    lsn.ID,
			SkillType:   ex.SkillType,
			Strength:    StrengthFull,
			CompletedAt: now,
			ReviewCount: 1,
		}
		if existing, getErr := l.repo.GetCompletedExercise(ctx, userID, ex.ID); getErr == nil {
			ce.ReviewCount = existing.ReviewCount + 1
		}
		if upErr := l.repo.UpsertCompletedExercise(ctx, ce); upErr != nil {
			result.SkippedExercises = append(result.SkippedExercises, ExerciseFailure{ExerciseID: ex.ID, Err: upErr})
		}
	}

	lp := &LessonProgress{
		UserID:      userID,
		LessonID:    lsn.ID,
		Status:      StatusCompleted,
		Score:       score,
		CompletedAt: now,
		UpdatedAt:   now,
	}
	if err := l.repo.UpsertLessonProgress(ctx, lp); err != nil {
		return result, shared.WrapError("progress", "ApplyCompletion", shared.ErrPersistence, "failed to record lesson completion", err)
	}
	result.LessonCommitted = true

	if result.AlreadyCompleted {
		result.XPEarned = 0
		return result, nil
	}

	result.XPEarned = lsn.Reward()
	if err := l.repo.AddDailyXP(ctx, userID, now, result.XPEarned); err != nil {
		// The lesson is already committed at this point. The caller
		// sees both LessonCommitted and the error.
		return result, shared.WrapError("progress", "ApplyCompletion", shared.ErrPersistence, "failed to accrue daily XP", err)
	}

	return result, nil
}

// MarkStarted moves a lesson to in_progress when a session token is
// issued, without touching completion state.
func (l *Ledger) MarkStarted(ctx context.Context, userID user.UserID, lessonID lesson.LessonID) error {
	now := l.now()

	prior, err := l.repo.GetLessonProgress(ctx, userID, lessonID)
	if err != nil && !shared.IsNotFound(err) {
		return shared.WrapError("progress", "MarkStarted", shared.ErrPersistence, "failed to read lesson progress", err)
	}
	if prior.IsCompleted() {
		// Re-practicing a completed lesson keeps the terminal status.
		return nil
	}

	lp := &LessonProgress{
		UserID:    userID,
		LessonID:  lessonID,
		Status:    StatusInProgress,
		UpdatedAt: now,
	}
	if prior != nil {
		lp.Score = prior.Score
		lp.CompletedAt = prior.CompletedAt
	}
	if err := l.repo.UpsertLessonProgress(ctx, lp); err != nil {
		return shared.WrapError("progress", "MarkStarted", shared.ErrPersistence, "failed to mark lesson started", err)
	}
	return nil
}
