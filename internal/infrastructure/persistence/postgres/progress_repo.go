// Package postgres implements the PostgreSQL persistence layer for Lingora.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/progress"
	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/domain/user"
	"github.com/lingora-app/lingora/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements progress.Repository for PostgreSQL.
type ProgressRepository struct {
	conn *Connection
}

var _ progress.Repository = (*ProgressRepository)(nil)

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Lesson progress
// ─────────────────────────────────────────────────────────────────────────────

// GetLessonProgress returns the progress row for (user, lesson).
func (r *ProgressRepository) GetLessonProgress(ctx context.Context, userID user.UserID, lessonID lesson.LessonID) (*progress.LessonProgress, error) {
	query := `
		SELECT user_id, lesson_id, status, score, completed_at, updated_at
		FROM lesson_progress
		WHERE user_id = $1 AND lesson_id = $2
	`

	row := r.conn.QueryRow(ctx, query, string(userID), string(lessonID))
	lp, err := scanLessonProgress(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lesson progress: %w", err)
	}
	return lp, nil
}

// UpsertLessonProgress creates or replaces the progress row for (user, lesson).
func (r *ProgressRepository) UpsertLessonProgress(ctx context.Context, lp *progress.LessonProgress) error {
	query := `
		INSERT INTO lesson_progress (user_id, lesson_id, status, score, completed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET
			status = EXCLUDED.status,
			score = EXCLUDED.score,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at
	`

	var completedAt *time.Time
	if !lp.CompletedAt.IsZero() {
		completedAt = &lp.CompletedAt
	}

	_, err := r.conn.Exec(ctx, query,
		string(lp.UserID),
		string(lp.LessonID),
		string(lp.Status),
		lp.Score,
		completedAt,
		lp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert lesson progress: %w", err)
	}

	return nil
}

// GetLessonProgressByUser returns all progress rows for a user.
func (r *ProgressRepository) GetLessonProgressByUser(ctx context.Context, userID user.UserID) ([]*progress.LessonProgress, error) {
	query := `
		SELECT user_id, lesson_id, status, score, completed_at, updated_at
		FROM lesson_progress
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.conn.Query(ctx, query, string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to query lesson progress: %w", err)
	}
	defer rows.Close()

	var out []*progress.LessonProgress
	for rows.Next() {
		lp, err := scanLessonProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson progress: %w", err)
		}
		out = append(out, lp)
	}

	return out, rows.Err()
}

func scanLessonProgress(row pgx.Row) (*progress.LessonProgress, error) {
	var (
		lp          progress.LessonProgress
		rawUser     string
		rawLesson   string
		rawStatus   string
		completedAt *time.Time
	)
	err := row.Scan(&rawUser, &rawLesson, &rawStatus, &lp.Score, &completedAt, &lp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	lp.UserID = user.UserID(rawUser)
	lp.LessonID = lesson.LessonID(rawLesson)
	lp.Status = progress.LessonStatus(rawStatus)
	if completedAt != nil {
		lp.CompletedAt = *completedAt
	}
	return &lp, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Completed exercises
// ─────────────────────────────────────────────────────────────────────────────

// UpsertCompletedExercise creates or replaces the record for (user, exercise).
func (r *ProgressRepository) UpsertCompletedExercise(ctx context.Context, ce *progress.CompletedExercise) error {
	query := `
		INSERT INTO completed_exercises
			(user_id, exercise_id, lesson_id, skill_type, strength, completed_at, review_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, exercise_id) DO UPDATE SET
			strength = EXCLUDED.strength,
			completed_at = EXCLUDED.completed_at,
			review_count = EXCLUDED.review_count
	`

	_, err := r.conn.Exec(ctx, query,
		string(ce.UserID),
		string(ce.ExerciseID),
		string(ce.LessonID),
		string(ce.SkillType),
		ce.Strength,
		ce.CompletedAt,
		ce.ReviewCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert completed exercise: %w", err)
	}

	return nil
}

// GetCompletedExercise returns the record for (user, exercise).
func (r *ProgressRepository) GetCompletedExercise(ctx context.Context, userID user.UserID, exerciseID lesson.ExerciseID) (*progress.CompletedExercise, error) {
	query := `
		SELECT user_id, exercise_id, lesson_id, skill_type, strength, completed_at, review_count
		FROM completed_exercises
		WHERE user_id = $1 AND exercise_id = $2
	`

	row := r.conn.QueryRow(ctx, query, string(userID), string(exerciseID))
	ce, err := scanCompletedExercise(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get completed exercise: %w", err)
	}
	return ce, nil
}

// GetCompletedExercisesByLesson returns the user's records for a lesson's exercises.
func (r *ProgressRepository) GetCompletedExercisesByLesson(ctx context.Context, userID user.UserID, lessonID lesson.LessonID) ([]*progress.CompletedExercise, error) {
	query := `
		SELECT user_id, exercise_id, lesson_id, skill_type, strength, completed_at, review_count
		FROM completed_exercises
		WHERE user_id = $1 AND lesson_id = $2
	`

	rows, err := r.conn.Query(ctx, query, string(userID), string(lessonID))
	if err != nil {
		return nil, fmt.Errorf("failed to query completed exercises: %w", err)
	}
	defer rows.Close()

	var out []*progress.CompletedExercise
	for rows.Next() {
		ce, err := scanCompletedExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan completed exercise: %w", err)
		}
		out = append(out, ce)
	}

	return out, rows.Err()
}

func scanCompletedExercise(row pgx.Row) (*progress.CompletedExercise, error) {
	var (
		ce          progress.CompletedExercise
		rawUser     string
		rawExercise string
		rawLesson   string
		rawSkill    string
	)
	err := row.Scan(&rawUser, &rawExercise, &rawLesson, &rawSkill, &ce.Strength, &ce.CompletedAt, &ce.ReviewCount)
	if err != nil {
		return nil, err
	}
	ce.UserID = user.UserID(rawUser)
	ce.ExerciseID = lesson.ExerciseID(rawExercise)
	ce.LessonID = lesson.LessonID(rawLesson)
	ce.SkillType = lesson.SkillType(rawSkill)
	return &ce, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Daily progress
// ─────────────────────────────────────────────────────────────────────────────

// AddDailyXP atomically adds xp and one completed lesson to the user's
// row for the given UTC day. The increment happens inside the upsert so
// two concurrent completions both land.
func (r *ProgressRepository) AddDailyXP(ctx context.Context, userID user.UserID, date time.Time, xp int) error {
	query := `
		INSERT INTO daily_progress (user_id, date, xp_accrued, lessons_completed)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (user_id, date) DO UPDATE SET
			xp_accrued = daily_progress.xp_accrued + EXCLUDED.xp_accrued,
			lessons_completed = daily_progress.lessons_completed + 1
	`

	_, err := r.conn.Exec(ctx, query, string(userID), timeutil.StartOfDay(date), xp)
	if err != nil {
		return fmt.Errorf("failed to add daily xp: %w", err)
	}

	return nil
}

// GetDailyProgress returns the row for (user, day).
func (r *ProgressRepository) GetDailyProgress(ctx context.Context, userID user.UserID, date time.Time) (*progress.DailyProgress, error) {
	query := `
		SELECT user_id, date, xp_accrued, lessons_completed
		FROM daily_progress
		WHERE user_id = $1 AND date = $2
	`

	row := r.conn.QueryRow(ctx, query, string(userID), timeutil.StartOfDay(date))
	dp, err := scanDailyProgress(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get daily progress: %w", err)
	}
	return dp, nil
}

// GetDailyProgressRange returns rows for [from, to], oldest first.
func (r *ProgressRepository) GetDailyProgressRange(ctx context.Context, userID user.UserID, from, to time.Time) ([]*progress.DailyProgress, error) {
	query := `
		SELECT user_id, date, xp_accrued, lessons_completed
		FROM daily_progress
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`

	rows, err := r.conn.Query(ctx, query, string(userID), timeutil.StartOfDay(from), timeutil.StartOfDay(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily progress: %w", err)
	}
	defer rows.Close()

	var out []*progress.DailyProgress
	for rows.Next() {
		dp, err := scanDailyProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily progress: %w", err)
		}
		out = append(out, dp)
	}

	return out, rows.Err()
}

func scanDailyProgress(row pgx.Row) (*progress.DailyProgress, error) {
	var (
		dp      progress.DailyProgress
		rawUser string
	)
	err := row.Scan(&rawUser, &dp.Date, &dp.XPAccrued, &dp.LessonsCompleted)
	if err != nil {
		return nil, err
	}
	dp.UserID = user.UserID(rawUser)
	return &dp, nil
}
