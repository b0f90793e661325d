// Package postgres implements the PostgreSQL persistence layer for Lingora.
package postgres

import (
	"context"
	"fmt"

	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LessonRepository implements lesson.Repository for PostgreSQL.
type LessonRepository struct {
	conn *Connection
}

var _ lesson.Repository = (*LessonRepository)(nil)

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(conn *Connection) *LessonRepository {
	return &LessonRepository{conn: conn}
}

// FindByID returns a lesson with its exercises loaded.
func (r *LessonRepository) FindByID(ctx context.Context, id lesson.LessonID) (*lesson.Lesson, error) {
	query := `
		SELECT id, unit_id, title, xp_reward
		FROM lessons
		WHERE id = $1
	`

	var l lesson.Lesson
	var rawID, rawUnit string
	err := r.conn.QueryRow(ctx, query, string(id)).Scan(&rawID, &rawUnit, &l.Title, &l.XPReward)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to find lesson: %w", err)
	}
	l.ID = lesson.LessonID(rawID)
	l.UnitID = rawUnit

	exercises, err := r.FindExercisesByLessonID(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	l.Exercises = exercises

	return &l, nil
}

// FindExercisesByLessonID returns the exercises of a lesson in lesson order.
func (r *LessonRepository) FindExercisesByLessonID(ctx context.Context, id lesson.LessonID) ([]lesson.Exercise, error) {
	query := `
		SELECT id, lesson_id, skill_type, position
		FROM exercises
		WHERE lesson_id = $1
		ORDER BY position
	`

	rows, err := r.conn.Query(ctx, query, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query exercises: %w", err)
	}
	defer rows.Close()

	var exercises []lesson.Exercise
	for rows.Next() {
		var (
			e         lesson.Exercise
			rawID     string
			rawLesson string
			rawSkill  string
		)
		if err := rows.Scan(&rawID, &rawLesson, &rawSkill, &e.Position); err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		e.ID = lesson.ExerciseID(rawID)
		e.LessonID = lesson.LessonID(rawLesson)
		e.SkillType = lesson.SkillType(rawSkill)
		exercises = append(exercises, e)
	}

	return exercises, rows.Err()
}
