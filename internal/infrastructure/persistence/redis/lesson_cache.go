package redis

import (
	"context"
	"errors"

	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON CACHE
// ══════════════════════════════════════════════════════════════════════════════

// cachedLesson is the JSON shape stored in Redis.
type cachedLesson struct {
	ID        string           `json:"id"`
	UnitID    string           `json:"unit_id"`
	Title     string           `json:"title"`
	XPReward  int              `json:"xp_reward"`
	Exercises []cachedExercise `json:"exercises"`
}

type cachedExercise struct {
	ID        string `json:"id"`
	SkillType string `json:"skill_type"`
	Position  int    `json:"position"`
}

// LessonCache is a read-through cache in front of a lesson.Repository.
// Lessons are looked up on every token issue and every completion, so
// they are the hottest read in the system. Cache failures degrade to the
// inner repository; they never fail the request.
type LessonCache struct {
	cache *Cache
	inner lesson.Repository
	log   *logger.Logger
}

var _ lesson.Repository = (*LessonCache)(nil)

// NewLessonCache wraps a lesson repository with a Redis cache.
func NewLessonCache(cache *Cache, inner lesson.Repository, log *logger.Logger) *LessonCache {
	return &LessonCache{cache: cache, inner: inner, log: log}
}

// FindByID returns a lesson, preferring the cache.
func (c *LessonCache) FindByID(ctx context.Context, id lesson.LessonID) (*lesson.Lesson, error) {
	key := PrefixLesson + id.String()

	var cached cachedLesson
	err := c.cache.Get(ctx, key, &cached)
	if err == nil {
		return fromCached(cached), nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.log.Warn("lesson cache read failed",
			logger.Component("redis"),
			logger.LessonID(id.String()),
			logger.Err(err),
		)
	}

	l, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cacheErr := c.cache.Set(ctx, key, toCached(l), TTLLessonCache); cacheErr != nil {
		c.log.Warn("lesson cache write failed",
			logger.Component("redis"),
			logger.LessonID(id.String()),
			logger.Err(cacheErr),
		)
	}

	return l, nil
}

// FindExercisesByLessonID returns the exercises of a lesson in order.
func (c *LessonCache) FindExercisesByLessonID(ctx context.Context, id lesson.LessonID) ([]lesson.Exercise, error) {
	l, err := c.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.Exercises, nil
}

// Invalidate drops a lesson from the cache. Called when catalog content
// is republished.
func (c *LessonCache) Invalidate(ctx context.Context, id lesson.LessonID) error {
	return c.cache.Delete(ctx, PrefixLesson+id.String())
}

func toCached(l *lesson.Lesson) cachedLesson {
	out := cachedLesson{
		ID:       l.ID.String(),
		UnitID:   l.UnitID,
		Title:    l.Title,
		XPReward: l.XPReward,
	}
	for _, ex := range l.Exercises {
		out.Exercises = append(out.Exercises, cachedExercise{
			ID:        ex.ID.String(),
			SkillType: string(ex.SkillType),
			Position:  ex.Position,
		})
	}
	return out
}

func fromCached(c cachedLesson) *lesson.Lesson {
	l := &lesson.Lesson{
		ID:       lesson.LessonID(c.ID),
		UnitID:   c.UnitID,
		Title:    c.Title,
		XPReward: c.XPReward,
	}
	for _, ex := range c.Exercises {
		l.Exercises = append(l.Exercises, lesson.Exercise{
			ID:        lesson.ExerciseID(ex.ID),
			LessonID:  l.ID,
			SkillType: lesson.SkillType(ex.SkillType),
			Position:  ex.Position,
		})
	}
	return l
}
