package memory

import (
	"context"
	"sync"

	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/shared"
)

// LessonRepo is an in-memory lesson catalog. Lessons are seeded up front;
// there is no write path because lesson authoring is out of scope for
// this service.
type LessonRepo struct {
	mu      sync.RWMutex
	lessons map[lesson.LessonID]*lesson.Lesson
}

var _ lesson.Repository = (*LessonRepo)(nil)

// NewLessonRepo creates a lesson repository seeded with the given lessons.
func NewLessonRepo(lessons ...*lesson.Lesson) *LessonRepo {
	r := &LessonRepo{
		lessons: make(map[lesson.LessonID]*lesson.Lesson, len(lessons)),
	}
	for _, l := range lessons {
		r.lessons[l.ID] = l
	}
	return r
}

// Add seeds one more lesson. Test helper.
func (r *LessonRepo) Add(l *lesson.Lesson) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lessons[l.ID] = l
}

// FindByID returns a lesson with its exercises loaded.
func (r *LessonRepo) FindByID(_ context.Context, id lesson.LessonID) (*lesson.Lesson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lessons[id]
	if !ok {
		return nil, shared.ErrLessonNotFound
	}
	cp := *l
	cp.Exercises = append([]lesson.Exercise(nil), l.Exercises...)
	return &cp, nil
}

// FindExercisesByLessonID returns the exercises of a lesson in order.
func (r *LessonRepo) FindExercisesByLessonID(_ context.Context, id lesson.LessonID) ([]lesson.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lessons[id]
	if !ok {
		return nil, shared.ErrLessonNotFound
	}
	return append([]lesson.Exercise(nil), l.Exercises...), nil
}
