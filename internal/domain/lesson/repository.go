package lesson

import (
	"context"
)

// Repository defines the interface for lesson content lookup.
// This interface is implemented by the infrastructure layer.
// The domain layer has no knowledge of the actual storage mechanism.
type Repository interface {
	// FindByID returns a lesson with its exercises loaded.
	// Returns shared.ErrLessonNotFound if the lesson does not exist.
	FindByID(ctx context.Context, id LessonID) (*Lesson, error)

	// FindExercisesByLessonID returns the exercises of a lesson in
	// lesson order.
	FindExercisesByLessonID(ctx context.Context, id LessonID) ([]Exercise, error)
}
