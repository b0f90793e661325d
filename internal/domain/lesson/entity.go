// Package lesson contains domain entities for lessons and their exercises.
// Lessons are authored content; this core only reads them to validate
// completions and to know how much XP a lesson awards.
// This is a pure domain layer with zero external dependencies.
package lesson

import (
	"errors"
)

// Domain errors for lesson package.
var (
	ErrInvalidLessonID   = errors.New("lesson: invalid lesson ID")
	ErrInvalidExerciseID = errors.New("lesson: invalid exercise ID")
	ErrNoExercises       = errors.New("lesson: lesson has no exercises")
)

// LessonID represents a unique identifier for a lesson.
type LessonID string

// IsValid checks if the lesson ID is valid.
func (id LessonID) IsValid() bool {
	return id != ""
}

// String returns the string representation of LessonID.
func (id LessonID) String() string {
	return string(id)
}

// ExerciseID represents a unique identifier for an exercise.
type ExerciseID string

// IsValid checks if the exercise ID is valid.
func (id ExerciseID) IsValid() bool {
	return id != ""
}

// String returns the string representation of ExerciseID.
func (id ExerciseID) String() string {
	return string(id)
}

// SkillType classifies what a given exercise trains.
type SkillType string

const (
	SkillVocabulary SkillType = "vocabulary"
	SkillGrammar    SkillType = "grammar"
	SkillListening  SkillType = "listening"
	SkillSpeaking   SkillType = "speaking"
	SkillReading    SkillType = "reading"
	SkillWriting    SkillType = "writing"
)

// IsValid checks if the skill type is one of the known values.
func (s SkillType) IsValid() bool {
	switch s {
	case SkillVocabulary, SkillGrammar, SkillListening, SkillSpeaking, SkillReading, SkillWriting:
		return true
	}
	return false
}

// DefaultXPReward is the XP awarded for a lesson that does not declare
// its own reward.
const DefaultXPReward = 10

// Exercise is a single practice item inside a lesson.
type Exercise struct {
	// ID is the unique exercise identifier.
	ID ExerciseID

	// LessonID is the lesson this exercise belongs to.
	LessonID LessonID

	// SkillType is what this exercise trains.
	SkillType SkillType

	// Position is the exercise's order within the lesson.
	Position int
}

// Lesson is an authored unit of learning content.
type Lesson struct {
	// ID is the unique lesson identifier.
	ID LessonID

	// UnitID is the unit (course chapter) this lesson belongs to.
	UnitID string

	// Title is the display title of the lesson.
	Title string

	// XPReward is the XP awarded on first completion.
	XPReward int

	// Exercises are the lesson's exercises, in lesson order.
	Exercises []Exercise
}

// ExerciseCount returns the number of exercises in the lesson.
func (l *Lesson) ExerciseCount() int {
	return len(l.Exercises)
}

// ExerciseIDSet returns the lesson's exercise IDs as a set.
func (l *Lesson) ExerciseIDSet() map[ExerciseID]struct{} {
	set := make(map[ExerciseID]struct{}, len(l.Exercises))
	for _, ex := range l.Exercises {
		set[ex.ID] = struct{}{}
	}
	return set
}

// Reward returns the lesson's XP reward, falling back to the default
// when the lesson does not declare one.
func (l *Lesson) Reward() int {
	if l.XPReward <= 0 {
		return DefaultXPReward
	}
	return l.XPReward
}

// Validate checks lesson invariants.
func (l *Lesson) Validate() error {
	if !l.ID.IsValid() {
		return ErrInvalidLessonID
	}
	if len(l.Exercises) == 0 {
		return ErrNoExercises
	}
	for _, ex := range l.Exercises {
		if !ex.ID.IsValid() {
			return ErrInvalidExerciseID
		}
	}
	return nil
}
