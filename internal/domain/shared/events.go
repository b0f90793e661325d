// Package shared contains common domain types, errors, and events
// that are used across all domain packages.
package shared

import (
	"context"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the completion pipeline.
const (
	// Completion events
	EventLessonStarted   EventType = "completion.lesson_started"
	EventLessonCompleted EventType = "completion.lesson_completed"
	EventXPAwarded       EventType = "completion.xp_awarded"

	// Security events
	EventSuspiciousActivity EventType = "security.suspicious_activity"
	EventRateLimitHit       EventType = "security.rate_limit_hit"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// LessonStartedEvent is emitted when a session token is issued for a lesson.
type LessonStartedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	LessonID      string `json:"lesson_id"`
	ExerciseCount int    `json:"exercise_count"`
}

// Payload implements Event interface.
func (e LessonStartedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"lesson_id":      e.LessonID,
		"exercise_count": e.ExerciseCount,
	}
}

// LessonCompletedEvent is emitted when a completion passes all gates and
// the ledger has applied its effects.
type LessonCompletedEvent struct {
	BaseEvent
	UserID         string `json:"user_id"`
	LessonID       string `json:"lesson_id"`
	UnitID         string `json:"unit_id"`
	Score          int    `json:"score"`
	XPEarned       int    `json:"xp_earned"`
	FirstCompleted bool   `json:"first_completed"`
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"lesson_id":       e.LessonID,
		"unit_id":         e.UnitID,
		"score":           e.Score,
		"xp_earned":       e.XPEarned,
		"first_completed": e.FirstCompleted,
	}
}

// XPAwardedEvent is emitted when a first completion accrues XP.
// Re-completions never produce one.
type XPAwardedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	LessonID string `json:"lesson_id"`
	Amount   int    `json:"amount"`
}

// Payload implements Event interface.
func (e XPAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"lesson_id": e.LessonID,
		"amount":    e.Amount,
	}
}

// RateLimitHitEvent is emitted when the completion attempt quota
// rejects a submission.
type RateLimitHitEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	LessonID string `json:"lesson_id"`
}

// Payload implements Event interface.
func (e RateLimitHitEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"lesson_id": e.LessonID,
	}
}

// SuspiciousActivityEvent is emitted when a completion gate rejects a
// request for a reason worth auditing (invalid token, timing floor, quota).
type SuspiciousActivityEvent struct {
	BaseEvent
	UserID  string `json:"user_id"`
	Action  string `json:"action"`
	Details string `json:"details"`
}

// Payload implements Event interface.
func (e SuspiciousActivityEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"action":  e.Action,
		"details": e.Details,
	}
}

// EventHandler processes a single event.
type EventHandler func(ctx context.Context, event Event) error

// EventPublisher publishes domain events to interested subscribers.
// Publication is best-effort; a failing subscriber must not fail the
// operation that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event)
}

// EventSubscriber registers handlers for event types.
type EventSubscriber interface {
	Subscribe(eventType EventType, handler EventHandler)
}

// NopPublisher discards all events. Useful in tests and in tools that
// do not need the event pipeline.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(ctx context.Context, events ...Event) {}
