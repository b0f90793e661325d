// Package audit implements the in-process security log: an append-only,
// bounded record of suspicious completion activity. It exists for forensic
// export, not enforcement - nothing in the request path reads it back.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/pkg/logger"
)

// Well-known security actions recorded by the completion gates.
const (
	ActionRateLimitExceeded      = "rate_limit_exceeded"
	ActionInvalidSessionToken    = "invalid_session_token"
	ActionSuspiciousCompletion   = "suspicious_completion_time"
	ActionInvalidExerciseSet     = "invalid_exercise_set"
	ActionInvalidScore           = "invalid_score"
	ActionExerciseUpsertSkipped  = "exercise_upsert_skipped"
	ActionPersistenceAfterGates  = "persistence_failure_after_gates"
)

// Event is one recorded security event.
type Event struct {
	// ID is a unique event identifier.
	ID string

	// Timestamp is when the event was recorded.
	Timestamp time.Time

	// UserID is the user the event concerns.
	UserID string

	// Action is the event classification (see Action constants).
	Action string

	// Details is free-form context for forensics.
	Details string
}

// DefaultCapacity is the default bounded size of the log.
const DefaultCapacity = 1000

// SecurityLog is a bounded, append-only FIFO buffer of security events.
// When full, the oldest entry is evicted. Recording never fails and never
// blocks the caller on anything but the internal mutex.
type SecurityLog struct {
	mu       sync.Mutex
	events   []Event
	capacity int
	log      *logger.Logger

	// now is injectable for tests.
	now func() time.Time
}

// Option configures the SecurityLog.
type Option func(*SecurityLog)

// WithCapacity overrides the bounded size.
func WithCapacity(n int) Option {
	return func(s *SecurityLog) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithLogger mirrors recorded events to the structured logger at WARN.
func WithLogger(l *logger.Logger) Option {
	return func(s *SecurityLog) {
		s.log = l
	}
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *SecurityLog) {
		s.now = now
	}
}

// NewSecurityLog creates a SecurityLog with the given options.
func NewSecurityLog(opts ...Option) *SecurityLog {
	s := &SecurityLog{
		capacity: DefaultCapacity,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends an event, evicting the oldest entry when the buffer is
// over capacity.
func (s *SecurityLog) Record(userID, action, details string) {
	event := Event{
		ID:        uuid.NewString(),
		Timestamp: s.now(),
		UserID:    userID,
		Action:    action,
		Details:   details,
	}

	s.mu.Lock()
	s.events = append(s.events, event)
	if len(s.events) > s.capacity {
		// FIFO eviction
		s.events = s.events[len(s.events)-s.capacity:]
	}
	s.mu.Unlock()

	if s.log != nil {
		s.log.Warn("security event",
			logger.UserID(userID),
			logger.String("action", action),
			logger.String("details", details),
		)
	}
}

// Len returns the current number of buffered events.
func (s *SecurityLog) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Snapshot returns a copy of the buffered events, oldest first.
// Intended for forensic export endpoints.
func (s *SecurityLog) Snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// HandleSuspiciousActivity is a shared.EventHandler that records
// SuspiciousActivityEvent domain events into the log, so event-bus
// producers feed the same audit trail as direct callers.
func (s *SecurityLog) HandleSuspiciousActivity(ctx context.Context, event shared.Event) error {
	sa, ok := event.(shared.SuspiciousActivityEvent)
	if !ok {
		return nil
	}
	s.Record(sa.UserID, sa.Action, sa.Details)
	return nil
}
