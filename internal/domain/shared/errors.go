// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Throughput errors
	ErrRateLimited = errors.New("rate limited")

	// Persistence errors
	ErrPersistence = errors.New("persistence failure")
	ErrTimeout     = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "session", "progress", "completion"
	Op      string // Operation that failed, e.g., "Issue", "Consume"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Completion error taxonomy. Every failure a completion request can surface
// maps to exactly one of these; route handlers translate them to localized
// client messages.
var (
	ErrNotAuthenticated   = NewDomainError("completion", "Authenticate", ErrUnauthorized, "no authenticated user")
	ErrCompletionLimited  = NewDomainError("completion", "RateLimit", ErrRateLimited, "completion attempt quota exceeded")
	ErrInvalidSession     = NewDomainError("completion", "ConsumeToken", ErrNotFound, "session token missing, consumed, or mismatched")
	ErrTooFast            = NewDomainError("completion", "TimingCheck", ErrInvalidState, "completion submitted faster than the per-exercise floor")
	ErrInvalidExerciseSet = NewDomainError("completion", "ExerciseCheck", ErrInvalidInput, "attempted exercises do not match the lesson's exercise set")
	ErrInvalidScore       = NewDomainError("completion", "ScoreCheck", ErrValueOutOfRange, "score must be between 0 and 100")
	ErrLessonNotFound     = NewDomainError("lesson", "Find", ErrNotFound, "lesson not found")
	ErrPersistenceFailure = NewDomainError("completion", "Apply", ErrPersistence, "failed to persist completion effects")
)

// Session token domain errors.
var (
	ErrTokenNotFound = NewDomainError("session", "Consume", ErrNotFound, "session token not found")
	ErrTokenConsumed = NewDomainError("session", "Consume", ErrAlreadyProcessed, "session token already consumed")
	ErrTokenExpired  = NewDomainError("session", "Consume", ErrExpired, "session token expired")
)

// User domain errors.
var (
	ErrUserNotFound       = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists  = NewDomainError("user", "Create", ErrAlreadyExists, "user already exists")
	ErrInvalidCredentials = NewDomainError("user", "Authenticate", ErrUnauthorized, "invalid credentials")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsRejection reports whether the error is one of the completion gate
// rejections, as opposed to an infrastructure failure. Gate rejections
// are terminal for the attempt; the client needs a fresh token to retry.
func IsRejection(err error) bool {
	return errors.Is(err, ErrCompletionLimited) ||
		errors.Is(err, ErrInvalidSession) ||
		errors.Is(err, ErrTooFast) ||
		errors.Is(err, ErrInvalidExerciseSet) ||
		errors.Is(err, ErrInvalidScore)
}

// IsRetryable checks if the operation can be retried as-is.
// Completion retries always need a fresh session token, so gate
// rejections are never retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		(errors.Is(err, ErrPersistence) && !IsRejection(err))
}
