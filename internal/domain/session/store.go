package session

import (
	"context"
	"time"

	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/user"
)

// Store defines the interface for session token persistence.
// Implemented by the infrastructure layer (PostgreSQL in production,
// in-memory for tests and single-node development).
type Store interface {
	// Save persists a freshly issued, unconsumed token.
	Save(ctx context.Context, token *SessionToken) error

	// Consume atomically finds the matching unconsumed, unexpired token
	// for the exact (token, user, lesson) triple and marks it consumed
	// in the same operation. Under concurrent calls with the same token,
	// at most one caller receives the token. Misses are classified for
	// the audit trail: shared.ErrTokenConsumed for a replay,
	// shared.ErrTokenExpired past the retention window, and
	// shared.ErrTokenNotFound for everything else, including a
	// (user, lesson) mismatch, which must stay indistinguishable from
	// an unknown token. This must be a conditional update at the
	// storage layer, never read-then-write.
	Consume(ctx context.Context, token Token, userID user.UserID, lessonID lesson.LessonID) (*SessionToken, error)

	// DeleteExpired removes tokens issued before the cutoff, consumed
	// or not. Returns the number of tokens removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}
