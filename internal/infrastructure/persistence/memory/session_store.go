// Package memory provides in-memory implementations of the persistence
// interfaces. Used by tests and by single-node development runs; the
// implementations honor the same contracts as the PostgreSQL versions,
// including the atomic consume of session tokens.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/session"
	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/domain/user"
)

// SessionStore is an in-memory session token store.
type SessionStore struct {
	mu     sync.Mutex
	tokens map[session.Token]*session.SessionToken

	// now is injectable for tests.
	now func() time.Time
}

var _ session.Store = (*SessionStore)(nil)

// NewSessionStore creates an empty in-memory token store.
func NewSessionStore() *SessionStore {
	return NewSessionStoreWithClock(func() time.Time { return time.Now().UTC() })
}

// NewSessionStoreWithClock creates a store with an injected clock.
func NewSessionStoreWithClock(now func() time.Time) *SessionStore {
	return &SessionStore{
		tokens: make(map[session.Token]*session.SessionToken),
		now:    now,
	}
}

// Save persists a freshly issued token.
func (s *SessionStore) Save(_ context.Context, token *session.SessionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *token
	s.tokens[token.Token] = &cp
	return nil
}

// Consume marks the matching unconsumed token as consumed and returns it.
// The check and the flag flip happen under one lock, so concurrent calls
// with the same token yield exactly one winner.
func (s *SessionStore) Consume(_ context.Context, token session.Token, userID user.UserID, lessonID lesson.LessonID) (*session.SessionToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.tokens[token]
	if !ok || !st.Matches(userID, lessonID) {
		return nil, shared.ErrTokenNotFound
	}
	if st.Consumed {
		return nil, shared.ErrTokenConsumed
	}
	if s.now().After(st.ExpiresAt()) {
		return nil, shared.ErrTokenExpired
	}

	st.Consumed = true
	cp := *st
	return &cp, nil
}

// DeleteExpired removes tokens issued before the cutoff.
func (s *SessionStore) DeleteExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, st := range s.tokens {
		if st.IssuedAt.Before(cutoff) {
			delete(s.tokens, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored tokens. Test helper.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
