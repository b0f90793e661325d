package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/domain/user"
)

// AuthStore is an in-memory bearer session store for development mode
// and tests. Sessions expire after the configured TTL.
type AuthStore struct {
	mu       sync.RWMutex
	sessions map[string]authSession
	ttl      time.Duration
	now      func() time.Time
}

type authSession struct {
	userID   user.UserID
	issuedAt time.Time
}

// NewAuthStore creates an in-memory auth store.
func NewAuthStore(ttl time.Duration) *AuthStore {
	return &AuthStore{
		sessions: make(map[string]authSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Issue generates a fresh bearer token for the user.
func (s *AuthStore) Issue(_ context.Context, userID user.UserID) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generating token: %w", err)
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = authSession{userID: userID, issuedAt: s.now()}

	return token, nil
}

// Authenticate resolves a bearer token to a user ID.
func (s *AuthStore) Authenticate(_ context.Context, token string) (user.UserID, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return "", shared.ErrNotAuthenticated
	}
	if s.ttl > 0 && s.now().Sub(sess.issuedAt) > s.ttl {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return "", shared.ErrNotAuthenticated
	}

	return sess.userID, nil
}

// Revoke removes a bearer token, ending the session.
func (s *AuthStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
