package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH SESSION STORE
// ══════════════════════════════════════════════════════════════════════════════

// AuthStore keeps bearer auth sessions in Redis. Tokens are opaque
// 256-bit values; the stored payload is just the user ID, and expiry is
// delegated to the Redis TTL.
type AuthStore struct {
	cache *Cache
}

// NewAuthStore creates an auth session store on the given cache.
func NewAuthStore(cache *Cache) *AuthStore {
	return &AuthStore{cache: cache}
}

// Issue generates a fresh bearer token for the user.
func (s *AuthStore) Issue(ctx context.Context, userID user.UserID) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generating token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := s.cache.Set(ctx, PrefixAuth+token, string(userID), TTLAuthSession); err != nil {
		return "", fmt.Errorf("auth: storing session: %w", err)
	}

	return token, nil
}

// Authenticate resolves a bearer token to a user ID.
func (s *AuthStore) Authenticate(ctx context.Context, token string) (user.UserID, error) {
	if token == "" {
		return "", shared.ErrNotAuthenticated
	}

	var userID string
	if err := s.cache.Get(ctx, PrefixAuth+token, &userID); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return "", shared.ErrNotAuthenticated
		}
		return "", fmt.Errorf("auth: resolving session: %w", err)
	}

	return user.UserID(userID), nil
}

// Revoke removes a bearer token, ending the session.
func (s *AuthStore) Revoke(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, PrefixAuth+token)
}
