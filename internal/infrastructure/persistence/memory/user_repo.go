package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/domain/user"
)

// UserRepo is an in-memory user repository.
type UserRepo struct {
	mu      sync.RWMutex
	byID    map[user.UserID]*user.User
	byEmail map[string]*user.User
}

var _ user.Repository = (*UserRepo)(nil)

// NewUserRepo creates an empty in-memory user repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:    make(map[user.UserID]*user.User),
		byEmail: make(map[string]*user.User),
	}
}

// Create persists a new user.
func (r *UserRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := r.byEmail[email]; exists {
		return shared.ErrUserAlreadyExists
	}
	if _, exists := r.byID[u.ID]; exists {
		return shared.ErrUserAlreadyExists
	}

	cp := *u
	r.byID[u.ID] = &cp
	r.byEmail[email] = &cp
	return nil
}

// GetByID returns a user by internal ID.
func (r *UserRepo) GetByID(_ context.Context, id user.UserID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// GetByEmail returns a user by email.
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}
