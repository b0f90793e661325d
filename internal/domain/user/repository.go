package user

import (
	"context"
)

// Repository defines the interface for user persistence.
// Implemented by the infrastructure layer.
type Repository interface {
	// Create persists a new user.
	// Returns shared.ErrUserAlreadyExists on a duplicate email.
	Create(ctx context.Context, u *User) error

	// GetByID returns a user by internal ID.
	// Returns shared.ErrUserNotFound if no such user exists.
	GetByID(ctx context.Context, id UserID) (*User, error)

	// GetByEmail returns a user by email.
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// CurrentUserFunc resolves the authenticated user for a request context.
// This is the authentication boundary: the completion core never inspects
// credentials itself, it only asks "who is calling".
type CurrentUserFunc func(ctx context.Context) (*User, error)
