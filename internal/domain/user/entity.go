// Package user contains the user identity entity and credential helpers.
// The completion core only needs "who is the authenticated user"; account
// management beyond that lives elsewhere.
package user

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Domain errors for user package.
var (
	ErrInvalidUserID   = errors.New("user: invalid user ID")
	ErrInvalidEmail    = errors.New("user: invalid email")
	ErrEmptyPassword   = errors.New("user: password cannot be empty")
	ErrPasswordTooLong = errors.New("user: password exceeds 72 bytes")
)

// UserID represents a unique identifier for a user.
type UserID string

// IsValid checks if the user ID is valid.
func (id UserID) IsValid() bool {
	return id != ""
}

// String returns the string representation of UserID.
func (id UserID) String() string {
	return string(id)
}

// User is an account in the system. The completion core treats it as an
// identity; profile data lives on the entity for the account endpoints.
type User struct {
	// ID is the internal unique identifier.
	ID UserID

	// Email is the login identifier.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// DisplayName is shown in progress summaries.
	DisplayName string

	// NativeLanguage is the user's own language (BCP 47 code).
	NativeLanguage string

	// TargetLanguage is the language being learned (BCP 47 code).
	TargetLanguage string

	// CreatedAt is when the account was created.
	CreatedAt time.Time

	// UpdatedAt is when the account was last modified.
	UpdatedAt time.Time
}

// Validate checks user invariants.
func (u *User) Validate() error {
	if !u.ID.IsValid() {
		return ErrInvalidUserID
	}
	if !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > 72 {
		// bcrypt silently truncates beyond 72 bytes
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a plaintext password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
