// Package postgres implements the PostgreSQL persistence layer for Lingora.
package postgres

import (
	"context"
	"fmt"

	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

var _ user.Repository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users
			(id, email, password_hash, display_name, native_language, target_language, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		string(u.ID),
		u.Email,
		u.PasswordHash,
		u.DisplayName,
		u.NativeLanguage,
		u.TargetLanguage,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID returns a user by internal ID.
func (r *UserRepository) GetByID(ctx context.Context, id user.UserID) (*user.User, error) {
	query := `
		SELECT id, email, password_hash, display_name, native_language, target_language, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	return r.scanUser(r.conn.QueryRow(ctx, query, string(id)))
}

// GetByEmail returns a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `
		SELECT id, email, password_hash, display_name, native_language, target_language, created_at, updated_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`

	return r.scanUser(r.conn.QueryRow(ctx, query, email))
}

func (r *UserRepository) scanUser(row interface{ Scan(dest ...any) error }) (*user.User, error) {
	var (
		u     user.User
		rawID string
	)
	err := row.Scan(
		&rawID,
		&u.Email,
		&u.PasswordHash,
		&u.DisplayName,
		&u.NativeLanguage,
		&u.TargetLanguage,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.ID = user.UserID(rawID)
	return &u, nil
}
