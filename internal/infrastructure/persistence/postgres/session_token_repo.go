// Package postgres implements the PostgreSQL persistence layer for Lingora.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/session"
	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION TOKEN STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SessionTokenStore implements session.Store for PostgreSQL.
type SessionTokenStore struct {
	conn *Connection
}

var _ session.Store = (*SessionTokenStore)(nil)

// NewSessionTokenStore creates a new SessionTokenStore.
func NewSessionTokenStore(conn *Connection) *SessionTokenStore {
	return &SessionTokenStore{conn: conn}
}

// Save persists a freshly issued token.
func (s *SessionTokenStore) Save(ctx context.Context, st *session.SessionToken) error {
	query := `
		INSERT INTO session_tokens (token, user_id, lesson_id, exercise_count, issued_at, consumed)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.conn.Exec(ctx, query,
		st.Token.String(),
		string(st.UserID),
		string(st.LessonID),
		st.ExerciseCount,
		st.IssuedAt,
		st.Consumed,
	)
	if err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}

	return nil
}

// Consume atomically spends the matching unconsumed, unexpired token.
// The conditional UPDATE is the entire check; the row lock serializes
// concurrent consumes of the same token, so at most one caller sees a
// row come back. On a miss, a follow-up read classifies it for the
// audit trail. That read is diagnostic only: the UPDATE remains the
// sole write, so the single-use guarantee does not depend on it.
func (s *SessionTokenStore) Consume(ctx context.Context, token session.Token, userID user.UserID, lessonID lesson.LessonID) (*session.SessionToken, error) {
	cutoff := time.Now().UTC().Add(-session.TokenRetention)

	query := `
		UPDATE session_tokens
		SET consumed = TRUE
		WHERE token = $1
		  AND user_id = $2
		  AND lesson_id = $3
		  AND consumed = FALSE
		  AND issued_at > $4
		RETURNING token, user_id, lesson_id, exercise_count, issued_at, consumed
	`

	row := s.conn.QueryRow(ctx, query, token.String(), string(userID), string(lessonID), cutoff)

	var (
		st        session.SessionToken
		rawToken  string
		rawUser   string
		rawLesson string
	)
	err := row.Scan(&rawToken, &rawUser, &rawLesson, &st.ExerciseCount, &st.IssuedAt, &st.Consumed)
	if err != nil {
		if IsNoRows(err) {
			return nil, s.classifyMiss(ctx, token, userID, lessonID, cutoff)
		}
		return nil, fmt.Errorf("failed to consume session token: %w", err)
	}

	st.Token = session.Token(rawToken)
	st.UserID = user.UserID(rawUser)
	st.LessonID = lesson.LessonID(rawLesson)
	return &st, nil
}

// classifyMiss names why a consume came back empty. A (user, lesson)
// mismatch deliberately reads as an unknown token so callers cannot
// probe tokens issued to others.
func (s *SessionTokenStore) classifyMiss(ctx context.Context, token session.Token, userID user.UserID, lessonID lesson.LessonID, cutoff time.Time) error {
	query := `
		SELECT consumed, issued_at
		FROM session_tokens
		WHERE token = $1 AND user_id = $2 AND lesson_id = $3
	`

	var (
		consumed bool
		issuedAt time.Time
	)
	err := s.conn.QueryRow(ctx, query, token.String(), string(userID), string(lessonID)).Scan(&consumed, &issuedAt)
	if err != nil {
		return shared.ErrTokenNotFound
	}
	if consumed {
		return shared.ErrTokenConsumed
	}
	if !issuedAt.After(cutoff) {
		return shared.ErrTokenExpired
	}
	return shared.ErrTokenNotFound
}

// DeleteExpired removes tokens issued before the cutoff, consumed or not.
func (s *SessionTokenStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE FROM session_tokens WHERE issued_at < $1`

	tag, err := s.conn.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired session tokens: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
