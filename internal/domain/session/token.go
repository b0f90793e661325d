// Package session contains the lesson session token domain.
// A session token is a single-use credential proving that a lesson-practice
// session was properly initiated before being completed. Tokens are the one
// serialization point of the completion pipeline: consuming a token must be
// atomic so a token can never validate two completions.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/user"
)

// TokenRetention is how long an unconsumed token is kept before it is
// garbage collected. A learner has this long to finish a started lesson.
const TokenRetention = 2 * time.Hour

// tokenBytes is the entropy of a generated token (32 bytes = 256 bits).
const tokenBytes = 32

// Token is the opaque unguessable token string.
type Token string

// IsValid checks the token has the expected encoded length.
func (t Token) IsValid() bool {
	return len(t) == tokenBytes*2
}

// String returns the string representation of the token.
func (t Token) String() string {
	return string(t)
}

// GenerateToken creates a cryptographically unguessable token.
func GenerateToken() (Token, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session: failed to generate token: %w", err)
	}
	return Token(hex.EncodeToString(buf)), nil
}

// SessionToken binds a token to the user, lesson, and exercise count of a
// started lesson session.
type SessionToken struct {
	// Token is the opaque credential handed to the client.
	Token Token

	// UserID is the user the token was issued to.
	UserID user.UserID

	// LessonID is the lesson the token was issued for.
	LessonID lesson.LessonID

	// ExerciseCount is the number of exercises in the lesson at issue
	// time. The timing gate derives its floor from this.
	ExerciseCount int

	// IssuedAt is when the token was issued.
	IssuedAt time.Time

	// Consumed marks the token as spent. A consumed token can never
	// validate a completion again.
	Consumed bool
}

// NewSessionToken issues a fresh unconsumed token for a lesson session.
func NewSessionToken(userID user.UserID, lessonID lesson.LessonID, exerciseCount int) (*SessionToken, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	return &SessionToken{
		Token:         token,
		UserID:        userID,
		LessonID:      lessonID,
		ExerciseCount: exerciseCount,
		IssuedAt:      time.Now().UTC(),
	}, nil
}

// ExpiresAt returns when the token falls out of the retention window.
func (st *SessionToken) ExpiresAt() time.Time {
	return st.IssuedAt.Add(TokenRetention)
}

// Age returns how long ago the token was issued.
func (st *SessionToken) Age(now time.Time) time.Duration {
	return now.Sub(st.IssuedAt)
}

// MinimumCompletionTime returns the shortest plausible duration for
// honestly completing the session, given the per-exercise floor.
func (st *SessionToken) MinimumCompletionTime(perExercise time.Duration) time.Duration {
	return time.Duration(st.ExerciseCount) * perExercise
}

// Matches reports whether the token was issued to the given user for the
// given lesson.
func (st *SessionToken) Matches(userID user.UserID, lessonID lesson.LessonID) bool {
	return st.UserID == userID && st.LessonID == lessonID
}
