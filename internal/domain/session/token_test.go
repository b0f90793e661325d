package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken()
	require.NoError(t, err)
	assert.True(t, tok.IsValid())
	assert.Len(t, tok.String(), 64)

	// Two tokens never collide.
	other, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)
}

func TestToken_IsValid(t *testing.T) {
	assert.False(t, Token("").IsValid())
	assert.False(t, Token("short").IsValid())

	tok, err := GenerateToken()
	require.NoError(t, err)
	assert.True(t, tok.IsValid())
}

func TestNewSessionToken(t *testing.T) {
	st, err := NewSessionToken("user-1", "lesson-1", 5)
	require.NoError(t, err)

	assert.True(t, st.Token.IsValid())
	assert.False(t, st.Consumed)
	assert.Equal(t, 5, st.ExerciseCount)
	assert.WithinDuration(t, time.Now().UTC(), st.IssuedAt, time.Second)
	assert.Equal(t, st.IssuedAt.Add(TokenRetention), st.ExpiresAt())
}

func TestSessionToken_MinimumCompletionTime(t *testing.T) {
	st := &SessionToken{ExerciseCount: 5}
	assert.Equal(t, 15*time.Second, st.MinimumCompletionTime(3*time.Second))

	empty := &SessionToken{ExerciseCount: 0}
	assert.Equal(t, time.Duration(0), empty.MinimumCompletionTime(3*time.Second))
}

func TestSessionToken_Age(t *testing.T) {
	issued := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	st := &SessionToken{IssuedAt: issued}

	assert.Equal(t, 90*time.Second, st.Age(issued.Add(90*time.Second)))
}

func TestSessionToken_Matches(t *testing.T) {
	st := &SessionToken{UserID: "user-1", LessonID: "lesson-1"}

	assert.True(t, st.Matches("user-1", "lesson-1"))
	assert.False(t, st.Matches("user-2", "lesson-1"))
	assert.False(t, st.Matches("user-1", "lesson-2"))
}
