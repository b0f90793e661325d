package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/session"
	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/domain/user"
)

func newStoredToken(t *testing.T, store *SessionStore) *session.SessionToken {
	t.Helper()
	st, err := session.NewSessionToken("user-1", "lesson-1", 5)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), st))
	return st
}

func TestSessionStore_ConsumeOnce(t *testing.T) {
	store := NewSessionStore()
	st := newStoredToken(t, store)
	ctx := context.Background()

	got, err := store.Consume(ctx, st.Token, "user-1", "lesson-1")
	require.NoError(t, err)
	assert.True(t, got.Consumed)
	assert.Equal(t, st.Token, got.Token)
	assert.Equal(t, 5, got.ExerciseCount)

	// A replay is classified as consumed, not unknown.
	_, err = store.Consume(ctx, st.Token, "user-1", "lesson-1")
	assert.ErrorIs(t, err, shared.ErrTokenConsumed)
	assert.ErrorIs(t, err, shared.ErrAlreadyProcessed)
}

func TestSessionStore_ConsumeRejectsExpired(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	store := NewSessionStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	st, err := session.NewSessionToken("user-1", "lesson-1", 5)
	require.NoError(t, err)
	st.IssuedAt = now.Add(-session.TokenRetention - time.Second)
	require.NoError(t, store.Save(ctx, st))

	_, err = store.Consume(ctx, st.Token, "user-1", "lesson-1")
	assert.ErrorIs(t, err, shared.ErrTokenExpired)

	// A token at exactly the retention boundary still consumes.
	boundary, err := session.NewSessionToken("user-1", "lesson-1", 5)
	require.NoError(t, err)
	boundary.IssuedAt = now.Add(-session.TokenRetention)
	require.NoError(t, store.Save(ctx, boundary))

	_, err = store.Consume(ctx, boundary.Token, "user-1", "lesson-1")
	assert.NoError(t, err)
}

func TestSessionStore_ConsumeRejectsMismatch(t *testing.T) {
	store := NewSessionStore()
	st := newStoredToken(t, store)
	ctx := context.Background()

	tests := []struct {
		name     string
		token    session.Token
		userID   user.UserID
		lessonID lesson.LessonID
	}{
		{"unknown token", session.Token("deadbeef"), "user-1", "lesson-1"},
		{"wrong user", st.Token, "user-2", "lesson-1"},
		{"wrong lesson", st.Token, "user-1", "lesson-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Consume(ctx, tt.token, tt.userID, tt.lessonID)
			assert.ErrorIs(t, err, shared.ErrTokenNotFound)
		})
	}

	// A rejected consume must not spend the token.
	_, err := store.Consume(ctx, st.Token, "user-1", "lesson-1")
	assert.NoError(t, err)
}

func TestSessionStore_ConcurrentConsume_ExactlyOneWinner(t *testing.T) {
	store := NewSessionStore()
	st := newStoredToken(t, store)
	ctx := context.Background()

	const callers = 50
	var winners atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := store.Consume(ctx, st.Token, "user-1", "lesson-1"); err == nil {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestSessionStore_DeleteExpired(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	old, err := session.NewSessionToken("user-1", "lesson-1", 3)
	require.NoError(t, err)
	old.IssuedAt = time.Now().UTC().Add(-3 * time.Hour)
	old.Consumed = true
	require.NoError(t, store.Save(ctx, old))

	fresh := newStoredToken(t, store)

	removed, err := store.DeleteExpired(ctx, time.Now().UTC().Add(-session.TokenRetention))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	// The fresh token survives the sweep.
	_, err = store.Consume(ctx, fresh.Token, "user-1", "lesson-1")
	assert.NoError(t, err)
}

func TestSessionStore_SaveDetachesCaller(t *testing.T) {
	store := NewSessionStore()
	st := newStoredToken(t, store)

	// Mutating the caller's copy after Save must not affect the store.
	st.Consumed = true

	_, err := store.Consume(context.Background(), st.Token, "user-1", "lesson-1")
	assert.NoError(t, err)
}
