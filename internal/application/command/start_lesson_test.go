package command

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingora-app/lingora/internal/domain/progress"
	"github.com/lingora-app/lingora/internal/domain/session"
	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/infrastructure/persistence/memory"
	"github.com/lingora-app/lingora/pkg/logger"
)

func newStartLessonFixture(t *testing.T) (*StartLessonHandler, *memory.SessionStore, *memory.ProgressRepo) {
	t.Helper()

	sessionStore := memory.NewSessionStore()
	progressRepo := memory.NewProgressRepo()
	log := logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})

	handler := NewStartLessonHandler(
		memory.NewLessonRepo(fiveExerciseLesson()),
		sessionStore,
		progress.NewLedger(progressRepo),
		nil,
		log,
	)

	return handler, sessionStore, progressRepo
}

func TestStartLesson_IssuesToken(t *testing.T) {
	handler, sessionStore, progressRepo := newStartLessonFixture(t)
	ctx := context.Background()

	result, err := handler.Handle(ctx, StartLessonCommand{UserID: "user-1", LessonID: "lesson-1"})

	require.NoError(t, err)
	assert.True(t, result.Token.IsValid())
	assert.Equal(t, 5, result.ExerciseCount)
	assert.Equal(t, 1, sessionStore.Len())

	// The stored token is bound to the issuing user and lesson.
	st, err := sessionStore.Consume(ctx, result.Token, "user-1", "lesson-1")
	require.NoError(t, err)
	assert.Equal(t, 5, st.ExerciseCount)

	// Starting also bumps the lesson to in_progress.
	lp, err := progressRepo.GetLessonProgress(ctx, "user-1", "lesson-1")
	require.NoError(t, err)
	assert.Equal(t, progress.StatusInProgress, lp.Status)
}

func TestStartLesson_EachStartGetsAFreshToken(t *testing.T) {
	handler, _, _ := newStartLessonFixture(t)
	ctx := context.Background()

	first, err := handler.Handle(ctx, StartLessonCommand{UserID: "user-1", LessonID: "lesson-1"})
	require.NoError(t, err)
	second, err := handler.Handle(ctx, StartLessonCommand{UserID: "user-1", LessonID: "lesson-1"})
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
}

func TestStartLesson_PurgesExpiredTokensOnIssue(t *testing.T) {
	handler, sessionStore, _ := newStartLessonFixture(t)
	ctx := context.Background()

	// A token left over from an abandoned session, past retention.
	stale, err := session.NewSessionToken("user-2", "lesson-1", 5)
	require.NoError(t, err)
	stale.IssuedAt = time.Now().UTC().Add(-session.TokenRetention - time.Hour)
	require.NoError(t, sessionStore.Save(ctx, stale))

	// A recent unconsumed token must survive the sweep.
	recent, err := session.NewSessionToken("user-3", "lesson-1", 5)
	require.NoError(t, err)
	require.NoError(t, sessionStore.Save(ctx, recent))

	result, err := handler.Handle(ctx, StartLessonCommand{UserID: "user-1", LessonID: "lesson-1"})
	require.NoError(t, err)

	// The stale token is gone; the recent one and the new one remain.
	assert.Equal(t, 2, sessionStore.Len())
	_, err = sessionStore.Consume(ctx, stale.Token, "user-2", "lesson-1")
	assert.ErrorIs(t, err, shared.ErrTokenNotFound)
	_, err = sessionStore.Consume(ctx, result.Token, "user-1", "lesson-1")
	assert.NoError(t, err)
}

func TestStartLesson_UnknownLesson(t *testing.T) {
	handler, _, _ := newStartLessonFixture(t)

	_, err := handler.Handle(context.Background(), StartLessonCommand{UserID: "user-1", LessonID: "lesson-99"})

	assert.ErrorIs(t, err, shared.ErrLessonNotFound)
}

func TestStartLesson_Validate(t *testing.T) {
	handler, _, _ := newStartLessonFixture(t)

	_, err := handler.Handle(context.Background(), StartLessonCommand{LessonID: "lesson-1"})
	assert.Error(t, err)

	_, err = handler.Handle(context.Background(), StartLessonCommand{UserID: "user-1"})
	assert.Error(t, err)
}
