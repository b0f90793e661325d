// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"time"

	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/progress"
	"github.com/lingora-app/lingora/internal/domain/session"
	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/domain/user"
	"github.com/lingora-app/lingora/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// START LESSON COMMAND
// Issues the single-use session token a client must present when it later
// submits the completion. Starting a lesson is cheap and unauthenticated
// beyond login; all enforcement happens at completion time.
// ══════════════════════════════════════════════════════════════════════════════

// StartLessonCommand contains the data to start a lesson session.
type StartLessonCommand struct {
	// UserID is the authenticated user starting the lesson.
	UserID user.UserID

	// LessonID is the lesson being started.
	LessonID lesson.LessonID
}

// Validate validates the command.
func (c StartLessonCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("start_lesson: user_id is required")
	}
	if !c.LessonID.IsValid() {
		return errors.New("start_lesson: lesson_id is required")
	}
	return nil
}

// StartLessonResult contains the result of starting a lesson session.
type StartLessonResult struct {
	// Token is the opaque session token for the completion submission.
	Token session.Token

	// LessonID is the lesson the token was issued for.
	LessonID lesson.LessonID

	// ExerciseCount is the number of exercises in the lesson.
	ExerciseCount int

	// IssuedAt is when the token was issued.
	IssuedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// StartLessonHandler handles the StartLessonCommand.
type StartLessonHandler struct {
	lessonRepo   lesson.Repository
	sessionStore session.Store
	ledger       *progress.Ledger
	publisher    shared.EventPublisher
	log          *logger.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewStartLessonHandler creates a new StartLessonHandler.
func NewStartLessonHandler(
	lessonRepo lesson.Repository,
	sessionStore session.Store,
	ledger *progress.Ledger,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *StartLessonHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	return &StartLessonHandler{
		lessonRepo:   lessonRepo,
		sessionStore: sessionStore,
		ledger:       ledger,
		publisher:    publisher,
		log:          log.With(logger.Component("start_lesson")),
	}
}

// WithClock injects a clock for tests.
func (h *StartLessonHandler) WithClock(now func() time.Time) *StartLessonHandler {
	h.now = now
	return h
}

func (h *StartLessonHandler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now().UTC()
}

// Handle issues a session token for the lesson.
func (h *StartLessonHandler) Handle(ctx context.Context, cmd StartLessonCommand) (*StartLessonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	lsn, err := h.lessonRepo.FindByID(ctx, cmd.LessonID)
	if err != nil {
		return nil, err
	}

	// Issuing is the natural moment to shed tokens past the retention
	// window; the scheduled sweep only covers idle periods. Best-effort:
	// a failed purge never blocks the new session.
	if removed, err := h.sessionStore.DeleteExpired(ctx, h.clock().Add(-session.TokenRetention)); err != nil {
		h.log.Warn("failed to purge expired session tokens", logger.Err(err))
	} else if removed > 0 {
		h.log.Debug("purged expired session tokens", logger.Int("removed", removed))
	}

	token, err := session.NewSessionToken(cmd.UserID, lsn.ID, lsn.ExerciseCount())
	if err != nil {
		return nil, shared.WrapError("session", "Issue", shared.ErrPersistence, "failed to generate session token", err)
	}

	if err := h.sessionStore.Save(ctx, token); err != nil {
		return nil, shared.WrapError("session", "Issue", shared.ErrPersistence, "failed to save session token", err)
	}

	// Best-effort status bump. A failure here loses the in_progress
	// marker, not the session: the token is already saved.
	if err := h.ledger.MarkStarted(ctx, cmd.UserID, lsn.ID); err != nil {
		h.log.Warn("failed to mark lesson in progress",
			logger.UserID(string(cmd.UserID)),
			logger.LessonID(lsn.ID.String()),
			logger.Err(err),
		)
	}

	event := shared.LessonStartedEvent{
		BaseEvent:     shared.NewBaseEvent(shared.EventLessonStarted, string(cmd.UserID)),
		UserID:        string(cmd.UserID),
		LessonID:      lsn.ID.String(),
		ExerciseCount: lsn.ExerciseCount(),
	}
	h.publisher.Publish(ctx, event)

	h.log.Info("lesson session started",
		logger.UserID(string(cmd.UserID)),
		logger.LessonID(lsn.ID.String()),
		logger.Int("exercise_count", lsn.ExerciseCount()),
	)

	return &StartLessonResult{
		Token:         token.Token,
		LessonID:      lsn.ID,
		ExerciseCount: lsn.ExerciseCount(),
		IssuedAt:      token.IssuedAt,
	}, nil
}
