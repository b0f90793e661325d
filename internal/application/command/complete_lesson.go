package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/progress"
	"github.com/lingora-app/lingora/internal/domain/session"
	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/domain/user"
	"github.com/lingora-app/lingora/internal/infrastructure/audit"
	"github.com/lingora-app/lingora/internal/infrastructure/ratelimit"
	"github.com/lingora-app/lingora/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE LESSON COMMAND
// The integrity core. A submission passes five gates, strictly in order:
// attempt quota, token consumption, timing floor, exercise set, score
// bounds. The first failing gate rejects the attempt; a rejected attempt
// has already spent its token and needs a fresh session to retry.
// ══════════════════════════════════════════════════════════════════════════════

// Completion gate defaults.
const (
	// DefaultMinTimePerExercise is the per-exercise floor for the
	// timing gate. A lesson with N exercises cannot be completed
	// honestly in under N times this duration.
	DefaultMinTimePerExercise = 3 * time.Second

	// MinScore and MaxScore bound a valid submitted score.
	MinScore = 0
	MaxScore = 100
)

// CompletionConfig holds the completion gate parameters.
type CompletionConfig struct {
	// MinTimePerExercise is the timing floor per exercise.
	MinTimePerExercise time.Duration
}

// DefaultCompletionConfig returns the standard gate parameters.
func DefaultCompletionConfig() CompletionConfig {
	return CompletionConfig{
		MinTimePerExercise: DefaultMinTimePerExercise,
	}
}

// CompleteLessonCommand contains a completion submission.
type CompleteLessonCommand struct {
	// UserID is the authenticated user submitting the completion.
	UserID user.UserID

	// LessonID is the lesson being completed.
	LessonID lesson.LessonID

	// Token is the session token issued when the lesson was started.
	Token session.Token

	// ExerciseIDs are the exercises the client claims to have
	// attempted. They must match the lesson's exercise set exactly.
	ExerciseIDs []lesson.ExerciseID

	// Score is the submitted score (0-100).
	Score int
}

// Validate validates the command's shape. Gate semantics (quota, token
// validity, timing, set membership, score bounds) are checked by Handle
// in gate order, not here.
func (c CompleteLessonCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("complete_lesson: user_id is required")
	}
	if !c.LessonID.IsValid() {
		return errors.New("complete_lesson: lesson_id is required")
	}
	if c.Token == "" {
		return errors.New("complete_lesson: session_token is required")
	}
	return nil
}

// CompleteLessonResult contains the result of an accepted completion.
type CompleteLessonResult struct {
	// Success indicates the completion was applied.
	Success bool

	// LessonID is the completed lesson.
	LessonID lesson.LessonID

	// UnitID is the unit the lesson belongs to.
	UnitID string

	// Score is the recorded score.
	Score int

	// XPEarned is the XP awarded (zero on re-completion).
	XPEarned int

	// FirstCompleted indicates this was the first completion of the
	// lesson by this user.
	FirstCompleted bool

	// CompletedAt is when the completion was recorded.
	CompletedAt time.Time
}

// SecurityRecorder receives security events from the gates. Implemented
// by audit.SecurityLog; recording never fails.
type SecurityRecorder interface {
	Record(userID, action, details string)
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonHandler validates and applies lesson completions.
type CompleteLessonHandler struct {
	limiter      ratelimit.Limiter
	sessionStore session.Store
	lessonRepo   lesson.Repository
	ledger       *progress.Ledger
	security     SecurityRecorder
	publisher    shared.EventPublisher
	cfg          CompletionConfig
	log          *logger.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewCompleteLessonHandler creates a new CompleteLessonHandler.
func NewCompleteLessonHandler(
	limiter ratelimit.Limiter,
	sessionStore session.Store,
	lessonRepo lesson.Repository,
	ledger *progress.Ledger,
	security SecurityRecorder,
	publisher shared.EventPublisher,
	cfg CompletionConfig,
	log *logger.Logger,
) *CompleteLessonHandler {
	if cfg.MinTimePerExercise <= 0 {
		cfg.MinTimePerExercise = DefaultMinTimePerExercise
	}
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	return &CompleteLessonHandler{
		limiter:      limiter,
		sessionStore: sessionStore,
		lessonRepo:   lessonRepo,
		ledger:       ledger,
		security:     security,
		publisher:    publisher,
		cfg:          cfg,
		log:          log.With(logger.Component("complete_lesson")),
	}
}

// WithClock injects a clock for tests.
func (h *CompleteLessonHandler) WithClock(now func() time.Time) *CompleteLessonHandler {
	h.now = now
	return h
}

func (h *CompleteLessonHandler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now().UTC()
}

// Handle runs a completion submission through the gates and, if all
// pass, applies it through the ledger.
func (h *CompleteLessonHandler) Handle(ctx context.Context, cmd CompleteLessonCommand) (*CompleteLessonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	// Gate 1: attempt quota. Checked before anything else so a flood
	// of submissions cannot even probe token validity.
	if !h.limiter.Allow(ctx, string(cmd.UserID)) {
		h.security.Record(string(cmd.UserID), audit.ActionRateLimitExceeded,
			fmt.Sprintf("lesson=%s", cmd.LessonID))
		h.publisher.Publish(ctx, shared.RateLimitHitEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventRateLimitHit, string(cmd.UserID)),
			UserID:    string(cmd.UserID),
			LessonID:  cmd.LessonID.String(),
		})
		return nil, shared.ErrCompletionLimited
	}

	// Gate 2: token consumption. The conditional update in the store
	// spends the token atomically; whatever happens after this point,
	// the token can never validate another submission.
	token, err := h.sessionStore.Consume(ctx, cmd.Token, cmd.UserID, cmd.LessonID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrAlreadyProcessed) || errors.Is(err, shared.ErrExpired) {
			// Unknown, replayed, and stale tokens all collapse to the
			// same client-facing rejection; the audit detail keeps the
			// store's classification.
			h.security.Record(string(cmd.UserID), audit.ActionInvalidSessionToken,
				fmt.Sprintf("lesson=%s reason=%v", cmd.LessonID, err))
			return nil, shared.ErrInvalidSession
		}
		return nil, shared.WrapError("completion", "ConsumeToken", shared.ErrPersistence, "token consume failed", err)
	}

	// Gate 3: timing floor, measured server-side from token issue.
	elapsed := token.Age(h.clock())
	floor := token.MinimumCompletionTime(h.cfg.MinTimePerExercise)
	if elapsed < floor {
		details := fmt.Sprintf("lesson=%s elapsed=%dms floor=%dms",
			cmd.LessonID, elapsed.Milliseconds(), floor.Milliseconds())
		h.security.Record(string(cmd.UserID), audit.ActionSuspiciousCompletion, details)
		h.publisher.Publish(ctx, shared.SuspiciousActivityEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventSuspiciousActivity, string(cmd.UserID)),
			UserID:    string(cmd.UserID),
			Action:    audit.ActionSuspiciousCompletion,
			Details:   details,
		})
		return nil, shared.ErrTooFast
	}

	lsn, err := h.lessonRepo.FindByID(ctx, cmd.LessonID)
	if err != nil {
		return nil, err
	}

	// Gate 4: the attempted exercises must be exactly the lesson's set.
	if !exerciseSetMatches(lsn, cmd.ExerciseIDs) {
		h.security.Record(string(cmd.UserID), audit.ActionInvalidExerciseSet,
			fmt.Sprintf("lesson=%s submitted=%d expected=%d", cmd.LessonID, len(cmd.ExerciseIDs), lsn.ExerciseCount()))
		return nil, shared.ErrInvalidExerciseSet
	}

	// Gate 5: score bounds.
	if cmd.Score < MinScore || cmd.Score > MaxScore {
		h.security.Record(string(cmd.UserID), audit.ActionInvalidScore,
			fmt.Sprintf("lesson=%s score=%d", cmd.LessonID, cmd.Score))
		return nil, shared.ErrInvalidScore
	}

	applied, err := h.ledger.ApplyCompletion(ctx, cmd.UserID, lsn, cmd.Score)
	if err != nil {
		if applied != nil && applied.LessonCommitted {
			// The completion is recorded but XP accrual failed. The
			// token is spent either way; surface the failure so the
			// client knows XP may be missing.
			h.security.Record(string(cmd.UserID), audit.ActionPersistenceAfterGates,
				fmt.Sprintf("lesson=%s xp accrual failed after commit", cmd.LessonID))
		}
		return nil, shared.WrapError("completion", "Apply", shared.ErrPersistence, "failed to persist completion effects", err)
	}

	for _, skipped := range applied.SkippedExercises {
		h.log.Warn("exercise record skipped",
			logger.UserID(string(cmd.UserID)),
			logger.LessonID(cmd.LessonID.String()),
			logger.ExerciseID(skipped.ExerciseID.String()),
			logger.Err(skipped.Err),
		)
		h.security.Record(string(cmd.UserID), audit.ActionExerciseUpsertSkipped,
			fmt.Sprintf("lesson=%s exercise=%s", cmd.LessonID, skipped.ExerciseID))
	}

	if applied.XPEarned > 0 {
		h.publisher.Publish(ctx, shared.XPAwardedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventXPAwarded, string(cmd.UserID)),
			UserID:    string(cmd.UserID),
			LessonID:  lsn.ID.String(),
			Amount:    applied.XPEarned,
		})
	}

	completed := shared.LessonCompletedEvent{
		BaseEvent:      shared.NewBaseEvent(shared.EventLessonCompleted, string(cmd.UserID)),
		UserID:         string(cmd.UserID),
		LessonID:       lsn.ID.String(),
		UnitID:         lsn.UnitID,
		Score:          cmd.Score,
		XPEarned:       applied.XPEarned,
		FirstCompleted: !applied.AlreadyCompleted,
	}
	h.publisher.Publish(ctx, completed)

	h.log.Info("lesson completed",
		logger.UserID(string(cmd.UserID)),
		logger.LessonID(lsn.ID.String()),
		logger.Score(cmd.Score),
		logger.XPAmount(applied.XPEarned),
		logger.Bool("first_completed", !applied.AlreadyCompleted),
	)

	return &CompleteLessonResult{
		Success:        true,
		LessonID:       lsn.ID,
		UnitID:         lsn.UnitID,
		Score:          cmd.Score,
		XPEarned:       applied.XPEarned,
		FirstCompleted: !applied.AlreadyCompleted,
		CompletedAt:    applied.CompletedAt,
	}, nil
}

// exerciseSetMatches reports whether the submitted exercise IDs are
// exactly the lesson's exercise set: nothing missing, nothing unknown.
// Duplicate submissions of the same ID collapse.
func exerciseSetMatches(lsn *lesson.Lesson, submitted []lesson.ExerciseID) bool {
	expected := lsn.ExerciseIDSet()
	seen := make(map[lesson.ExerciseID]struct{}, len(submitted))
	for _, id := range submitted {
		if _, ok := expected[id]; !ok {
			return false
		}
		seen[id] = struct{}{}
	}
	return len(seen) == len(expected)
}
