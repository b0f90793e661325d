package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingora-app/lingora/internal/domain/lesson"
	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/domain/user"
)

// fakeRepo is an in-memory Repository with per-call failure injection.
type fakeRepo struct {
	lessons   map[lesson.LessonID]*LessonProgress
	exercises map[lesson.ExerciseID]*CompletedExercise
	daily     map[string]*DailyProgress

	failUpsertExercise map[lesson.ExerciseID]error
	failUpsertLesson   error
	failAddDailyXP     error

	addDailyXPCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		lessons:            make(map[lesson.LessonID]*LessonProgress),
		exercises:          make(map[lesson.ExerciseID]*CompletedExercise),
		daily:              make(map[string]*DailyProgress),
		failUpsertExercise: make(map[lesson.ExerciseID]error),
	}
}

func (r *fakeRepo) GetLessonProgress(_ context.Context, _ user.UserID, lessonID lesson.LessonID) (*LessonProgress, error) {
	lp, ok := r.lessons[lessonID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return lp, nil
}

func (r *fakeRepo) UpsertLessonProgress(_ context.Context, lp *LessonProgress) error {
	if r.failUpsertLesson != nil {
		return r.failUpsertLesson
	}
	r.lessons[lp.LessonID] = lp
	return nil
}

func (r *fakeRepo) GetLessonProgressByUser(_ context.Context, _ user.UserID) ([]*LessonProgress, error) {
	out := make([]*LessonProgress, 0, len(r.lessons))
	for _, lp := range r.lessons {
		out = append(out, lp)
	}
	return out, nil
}

func (r *fakeRepo) UpsertCompletedExercise(_ context.Context, ce *CompletedExercise) error {
	if err := r.failUpsertExercise[ce.ExerciseID]; err != nil {
		return err
	}
	r.exercises[ce.ExerciseID] = ce
	return nil
}

func (r *fakeRepo) GetCompletedExercise(_ context.Context, _ user.UserID, exerciseID lesson.ExerciseID) (*CompletedExercise, error) {
	ce, ok := r.exercises[exerciseID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return ce, nil
}

func (r *fakeRepo) GetCompletedExercisesByLesson(_ context.Context, _ user.UserID, lessonID lesson.LessonID) ([]*CompletedExercise, error) {
	var out []*CompletedExercise
	for _, ce := range r.exercises {
		if ce.LessonID == lessonID {
			out = append(out, ce)
		}
	}
	return out, nil
}

func (r *fakeRepo) AddDailyXP(_ context.Context, userID user.UserID, date time.Time, xp int) error {
	r.addDailyXPCalls++
	if r.failAddDailyXP != nil {
		return r.failAddDailyXP
	}
	key := string(userID) + date.Format("2006-01-02")
	dp, ok := r.daily[key]
	if !ok {
		dp = &DailyProgress{UserID: userID, Date: date}
		r.daily[key] = dp
	}
	dp.XPAccrued += xp
	dp.LessonsCompleted++
	return nil
}

func (r *fakeRepo) GetDailyProgress(_ context.Context, userID user.UserID, date time.Time) (*DailyProgress, error) {
	dp, ok := r.daily[string(userID)+date.Format("2006-01-02")]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return dp, nil
}

func (r *fakeRepo) GetDailyProgressRange(_ context.Context, userID user.UserID, from, to time.Time) ([]*DailyProgress, error) {
	var out []*DailyProgress
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if dp, ok := r.daily[string(userID)+d.Format("2006-01-02")]; ok {
			out = append(out, dp)
		}
	}
	return out, nil
}

var _ Repository = (*fakeRepo)(nil)

func testLesson() *lesson.Lesson {
	return &lesson.Lesson{
		ID:       "lesson-1",
		UnitID:   "unit-1",
		Title:    "Greetings",
		XPReward: 10,
		Exercises: []lesson.Exercise{
			{ID: "ex-1", LessonID: "lesson-1", SkillType: lesson.SkillVocabulary, Position: 1},
			{ID: "ex-2", LessonID: "lesson-1", SkillType: lesson.SkillListening, Position: 2},
			{ID: "ex-3", LessonID: "lesson-1", SkillType: lesson.SkillGrammar, Position: 3},
		},
	}
}

func TestLedger_FirstCompletionAwardsXP(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	ledger := NewLedgerWithClock(repo, func() time.Time { return now })

	applied, err := ledger.ApplyCompletion(context.Background(), "user-1", testLesson(), 85)

	require.NoError(t, err)
	assert.Equal(t, 10, applied.XPEarned)
	assert.False(t, applied.AlreadyCompleted)
	assert.True(t, applied.LessonCommitted)
	assert.Empty(t, applied.SkippedExercises)

	lp := repo.lessons["lesson-1"]
	require.NotNil(t, lp)
	assert.Equal(t, StatusCompleted, lp.Status)
	assert.Equal(t, 85, lp.Score)

	dp, err := repo.GetDailyProgress(context.Background(), "user-1", now)
	require.NoError(t, err)
	assert.Equal(t, 10, dp.XPAccrued)
	assert.Equal(t, 1, dp.LessonsCompleted)

	for _, ex := range testLesson().Exercises {
		ce := repo.exercises[ex.ID]
		require.NotNil(t, ce, "exercise %s should be recorded", ex.ID)
		assert.Equal(t, StrengthFull, ce.Strength)
		assert.Equal(t, 1, ce.ReviewCount)
	}
}

func TestLedger_RecompletionEarnsNoXP(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	ledger := NewLedgerWithClock(repo, func() time.Time { return now })
	ctx := context.Background()

	_, err := ledger.ApplyCompletion(ctx, "user-1", testLesson(), 70)
	require.NoError(t, err)

	applied, err := ledger.ApplyCompletion(ctx, "user-1", testLesson(), 95)
	require.NoError(t, err)

	assert.Equal(t, 0, applied.XPEarned)
	assert.True(t, applied.AlreadyCompleted)
	assert.True(t, applied.LessonCommitted)

	// Daily XP must not be touched twice.
	assert.Equal(t, 1, repo.addDailyXPCalls)
	dp, err := repo.GetDailyProgress(ctx, "user-1", now)
	require.NoError(t, err)
	assert.Equal(t, 10, dp.XPAccrued)

	// Latest score still recorded.
	assert.Equal(t, 95, repo.lessons["lesson-1"].Score)

	// Review counters advance on re-completion.
	assert.Equal(t, 2, repo.exercises["ex-1"].ReviewCount)
}

func TestLedger_ExerciseUpsertFailureIsSkippedNotFatal(t *testing.T) {
	repo := newFakeRepo()
	repo.failUpsertExercise["ex-2"] = errors.New("connection reset")
	ledger := NewLedger(repo)

	applied, err := ledger.ApplyCompletion(context.Background(), "user-1", testLesson(), 80)

	require.NoError(t, err)
	assert.Equal(t, 10, applied.XPEarned)
	require.Len(t, applied.SkippedExercises, 1)
	assert.Equal(t, lesson.ExerciseID("ex-2"), applied.SkippedExercises[0].ExerciseID)

	// The other exercises and the lesson itself are committed.
	assert.NotNil(t, repo.exercises["ex-1"])
	assert.NotNil(t, repo.exercises["ex-3"])
	assert.Equal(t, StatusCompleted, repo.lessons["lesson-1"].Status)
}

func TestLedger_LessonProgressFailureIsFatal(t *testing.T) {
	repo := newFakeRepo()
	repo.failUpsertLesson = errors.New("disk full")
	ledger := NewLedger(repo)

	applied, err := ledger.ApplyCompletion(context.Background(), "user-1", testLesson(), 80)

	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrPersistence))
	require.NotNil(t, applied)
	assert.False(t, applied.LessonCommitted)
	assert.Equal(t, 0, repo.addDailyXPCalls)
}

func TestLedger_DailyXPFailureCarriesCommittedLesson(t *testing.T) {
	repo := newFakeRepo()
	repo.failAddDailyXP = errors.New("deadlock detected")
	ledger := NewLedger(repo)

	applied, err := ledger.ApplyCompletion(context.Background(), "user-1", testLesson(), 80)

	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrPersistence))

	// The lesson committed before the XP write failed. Callers surface
	// both facts.
	require.NotNil(t, applied)
	assert.True(t, applied.LessonCommitted)
	assert.Equal(t, StatusCompleted, repo.lessons["lesson-1"].Status)
}

func TestLedger_MarkStarted(t *testing.T) {
	repo := newFakeRepo()
	ledger := NewLedger(repo)
	ctx := context.Background()

	require.NoError(t, ledger.MarkStarted(ctx, "user-1", "lesson-1"))
	assert.Equal(t, StatusInProgress, repo.lessons["lesson-1"].Status)

	// Completed is terminal: re-practicing keeps the status.
	_, err := ledger.ApplyCompletion(ctx, "user-1", testLesson(), 90)
	require.NoError(t, err)
	require.NoError(t, ledger.MarkStarted(ctx, "user-1", "lesson-1"))
	assert.Equal(t, StatusCompleted, repo.lessons["lesson-1"].Status)
}
