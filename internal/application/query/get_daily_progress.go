// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"time"

	"github.com/lingora-app/lingora/internal/domain/progress"
	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/domain/user"
	"github.com/lingora-app/lingora/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DAILY PROGRESS QUERY
// Returns a user's recent daily XP accrual plus the streak rebuilt from
// that history. The write side never stores streaks; they are always a
// projection of daily progress rows.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultHistoryDays is how many days of history the query returns when
// the caller does not ask for a specific span.
const DefaultHistoryDays = 30

// GetDailyProgressQuery contains the query parameters.
type GetDailyProgressQuery struct {
	// UserID is the user whose progress is requested.
	UserID user.UserID

	// Days is how many trailing days to return (default 30).
	Days int
}

// Validate validates the query.
func (q GetDailyProgressQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("get_daily_progress: user_id is required")
	}
	return nil
}

// DayProgress is one day's accrual in the response.
type DayProgress struct {
	// Date is the UTC day.
	Date time.Time

	// DayKey is the YYYY-MM-DD form of Date.
	DayKey string

	// XPAccrued is the XP earned that day.
	XPAccrued int

	// LessonsCompleted is the number of first-time completions that day.
	LessonsCompleted int
}

// GetDailyProgressResult contains the query result.
type GetDailyProgressResult struct {
	// UserID is the user the result concerns.
	UserID user.UserID

	// Days are the active days in the requested span, oldest first.
	// Days without activity have no entry.
	Days []DayProgress

	// TotalXP is the XP summed over the returned days.
	TotalXP int

	// CurrentStreak is the current run of consecutive active days.
	CurrentStreak int

	// BestStreak is the longest run within the returned history.
	BestStreak int

	// ActiveToday reports whether the user has earned XP today.
	ActiveToday bool
}

// GetDailyProgressHandler handles the GetDailyProgressQuery.
type GetDailyProgressHandler struct {
	progressRepo progress.Repository

	// now is injectable for tests.
	now func() time.Time
}

// NewGetDailyProgressHandler creates a new GetDailyProgressHandler.
func NewGetDailyProgressHandler(progressRepo progress.Repository) *GetDailyProgressHandler {
	return &GetDailyProgressHandler{
		progressRepo: progressRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// NewGetDailyProgressHandlerWithClock creates a handler with an injected clock.
func NewGetDailyProgressHandlerWithClock(progressRepo progress.Repository, now func() time.Time) *GetDailyProgressHandler {
	return &GetDailyProgressHandler{progressRepo: progressRepo, now: now}
}

// Handle returns the user's daily history and streak.
func (h *GetDailyProgressHandler) Handle(ctx context.Context, q GetDailyProgressQuery) (*GetDailyProgressResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	days := q.Days
	if days <= 0 {
		days = DefaultHistoryDays
	}

	now := h.now()
	from := timeutil.StartOfDay(now).AddDate(0, 0, -(days - 1))

	rows, err := h.progressRepo.GetDailyProgressRange(ctx, q.UserID, from, timeutil.EndOfDay(now))
	if err != nil && !shared.IsNotFound(err) {
		return nil, shared.WrapError("progress", "GetDailyProgress", shared.ErrPersistence, "failed to load daily progress", err)
	}

	result := &GetDailyProgressResult{UserID: q.UserID}
	for _, row := range rows {
		result.Days = append(result.Days, DayProgress{
			Date:             row.Date,
			DayKey:           timeutil.DayKey(row.Date),
			XPAccrued:        row.XPAccrued,
			LessonsCompleted: row.LessonsCompleted,
		})
		result.TotalXP += row.XPAccrued
		if timeutil.IsSameDay(row.Date, now) && row.XPAccrued > 0 {
			result.ActiveToday = true
		}
	}

	streak := progress.StreakFromDailyHistory(q.UserID, rows)
	if streak.IsBroken(now) {
		result.CurrentStreak = 0
	} else {
		result.CurrentStreak = streak.Current
	}
	result.BestStreak = streak.Best

	return result, nil
}
