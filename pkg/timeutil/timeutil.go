// Package timeutil provides UTC day-bucketing helpers for Lingora.
// Daily XP accrual and streak tracking are defined over UTC calendar days,
// so every component must agree on where a day starts.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// FormatDate is the standard date format (YYYY-MM-DD).
const FormatDate = "2006-01-02"

// StartOfDay returns the start of the UTC day (00:00:00) containing t.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the end of the UTC day (23:59:59.999999999) containing t.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999999999, time.UTC)
}

// DayKey returns the canonical string key (YYYY-MM-DD) for the UTC day of t.
// This is the key under which DailyProgress rows are stored.
func DayKey(t time.Time) string {
	return t.UTC().Format(FormatDate)
}

// IsSameDay checks if two times fall on the same UTC day.
func IsSameDay(t1, t2 time.Time) bool {
	u1, u2 := t1.UTC(), t2.UTC()
	return u1.Year() == u2.Year() && u1.YearDay() == u2.YearDay()
}

// IsConsecutiveDay checks if t2 is the UTC day immediately after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	next := StartOfDay(t1).AddDate(0, 0, 1)
	return IsSameDay(next, t2)
}

// DaysBetween calculates the number of whole UTC days between two times.
func DaysBetween(t1, t2 time.Time) int {
	d1 := StartOfDay(t1)
	d2 := StartOfDay(t2)
	days := int(d2.Sub(d1).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}
