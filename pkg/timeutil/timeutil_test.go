package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDay(t *testing.T) {
	ts := time.Date(2026, 3, 14, 15, 9, 26, 535, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), StartOfDay(ts))
}

func TestEndOfDay(t *testing.T) {
	ts := time.Date(2026, 3, 14, 15, 9, 26, 535, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 14, 23, 59, 59, 999999999, time.UTC), EndOfDay(ts))
}

func TestDayKey(t *testing.T) {
	ts := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-14", DayKey(ts))
}

func TestIsSameDay(t *testing.T) {
	morning := time.Date(2026, 3, 14, 1, 0, 0, 0, time.UTC)
	night := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	nextDay := time.Date(2026, 3, 15, 0, 30, 0, 0, time.UTC)

	assert.True(t, IsSameDay(morning, night))
	assert.False(t, IsSameDay(night, nextDay))
}

func TestIsConsecutiveDay(t *testing.T) {
	d1 := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 3, 15, 6, 0, 0, 0, time.UTC)
	d3 := time.Date(2026, 3, 17, 6, 0, 0, 0, time.UTC)

	assert.True(t, IsConsecutiveDay(d1, d2))
	assert.False(t, IsConsecutiveDay(d1, d3))
	assert.False(t, IsConsecutiveDay(d1, d1))
}

func TestDaysBetween(t *testing.T) {
	d1 := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, 9, DaysBetween(d1, d2))
	assert.Equal(t, 9, DaysBetween(d2, d1), "order does not matter")
	assert.Equal(t, 0, DaysBetween(d1, d1))
}
