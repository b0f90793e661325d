package audit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingora-app/lingora/internal/domain/shared"
)

func TestSecurityLog_Record(t *testing.T) {
	log := NewSecurityLog()

	log.Record("user-1", ActionInvalidScore, "score=142")

	events := log.Snapshot()
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.Equal(t, "user-1", events[0].UserID)
	assert.Equal(t, ActionInvalidScore, events[0].Action)
	assert.Equal(t, "score=142", events[0].Details)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestSecurityLog_EvictsOldestAtCapacity(t *testing.T) {
	log := NewSecurityLog(WithCapacity(1000))

	for i := 0; i < 1001; i++ {
		log.Record("user-1", ActionRateLimitExceeded, fmt.Sprintf("attempt %d", i))
	}

	events := log.Snapshot()
	require.Len(t, events, 1000)
	// Entry 0 was evicted; the buffer now spans attempts 1..1000.
	assert.Equal(t, "attempt 1", events[0].Details)
	assert.Equal(t, "attempt 1000", events[999].Details)
}

func TestSecurityLog_SmallCapacity(t *testing.T) {
	log := NewSecurityLog(WithCapacity(3))

	for i := 0; i < 5; i++ {
		log.Record("user-1", ActionSuspiciousCompletion, fmt.Sprintf("e%d", i))
	}

	events := log.Snapshot()
	require.Len(t, events, 3)
	assert.Equal(t, "e2", events[0].Details)
	assert.Equal(t, "e4", events[2].Details)
}

func TestSecurityLog_PreservesInsertionOrder(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	log := NewSecurityLog(WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	}))

	log.Record("user-1", ActionInvalidSessionToken, "first")
	log.Record("user-2", ActionInvalidSessionToken, "second")

	events := log.Snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, "first", events[0].Details)
	assert.Equal(t, "second", events[1].Details)
	assert.True(t, events[0].Timestamp.Before(events[1].Timestamp))
}

func TestSecurityLog_ConcurrentRecord(t *testing.T) {
	log := NewSecurityLog(WithCapacity(100))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				log.Record(fmt.Sprintf("user-%d", n), ActionRateLimitExceeded, "burst")
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, log.Len())
}

func TestSecurityLog_SnapshotIsCopy(t *testing.T) {
	log := NewSecurityLog()
	log.Record("user-1", ActionInvalidScore, "original")

	snap := log.Snapshot()
	snap[0].Details = "mutated"

	assert.Equal(t, "original", log.Snapshot()[0].Details)
}

func TestSecurityLog_HandleSuspiciousActivity(t *testing.T) {
	log := NewSecurityLog()

	event := shared.SuspiciousActivityEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventSuspiciousActivity, "user-9"),
		UserID:    "user-9",
		Action:    ActionSuspiciousCompletion,
		Details:   "elapsed 1200ms, floor 9000ms",
	}

	err := log.HandleSuspiciousActivity(context.Background(), event)
	require.NoError(t, err)

	events := log.Snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "user-9", events[0].UserID)
	assert.Equal(t, ActionSuspiciousCompletion, events[0].Action)
}

func TestSecurityLog_HandleSuspiciousActivity_IgnoresOtherEvents(t *testing.T) {
	log := NewSecurityLog()

	event := shared.LessonCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventLessonCompleted, "user-9"),
	}

	err := log.HandleSuspiciousActivity(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, 0, log.Len())
}
