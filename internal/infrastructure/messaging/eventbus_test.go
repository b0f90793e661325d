package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lingora-app/lingora/internal/domain/shared"
)

func syncBus() *EventBus {
	cfg := DefaultEventBusConfig()
	cfg.AsyncMode = false
	return NewEventBus(cfg)
}

func TestEventBus_PublishRoutesByType(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var completed, started int
	bus.Subscribe(shared.EventLessonCompleted, func(ctx context.Context, e shared.Event) error {
		completed++
		return nil
	})
	bus.Subscribe(shared.EventLessonStarted, func(ctx context.Context, e shared.Event) error {
		started++
		return nil
	})

	bus.Publish(context.Background(), shared.LessonCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventLessonCompleted, "user-1"),
	})

	assert.Equal(t, 1, completed)
	assert.Equal(t, 0, started)
}

func TestEventBus_SubscribeAllSeesEverything(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var seen []shared.EventType
	bus.SubscribeAll(func(ctx context.Context, e shared.Event) error {
		seen = append(seen, e.EventType())
		return nil
	})

	bus.Publish(context.Background(),
		shared.LessonStartedEvent{BaseEvent: shared.NewBaseEvent(shared.EventLessonStarted, "user-1")},
		shared.LessonCompletedEvent{BaseEvent: shared.NewBaseEvent(shared.EventLessonCompleted, "user-1")},
	)

	assert.Equal(t, []shared.EventType{shared.EventLessonStarted, shared.EventLessonCompleted}, seen)
}

func TestEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var second bool
	bus.Subscribe(shared.EventLessonCompleted, func(ctx context.Context, e shared.Event) error {
		return errors.New("handler failed")
	})
	bus.Subscribe(shared.EventLessonCompleted, func(ctx context.Context, e shared.Event) error {
		second = true
		return nil
	})

	bus.Publish(context.Background(), shared.LessonCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventLessonCompleted, "user-1"),
	})

	assert.True(t, second)
}

func TestEventBus_AsyncDeliversBeforeClose(t *testing.T) {
	cfg := DefaultEventBusConfig()
	cfg.AsyncMode = true
	bus := NewEventBus(cfg)

	var mu sync.Mutex
	delivered := 0
	bus.Subscribe(shared.EventXPAwarded, func(ctx context.Context, e shared.Event) error {
		mu.Lock()
		delivered++
		mu.Unlock()
		return nil
	})

	for i := 0; i < 25; i++ {
		bus.Publish(context.Background(), shared.LessonCompletedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventXPAwarded, "user-1"),
		})
	}

	// Close waits for in-flight handlers.
	assert.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 25, delivered)
}

func TestEventBus_PublishAfterCloseIsNoop(t *testing.T) {
	bus := syncBus()

	var called bool
	bus.Subscribe(shared.EventLessonCompleted, func(ctx context.Context, e shared.Event) error {
		called = true
		return nil
	})

	assert.NoError(t, bus.Close())
	bus.Publish(context.Background(), shared.LessonCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventLessonCompleted, "user-1"),
	})

	// Give a stray goroutine a moment, then confirm nothing ran.
	time.Sleep(10 * time.Millisecond)
	assert.False(t, called)
}
