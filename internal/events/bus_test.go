package events

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublishDispatchesInOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(EventOrderReady, func(e Event) error {
		got = append(got, "first:"+e.ID)
		return nil
	})
	bus.Subscribe(EventOrderReady, func(e Event) error {
		got = append(got, "second:"+e.ID)
		return nil
	})
	bus.Subscribe(EventOrderClaimed, func(Event) error {
		got = append(got, "wrong type")
		return nil
	})

	bus.Publish(Event{ID: "e1", Type: EventOrderReady, Timestamp: time.Now()})
	assert.Equal(t, []string{"first:e1", "second:e1"}, got)
}

func TestHandlerErrorDoesNotStopDispatch(t *testing.T) {
	bus := NewBus()
	var reached bool
	bus.Subscribe(EventOrderReady, func(Event) error { return errors.New("boom") })
	bus.Subscribe(EventOrderReady, func(Event) error { reached = true; return nil })

	bus.Publish(Event{Type: EventOrderReady})
	assert.True(t, reached)
}

func TestSubscriptionCancel(t *testing.T) {
	bus := NewBus()
	var a, b int
	subA := bus.Subscribe(EventOrderCompleted, func(Event) error { a++; return nil })
	bus.Subscribe(EventOrderCompleted, func(Event) error { b++; return nil })

	bus.Publish(Event{Type: EventOrderCompleted})
	subA.Cancel()
	subA.Cancel() // idempotent
	bus.Publish(Event{Type: EventOrderCompleted})

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestKnownType(t *testing.T) {
	assert.True(t, KnownType(EventOrderClaimed))
	assert.True(t, KnownType(EventOrderCancelled))
	assert.False(t, KnownType(EventType("order_sparkled")))
}
