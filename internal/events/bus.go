package events

import (
	"sync"
)

// Handler processes an event. Returning an error logs it but does not stop dispatch.
type Handler func(Event) error

// Bus is a synchronous in-process event bus.
// Subscribers are invoked in registration order on the publisher's goroutine.
// For async processing, handlers should send to their own channel/goroutine.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[EventType][]subscriber
}

type subscriber struct {
	id int
	h  Handler
}

// Subscription identifies one registered handler so it can be cancelled
// at teardown. Components subscribe at construction and cancel on Close.
type Subscription struct {
	bus *Bus
	typ EventType
	id  int
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]subscriber),
	}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType EventType, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscriber{id: b.nextID, h: h})
	return &Subscription{bus: b, typ: eventType, id: b.nextID}
}

// Cancel removes the handler. Events published after Cancel returns are
// no longer delivered to it. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s == nil || s.bus == nil {
		return
	}
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[s.typ]
	for i, sub := range subs {
		if sub.id == s.id {
			b.handlers[s.typ] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
}

// Publish dispatches an event to all registered handlers for its type.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := b.handlers[e.Type]
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.h(e); err != nil {
			// logged but not fatal — one bad handler shouldn't block others
			_ = err
		}
	}
}
