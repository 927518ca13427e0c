package events

import "time"

// Event is the envelope that flows through the notification bus.
// Every server-pushed order status change is wrapped in one.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Payload   any
}

type EventType string

const (
	// Real-time order notifications pushed by the server.
	EventOrderClaimed   EventType = "order_claimed"
	EventOrderReady     EventType = "order_ready"
	EventOrderCompleted EventType = "order_completed"
	EventOrderCancelled EventType = "order_cancelled"
)

// KnownType reports whether t is a notification kind this client handles.
// Unrecognized kinds are dropped at the websocket boundary, not errored.
func KnownType(t EventType) bool {
	switch t {
	case EventOrderClaimed, EventOrderReady, EventOrderCompleted, EventOrderCancelled:
		return true
	}
	return false
}
