package notifyws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tradehall/tradehall/internal/events"
	"github.com/tradehall/tradehall/internal/telemetry"
)

// frame is the wire shape of one notification. orderDetails carries a
// full order snapshot but the cache reconciles from kind + id + claimer,
// so the snapshot is not forwarded.
type frame struct {
	OrderID          string          `json:"orderId"`
	NotificationType string          `json:"notificationType"`
	OrderDetails     json.RawMessage `json:"orderDetails,omitempty"`
	Claimer          *events.UserRef `json:"claimer,omitempty"`
}

// ParseFrame decodes one websocket message into a bus event. Unparseable
// frames and unrecognized notification kinds are dropped, never errored.
func ParseFrame(msg []byte) (events.Event, bool) {
	var f frame
	if err := json.Unmarshal(msg, &f); err != nil {
		telemetry.Warnf("notify WS: bad frame: %v", err)
		telemetry.Metrics.NotificationsDropped.Inc()
		return events.Event{}, false
	}

	t := events.EventType(f.NotificationType)
	if !events.KnownType(t) {
		telemetry.Debugf("notify WS: ignoring notification kind %q", f.NotificationType)
		telemetry.Metrics.NotificationsDropped.Inc()
		return events.Event{}, false
	}
	if f.OrderID == "" {
		telemetry.Metrics.NotificationsDropped.Inc()
		return events.Event{}, false
	}

	return events.Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now(),
		Payload: &events.OrderNotification{
			OrderID: f.OrderID,
			Claimer: f.Claimer,
		},
	}, true
}
