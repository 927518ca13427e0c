package notifyws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradehall/tradehall/internal/events"
)

func TestParseFrameClaimed(t *testing.T) {
	msg := []byte(`{
		"orderId": "ord-17",
		"notificationType": "order_claimed",
		"orderDetails": {"id": "ord-17", "itemName": "Iron Ore"},
		"claimer": {"id": "u3", "displayName": "finn", "inGameName": "Finnwick"}
	}`)

	evt, ok := ParseFrame(msg)
	require.True(t, ok)
	assert.Equal(t, events.EventOrderClaimed, evt.Type)
	assert.NotEmpty(t, evt.ID)

	n, ok := evt.Payload.(*events.OrderNotification)
	require.True(t, ok)
	assert.Equal(t, "ord-17", n.OrderID)
	require.NotNil(t, n.Claimer)
	assert.Equal(t, "Finnwick", n.Claimer.InGameName)
}

func TestParseFrameWithoutClaimer(t *testing.T) {
	evt, ok := ParseFrame([]byte(`{"orderId": "ord-1", "notificationType": "order_completed"}`))
	require.True(t, ok)
	assert.Equal(t, events.EventOrderCompleted, evt.Type)
	n := evt.Payload.(*events.OrderNotification)
	assert.Nil(t, n.Claimer)
}

func TestParseFrameDropsUnknownKind(t *testing.T) {
	_, ok := ParseFrame([]byte(`{"orderId": "ord-1", "notificationType": "order_sparkled"}`))
	assert.False(t, ok)
}

func TestParseFrameDropsGarbage(t *testing.T) {
	_, ok := ParseFrame([]byte(`{not json`))
	assert.False(t, ok)

	_, ok = ParseFrame([]byte(`{"notificationType": "order_ready"}`))
	assert.False(t, ok, "missing orderId")
}
