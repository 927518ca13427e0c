package notifyws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tradehall/tradehall/internal/events"
	"github.com/tradehall/tradehall/internal/telemetry"
)

// Client connects to the Tradehall notification websocket and publishes
// order status events onto the bus. Notifications are pushed the moment
// they happen server-side, independent of any fetch the order cache has
// in flight.
//
// Gorilla/websocket supports one concurrent reader and one concurrent
// writer; this client only reads, so mu just guards the conn pointer
// across reconnects.
type Client struct {
	url   string
	token string
	bus   *events.Bus
	done  chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(wsURL, token string, bus *events.Bus) *Client {
	return &Client{
		url:   wsURL,
		token: token,
		bus:   bus,
		done:  make(chan struct{}),
	}
}

func (c *Client) Connect(ctx context.Context) error {
	if err := c.dial(ctx); err != nil {
		return err
	}
	go c.runLoop(ctx)
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// runLoop reads notifications and reconnects on failure with exponential backoff.
func (c *Client) runLoop(ctx context.Context) {
	defer close(c.done)

	first := true
	for {
		if first {
			telemetry.Infof("notify WS connected to %s", c.url)
			first = false
		} else {
			telemetry.Infof("notify WS reconnected")
		}

		c.readLoop(ctx)

		select {
		case <-ctx.Done():
			return
		default:
		}

		backoff := 1 * time.Second
		const maxBackoff = 30 * time.Second
		for attempt := 1; ; attempt++ {
			telemetry.Warnf("notify WS reconnecting (attempt %d) in %s", attempt, backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if err := c.dial(ctx); err != nil {
				telemetry.Warnf("notify WS dial failed: %v", err)
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			break
		}
	}
}

func (c *Client) readLoop(ctx context.Context) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	defer conn.Close()

	// The server pings every 15s; 45s allows 3 missed pings before timeout.
	const pingWait = 45 * time.Second

	conn.SetReadDeadline(time.Now().Add(pingWait))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pingWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			telemetry.Warnf("notify WS read error: %v", err)
			return
		}

		conn.SetReadDeadline(time.Now().Add(pingWait))
		if evt, ok := ParseFrame(msg); ok {
			c.bus.Publish(evt)
		}
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Done is closed when the run loop exits for good.
func (c *Client) Done() <-chan struct{} {
	return c.done
}
