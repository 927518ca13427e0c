package orders

import (
	"context"
	"sync"
	"time"

	"github.com/tradehall/tradehall/internal/events"
	"github.com/tradehall/tradehall/internal/telemetry"
)

// Fetcher retrieves one page of orders from the server.
type Fetcher interface {
	FetchPage(ctx context.Context, page, limit int) (*Page, error)
}

// ListState is the render-ready view of the cache.
type ListState struct {
	Orders     []Order
	Page       int
	TotalCount int
	HasMore    bool
	Loading    bool
}

// ListCache owns the client-side copy of the order collection: pagination
// cursor, aggregate counts, and the entries themselves. It is fed by paged
// fetches, direct mutation requests, and the notification bus it subscribes
// to at construction.
//
// All state lives behind one mutex. Fetch completions, notification
// handlers, and grace-delay callbacks interleave in any order; each takes
// the lock, so no ordering between them is assumed anywhere.
type ListCache struct {
	fetcher    Fetcher
	limit      int
	graceDelay time.Duration

	mu          sync.Mutex
	orders      []Order
	page        int
	totalCount  int
	hasMore     bool
	loading     bool
	initialized bool
	closed      bool

	subs []*events.Subscription
}

type CacheOption func(*ListCache)

// WithGraceDelay overrides the delay between an order-completed
// notification and the row's removal. Default one second.
func WithGraceDelay(d time.Duration) CacheOption {
	return func(c *ListCache) { c.graceDelay = d }
}

func WithPageLimit(n int) CacheOption {
	return func(c *ListCache) { c.limit = n }
}

// NewListCache builds an empty cache and subscribes it to the bus for all
// order notification kinds. Pass a nil bus to run without notifications
// (tests that only exercise fetch/mutate paths).
func NewListCache(fetcher Fetcher, bus *events.Bus, opts ...CacheOption) *ListCache {
	c := &ListCache{
		fetcher:    fetcher,
		limit:      20,
		graceDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if bus != nil {
		for _, t := range []events.EventType{
			events.EventOrderClaimed,
			events.EventOrderReady,
			events.EventOrderCompleted,
			events.EventOrderCancelled,
		} {
			c.subs = append(c.subs, bus.Subscribe(t, c.handleEvent))
		}
	}
	return c
}

// Close cancels the bus subscriptions. In-flight fetches and pending
// grace-delay timers that fire afterwards become no-ops.
func (c *ListCache) Close() {
	c.mu.Lock()
	c.closed = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
}

// Snapshot returns a copy of the current list state for rendering.
func (c *ListCache) Snapshot() ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Order, len(c.orders))
	copy(out, c.orders)
	return ListState{
		Orders:     out,
		Page:       c.page,
		TotalCount: c.totalCount,
		HasMore:    c.hasMore,
		Loading:    c.loading,
	}
}

// EnsureLoaded triggers the first automatic load, exactly once per
// settled session. Calls while the session is still resolving, or after
// the one-shot guard has tripped, are no-ops. Refetch clears the guard.
func (c *ListCache) EnsureLoaded(ctx context.Context, sessionSettled bool) {
	if !sessionSettled {
		return
	}
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return
	}
	c.initialized = true
	c.mu.Unlock()

	c.Load(ctx, 1, true)
}

// Load fetches one page. A second call while one is outstanding is a
// silent no-op — not queued, not rejected — so concurrent triggers never
// cause duplicate network work. On success a page-1 batch replaces the
// whole cached sequence (full refresh; see Refetch for the policy), and
// later pages are appended with duplicate ids skipped. On failure the
// cache keeps its last-known-good state and only logs.
func (c *ListCache) Load(ctx context.Context, page int, replace bool) {
	c.mu.Lock()
	if c.loading || c.closed {
		c.mu.Unlock()
		return
	}
	c.loading = true
	limit := c.limit
	c.mu.Unlock()

	resp, err := c.fetcher.FetchPage(ctx, page, limit)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if c.closed {
		return
	}
	if err != nil {
		telemetry.Warnf("order cache: fetch page %d failed: %v", page, err)
		telemetry.Metrics.FetchErrors.Inc()
		return
	}
	telemetry.Metrics.PagesFetched.Inc()

	if replace && resp.Page == 1 {
		c.orders = dedupe(resp.Orders)
	} else {
		c.appendLocked(resp.Orders)
	}
	c.page = resp.Page
	c.totalCount = resp.TotalCount
	c.hasMore = resp.HasMore
}

// LoadMore advances one page. No-op when there is nothing more to fetch
// or a load is already in flight.
func (c *ListCache) LoadMore(ctx context.Context) {
	c.mu.Lock()
	if !c.hasMore || c.loading || c.closed {
		c.mu.Unlock()
		return
	}
	next := c.page + 1
	c.mu.Unlock()

	c.Load(ctx, next, false)
}

// Refetch forces a full page-1 refresh and re-arms EnsureLoaded's one-shot
// guard, so a manual refresh is always honored.
//
// Policy: the server page is ground truth. Replacing the cached sequence
// wholesale discards any notification-driven mutations applied since the
// last full load; a later notification for the same order will reconcile
// the row again.
func (c *ListCache) Refetch(ctx context.Context) {
	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()

	c.Load(ctx, 1, true)
}

// UpdateOrder merges the patch into the matching entry in place.
// Idempotent; no-op if the id is not cached. Reports whether an entry
// was updated.
func (c *ListCache) UpdateOrder(id string, p Patch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateLocked(id, p)
}

// RemoveOrder deletes the matching entry if present.
func (c *ListCache) RemoveOrder(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(id)
}

// Get returns a copy of the cached order with the given id.
func (c *ListCache) Get(id string) (Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.orders[i], true
	}
	return Order{}, false
}

// handleEvent translates a notification into cache mutations. Applied
// immediately regardless of any fetch in flight — there is no queuing or
// blocking on network activity.
func (c *ListCache) handleEvent(e events.Event) error {
	n, ok := e.Payload.(*events.OrderNotification)
	if !ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}

	switch e.Type {
	case events.EventOrderClaimed:
		p := Patch{}
		if n.Claimer != nil {
			p.Claimer = &UserRef{
				ID:          n.Claimer.ID,
				DisplayName: n.Claimer.DisplayName,
				InGameName:  n.Claimer.InGameName,
			}
		}
		// Seller orders become tradeable the moment someone claims them;
		// buy orders wait on the claimer gathering the goods.
		st := StatusInProgress
		if i := c.indexLocked(n.OrderID); i >= 0 && c.orders[i].Type == TypeSell {
			st = StatusReadyToTrade
		}
		p.Status = &st
		c.updateLocked(n.OrderID, p)

	case events.EventOrderReady:
		st := StatusReadyToTrade
		c.updateLocked(n.OrderID, Patch{Status: &st})

	case events.EventOrderCompleted:
		st := StatusFulfilled
		now := time.Now()
		c.updateLocked(n.OrderID, Patch{Status: &st, FulfilledAt: &now})
		// Grace delay: leave the FULFILLED row visible, then drop it.
		// Fire-and-forget with no cancellation token; a superseding
		// notification inside the window lands on a row about to vanish.
		id := n.OrderID
		time.AfterFunc(c.graceDelay, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.closed {
				return
			}
			c.removeLocked(id)
		})

	case events.EventOrderCancelled:
		st := StatusOpen
		c.updateLocked(n.OrderID, Patch{Status: &st, ClearClaimer: true})

	default:
		return nil
	}

	telemetry.Metrics.NotificationsApplied.Inc()
	return nil
}

func (c *ListCache) indexLocked(id string) int {
	for i := range c.orders {
		if c.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *ListCache) updateLocked(id string, p Patch) bool {
	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	p.apply(&c.orders[i])
	return true
}

func (c *ListCache) removeLocked(id string) bool {
	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	c.orders = append(c.orders[:i], c.orders[i+1:]...)
	return true
}

// appendLocked adds a fetched batch, skipping ids already cached so that
// overlapping pages never produce duplicate rows.
func (c *ListCache) appendLocked(batch []Order) {
	for _, o := range batch {
		if c.indexLocked(o.ID) < 0 {
			c.orders = append(c.orders, o)
		}
	}
}

func dedupe(batch []Order) []Order {
	out := make([]Order, 0, len(batch))
	seen := make(map[string]bool, len(batch))
	for _, o := range batch {
		if !seen[o.ID] {
			seen[o.ID] = true
			out = append(out, o)
		}
	}
	return out
}
