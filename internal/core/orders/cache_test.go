package orders

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradehall/tradehall/internal/events"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[int]*Page
	err   error
	calls atomic.Int64

	// block, when set, holds every fetch until released.
	started chan struct{}
	release chan struct{}
}

func (f *fakeFetcher) FetchPage(_ context.Context, page, _ int) (*Page, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.pages[page]
	if !ok {
		return &Page{Page: page}, nil
	}
	cp := *p
	return &cp, nil
}

func order(id, item string, typ Type) Order {
	return Order{
		ID:           id,
		ItemName:     item,
		Tier:         3,
		PricePerUnit: decimal.NewFromFloat(2.5),
		Amount:       10,
		Type:         typ,
		Status:       StatusOpen,
		CreatedAt:    time.Now(),
		Creator:      UserRef{ID: "u1", DisplayName: "mara"},
	}
}

func TestLoadReplaceAndAppend(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*Page{
		1: {Orders: []Order{order("a", "Iron Ore", TypeBuy), order("b", "Ancient Fiber", TypeSell)}, TotalCount: 3, HasMore: true, Page: 1},
		2: {Orders: []Order{order("b", "Ancient Fiber", TypeSell), order("c", "Runed Leather", TypeBuy)}, TotalCount: 3, HasMore: false, Page: 2},
	}}
	c := NewListCache(f, nil)

	c.Load(context.Background(), 1, true)
	s := c.Snapshot()
	require.Len(t, s.Orders, 2)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 3, s.TotalCount)
	assert.True(t, s.HasMore)

	// Page 2 appends; the overlapping id "b" is not duplicated.
	c.LoadMore(context.Background())
	s = c.Snapshot()
	require.Len(t, s.Orders, 3)
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.Orders))
	assert.Equal(t, 2, s.Page)
	assert.False(t, s.HasMore)

	// No more pages: LoadMore is a no-op.
	before := f.calls.Load()
	c.LoadMore(context.Background())
	assert.Equal(t, before, f.calls.Load())

	// A fresh page-1 load replaces everything.
	c.Load(context.Background(), 1, true)
	s = c.Snapshot()
	assert.Equal(t, []string{"a", "b"}, ids(s.Orders))
}

func TestLoadFailureKeepsState(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*Page{
		1: {Orders: []Order{order("a", "Iron Ore", TypeBuy)}, TotalCount: 1, Page: 1},
	}}
	c := NewListCache(f, nil)
	c.Load(context.Background(), 1, true)

	f.mu.Lock()
	f.err = errors.New("boom")
	f.mu.Unlock()

	c.Load(context.Background(), 1, true)
	s := c.Snapshot()
	assert.Equal(t, []string{"a"}, ids(s.Orders))
	assert.False(t, s.Loading)
}

func TestInFlightCoalescing(t *testing.T) {
	f := &fakeFetcher{
		pages:   map[int]*Page{1: {Orders: []Order{order("a", "Iron Ore", TypeBuy)}, Page: 1}},
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	c := NewListCache(f, nil)

	done := make(chan struct{})
	go func() {
		c.Load(context.Background(), 1, true)
		close(done)
	}()
	<-f.started

	// Second call while the first is outstanding: silently ignored.
	c.Load(context.Background(), 1, true)

	close(f.release)
	<-done
	assert.Equal(t, int64(1), f.calls.Load())
	assert.Len(t, c.Snapshot().Orders, 1)
}

func TestEnsureLoadedOneShotAndRefetch(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*Page{1: {Orders: []Order{order("a", "Iron Ore", TypeBuy)}, Page: 1}}}
	c := NewListCache(f, nil)

	// Not settled yet: nothing happens.
	c.EnsureLoaded(context.Background(), false)
	assert.Equal(t, int64(0), f.calls.Load())

	c.EnsureLoaded(context.Background(), true)
	assert.Equal(t, int64(1), f.calls.Load())

	// One-shot: a second settle-triggered call is suppressed.
	c.EnsureLoaded(context.Background(), true)
	assert.Equal(t, int64(1), f.calls.Load())

	// Manual refresh is always honored.
	c.Refetch(context.Background())
	assert.Equal(t, int64(2), f.calls.Load())
}

func TestUpdateOrderIdempotent(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*Page{1: {Orders: []Order{order("a", "Iron Ore", TypeBuy)}, Page: 1}}}
	c := NewListCache(f, nil)
	c.Load(context.Background(), 1, true)

	st := StatusInProgress
	claimer := UserRef{ID: "u2", DisplayName: "finn"}
	p := Patch{Status: &st, Claimer: &claimer}

	require.True(t, c.UpdateOrder("a", p))
	once, _ := c.Get("a")
	require.True(t, c.UpdateOrder("a", p))
	twice, _ := c.Get("a")
	assert.Equal(t, once, twice)
	assert.Equal(t, StatusInProgress, twice.Status)
	assert.Equal(t, "u2", twice.Claimer.ID)

	// Unknown id: no-op, not an error.
	assert.False(t, c.UpdateOrder("nope", p))
	assert.False(t, c.RemoveOrder("nope"))
}

func publish(bus *events.Bus, typ events.EventType, orderID string, claimer *events.UserRef) {
	bus.Publish(events.Event{
		ID:        "evt-" + orderID,
		Type:      typ,
		Timestamp: time.Now(),
		Payload:   &events.OrderNotification{OrderID: orderID, Claimer: claimer},
	})
}

func TestNotificationClaimed(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*Page{1: {
		Orders: []Order{order("buy", "Iron Ore", TypeBuy), order("sell", "Ancient Fiber", TypeSell)},
		Page:   1,
	}}}
	bus := events.NewBus()
	c := NewListCache(f, bus)
	defer c.Close()
	c.Load(context.Background(), 1, true)

	claimer := &events.UserRef{ID: "u9", DisplayName: "kess", InGameName: "Kessrel"}
	publish(bus, events.EventOrderClaimed, "buy", claimer)
	publish(bus, events.EventOrderClaimed, "sell", claimer)

	buy, _ := c.Get("buy")
	assert.Equal(t, StatusInProgress, buy.Status)
	require.NotNil(t, buy.Claimer)
	assert.Equal(t, "Kessrel", buy.Claimer.InGameName)

	// A claimed sell order is immediately tradeable.
	sell, _ := c.Get("sell")
	assert.Equal(t, StatusReadyToTrade, sell.Status)
}

func TestNotificationReadyAndCancelled(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*Page{1: {Orders: []Order{order("a", "Iron Ore", TypeBuy)}, Page: 1}}}
	bus := events.NewBus()
	c := NewListCache(f, bus)
	defer c.Close()
	c.Load(context.Background(), 1, true)

	publish(bus, events.EventOrderClaimed, "a", &events.UserRef{ID: "u2"})
	publish(bus, events.EventOrderReady, "a", nil)
	o, _ := c.Get("a")
	assert.Equal(t, StatusReadyToTrade, o.Status)

	// Cancellation resets to OPEN and clears the claimer.
	publish(bus, events.EventOrderCancelled, "a", nil)
	o, _ = c.Get("a")
	assert.Equal(t, StatusOpen, o.Status)
	assert.Nil(t, o.Claimer)
}

func TestNotificationCompletedGraceDelay(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*Page{1: {Orders: []Order{order("a", "Iron Ore", TypeBuy)}, Page: 1}}}
	bus := events.NewBus()
	c := NewListCache(f, bus, WithGraceDelay(50*time.Millisecond))
	defer c.Close()
	c.Load(context.Background(), 1, true)

	publish(bus, events.EventOrderCompleted, "a", nil)

	// Terminal state is visible synchronously; the row survives the
	// grace window before disappearing.
	o, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, StatusFulfilled, o.Status)
	require.NotNil(t, o.FulfilledAt)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("a")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCloseMakesPendingRemovalNoOp(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*Page{1: {Orders: []Order{order("a", "Iron Ore", TypeBuy)}, Page: 1}}}
	bus := events.NewBus()
	c := NewListCache(f, bus, WithGraceDelay(30*time.Millisecond))
	c.Load(context.Background(), 1, true)

	publish(bus, events.EventOrderCompleted, "a", nil)
	c.Close()

	// The timer fires after teardown and must not publish, mutate, or panic.
	time.Sleep(100 * time.Millisecond)

	// Events published after Close are not delivered either.
	publish(bus, events.EventOrderCancelled, "a", nil)
}

func TestPage1ReplaceDiscardsNotificationState(t *testing.T) {
	// Server-as-ground-truth policy: a full refresh overwrites rows that
	// notifications had touched since the last load.
	f := &fakeFetcher{pages: map[int]*Page{1: {Orders: []Order{order("a", "Iron Ore", TypeBuy)}, Page: 1}}}
	bus := events.NewBus()
	c := NewListCache(f, bus)
	defer c.Close()
	c.Load(context.Background(), 1, true)

	publish(bus, events.EventOrderClaimed, "a", &events.UserRef{ID: "u2"})
	o, _ := c.Get("a")
	require.Equal(t, StatusInProgress, o.Status)

	c.Refetch(context.Background())
	o, _ = c.Get("a")
	assert.Equal(t, StatusOpen, o.Status)
	assert.Nil(t, o.Claimer)
}

func ids(os []Order) []string {
	out := make([]string, len(os))
	for i, o := range os {
		out[i] = o.ID
	}
	return out
}
