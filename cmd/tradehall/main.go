package main

import (
	"context"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tradehall/tradehall/internal/adapters/inbound/notifyws"
	"github.com/tradehall/tradehall/internal/adapters/outbound/orderapi"
	"github.com/tradehall/tradehall/internal/config"
	"github.com/tradehall/tradehall/internal/core/editform"
	"github.com/tradehall/tradehall/internal/core/journal"
	"github.com/tradehall/tradehall/internal/core/orders"
	"github.com/tradehall/tradehall/internal/core/pricing"
	"github.com/tradehall/tradehall/internal/events"
	"github.com/tradehall/tradehall/internal/session"
	"github.com/tradehall/tradehall/internal/telemetry"
	"github.com/tradehall/tradehall/tui"
)

func main() {
	cfg := config.Load()

	// Log to a file; bubbletea owns the terminal.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel), nil)
	} else {
		defer logFile.Close()
		telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel), logFile)
	}
	telemetry.Infof("Starting tradehall client  api=%s", cfg.APIBaseURL)

	bus := events.NewBus()

	// ── Notification journal ────────────────────────────────────
	store, err := journal.Open(cfg.JournalPath, cfg.JournalMaxRows)
	if err != nil {
		telemetry.Errorf("open journal: %v", err)
		os.Exit(1)
	}
	defer store.Close()
	journalSub := recordNotifications(bus, store)
	defer func() {
		for _, s := range journalSub {
			s.Cancel()
		}
	}()

	// ── Pricing oracle ──────────────────────────────────────────
	var prices editform.PriceSource
	oracleWarning := ""
	table, err := pricing.LoadTable(cfg.PriceTablePath)
	if err != nil {
		// Non-fatal: the edit form stays usable with manual prices.
		telemetry.Warnf("price table: %v", err)
		oracleWarning = err.Error()
	} else {
		prices = table
	}

	// ── API client + session + cache ────────────────────────────
	api := orderapi.NewClient(cfg.APIBaseURL, cfg.APIToken)
	sess := session.New(api)
	cache := orders.NewListCache(api, bus,
		orders.WithPageLimit(cfg.PageLimit),
		orders.WithGraceDelay(cfg.CompletionGraceDelay),
	)
	defer cache.Close()

	// ── Notification websocket ──────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ws := notifyws.NewClient(cfg.NotifyWSURL, cfg.APIToken, bus)
	if err := ws.Connect(ctx); err != nil {
		// The run loop keeps retrying after a first successful dial only,
		// so surface the initial failure but run without live updates.
		telemetry.Warnf("notify WS connect: %v (running without live updates)", err)
	}
	defer ws.Close()

	// ── TUI ─────────────────────────────────────────────────────
	model := tui.NewModel(cache, sess, api, prices, oracleWarning, bus)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		telemetry.Errorf("tui: %v", err)
		os.Exit(1)
	}
}

// recordNotifications journals every recognized notification as it is
// published, independent of how the cache reconciles it.
func recordNotifications(bus *events.Bus, store *journal.Store) []*events.Subscription {
	record := func(e events.Event) error {
		n, ok := e.Payload.(*events.OrderNotification)
		if !ok {
			return nil
		}
		return store.Append(journal.Entry{
			EventID:   e.ID,
			OrderID:   n.OrderID,
			Kind:      string(e.Type),
			AppliedAt: time.Now(),
		})
	}
	var subs []*events.Subscription
	for _, t := range []events.EventType{
		events.EventOrderClaimed,
		events.EventOrderReady,
		events.EventOrderCompleted,
		events.EventOrderCancelled,
	} {
		subs = append(subs, bus.Subscribe(t, record))
	}
	return subs
}
