package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tradehall/tradehall/internal/core/editform"
	"github.com/tradehall/tradehall/internal/core/orders"
	"github.com/tradehall/tradehall/internal/events"
	"github.com/tradehall/tradehall/internal/session"
	"github.com/tradehall/tradehall/internal/telemetry"
	"github.com/tradehall/tradehall/tui/panels"
	"github.com/tradehall/tradehall/tui/styles"
)

// Submitter persists a confirmed edit patch.
type Submitter interface {
	UpdateOrder(ctx context.Context, id string, p orders.Patch) error
}

// Model is the main TUI application model. State synchronization lives in
// the order cache and edit controller; the model routes keys and renders
// snapshots.
type Model struct {
	cache     *orders.ListCache
	sess      *session.Provider
	submitter Submitter
	prices    editform.PriceSource

	// oracleWarning is set when the price table failed to load; the edit
	// form shows it and stays usable with manual prices.
	oracleWarning string

	listPanel *panels.OrderListPanel
	editPanel *panels.EditFormPanel // nil when the dialog is closed
	editingID string

	// notifyCh wakes the UI when the cache applied a notification.
	notifyCh chan struct{}
	subs     []*events.Subscription

	width  int
	height int

	statusMsg string
}

type (
	sessionResolvedMsg struct{}
	refreshMsg         struct{}
	notifyAppliedMsg   struct{}
	loadDoneMsg        struct{}
	submitDoneMsg      struct{ err error }
)

func NewModel(cache *orders.ListCache, sess *session.Provider, submitter Submitter, prices editform.PriceSource, oracleWarning string, bus *events.Bus) *Model {
	m := &Model{
		cache:         cache,
		sess:          sess,
		submitter:     submitter,
		prices:        prices,
		oracleWarning: oracleWarning,
		listPanel:     panels.NewOrderListPanel(),
		notifyCh:      make(chan struct{}, 8),
	}

	if bus != nil {
		wake := func(events.Event) error {
			select {
			case m.notifyCh <- struct{}{}:
			default:
			}
			return nil
		}
		for _, t := range []events.EventType{
			events.EventOrderClaimed,
			events.EventOrderReady,
			events.EventOrderCompleted,
			events.EventOrderCancelled,
		} {
			m.subs = append(m.subs, bus.Subscribe(t, wake))
		}
	}
	return m
}

// Teardown cancels bus subscriptions; callbacks resolving later are
// dropped on the floor rather than crashing into a dead model.
func (m *Model) Teardown() {
	for _, s := range m.subs {
		s.Cancel()
	}
	m.subs = nil
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.resolveSession(), m.waitNotify(), m.tick())
}

// resolveSession settles identity, then lets the cache run its one-shot
// initial load.
func (m *Model) resolveSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := m.sess.Update(ctx); err != nil {
			telemetry.Warnf("tui: session resolve failed: %v", err)
		}
		return sessionResolvedMsg{}
	}
}

func (m *Model) waitNotify() tea.Cmd {
	return func() tea.Msg {
		<-m.notifyCh
		return notifyAppliedMsg{}
	}
}

// tick refreshes the grace-delay removals and relative timestamps.
func (m *Model) tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

func (m *Model) loadInitial() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		m.cache.EnsureLoaded(ctx, m.sess.Settled())
		return loadDoneMsg{}
	}
}

func (m *Model) loadMore() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		m.cache.LoadMore(ctx)
		return loadDoneMsg{}
	}
}

func (m *Model) refetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		m.cache.Refetch(ctx)
		return loadDoneMsg{}
	}
}

// submit persists the patch, then applies it optimistically to the cache.
func (m *Model) submit(id string, p orders.Patch) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := m.submitter.UpdateOrder(ctx, id, p)
		if err == nil {
			m.cache.UpdateOrder(id, p)
		}
		return submitDoneMsg{err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.listPanel.SetSize(msg.Width, msg.Height-2)
		if m.editPanel != nil {
			m.editPanel.SetSize(msg.Width)
		}
		m.refreshList()
		return m, nil

	case sessionResolvedMsg:
		switch m.sess.Status() {
		case session.StatusAuthenticated:
			m.statusMsg = "signed in as " + m.sess.Session().DisplayName
		case session.StatusUnauthenticated:
			m.statusMsg = "not signed in"
		}
		return m, m.loadInitial()

	case loadDoneMsg, refreshMsg, notifyAppliedMsg:
		m.refreshList()
		if m.editPanel != nil {
			m.editPanel.PriceDataChanged()
		}
		var next tea.Cmd
		switch msg.(type) {
		case refreshMsg:
			next = m.tick()
		case notifyAppliedMsg:
			next = m.waitNotify()
		}
		return m, next

	case submitDoneMsg:
		if m.editPanel != nil {
			m.editPanel.SetSubmitting(false)
		}
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("save failed: %v", msg.err)
			return m, nil
		}
		m.statusMsg = "order updated"
		m.editPanel = nil
		m.editingID = ""
		m.refreshList()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editPanel != nil {
		switch msg.String() {
		case "esc":
			// Discards the draft entirely; the next edit starts fresh.
			m.editPanel = nil
			m.editingID = ""
			return m, nil
		case "ctrl+c":
			m.Teardown()
			return m, tea.Quit
		}
		patch, confirmed, cmd := m.editPanel.Update(msg)
		if confirmed {
			m.editPanel.SetSubmitting(true)
			return m, m.submit(m.editingID, patch)
		}
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.Teardown()
		return m, tea.Quit
	case "up", "k":
		m.listPanel.MoveCursor(-1)
	case "down", "j":
		m.listPanel.MoveCursor(1)
	case "m":
		return m, m.loadMore()
	case "r":
		return m, m.refetch()
	case "enter":
		if o, ok := m.listPanel.Selected(); ok {
			m.editingID = o.ID
			m.editPanel = panels.NewEditFormPanel(o, m.prices, m.oracleWarning)
			m.editPanel.SetSize(m.width)
			return m, m.editPanel.Init()
		}
	}
	return m, nil
}

func (m *Model) refreshList() {
	m.listPanel.SetState(m.cache.Snapshot())
	m.listPanel.Focus(m.editPanel == nil)
}

func (m *Model) View() string {
	if m.width == 0 {
		return "loading…"
	}

	main := m.listPanel.View()
	if m.editPanel != nil {
		main = lipgloss.JoinVertical(lipgloss.Left, main, m.editPanel.View())
	}

	status := fmt.Sprintf("%s  |  pages %d  notifications %d",
		m.statusMsg,
		telemetry.Metrics.PagesFetched.Value(),
		telemetry.Metrics.NotificationsApplied.Value(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, main, styles.StatusBarStyle.Render(status))
}
