package panels

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/tradehall/tradehall/internal/core/orders"
	"github.com/tradehall/tradehall/tui/styles"
)

// OrderListPanel renders the cached order list. It owns only presentation
// state (cursor, scroll offset); the rows come from ListCache.Snapshot()
// on every refresh.
type OrderListPanel struct {
	state  orders.ListState
	cursor int
	offset int

	focused bool
	width   int
	height  int
}

func NewOrderListPanel() *OrderListPanel {
	return &OrderListPanel{}
}

// SetState replaces the rendered snapshot, clamping the cursor if rows
// disappeared underneath it.
func (p *OrderListPanel) SetState(s orders.ListState) {
	p.state = s
	if p.cursor >= len(s.Orders) {
		p.cursor = len(s.Orders) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

func (p *OrderListPanel) SetSize(w, h int) {
	p.width = w
	p.height = h
}

func (p *OrderListPanel) Focus(focused bool) {
	p.focused = focused
}

func (p *OrderListPanel) MoveCursor(delta int) {
	p.cursor += delta
	if p.cursor < 0 {
		p.cursor = 0
	}
	if p.cursor >= len(p.state.Orders) {
		p.cursor = len(p.state.Orders) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// Selected returns the order under the cursor.
func (p *OrderListPanel) Selected() (orders.Order, bool) {
	if p.cursor < 0 || p.cursor >= len(p.state.Orders) {
		return orders.Order{}, false
	}
	return p.state.Orders[p.cursor], true
}

// AtEnd reports whether the cursor sits on the last cached row, the cue
// to load the next page.
func (p *OrderListPanel) AtEnd() bool {
	return len(p.state.Orders) > 0 && p.cursor == len(p.state.Orders)-1
}

func (p *OrderListPanel) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Orders — %d of %d", len(p.state.Orders), p.state.TotalCount)
	if p.state.Loading {
		title += "  (loading…)"
	}
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString("\n")

	header := fmt.Sprintf("%-20s %-4s %-4s %10s %8s %-15s %-12s %s",
		"ITEM", "TIER", "SIDE", "PRICE", "AMOUNT", "STATUS", "CREATOR", "AGE")
	b.WriteString(styles.HeaderStyle.Render(header))
	b.WriteString("\n")

	visible := p.height - 4
	if visible < 1 {
		visible = 1
	}
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+visible {
		p.offset = p.cursor - visible + 1
	}

	end := p.offset + visible
	if end > len(p.state.Orders) {
		end = len(p.state.Orders)
	}

	for i := p.offset; i < end; i++ {
		o := p.state.Orders[i]
		row := fmt.Sprintf("%-20s %-4d %-4s %10s %8s %-15s %-12s %s",
			truncate(o.ItemName, 20),
			o.Tier,
			o.Type,
			o.PricePerUnit.StringFixed(2),
			humanize.Comma(int64(o.Amount)),
			o.Status,
			truncate(o.Creator.DisplayName, 12),
			humanize.Time(o.CreatedAt),
		)
		if i == p.cursor && p.focused {
			b.WriteString(styles.SelectedRowStyle.Render(row))
		} else {
			b.WriteString(styles.RowStyle.Render(row))
		}
		b.WriteString("\n")
	}

	if len(p.state.Orders) == 0 {
		b.WriteString(styles.MutedStyle.Render("  no orders"))
		b.WriteString("\n")
	}

	footer := ""
	if p.state.HasMore {
		footer = "m: load more  "
	}
	footer += "r: refresh  enter: edit  q: quit"
	b.WriteString(styles.MutedStyle.Render(footer))

	style := styles.PanelStyle
	if p.focused {
		style = styles.FocusedPanelStyle
	}
	return style.Width(p.width - 2).Render(b.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
