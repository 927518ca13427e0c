package panels

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tradehall/tradehall/internal/core/editform"
	"github.com/tradehall/tradehall/internal/core/orders"
	"github.com/tradehall/tradehall/tui/styles"
)

// EditFormField is the currently focused form field.
type EditFormField int

const (
	FieldTier EditFormField = iota
	FieldPrice
	FieldAmount
	FieldSide
	FieldSubmit
)

// EditFormPanel is the edit dialog for one order. All edit semantics —
// autofill arming, validation, the submitted patch — live in the
// editform controller; the panel is keystroke plumbing around it.
type EditFormPanel struct {
	ctrl *editform.Controller

	tierInput   textinput.Model
	priceInput  textinput.Model
	amountInput textinput.Model
	sideIndex   int

	field      EditFormField
	errs       []editform.FieldError
	submitting bool

	width int
}

// NewEditFormPanel opens a fresh dialog for the given order. A new panel
// (and a new draft underneath) is built for every order selected; drafts
// never carry over between orders.
func NewEditFormPanel(o orders.Order, src editform.PriceSource, oracleWarning string) *EditFormPanel {
	ctrl := editform.NewController(o, src)
	ctrl.Warning = oracleWarning

	tierInput := textinput.New()
	tierInput.Placeholder = "1-10"
	tierInput.Width = 6
	tierInput.CharLimit = 2
	tierInput.SetValue(strconv.Itoa(o.Tier))

	priceInput := textinput.New()
	priceInput.Placeholder = "Price"
	priceInput.Width = 12
	priceInput.CharLimit = 15
	priceInput.SetValue(o.PricePerUnit.String())

	amountInput := textinput.New()
	amountInput.Placeholder = "Amount"
	amountInput.Width = 10
	amountInput.CharLimit = 9
	amountInput.SetValue(strconv.Itoa(o.Amount))

	sideIndex := 0
	if o.Type == orders.TypeSell {
		sideIndex = 1
	}

	p := &EditFormPanel{
		ctrl:        ctrl,
		tierInput:   tierInput,
		priceInput:  priceInput,
		amountInput: amountInput,
		sideIndex:   sideIndex,
		field:       FieldTier,
	}
	p.applyFocus()
	return p
}

func (p *EditFormPanel) Init() tea.Cmd {
	return textinput.Blink
}

// Controller exposes the underlying edit controller for submission.
func (p *EditFormPanel) Controller() *editform.Controller {
	return p.ctrl
}

// SetSubmitting reflects the caller's loading state while the patch is
// persisted; the panel only observes it.
func (p *EditFormPanel) SetSubmitting(v bool) {
	p.submitting = v
}

func (p *EditFormPanel) SetSize(w int) {
	p.width = w
}

// PriceDataChanged forwards the oracle-side autofill trigger and mirrors
// any applied suggestion back into the price input.
func (p *EditFormPanel) PriceDataChanged() {
	p.ctrl.PriceDataChanged()
	p.syncPriceInput()
}

// Update handles one key event. It returns a validated patch (and true)
// when the user confirms with valid fields.
func (p *EditFormPanel) Update(msg tea.KeyMsg) (orders.Patch, bool, tea.Cmd) {
	if p.submitting {
		return orders.Patch{}, false, nil
	}

	switch msg.String() {
	case "tab", "down":
		p.field = (p.field + 1) % 5
		p.applyFocus()
		return orders.Patch{}, false, nil
	case "shift+tab", "up":
		p.field = (p.field + 4) % 5
		p.applyFocus()
		return orders.Patch{}, false, nil
	case "left", "right":
		if p.field == FieldSide {
			p.sideIndex = 1 - p.sideIndex
			p.ctrl.SetType(p.side())
			return orders.Patch{}, false, nil
		}
	case "enter":
		if p.field == FieldSubmit {
			p.errs = p.ctrl.Draft.Validate()
			if len(p.errs) > 0 {
				return orders.Patch{}, false, nil
			}
			return p.ctrl.Draft.Patch(), true, nil
		}
		p.field = (p.field + 1) % 5
		p.applyFocus()
		return orders.Patch{}, false, nil
	}

	var cmd tea.Cmd
	switch p.field {
	case FieldTier:
		before := p.tierInput.Value()
		p.tierInput, cmd = p.tierInput.Update(msg)
		if v := p.tierInput.Value(); v != before {
			if tier, err := strconv.Atoi(v); err == nil {
				p.ctrl.SetTier(tier)
				p.syncPriceInput()
			}
		}
	case FieldPrice:
		before := p.priceInput.Value()
		p.priceInput, cmd = p.priceInput.Update(msg)
		if v := p.priceInput.Value(); v != before {
			p.ctrl.SetPrice(v)
		}
	case FieldAmount:
		before := p.amountInput.Value()
		p.amountInput, cmd = p.amountInput.Update(msg)
		if v := p.amountInput.Value(); v != before {
			p.ctrl.SetAmount(v)
		}
	}
	return orders.Patch{}, false, cmd
}

// syncPriceInput mirrors an autofilled price into the input widget. It
// is the one system-driven write to that field, and it goes around
// SetPrice so it never counts as a manual edit.
func (p *EditFormPanel) syncPriceInput() {
	want := p.ctrl.Draft.PricePerUnit.String()
	if p.priceInput.Value() != want {
		p.priceInput.SetValue(want)
	}
}

func (p *EditFormPanel) side() orders.Type {
	if p.sideIndex == 1 {
		return orders.TypeSell
	}
	return orders.TypeBuy
}

func (p *EditFormPanel) applyFocus() {
	p.tierInput.Blur()
	p.priceInput.Blur()
	p.amountInput.Blur()
	switch p.field {
	case FieldTier:
		p.tierInput.Focus()
	case FieldPrice:
		p.priceInput.Focus()
	case FieldAmount:
		p.amountInput.Focus()
	}
}

func (p *EditFormPanel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("Edit Order — " + p.ctrl.Draft.ItemName))
	b.WriteString("\n\n")

	b.WriteString(p.row(FieldTier, "Tier", p.tierInput.View()))
	b.WriteString(p.row(FieldPrice, "Price/unit", p.priceInput.View()))
	b.WriteString(p.row(FieldAmount, "Amount", p.amountInput.View()))

	side := styles.SideStyle(string(p.side())).Render(string(p.side()))
	b.WriteString(p.row(FieldSide, "Side", "◀ "+side+" ▶"))

	submit := "[ Save ]"
	if p.submitting {
		submit = "[ Saving… ]"
	}
	if p.field == FieldSubmit {
		submit = styles.SelectedRowStyle.Render(submit)
	}
	b.WriteString("\n  " + submit + "\n")

	for _, e := range p.errs {
		b.WriteString(styles.ErrorStyle.Render("  " + e.Message))
		b.WriteString("\n")
	}
	if p.ctrl.Warning != "" {
		b.WriteString(styles.WarnStyle.Render("  price suggestions unavailable: " + p.ctrl.Warning))
		b.WriteString("\n")
	}

	b.WriteString(styles.MutedStyle.Render("\n  tab: next field  enter: save  esc: cancel"))

	return styles.FocusedPanelStyle.Width(p.width - 2).Render(b.String())
}

func (p *EditFormPanel) row(f EditFormField, label, widget string) string {
	marker := "  "
	if p.field == f {
		marker = "> "
	}
	return fmt.Sprintf("%s%-11s %s\n", marker, label, widget)
}
