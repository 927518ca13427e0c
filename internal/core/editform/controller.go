package editform

import (
	"github.com/shopspring/decimal"

	"github.com/tradehall/tradehall/internal/core/orders"
)

// PriceSource is the pricing oracle: a pure lookup from (item, tier) to a
// unit price that may be missing.
type PriceSource interface {
	Lookup(item string, tier int) (decimal.Decimal, bool)
}

// Controller binds a Draft to the pricing oracle. The autofill transition
// runs from its two real triggers only — SetTier and PriceDataChanged —
// never from a generic recompute-on-anything rule.
type Controller struct {
	Draft *Draft

	// Warning is a non-fatal oracle problem shown beside the form; the
	// form stays usable with manually entered prices.
	Warning string

	src PriceSource
}

func NewController(o orders.Order, src PriceSource) *Controller {
	return &Controller{Draft: NewDraft(o), src: src}
}

func (c *Controller) SetTier(v int) {
	c.Draft.SetTier(v)
	c.refreshAutofill()
}

func (c *Controller) SetPrice(raw string) { c.Draft.SetPrice(raw) }

func (c *Controller) SetAmount(raw string) { c.Draft.SetAmount(raw) }

func (c *Controller) SetType(t orders.Type) { c.Draft.SetType(t) }

// PriceDataChanged is the oracle-side trigger: call after the price table
// reloads or its value for the draft's (item, tier) changes.
func (c *Controller) PriceDataChanged() {
	c.refreshAutofill()
}

func (c *Controller) refreshAutofill() {
	if c.src == nil {
		return
	}
	if p, ok := c.src.Lookup(c.Draft.ItemName, c.Draft.Tier); ok {
		c.Draft.Autofill(p)
	}
}
