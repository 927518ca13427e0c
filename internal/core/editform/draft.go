package editform

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/tradehall/tradehall/internal/core/orders"
	"github.com/tradehall/tradehall/internal/telemetry"
)

// Draft is one in-flight edit of one order. It is created fresh when an
// order is selected for editing and discarded when the dialog closes; it
// never survives a different order being loaded into the same dialog.
//
// The autofill state machine is the flag pair
// (priceManuallyEdited, tierChangedSinceOpen):
//
//	Pristine  (false, false)  tier/price mirror the order; autofill never fires
//	TierDirty (false, true)   user changed tier; autofill armed
//	PriceDirty (true, *)      user typed into price; autofill disarmed
//	                          until the next tier change
type Draft struct {
	OrderID  string
	ItemName string

	Tier         int
	PricePerUnit decimal.Decimal
	Amount       int
	Type         orders.Type

	priceManuallyEdited  bool
	tierChangedSinceOpen bool

	// lastAutofillKey records which (item, tier, price) triple was last
	// auto-applied so a repeated oracle callback is a no-op.
	lastAutofillKey string
}

// NewDraft opens a draft mirroring the order's current values, in the
// Pristine state: the existing price is never silently replaced until the
// user touches the tier control.
func NewDraft(o orders.Order) *Draft {
	return &Draft{
		OrderID:      o.ID,
		ItemName:     o.ItemName,
		Tier:         o.Tier,
		PricePerUnit: o.PricePerUnit,
		Amount:       o.Amount,
		Type:         o.Type,
	}
}

// SetTier records a tier change and re-arms autofill, even if the price
// had been manually edited before.
func (d *Draft) SetTier(v int) {
	d.Tier = v
	d.tierChangedSinceOpen = true
	d.priceManuallyEdited = false
	d.lastAutofillKey = ""
}

// SetPrice records a direct edit of the price field. Unparseable input
// becomes 0, which validation rejects on submit.
func (d *Draft) SetPrice(raw string) {
	p, err := decimal.NewFromString(raw)
	if err != nil {
		p = decimal.Zero
	}
	d.PricePerUnit = p
	d.priceManuallyEdited = true
}

// SetAmount parses the amount field; unparseable input becomes 0.
func (d *Draft) SetAmount(raw string) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		n = 0
	}
	d.Amount = n
}

func (d *Draft) SetType(t orders.Type) {
	d.Type = t
}

// Autofill applies the oracle's price for (ItemName, Tier) if armed.
// Invoked from exactly two triggers: the tier changed, or the oracle's
// value changed. The key comparison makes a repeat of the same triple a
// no-op regardless of flag state.
func (d *Draft) Autofill(price decimal.Decimal) {
	key := fmt.Sprintf("%s|%d|%s", d.ItemName, d.Tier, price.String())
	if key == d.lastAutofillKey {
		return
	}
	if d.priceManuallyEdited || !d.tierChangedSinceOpen {
		return
	}
	d.PricePerUnit = price
	d.lastAutofillKey = key
	telemetry.Metrics.AutofillsApplied.Inc()
}

// FieldError is a user-facing validation message for one field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string { return e.Message }

// Validate checks the draft before submission. Each violation produces a
// distinct message; any result blocks submission.
func (d *Draft) Validate() []FieldError {
	var errs []FieldError
	if d.Tier < 1 || d.Tier > 10 {
		errs = append(errs, FieldError{Field: "tier", Message: "Tier must be between 1 and 10."})
	}
	if !d.PricePerUnit.IsPositive() {
		errs = append(errs, FieldError{Field: "pricePerUnit", Message: "Price per unit must be greater than 0."})
	}
	if d.Amount < 1 {
		errs = append(errs, FieldError{Field: "amount", Message: "Amount must be at least 1."})
	}
	return errs
}

// Patch returns the four-field patch handed to the collaborator that
// persists the edit. A changed order type may alter status server-side;
// the client never computes that locally.
func (d *Draft) Patch() orders.Patch {
	tier := d.Tier
	price := d.PricePerUnit
	amount := d.Amount
	typ := d.Type
	return orders.Patch{
		Tier:         &tier,
		PricePerUnit: &price,
		Amount:       &amount,
		Type:         &typ,
	}
}
