package editform

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradehall/tradehall/internal/core/orders"
)

func baseOrder() orders.Order {
	return orders.Order{
		ID:           "o1",
		ItemName:     "Ancient Fiber",
		Tier:         3,
		PricePerUnit: decimal.NewFromFloat(5.25),
		Amount:       40,
		Type:         orders.TypeSell,
	}
}

// stubSource maps tier to price for the draft's item.
type stubSource map[int]string

func (s stubSource) Lookup(_ string, tier int) (decimal.Decimal, bool) {
	raw, ok := s[tier]
	if !ok {
		return decimal.Decimal{}, false
	}
	return decimal.RequireFromString(raw), true
}

func TestPristineNeverAutofills(t *testing.T) {
	d := NewDraft(baseOrder())

	// Oracle price arrives for the order's current tier before the user
	// touches anything: the existing price must not be replaced.
	d.Autofill(decimal.RequireFromString("99"))
	assert.True(t, d.PricePerUnit.Equal(decimal.NewFromFloat(5.25)))
}

func TestAutofillArmsOnTierChange(t *testing.T) {
	src := stubSource{5: "12.5", 6: "20"}
	c := NewController(baseOrder(), src)

	c.SetTier(5)
	assert.True(t, c.Draft.PricePerUnit.Equal(decimal.RequireFromString("12.5")))

	// Manual price edit disarms…
	c.SetPrice("9.99")
	c.PriceDataChanged()
	assert.True(t, c.Draft.PricePerUnit.Equal(decimal.RequireFromString("9.99")))

	// …but the next tier change re-arms despite the prior manual edit.
	c.SetTier(6)
	assert.True(t, c.Draft.PricePerUnit.Equal(decimal.RequireFromString("20")))
}

func TestManualPriceDisarms(t *testing.T) {
	src := stubSource{3: "2.5"}
	c := NewController(baseOrder(), src)

	c.SetPrice("7")
	c.PriceDataChanged()
	assert.True(t, c.Draft.PricePerUnit.Equal(decimal.RequireFromString("7")))
}

func TestAutofillKeyDeduplicates(t *testing.T) {
	d := NewDraft(baseOrder())
	d.SetTier(5)

	price := decimal.RequireFromString("12.5")
	d.Autofill(price)
	require.True(t, d.PricePerUnit.Equal(price))

	// The user overwrites the field by hand; a repeat callback with the
	// same (item, tier, price) triple must not clobber it.
	d.PricePerUnit = decimal.RequireFromString("8")
	d.priceManuallyEdited = false
	d.Autofill(price)
	assert.True(t, d.PricePerUnit.Equal(decimal.RequireFromString("8")))

	// A different oracle price is a new key and applies again.
	d.Autofill(decimal.RequireFromString("13"))
	assert.True(t, d.PricePerUnit.Equal(decimal.RequireFromString("13")))
}

func TestUnparseablePriceBecomesZero(t *testing.T) {
	d := NewDraft(baseOrder())
	d.SetPrice("abc")
	assert.True(t, d.PricePerUnit.IsZero())
	assert.Len(t, d.Validate(), 1)
}

func TestValidateBoundaries(t *testing.T) {
	cases := []struct {
		name   string
		tier   int
		price  string
		amount int
		fields []string
	}{
		{"all valid low edge", 1, "0.001", 1, nil},
		{"all valid high edge", 10, "100", 999, nil},
		{"tier too low", 0, "1", 1, []string{"tier"}},
		{"tier too high", 11, "1", 1, []string{"tier"}},
		{"zero price", 5, "0", 1, []string{"pricePerUnit"}},
		{"zero amount", 5, "1", 0, []string{"amount"}},
		{"everything wrong", 0, "0", 0, []string{"tier", "pricePerUnit", "amount"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDraft(baseOrder())
			d.Tier = tc.tier
			d.PricePerUnit = decimal.RequireFromString(tc.price)
			d.Amount = tc.amount

			errs := d.Validate()
			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tc.fields, fields)
		})
	}
}

func TestDistinctMessagesPerField(t *testing.T) {
	d := NewDraft(baseOrder())
	d.Tier = 0
	d.PricePerUnit = decimal.Zero
	d.Amount = 0

	errs := d.Validate()
	require.Len(t, errs, 3)
	seen := map[string]bool{}
	for _, e := range errs {
		assert.NotEmpty(t, e.Message)
		assert.False(t, seen[e.Message], "messages must be distinct")
		seen[e.Message] = true
	}
}

func TestPatchCarriesFourFields(t *testing.T) {
	src := stubSource{5: "12.5"}
	c := NewController(baseOrder(), src)
	c.SetTier(5)
	c.SetAmount("25")
	c.SetType(orders.TypeBuy)

	p := c.Draft.Patch()
	require.NotNil(t, p.Tier)
	require.NotNil(t, p.PricePerUnit)
	require.NotNil(t, p.Amount)
	require.NotNil(t, p.Type)
	assert.Equal(t, 5, *p.Tier)
	assert.True(t, p.PricePerUnit.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 25, *p.Amount)
	assert.Equal(t, orders.TypeBuy, *p.Type)

	// Status is never part of an edit submission; the server owns it.
	assert.Nil(t, p.Status)
	assert.Nil(t, p.Claimer)
}

func TestMissingOraclePriceLeavesDraftAlone(t *testing.T) {
	c := NewController(baseOrder(), stubSource{})
	c.SetTier(7)
	assert.True(t, c.Draft.PricePerUnit.Equal(decimal.NewFromFloat(5.25)))
}
