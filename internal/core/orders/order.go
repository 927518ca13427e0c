package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status of an order. Forward-only in normal operation; a cancellation
// notification may reset a claimed order back to Open.
type Status string

const (
	StatusOpen         Status = "OPEN"
	StatusInProgress   Status = "IN_PROGRESS"
	StatusReadyToTrade Status = "READY_TO_TRADE"
	StatusFulfilled    Status = "FULFILLED"
)

type Type string

const (
	TypeBuy  Type = "BUY"
	TypeSell Type = "SELL"
)

// UserRef is a denormalized snapshot of a user, not a live reference.
// Staleness of the display fields is tolerated.
type UserRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	InGameName  string `json:"inGameName,omitempty"`
}

// Order is a buy/sell intent for a specific item, tier, quantity and price.
// ID and ItemName are immutable after creation, Creator after assignment.
type Order struct {
	ID           string          `json:"id"`
	ItemName     string          `json:"itemName"`
	Tier         int             `json:"tier"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	Amount       int             `json:"amount"`
	Type         Type            `json:"orderType"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	FulfilledAt  *time.Time      `json:"fulfilledAt,omitempty"`
	Creator      UserRef         `json:"creator"`
	Claimer      *UserRef        `json:"claimer,omitempty"`
}

// Patch is a partial update merged into a cached order, and the body of an
// edit submission. Nil fields are left untouched; ClearClaimer distinguishes
// "unset claimer" from "leave claimer alone".
type Patch struct {
	Tier         *int             `json:"tier,omitempty"`
	PricePerUnit *decimal.Decimal `json:"pricePerUnit,omitempty"`
	Amount       *int             `json:"amount,omitempty"`
	Type         *Type            `json:"orderType,omitempty"`
	Status       *Status          `json:"status,omitempty"`
	FulfilledAt  *time.Time       `json:"fulfilledAt,omitempty"`
	Claimer      *UserRef         `json:"claimer,omitempty"`
	ClearClaimer bool             `json:"-"`
}

// apply merges p into o. Idempotent: applying the same patch twice yields
// the same order as applying it once.
func (p Patch) apply(o *Order) {
	if p.Tier != nil {
		o.Tier = *p.Tier
	}
	if p.PricePerUnit != nil {
		o.PricePerUnit = *p.PricePerUnit
	}
	if p.Amount != nil {
		o.Amount = *p.Amount
	}
	if p.Type != nil {
		o.Type = *p.Type
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.FulfilledAt != nil {
		t := *p.FulfilledAt
		o.FulfilledAt = &t
	}
	if p.Claimer != nil {
		c := *p.Claimer
		o.Claimer = &c
	}
	if p.ClearClaimer {
		o.Claimer = nil
	}
}

// Page is one server page of orders. CurrentUser is embedded when the
// fetch asked for user data; nil means the caller must fall back to the
// dedicated user endpoint.
type Page struct {
	Orders      []Order  `json:"orders"`
	TotalCount  int      `json:"totalCount"`
	HasMore     bool     `json:"hasMore"`
	Page        int      `json:"page"`
	Limit       int      `json:"limit"`
	CurrentUser *UserRef `json:"currentUser,omitempty"`
}
