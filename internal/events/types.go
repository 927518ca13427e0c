package events

// UserRef is the denormalized user snapshot carried by notifications.
// A stale DisplayName/InGameName is tolerated; ID is authoritative.
type UserRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	InGameName  string `json:"inGameName,omitempty"`
}

// OrderNotification is the payload for every order_* event. The server's
// frame also carries a full order snapshot, but the cache reconciles from
// (kind, orderId, claimer) alone, so only those are forwarded.
type OrderNotification struct {
	OrderID string   `json:"orderId"`
	Claimer *UserRef `json:"claimer,omitempty"`
}
