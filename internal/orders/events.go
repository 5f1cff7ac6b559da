package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderAmended   = "OrderAmended"
	EventOrderCancelled = "OrderCancelled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g. "sales-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- payload per event ----

type OrderPlacedPayload struct {
	OrderID    string      `json:"order_id"`
	ClientID   string      `json:"client_id"`
	SellerID   string      `json:"seller_id"`
	Items      []OrderItem `json:"items"`
	TotalCents int         `json:"total_cents"`
}

type OrderAmendedPayload struct {
	OrderID    string      `json:"order_id"`
	ClientID   string      `json:"client_id"`
	SellerID   string      `json:"seller_id"`
	Items      []OrderItem `json:"items"`
	TotalCents int         `json:"total_cents"`
	Status     Status      `json:"status"`
}

type OrderCancelledPayload struct {
	OrderID       string      `json:"order_id"`
	SellerID      string      `json:"seller_id"`
	Status        Status      `json:"status"` // status at deletion time
	ReleasedItems []OrderItem `json:"released_items,omitempty"`
}
