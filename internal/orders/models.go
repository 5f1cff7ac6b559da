package orders

import "time"

type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Stock      int       `json:"stock"`
	PriceCents int       `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Lastname  string    `json:"lastname"`
	Company   string    `json:"company"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	SellerID  string    `json:"seller_id"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Lastname     string    `json:"lastname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Order struct {
	ID         string      `json:"id"`
	ClientID   string      `json:"client_id"`
	SellerID   string      `json:"seller_id"`
	Items      []OrderItem `json:"items"`
	TotalCents int         `json:"total_cents"`
	Status     Status      `json:"status"` // see status.go
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// OrderItem snapshots the product's name and price at order time;
// later product edits never rewrite past orders.
type OrderItem struct {
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	Name       string `json:"name"`
	PriceCents int    `json:"price_cents"`
}

// LineInput is the caller-facing order line: product + qty only.
// Name/price always come from the products table, never from the client.
type LineInput struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// Actor is the authenticated seller performing an operation. Lifecycle
// operations take it explicitly; there is no ambient request identity.
type Actor struct {
	ID       string
	Name     string
	Lastname string
	Email    string
}
