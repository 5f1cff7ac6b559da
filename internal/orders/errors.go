package orders

import "fmt"

// Typed failures so the transport layer can map them to status codes
// without parsing message text.

type NotFoundError struct {
	Kind string // "product" | "client" | "order" | "user"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

type PermissionError struct {
	ActorID  string
	SellerID string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("actor %s is not the owning seller", e.ActorID)
}

type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("article %q exceeds the quantity available: requested %d, available %d",
		e.Name, e.Requested, e.Available)
}

type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
