package orders

import (
	"context"
	"errors"
	"fmt"
)

// Inventory is the slice of the product store the reservation engine
// needs. DecrementStock must be atomic at the storage layer: it applies
// stock -= qty only while stock >= qty holds, and reports false when the
// precondition fails. A read-then-write pair is not an implementation.
type Inventory interface {
	GetProduct(ctx context.Context, id string) (Product, error)
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
	IncrementStock(ctx context.Context, id string, qty int) error
}

// ReservationEngine decrements product stock for an order's line items
// as an all-or-nothing batch. Two phases: an optimistic read pass that
// snapshots name/price and rejects obviously short lines, then a commit
// pass of conditional decrements. Any commit-time failure rolls back the
// lines already taken, so callers never observe a half-reserved batch.
type ReservationEngine struct {
	Inv Inventory
}

// Reserve validates and commits the batch, returning the order items
// with name/price snapshotted at reservation time.
func (e *ReservationEngine) Reserve(ctx context.Context, lines []LineInput) ([]OrderItem, error) {
	if err := ValidateLines(lines); err != nil {
		return nil, err
	}

	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		p, err := e.Inv.GetProduct(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if l.Qty > p.Stock {
			return nil, &InsufficientStockError{
				ProductID: p.ID, Name: p.Name, Requested: l.Qty, Available: p.Stock,
			}
		}
		items = append(items, OrderItem{
			ProductID: p.ID, Qty: l.Qty, Name: p.Name, PriceCents: p.PriceCents,
		})
	}

	if err := e.commit(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Reapply re-takes a previously held reservation (amend compensation
// path). Quantities and snapshots come from the caller; stock is still
// decremented conditionally, never blindly.
func (e *ReservationEngine) Reapply(ctx context.Context, items []OrderItem) error {
	return e.commit(ctx, items)
}

func (e *ReservationEngine) commit(ctx context.Context, items []OrderItem) error {
	committed := make([]OrderItem, 0, len(items))
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return e.failCommit(ctx, committed, err)
		}
		ok, err := e.Inv.DecrementStock(ctx, it.ProductID, it.Qty)
		if err != nil {
			return e.failCommit(ctx, committed, err)
		}
		if !ok {
			// stock moved between the read pass and this write
			return e.failCommit(ctx, committed, e.shortfall(ctx, it))
		}
		committed = append(committed, it)
	}
	return nil
}

// failCommit restores already-decremented lines before surfacing cause.
// Compensation runs on a cancel-immune context: an aborted request must
// not leave its partial decrements behind.
func (e *ReservationEngine) failCommit(ctx context.Context, committed []OrderItem, cause error) error {
	if len(committed) == 0 {
		return cause
	}
	if err := e.Release(context.WithoutCancel(ctx), committed); err != nil {
		return errors.Join(cause, fmt.Errorf("rollback reservation: %w", err))
	}
	return cause
}

// shortfall builds the error for a failed decrement precondition using
// the product's current state.
func (e *ReservationEngine) shortfall(ctx context.Context, it OrderItem) error {
	p, err := e.Inv.GetProduct(context.WithoutCancel(ctx), it.ProductID)
	if err != nil {
		// product vanished mid-batch; NotFound from the store stands
		return err
	}
	return &InsufficientStockError{
		ProductID: it.ProductID, Name: p.Name, Requested: it.Qty, Available: p.Stock,
	}
}

// Release returns reserved quantities to stock, e.g. when an order is
// amended or cancelled. Failures per line are collected, not short-
// circuited: restoring three of four lines beats restoring one.
func (e *ReservationEngine) Release(ctx context.Context, items []OrderItem) error {
	var errs []error
	for _, it := range items {
		if err := e.Inv.IncrementStock(ctx, it.ProductID, it.Qty); err != nil {
			errs = append(errs, fmt.Errorf("release %d of product %s: %w", it.Qty, it.ProductID, err))
		}
	}
	return errors.Join(errs...)
}

// TotalCents computes an order total from its snapshotted items.
func TotalCents(items []OrderItem) int {
	total := 0
	for _, it := range items {
		total += it.PriceCents * it.Qty
	}
	return total
}
