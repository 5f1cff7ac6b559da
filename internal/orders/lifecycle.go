package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ClientStore interface {
	GetClient(ctx context.Context, id string) (Client, error)
}

type OrderStore interface {
	GetOrder(ctx context.Context, id string) (Order, error)
	InsertOrder(ctx context.Context, o Order) error
	UpdateOrder(ctx context.Context, o Order) error
	DeleteOrder(ctx context.Context, id string) error
}

// Manager orchestrates the order lifecycle: ownership gate, line
// validation, stock reservation, persistence. Either the full order
// aggregate lands with its stock side effects, or neither does.
type Manager struct {
	Clients ClientStore
	Orders  OrderStore
	Engine  *ReservationEngine
}

// AmendRequest carries the optional changes of an order update. Nil
// fields keep the current value; Lines == nil keeps the current items
// (an empty non-nil slice is rejected by validation).
type AmendRequest struct {
	ClientID *string
	Lines    []LineInput
	Status   *Status
}

// Place creates an order for one of the actor's clients. The client
// must exist and belong to the actor; stock for every line is reserved
// before anything is persisted.
func (m *Manager) Place(ctx context.Context, actor Actor, clientID string, lines []LineInput) (Order, error) {
	client, err := m.Clients.GetClient(ctx, clientID)
	if err != nil {
		return Order{}, err
	}
	if err := Authorize(actor.ID, client.SellerID); err != nil {
		return Order{}, err
	}

	items, err := m.Engine.Reserve(ctx, lines)
	if err != nil {
		return Order{}, err
	}

	now := time.Now().UTC()
	o := Order{
		ID:         uuid.NewString(),
		ClientID:   client.ID,
		SellerID:   actor.ID,
		Items:      items,
		TotalCents: TotalCents(items),
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.Orders.InsertOrder(ctx, o); err != nil {
		return Order{}, m.compensate(ctx, err, func(c context.Context) error {
			return m.Engine.Release(c, items)
		})
	}
	return o, nil
}

// Get returns a single order, ownership-gated like every other
// single-resource order access.
func (m *Manager) Get(ctx context.Context, actor Actor, orderID string) (Order, error) {
	o, err := m.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if err := Authorize(actor.ID, o.SellerID); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Amend applies an order update. Replacing the line items releases the
// old reservation and takes a new one; if the new reservation fails the
// old one is re-applied so stock still matches the persisted order.
// Lines and client can only change while the order is PENDING: a DONE
// order consumed its stock and a CANCEL order already released it, so
// neither holds a reservation to swap.
func (m *Manager) Amend(ctx context.Context, actor Actor, orderID string, req AmendRequest) (Order, error) {
	o, err := m.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if err := Authorize(actor.ID, o.SellerID); err != nil {
		return Order{}, err
	}
	if (req.Lines != nil || req.ClientID != nil) && o.Status != StatusPending {
		return Order{}, validationf("cannot amend lines or client of a %s order", o.Status)
	}

	clientID := o.ClientID
	if req.ClientID != nil {
		clientID = *req.ClientID
	}
	client, err := m.Clients.GetClient(ctx, clientID)
	if err != nil {
		return Order{}, err
	}
	if err := Authorize(actor.ID, client.SellerID); err != nil {
		return Order{}, err
	}

	if req.Lines != nil {
		// reject malformed lines before touching any stock
		if err := ValidateLines(req.Lines); err != nil {
			return Order{}, err
		}
	}

	// undo stack for stock moves made before the final persist
	var undo []func(context.Context) error

	oldItems := o.Items
	if req.Lines != nil {
		if err := m.Engine.Release(ctx, oldItems); err != nil {
			return Order{}, err
		}
		undo = append(undo, func(c context.Context) error {
			return m.Engine.Reapply(c, oldItems)
		})

		newItems, err := m.Engine.Reserve(ctx, req.Lines)
		if err != nil {
			return Order{}, m.compensate(ctx, err, undo...)
		}
		undo = append(undo, func(c context.Context) error {
			return m.Engine.Release(c, newItems)
		})
		o.Items = newItems
		o.TotalCents = TotalCents(newItems)
	}

	if req.Status != nil && *req.Status != o.Status {
		if !CanTransition(o.Status, *req.Status) {
			return Order{}, m.compensate(ctx,
				validationf("invalid status transition %s -> %s", o.Status, *req.Status),
				undo...)
		}
		if *req.Status == StatusCancel {
			// cancelling returns the held stock
			released := o.Items
			if err := m.Engine.Release(ctx, released); err != nil {
				return Order{}, m.compensate(ctx, err, undo...)
			}
			undo = append(undo, func(c context.Context) error {
				return m.Engine.Reapply(c, released)
			})
		}
		o.Status = *req.Status
	}

	o.ClientID = client.ID
	o.UpdatedAt = time.Now().UTC()
	if err := m.Orders.UpdateOrder(ctx, o); err != nil {
		return Order{}, m.compensate(ctx, err, undo...)
	}
	return o, nil
}

// Cancel deletes an order and returns its last state. A PENDING order
// still holds its reservation, so its stock goes back first; DONE
// consumed the stock and CANCEL already returned it.
func (m *Manager) Cancel(ctx context.Context, actor Actor, orderID string) (Order, error) {
	o, err := m.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if err := Authorize(actor.ID, o.SellerID); err != nil {
		return Order{}, err
	}
	if o.Status == StatusPending {
		if err := m.Engine.Release(ctx, o.Items); err != nil {
			return Order{}, fmt.Errorf("release stock before delete: %w", err)
		}
	}
	if err := m.Orders.DeleteOrder(ctx, orderID); err != nil {
		if o.Status == StatusPending {
			return Order{}, m.compensate(ctx, err, func(c context.Context) error {
				return m.Engine.Reapply(c, o.Items)
			})
		}
		return Order{}, err
	}
	return o, nil
}

// compensate runs undo steps (newest first) on a cancel-immune context
// and reports their failures alongside the primary error; a failed
// compensation must never be silent.
func (m *Manager) compensate(ctx context.Context, cause error, undo ...func(context.Context) error) error {
	c := context.WithoutCancel(ctx)
	errs := []error{cause}
	for i := len(undo) - 1; i >= 0; i-- {
		if err := undo[i](c); err != nil {
			errs = append(errs, fmt.Errorf("compensate: %w", err))
		}
	}
	return errors.Join(errs...)
}
