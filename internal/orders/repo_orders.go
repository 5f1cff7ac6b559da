package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderRepo persists the order aggregate (order row + item rows) inside
// one transaction, so a partially written order can never be observed.
type OrderRepo struct{ DB *pgxpool.Pool }

func (r *OrderRepo) GetOrder(ctx context.Context, id string) (Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `SELECT id, client_id, seller_id, total_cents, status, created_at, updated_at
	                           FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.ClientID, &o.SellerID, &o.TotalCents, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, &NotFoundError{Kind: "order", ID: id}
	}
	if err != nil {
		return Order{}, err
	}
	items, err := r.itemsOf(ctx, r.DB, id)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	return o, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *OrderRepo) itemsOf(ctx context.Context, q querier, orderID string) ([]OrderItem, error) {
	rows, err := q.Query(ctx, `SELECT product_id, qty, name, price_cents
	                           FROM order_items WHERE order_id=$1 ORDER BY product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ProductID, &it.Qty, &it.Name, &it.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *OrderRepo) InsertOrder(ctx context.Context, o Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `INSERT INTO orders(id, client_id, seller_id, total_cents, status, created_at, updated_at)
	                       VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.ClientID, o.SellerID, o.TotalCents, o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}
	if err := insertItems(ctx, tx, o.ID, o.Items); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *OrderRepo) UpdateOrder(ctx context.Context, o Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `UPDATE orders SET client_id=$2, total_cents=$3, status=$4, updated_at=$5
	                         WHERE id=$1`, o.ID, o.ClientID, o.TotalCents, o.Status, o.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return &NotFoundError{Kind: "order", ID: o.ID}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, o.ID); err != nil {
		return err
	}
	if err := insertItems(ctx, tx, o.ID, o.Items); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID string, items []OrderItem) error {
	for _, it := range items {
		_, err := tx.Exec(ctx, `INSERT INTO order_items(order_id, product_id, qty, name, price_cents)
		                        VALUES ($1,$2,$3,$4,$5)`,
			orderID, it.ProductID, it.Qty, it.Name, it.PriceCents)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepo) DeleteOrder(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, id); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return &NotFoundError{Kind: "order", ID: id}
	}
	return tx.Commit(ctx)
}

func (r *OrderRepo) listOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.ClientID, &o.SellerID, &o.TotalCents, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := r.itemsOf(ctx, r.DB, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

const orderCols = `id, client_id, seller_id, total_cents, status, created_at, updated_at`

func (r *OrderRepo) ListOrders(ctx context.Context) ([]Order, error) {
	return r.listOrders(ctx, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC`)
}

func (r *OrderRepo) ListOrdersBySeller(ctx context.Context, sellerID string) ([]Order, error) {
	return r.listOrders(ctx, `SELECT `+orderCols+` FROM orders WHERE seller_id=$1 ORDER BY created_at DESC`, sellerID)
}

func (r *OrderRepo) ListOrdersBySellerStatus(ctx context.Context, sellerID string, status Status) ([]Order, error) {
	return r.listOrders(ctx, `SELECT `+orderCols+` FROM orders WHERE seller_id=$1 AND status=$2 ORDER BY created_at DESC`,
		sellerID, status)
}
