package orders

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Read-only ranking views over completed (DONE) orders, recomputed
// whole on each refresh.

type TopClient struct {
	Client     Client `json:"client"`
	TotalCents int    `json:"total_cents"`
}

type TopSeller struct {
	SellerID   string `json:"seller_id"`
	Name       string `json:"name"`
	Lastname   string `json:"lastname"`
	Email      string `json:"email"`
	TotalCents int    `json:"total_cents"`
}

type ReportRepo struct{ DB *pgxpool.Pool }

func (r *ReportRepo) TopClients(ctx context.Context, limit int) ([]TopClient, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT c.id, c.name, c.lastname, c.company, c.email, c.phone, c.seller_id, c.created_at,
		       SUM(o.total_cents) AS total
		FROM orders o
		JOIN clients c ON c.id = o.client_id
		WHERE o.status = 'DONE'
		GROUP BY c.id, c.name, c.lastname, c.company, c.email, c.phone, c.seller_id, c.created_at
		ORDER BY total DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopClient
	for rows.Next() {
		var t TopClient
		if err := rows.Scan(&t.Client.ID, &t.Client.Name, &t.Client.Lastname, &t.Client.Company,
			&t.Client.Email, &t.Client.Phone, &t.Client.SellerID, &t.Client.CreatedAt,
			&t.TotalCents); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *ReportRepo) TopSellers(ctx context.Context, limit int) ([]TopSeller, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT u.id, u.name, u.lastname, u.email, SUM(o.total_cents) AS total
		FROM orders o
		JOIN users u ON u.id = o.seller_id
		WHERE o.status = 'DONE'
		GROUP BY u.id, u.name, u.lastname, u.email
		ORDER BY total DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopSeller
	for rows.Next() {
		var t TopSeller
		if err := rows.Scan(&t.SellerID, &t.Name, &t.Lastname, &t.Email, &t.TotalCents); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
