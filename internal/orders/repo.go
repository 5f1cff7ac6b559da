package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductRepo is the pgx-backed inventory store. DecrementStock is the
// conditional-update primitive: precondition and write are one SQL
// statement, so two concurrent orders can never both take the last unit.
type ProductRepo struct{ DB *pgxpool.Pool }

func (r *ProductRepo) GetProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `SELECT id, name, stock, price_cents, created_at, updated_at
	                           FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Stock, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, &NotFoundError{Kind: "product", ID: id}
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = now()
	                           WHERE id=$1 AND stock >= $2`, id, qty)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *ProductRepo) IncrementStock(ctx context.Context, id string, qty int) error {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = now()
	                           WHERE id=$1`, id, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return &NotFoundError{Kind: "product", ID: id}
	}
	return nil
}

func (r *ProductRepo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, stock, price_cents, created_at, updated_at
	                              FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Stock, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductRepo) SearchProducts(ctx context.Context, text string, limit int) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, stock, price_cents, created_at, updated_at
	                              FROM products WHERE name ILIKE '%' || $1 || '%'
	                              ORDER BY name LIMIT $2`, text, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Stock, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductRepo) InsertProduct(ctx context.Context, name string, stock, priceCents int) (Product, error) {
	p := Product{
		ID: uuid.NewString(), Name: name, Stock: stock, PriceCents: priceCents,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	_, err := r.DB.Exec(ctx, `INSERT INTO products(id, name, stock, price_cents, created_at, updated_at)
	                          VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.Name, p.Stock, p.PriceCents, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) UpdateProduct(ctx context.Context, id, name string, stock, priceCents int) (Product, error) {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET name=$2, stock=$3, price_cents=$4, updated_at=now()
	                           WHERE id=$1`, id, name, stock, priceCents)
	if err != nil {
		return Product{}, err
	}
	if ct.RowsAffected() != 1 {
		return Product{}, &NotFoundError{Kind: "product", ID: id}
	}
	return r.GetProduct(ctx, id)
}

func (r *ProductRepo) DeleteProduct(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return &NotFoundError{Kind: "product", ID: id}
	}
	return nil
}

type ClientRepo struct{ DB *pgxpool.Pool }

const clientCols = `id, name, lastname, company, email, phone, seller_id, created_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Lastname, &c.Company, &c.Email, &c.Phone, &c.SellerID, &c.CreatedAt)
	return c, err
}

func (r *ClientRepo) GetClient(ctx context.Context, id string) (Client, error) {
	c, err := scanClient(r.DB.QueryRow(ctx, `SELECT `+clientCols+` FROM clients WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, &NotFoundError{Kind: "client", ID: id}
	}
	if err != nil {
		return Client{}, err
	}
	return c, nil
}

// EmailOrCompanyTaken backs the uniqueness checks on client creation.
func (r *ClientRepo) EmailOrCompanyTaken(ctx context.Context, email, company string) (emailTaken, companyTaken bool, err error) {
	err = r.DB.QueryRow(ctx, `SELECT
	        EXISTS(SELECT 1 FROM clients WHERE email=$1),
	        EXISTS(SELECT 1 FROM clients WHERE company=$2)`, email, company).
		Scan(&emailTaken, &companyTaken)
	return emailTaken, companyTaken, err
}

func (r *ClientRepo) InsertClient(ctx context.Context, c Client) error {
	_, err := r.DB.Exec(ctx, `INSERT INTO clients(`+clientCols+`)
	                          VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.Name, c.Lastname, c.Company, c.Email, c.Phone, c.SellerID, c.CreatedAt)
	return err
}

func (r *ClientRepo) UpdateClient(ctx context.Context, c Client) error {
	ct, err := r.DB.Exec(ctx, `UPDATE clients SET name=$2, lastname=$3, company=$4, email=$5, phone=$6
	                           WHERE id=$1`, c.ID, c.Name, c.Lastname, c.Company, c.Email, c.Phone)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return &NotFoundError{Kind: "client", ID: c.ID}
	}
	return nil
}

func (r *ClientRepo) DeleteClient(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM clients WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return &NotFoundError{Kind: "client", ID: id}
	}
	return nil
}

func (r *ClientRepo) listClients(ctx context.Context, query string, args ...any) ([]Client, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ClientRepo) ListClients(ctx context.Context) ([]Client, error) {
	return r.listClients(ctx, `SELECT `+clientCols+` FROM clients ORDER BY company`)
}

func (r *ClientRepo) ListClientsBySeller(ctx context.Context, sellerID string) ([]Client, error) {
	return r.listClients(ctx, `SELECT `+clientCols+` FROM clients WHERE seller_id=$1 ORDER BY company`, sellerID)
}

type UserRepo struct{ DB *pgxpool.Pool }

func (r *UserRepo) GetUser(ctx context.Context, id string) (User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `SELECT id, name, lastname, email, password_hash, created_at
	                           FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Name, &u.Lastname, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, &NotFoundError{Kind: "user", ID: id}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `SELECT id, name, lastname, email, password_hash, created_at
	                           FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Name, &u.Lastname, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, &NotFoundError{Kind: "user", ID: email}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *UserRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)`, email).Scan(&taken)
	return taken, err
}

func (r *UserRepo) InsertUser(ctx context.Context, u User) error {
	_, err := r.DB.Exec(ctx, `INSERT INTO users(id, name, lastname, email, password_hash, created_at)
	                          VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Name, u.Lastname, u.Email, u.PasswordHash, u.CreatedAt)
	return err
}
