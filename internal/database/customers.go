package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const customerColumns = `id, name, phone, email, address, total_orders, is_active, created_at, updated_at`

func scanCustomer(row interface{ Scan(dest ...any) error }) (Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Phone,
		&c.Email,
		&c.Address,
		&c.TotalOrders,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

const listCustomers = `
SELECT ` + customerColumns + `
FROM customers
WHERE is_active = true
  AND ($1::text IS NULL OR name ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%')
ORDER BY name
LIMIT $2 OFFSET $3
`

type ListCustomersParams struct {
	Search pgtype.Text
	Limit  int32
	Offset int32
}

func (q *Queries) ListCustomers(ctx context.Context, arg ListCustomersParams) ([]Customer, error) {
	rows, err := q.db.Query(ctx, listCustomers, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

const getCustomer = `
SELECT ` + customerColumns + `
FROM customers
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, getCustomer, id))
}

const createCustomer = `
INSERT INTO customers (name, phone, email, address)
VALUES ($1, $2, $3, $4)
RETURNING ` + customerColumns + `
`

type CreateCustomerParams struct {
	Name    string
	Phone   string
	Email   pgtype.Text
	Address pgtype.Text
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, createCustomer,
		arg.Name, arg.Phone, arg.Email, arg.Address))
}

const updateCustomer = `
UPDATE customers
SET name = $2, phone = $3, email = $4, address = $5, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING ` + customerColumns + `
`

type UpdateCustomerParams struct {
	ID      uuid.UUID
	Name    string
	Phone   string
	Email   pgtype.Text
	Address pgtype.Text
}

func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, updateCustomer,
		arg.ID, arg.Name, arg.Phone, arg.Email, arg.Address))
}

const softDeleteCustomer = `
UPDATE customers
SET is_active = false, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteCustomer(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, softDeleteCustomer, id).Scan(&deleted)
	return deleted, err
}

const incrementCustomerOrders = `
UPDATE customers
SET total_orders = total_orders + 1, updated_at = now()
WHERE id = $1
`

// IncrementCustomerOrders bumps the cached total_orders counter. Best-effort
// bookkeeping only; nothing reconciles it against the orders table.
func (q *Queries) IncrementCustomerOrders(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, incrementCustomerOrders, id)
	return err
}
