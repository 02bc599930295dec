package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, customer_id, customer_name, event_name, event_date, status,
	cancellation_reason, order_type, items, per_plate_price, number_of_plates,
	total_amount, created_at, last_updated`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	var itemsJSON []byte
	err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.CustomerName,
		&o.EventName,
		&o.EventDate,
		&o.Status,
		&o.CancellationReason,
		&o.OrderType,
		&itemsJSON,
		&o.PerPlatePrice,
		&o.NumberOfPlates,
		&o.TotalAmount,
		&o.CreatedAt,
		&o.LastUpdated,
	)
	if err != nil {
		return Order{}, err
	}
	o.Items, err = unmarshalItems(itemsJSON)
	return o, err
}

const listOrders = `
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::text IS NULL OR customer_name ILIKE '%' || $2 || '%' OR event_name ILIKE '%' || $2 || '%')
ORDER BY created_at DESC
`

type ListOrdersParams struct {
	Status pgtype.Text
	Search pgtype.Text
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.Status, arg.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const createOrder = `
INSERT INTO orders (customer_id, customer_name, event_name, event_date, status,
	order_type, items, per_plate_price, number_of_plates, total_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + orderColumns + `
`

type CreateOrderParams struct {
	CustomerID     pgtype.UUID
	CustomerName   string
	EventName      string
	EventDate      pgtype.Date
	Status         string
	OrderType      string
	Items          []OrderItem
	PerPlatePrice  pgtype.Numeric
	NumberOfPlates pgtype.Int4
	TotalAmount    pgtype.Numeric
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	itemsJSON, err := marshalItems(arg.Items)
	if err != nil {
		return Order{}, err
	}
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.CustomerID,
		arg.CustomerName,
		arg.EventName,
		arg.EventDate,
		arg.Status,
		arg.OrderType,
		itemsJSON,
		arg.PerPlatePrice,
		arg.NumberOfPlates,
		arg.TotalAmount,
	))
}

// updateOrder writes every mutable column. Absent optional values bind as
// NULL so the stored record is explicitly cleared, never silently left stale.
const updateOrder = `
UPDATE orders
SET event_name = $2,
	event_date = $3,
	status = $4,
	cancellation_reason = $5,
	order_type = $6,
	items = $7,
	per_plate_price = $8,
	number_of_plates = $9,
	total_amount = $10,
	last_updated = now()
WHERE id = $1
RETURNING ` + orderColumns + `
`

type UpdateOrderParams struct {
	ID                 uuid.UUID
	EventName          string
	EventDate          pgtype.Date
	Status             string
	CancellationReason pgtype.Text
	OrderType          string
	Items              []OrderItem
	PerPlatePrice      pgtype.Numeric
	NumberOfPlates     pgtype.Int4
	TotalAmount        pgtype.Numeric
}

func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error) {
	itemsJSON, err := marshalItems(arg.Items)
	if err != nil {
		return Order{}, err
	}
	return scanOrder(q.db.QueryRow(ctx, updateOrder,
		arg.ID,
		arg.EventName,
		arg.EventDate,
		arg.Status,
		arg.CancellationReason,
		arg.OrderType,
		itemsJSON,
		arg.PerPlatePrice,
		arg.NumberOfPlates,
		arg.TotalAmount,
	))
}
