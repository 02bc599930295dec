package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const quotationColumns = `id, customer_id, customer_name, event_name, event_date, status,
	cancellation_reason, order_type, items, per_plate_price, number_of_plates,
	total_amount, created_at, last_updated`

func scanQuotation(row interface{ Scan(dest ...any) error }) (Quotation, error) {
	var qt Quotation
	var itemsJSON []byte
	err := row.Scan(
		&qt.ID,
		&qt.CustomerID,
		&qt.CustomerName,
		&qt.EventName,
		&qt.EventDate,
		&qt.Status,
		&qt.CancellationReason,
		&qt.OrderType,
		&itemsJSON,
		&qt.PerPlatePrice,
		&qt.NumberOfPlates,
		&qt.TotalAmount,
		&qt.CreatedAt,
		&qt.LastUpdated,
	)
	if err != nil {
		return Quotation{}, err
	}
	qt.Items, err = unmarshalItems(itemsJSON)
	return qt, err
}

const listQuotations = `
SELECT ` + quotationColumns + `
FROM quotations
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::text IS NULL OR customer_name ILIKE '%' || $2 || '%' OR event_name ILIKE '%' || $2 || '%')
ORDER BY created_at DESC
`

type ListQuotationsParams struct {
	Status pgtype.Text
	Search pgtype.Text
}

func (q *Queries) ListQuotations(ctx context.Context, arg ListQuotationsParams) ([]Quotation, error) {
	rows, err := q.db.Query(ctx, listQuotations, arg.Status, arg.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotations []Quotation
	for rows.Next() {
		qt, err := scanQuotation(rows)
		if err != nil {
			return nil, err
		}
		quotations = append(quotations, qt)
	}
	return quotations, rows.Err()
}

const getQuotation = `
SELECT ` + quotationColumns + `
FROM quotations
WHERE id = $1
`

func (q *Queries) GetQuotation(ctx context.Context, id uuid.UUID) (Quotation, error) {
	return scanQuotation(q.db.QueryRow(ctx, getQuotation, id))
}

const createQuotation = `
INSERT INTO quotations (customer_id, customer_name, event_name, event_date, status,
	order_type, items, per_plate_price, number_of_plates, total_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + quotationColumns + `
`

type CreateQuotationParams struct {
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

func (q *Queries) CreateQuotation(ctx context.Context, arg CreateQuotationParams) (Quotation, error) {
	itemsJSON, err := marshalItems(arg.Items)
	if err != nil {
		return Quotation{}, err
	}
	return scanQuotation(q.db.QueryRow(ctx, createQuotation,
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

const updateQuotation = `
UPDATE quotations
SET event_name = $2,
	event_date = $3,
	status = $4,
	order_type = $5,
	items = $6,
	per_plate_price = $7,
	number_of_plates = $8,
	total_amount = $9,
	last_updated = now()
WHERE id = $1
RETURNING ` + quotationColumns + `
`

type UpdateQuotationParams struct {
	ID             uuid.UUID
	EventName      string
	EventDate      pgtype.Date
	Status         string
	OrderType      string
	Items          []OrderItem
	PerPlatePrice  pgtype.Numeric
	NumberOfPlates pgtype.Int4
	TotalAmount    pgtype.Numeric
}

func (q *Queries) UpdateQuotation(ctx context.Context, arg UpdateQuotationParams) (Quotation, error) {
	itemsJSON, err := marshalItems(arg.Items)
	if err != nil {
		return Quotation{}, err
	}
	return scanQuotation(q.db.QueryRow(ctx, updateQuotation,
		arg.ID,
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

// markQuotationOrdered flips an ACCEPTED quotation to ORDERED. The status
// condition makes the flip a compare-and-set: a concurrent second conversion
// matches zero rows and fails before any order is written.
const markQuotationOrdered = `
UPDATE quotations
SET status = 'ORDERED', last_updated = now()
WHERE id = $1 AND status = 'ACCEPTED'
`

func (q *Queries) MarkQuotationOrdered(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, markQuotationOrdered, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
