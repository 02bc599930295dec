package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const invoiceColumns = `id, order_id, invoice_number, customer_name, event_name, total_amount, issued_at`

func scanInvoice(row interface{ Scan(dest ...any) error }) (Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID,
		&inv.OrderID,
		&inv.InvoiceNumber,
		&inv.CustomerName,
		&inv.EventName,
		&inv.TotalAmount,
		&inv.IssuedAt,
	)
	return inv, err
}

const listInvoices = `
SELECT ` + invoiceColumns + `
FROM invoices
ORDER BY issued_at DESC
`

func (q *Queries) ListInvoices(ctx context.Context) ([]Invoice, error) {
	rows, err := q.db.Query(ctx, listInvoices)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

const getInvoice = `
SELECT ` + invoiceColumns + `
FROM invoices
WHERE id = $1
`

func (q *Queries) GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error) {
	return scanInvoice(q.db.QueryRow(ctx, getInvoice, id))
}

const getInvoiceByOrder = `
SELECT ` + invoiceColumns + `
FROM invoices
WHERE order_id = $1
`

func (q *Queries) GetInvoiceByOrder(ctx context.Context, orderID uuid.UUID) (Invoice, error) {
	return scanInvoice(q.db.QueryRow(ctx, getInvoiceByOrder, orderID))
}

const getNextInvoiceSequence = `
SELECT count(*) + 1
FROM invoices
WHERE date_part('year', issued_at) = date_part('year', now())
`

// GetNextInvoiceSequence returns the next per-year invoice sequence number.
// Callers run it directly on the pool, not in a transaction with
// CreateInvoice; the unique constraints on order_id and invoice_number turn
// the rare concurrent clash into an insert error handled at the call site.
func (q *Queries) GetNextInvoiceSequence(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, getNextInvoiceSequence).Scan(&n)
	return n, err
}

const createInvoice = `
INSERT INTO invoices (order_id, invoice_number, customer_name, event_name, total_amount)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + invoiceColumns + `
`

type CreateInvoiceParams struct {
	OrderID       uuid.UUID
	InvoiceNumber string
	CustomerName  string
	EventName     string
	TotalAmount   pgtype.Numeric
}

func (q *Queries) CreateInvoice(ctx context.Context, arg CreateInvoiceParams) (Invoice, error) {
	return scanInvoice(q.db.QueryRow(ctx, createInvoice,
		arg.OrderID, arg.InvoiceNumber, arg.CustomerName, arg.EventName, arg.TotalAmount))
}
