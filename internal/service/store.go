package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/nisarga-catering/api/internal/database"
)

// TxBeginner starts a new database transaction. Satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order service needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	IncrementCustomerOrders(ctx context.Context, id uuid.UUID) error
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error)
}

// QuotationStore defines the DB methods the quotation service needs.
type QuotationStore interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	IncrementCustomerOrders(ctx context.Context, id uuid.UUID) error
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetQuotation(ctx context.Context, id uuid.UUID) (database.Quotation, error)
	CreateQuotation(ctx context.Context, arg database.CreateQuotationParams) (database.Quotation, error)
	UpdateQuotation(ctx context.Context, arg database.UpdateQuotationParams) (database.Quotation, error)
	MarkQuotationOrdered(ctx context.Context, id uuid.UUID) (int64, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// NewQuotationStore creates a QuotationStore from a DBTX (pool or tx).
type NewQuotationStore func(db database.DBTX) QuotationStore

// --- pgtype conversion helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
