package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type User struct {
	ID             uuid.UUID
	FullName       string
	Email          string
	HashedPassword string
	Role           string
	CreatedAt      time.Time
}

type Customer struct {
	ID          uuid.UUID
	Name        string
	Phone       string
	Email       pgtype.Text
	Address     pgtype.Text
	TotalOrders int32
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type MenuItem struct {
	ID        uuid.UUID
	Name      string
	Category  string
	Price     pgtype.Numeric
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem is a line item embedded in an order or quotation row as JSONB.
// Name and Price are copied from the menu at add time, so menu edits and
// deletions never touch historical records.
type OrderItem struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int32           `json:"quantity"`
}

type Order struct {
	ID                 uuid.UUID
	CustomerID         pgtype.UUID
	CustomerName       string
	EventName          string
	EventDate          pgtype.Date
	Status             string
	CancellationReason pgtype.Text
	OrderType          string
	Items              []OrderItem
	PerPlatePrice      pgtype.Numeric
	NumberOfPlates     pgtype.Int4
	TotalAmount        pgtype.Numeric
	CreatedAt          time.Time
	LastUpdated        time.Time
}

type Quotation struct {
	ID                 uuid.UUID
	CustomerID         pgtype.UUID
	CustomerName       string
	EventName          string
	EventDate          pgtype.Date
	Status             string
	CancellationReason pgtype.Text
	OrderType          string
	Items              []OrderItem
	PerPlatePrice      pgtype.Numeric
	NumberOfPlates     pgtype.Int4
	TotalAmount        pgtype.Numeric
	CreatedAt          time.Time
	LastUpdated        time.Time
}

type Invoice struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	InvoiceNumber string
	CustomerName  string
	EventName     string
	TotalAmount   pgtype.Numeric
	IssuedAt      time.Time
}

// marshalItems serializes line items for a JSONB column. A nil slice is
// stored as an empty array, never as SQL NULL.
func marshalItems(items []OrderItem) ([]byte, error) {
	if items == nil {
		items = []OrderItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	return b, nil
}

func unmarshalItems(b []byte) ([]OrderItem, error) {
	if len(b) == 0 {
		return []OrderItem{}, nil
	}
	var items []OrderItem
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	return items, nil
}
