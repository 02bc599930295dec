package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/nisarga-catering/api/internal/database"
	"github.com/nisarga-catering/api/internal/enum"
	"github.com/nisarga-catering/api/internal/pricing"
	"github.com/nisarga-catering/api/internal/status"
)

// ErrNotAccepted is returned when converting a quotation that is not in
// ACCEPTED state. A repeated conversion hits this too: the first one moved
// the quotation to ORDERED.
var ErrNotAccepted = errors.New("quotation is not in ACCEPTED state")

// CreateQuotationRequest is the validated input for creating a quotation.
// New quotations always start as DRAFT.
type CreateQuotationRequest struct {
	CustomerID     string
	CustomerName   string
	EventName      string
	EventDate      pgtype.Date
	OrderType      string
	Items          []LineItemRequest
	PerPlatePrice  string
	NumberOfPlates int32
}

// UpdateQuotationRequest is the validated input for a quotation update.
type UpdateQuotationRequest struct {
	ID             uuid.UUID
	EventName      string
	EventDate      pgtype.Date
	Status         string
	OrderType      string
	Items          []LineItemRequest
	PerPlatePrice  string
	NumberOfPlates int32
}

// QuotationService handles quotation business logic, including conversion
// into orders.
type QuotationService struct {
	pool     TxBeginner
	newStore NewQuotationStore
}

// NewQuotationService creates a new QuotationService.
func NewQuotationService(pool TxBeginner, newStore NewQuotationStore) *QuotationService {
	return &QuotationService{pool: pool, newStore: newStore}
}

// CreateQuotation validates, prices, and inserts a DRAFT quotation.
func (s *QuotationService) CreateQuotation(ctx context.Context, req CreateQuotationRequest) (database.Quotation, error) {
	orderType, err := validateOrderType(req.OrderType)
	if err != nil {
		return database.Quotation{}, err
	}
	if req.EventName == "" {
		return database.Quotation{}, ErrEventNameRequired
	}
	if !req.EventDate.Valid {
		return database.Quotation{}, ErrEventDateRequired
	}

	perPlatePrice, err := parsePlatePrice(req.PerPlatePrice)
	if err != nil {
		return database.Quotation{}, err
	}
	if req.NumberOfPlates < 0 {
		return database.Quotation{}, ErrInvalidPlateCount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Quotation{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	customerID, customerName, err := resolveCustomer(ctx, store, req.CustomerID, req.CustomerName)
	if err != nil {
		return database.Quotation{}, err
	}

	items, err := snapshotItems(ctx, store, req.Items, nil)
	if err != nil {
		return database.Quotation{}, err
	}

	summary := pricing.Calculate(orderType, items, perPlatePrice, req.NumberOfPlates)
	platePrice, plateCount := plateFields(orderType, perPlatePrice, req.NumberOfPlates)

	quotation, err := store.CreateQuotation(ctx, database.CreateQuotationParams{
		CustomerID:     customerID,
		CustomerName:   customerName,
		EventName:      req.EventName,
		EventDate:      req.EventDate,
		Status:         enum.QuotationStatusDraft,
		OrderType:      orderType,
		Items:          items,
		PerPlatePrice:  platePrice,
		NumberOfPlates: plateCount,
		TotalAmount:    decimalToNumeric(summary.TotalAmount),
	})
	if err != nil {
		return database.Quotation{}, fmt.Errorf("create quotation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Quotation{}, fmt.Errorf("commit tx: %w", err)
	}
	return quotation, nil
}

// UpdateQuotation applies a partial update. Direct status edits go through
// the quotation transition table, which never admits ORDERED.
func (s *QuotationService) UpdateQuotation(ctx context.Context, req UpdateQuotationRequest) (database.Quotation, error) {
	orderType, err := validateOrderType(req.OrderType)
	if err != nil {
		return database.Quotation{}, err
	}
	if req.EventName == "" {
		return database.Quotation{}, ErrEventNameRequired
	}
	if !req.EventDate.Valid {
		return database.Quotation{}, ErrEventDateRequired
	}

	perPlatePrice, err := parsePlatePrice(req.PerPlatePrice)
	if err != nil {
		return database.Quotation{}, err
	}
	if req.NumberOfPlates < 0 {
		return database.Quotation{}, ErrInvalidPlateCount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Quotation{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetQuotation(ctx, req.ID)
	if err != nil {
		return database.Quotation{}, err
	}

	if err := status.ValidateQuotationTransition(current.Status, req.Status); err != nil {
		return database.Quotation{}, err
	}

	items, err := snapshotItems(ctx, store, req.Items, current.Items)
	if err != nil {
		return database.Quotation{}, err
	}

	summary := pricing.Calculate(orderType, items, perPlatePrice, req.NumberOfPlates)
	platePrice, plateCount := plateFields(orderType, perPlatePrice, req.NumberOfPlates)

	quotation, err := store.UpdateQuotation(ctx, database.UpdateQuotationParams{
		ID:             req.ID,
		EventName:      req.EventName,
		EventDate:      req.EventDate,
		Status:         req.Status,
		OrderType:      orderType,
		Items:          items,
		PerPlatePrice:  platePrice,
		NumberOfPlates: plateCount,
		TotalAmount:    decimalToNumeric(summary.TotalAmount),
	})
	if err != nil {
		return database.Quotation{}, fmt.Errorf("update quotation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Quotation{}, fmt.Errorf("commit tx: %w", err)
	}
	return quotation, nil
}

// ConvertToOrder turns an ACCEPTED quotation into a CONFIRMED order.
//
// Both writes happen in one transaction: the quotation is flipped to ORDERED
// through a compare-and-set on its status, then the order is inserted with
// the quotation's fields and fresh timestamps. A concurrent second
// conversion loses the compare-and-set and fails with ErrNotAccepted before
// any order is written, so exactly one order can ever come out of a
// quotation.
func (s *QuotationService) ConvertToOrder(ctx context.Context, quotationID uuid.UUID) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	quotation, err := store.GetQuotation(ctx, quotationID)
	if err != nil {
		return database.Order{}, err
	}
	if quotation.Status != enum.QuotationStatusAccepted {
		return database.Order{}, ErrNotAccepted
	}

	affected, err := store.MarkQuotationOrdered(ctx, quotationID)
	if err != nil {
		return database.Order{}, fmt.Errorf("mark quotation ordered: %w", err)
	}
	if affected == 0 {
		// Lost a race with another conversion.
		return database.Order{}, ErrNotAccepted
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		CustomerID:     quotation.CustomerID,
		CustomerName:   quotation.CustomerName,
		EventName:      quotation.EventName,
		EventDate:      quotation.EventDate,
		Status:         enum.OrderStatusConfirmed,
		OrderType:      quotation.OrderType,
		Items:          quotation.Items,
		PerPlatePrice:  quotation.PerPlatePrice,
		NumberOfPlates: quotation.NumberOfPlates,
		TotalAmount:    quotation.TotalAmount,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("create order from quotation: %w", err)
	}

	if quotation.CustomerID.Valid {
		if err := store.IncrementCustomerOrders(ctx, uuid.UUID(quotation.CustomerID.Bytes)); err != nil {
			return database.Order{}, fmt.Errorf("increment customer orders: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}
