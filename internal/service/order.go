package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/nisarga-catering/api/internal/database"
	"github.com/nisarga-catering/api/internal/enum"
	"github.com/nisarga-catering/api/internal/pricing"
	"github.com/nisarga-catering/api/internal/status"
)

// Errors returned by the order and quotation services.
var (
	ErrInvalidOrderType     = errors.New("invalid order_type")
	ErrCustomerNameRequired = errors.New("customer_name is required")
	ErrEventNameRequired    = errors.New("event_name is required")
	ErrEventDateRequired    = errors.New("event_date is required")
	ErrInvalidCustomerID    = errors.New("invalid customer_id")
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrInvalidMenuItemID    = errors.New("invalid menu_item_id")
	ErrMenuItemNotFound     = errors.New("menu item not found")
	ErrInvalidPlatePrice    = errors.New("invalid per_plate_price")
	ErrInvalidPlateCount    = errors.New("invalid number_of_plates")
	ErrCancelReasonRequired = errors.New("cancellation reason is required")
)

// LineItemRequest references a catalog entry and the quantity wanted.
// Quantity zero removes the line.
type LineItemRequest struct {
	MenuItemID string
	Quantity   int32
}

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	CustomerID     string // optional; when set, the customer's name is copied
	CustomerName   string // used when no customer_id is given
	EventName      string
	EventDate      pgtype.Date
	OrderType      string
	Items          []LineItemRequest
	PerPlatePrice  string // decimal string, PLATE orders only
	NumberOfPlates int32
}

// UpdateOrderRequest is the validated input for a partial order update.
// The item list replaces the stored one; totals are recomputed on every call.
type UpdateOrderRequest struct {
	ID                 uuid.UUID
	EventName          string
	EventDate          pgtype.Date
	Status             string
	CancellationReason string // required when moving into CANCELLED
	OrderType          string
	Items              []LineItemRequest
	PerPlatePrice      string
	NumberOfPlates     int32
}

// OrderService handles order business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// CreateOrder validates the request, snapshots menu prices into the line
// items, computes the total, and inserts the order. When a customer id is
// attached the customer's cached order counter is bumped in the same
// transaction.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (database.Order, error) {
	orderType, err := validateOrderType(req.OrderType)
	if err != nil {
		return database.Order{}, err
	}
	if req.EventName == "" {
		return database.Order{}, ErrEventNameRequired
	}
	if !req.EventDate.Valid {
		return database.Order{}, ErrEventDateRequired
	}

	perPlatePrice, err := parsePlatePrice(req.PerPlatePrice)
	if err != nil {
		return database.Order{}, err
	}
	if req.NumberOfPlates < 0 {
		return database.Order{}, ErrInvalidPlateCount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	customerID, customerName, err := resolveCustomer(ctx, store, req.CustomerID, req.CustomerName)
	if err != nil {
		return database.Order{}, err
	}

	items, err := snapshotItems(ctx, store, req.Items, nil)
	if err != nil {
		return database.Order{}, err
	}

	summary := pricing.Calculate(orderType, items, perPlatePrice, req.NumberOfPlates)
	platePrice, plateCount := plateFields(orderType, perPlatePrice, req.NumberOfPlates)

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		CustomerID:     customerID,
		CustomerName:   customerName,
		EventName:      req.EventName,
		EventDate:      req.EventDate,
		Status:         enum.OrderStatusPending,
		OrderType:      orderType,
		Items:          items,
		PerPlatePrice:  platePrice,
		NumberOfPlates: plateCount,
		TotalAmount:    decimalToNumeric(summary.TotalAmount),
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("create order: %w", err)
	}

	if customerID.Valid {
		if err := store.IncrementCustomerOrders(ctx, uuid.UUID(customerID.Bytes)); err != nil {
			return database.Order{}, fmt.Errorf("increment customer orders: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

// UpdateOrder applies a partial update. Status moves are checked against the
// transition table; a move into CANCELLED must carry a reason and is applied
// together with it, a move out of CANCELLED clears the stored reason. On any
// validation failure nothing is written.
func (s *OrderService) UpdateOrder(ctx context.Context, req UpdateOrderRequest) (database.Order, error) {
	orderType, err := validateOrderType(req.OrderType)
	if err != nil {
		return database.Order{}, err
	}
	if req.EventName == "" {
		return database.Order{}, ErrEventNameRequired
	}
	if !req.EventDate.Valid {
		return database.Order{}, ErrEventDateRequired
	}

	perPlatePrice, err := parsePlatePrice(req.PerPlatePrice)
	if err != nil {
		return database.Order{}, err
	}
	if req.NumberOfPlates < 0 {
		return database.Order{}, ErrInvalidPlateCount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetOrder(ctx, req.ID)
	if err != nil {
		return database.Order{}, err
	}

	if err := status.ValidateOrderTransition(current.Status, req.Status); err != nil {
		return database.Order{}, err
	}

	reason := current.CancellationReason
	if status.RequiresCancellationReason(current.Status, req.Status) {
		trimmed := strings.TrimSpace(req.CancellationReason)
		if trimmed == "" {
			return database.Order{}, ErrCancelReasonRequired
		}
		reason = pgtype.Text{String: trimmed, Valid: true}
	}
	if status.ClearsCancellationReason(current.Status, req.Status) {
		reason = pgtype.Text{}
	}

	items, err := snapshotItems(ctx, store, req.Items, current.Items)
	if err != nil {
		return database.Order{}, err
	}

	summary := pricing.Calculate(orderType, items, perPlatePrice, req.NumberOfPlates)
	platePrice, plateCount := plateFields(orderType, perPlatePrice, req.NumberOfPlates)

	order, err := store.UpdateOrder(ctx, database.UpdateOrderParams{
		ID:                 req.ID,
		EventName:          req.EventName,
		EventDate:          req.EventDate,
		Status:             req.Status,
		CancellationReason: reason,
		OrderType:          orderType,
		Items:              items,
		PerPlatePrice:      platePrice,
		NumberOfPlates:     plateCount,
		TotalAmount:        decimalToNumeric(summary.TotalAmount),
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("update order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

// CancelOrder moves an order into CANCELLED with the given reason, keeping
// every other field as stored. The reason is mandatory.
func (s *OrderService) CancelOrder(ctx context.Context, id uuid.UUID, reason string) (database.Order, error) {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return database.Order{}, ErrCancelReasonRequired
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetOrder(ctx, id)
	if err != nil {
		return database.Order{}, err
	}

	if err := status.ValidateOrderTransition(current.Status, enum.OrderStatusCancelled); err != nil {
		return database.Order{}, err
	}

	order, err := store.UpdateOrder(ctx, database.UpdateOrderParams{
		ID:                 id,
		EventName:          current.EventName,
		EventDate:          current.EventDate,
		Status:             enum.OrderStatusCancelled,
		CancellationReason: pgtype.Text{String: trimmed, Valid: true},
		OrderType:          current.OrderType,
		Items:              current.Items,
		PerPlatePrice:      current.PerPlatePrice,
		NumberOfPlates:     current.NumberOfPlates,
		TotalAmount:        current.TotalAmount,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("cancel order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

// --- Shared helpers ---

func validateOrderType(s string) (string, error) {
	switch s {
	case enum.OrderTypeIndividual, enum.OrderTypePlate:
		return s, nil
	}
	return "", ErrInvalidOrderType
}

func parsePlatePrice(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, ErrInvalidPlatePrice
	}
	return d, nil
}

// plateFields returns the stored plate columns. For INDIVIDUAL orders both
// come back invalid so the UPDATE explicitly nulls them out.
func plateFields(orderType string, perPlatePrice decimal.Decimal, plates int32) (pgtype.Numeric, pgtype.Int4) {
	if orderType != enum.OrderTypePlate {
		return pgtype.Numeric{}, pgtype.Int4{}
	}
	return decimalToNumeric(perPlatePrice), pgtype.Int4{Int32: plates, Valid: true}
}

type menuLookup interface {
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
}

// snapshotItems builds the stored line items for a request. Lines already on
// the record keep their captured name and price; new lines copy the current
// menu values at add time. Zero-quantity lines are dropped, never stored.
func snapshotItems(ctx context.Context, store menuLookup, reqItems []LineItemRequest, existing []database.OrderItem) ([]database.OrderItem, error) {
	captured := make(map[string]database.OrderItem, len(existing))
	for _, item := range existing {
		captured[item.MenuItemID] = item
	}

	items := make([]database.OrderItem, 0, len(reqItems))
	for i, req := range reqItems {
		if req.Quantity <= 0 {
			continue
		}
		if prev, ok := captured[req.MenuItemID]; ok {
			prev.Quantity = req.Quantity
			items = append(items, prev)
			continue
		}

		menuID, err := uuid.Parse(req.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidMenuItemID)
		}
		menuItem, err := store.GetMenuItem(ctx, menuID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get menu item: %w", i, err)
		}
		items = append(items, database.OrderItem{
			MenuItemID: menuItem.ID.String(),
			Name:       menuItem.Name,
			Price:      numericToDecimal(menuItem.Price),
			Quantity:   req.Quantity,
		})
	}
	return items, nil
}

type customerLookup interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
}

// resolveCustomer links the record to a stored customer when an id is given,
// copying the customer's name; otherwise the free-text name is used as-is.
func resolveCustomer(ctx context.Context, store customerLookup, customerID, customerName string) (pgtype.UUID, string, error) {
	if customerID == "" {
		if customerName == "" {
			return pgtype.UUID{}, "", ErrCustomerNameRequired
		}
		return pgtype.UUID{}, customerName, nil
	}

	cid, err := uuid.Parse(customerID)
	if err != nil {
		return pgtype.UUID{}, "", ErrInvalidCustomerID
	}
	customer, err := store.GetCustomer(ctx, cid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgtype.UUID{}, "", ErrCustomerNotFound
		}
		return pgtype.UUID{}, "", fmt.Errorf("get customer: %w", err)
	}
	return pgtype.UUID{Bytes: cid, Valid: true}, customer.Name, nil
}
