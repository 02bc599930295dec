package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/nisarga-catering/api/internal/database"
	"github.com/nisarga-catering/api/internal/service"
	"github.com/nisarga-catering/api/internal/status"
	"github.com/nisarga-catering/api/internal/ws"
)

// Broadcaster pushes events to the live dashboard feed. Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(event ws.Event)
}

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (database.Order, error)
	UpdateOrder(ctx context.Context, req service.UpdateOrderRequest) (database.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID, reason string) (database.Order, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	feed  Broadcaster
}

// NewOrderHandler creates a new OrderHandler. feed may be nil.
func NewOrderHandler(svc OrderServicer, store OrderStore, feed Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, feed: feed}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Post("/cancel", h.Cancel)
	})
}

// --- Request / Response types ---

type lineItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
}

type createOrderRequest struct {
	CustomerID     string            `json:"customer_id"`
	CustomerName   string            `json:"customer_name"`
	EventName      string            `json:"event_name"`
	EventDate      EventDate         `json:"event_date"`
	OrderType      string            `json:"order_type"`
	Items          []lineItemRequest `json:"items"`
	PerPlatePrice  string            `json:"per_plate_price"`
	NumberOfPlates int32             `json:"number_of_plates"`
}

type updateOrderRequest struct {
	EventName          string            `json:"event_name"`
	EventDate          EventDate         `json:"event_date"`
	Status             string            `json:"status"`
	CancellationReason string            `json:"cancellation_reason"`
	OrderType          string            `json:"order_type"`
	Items              []lineItemRequest `json:"items"`
	PerPlatePrice      string            `json:"per_plate_price"`
	NumberOfPlates     int32             `json:"number_of_plates"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type lineItemResponse struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	Quantity   int32  `json:"quantity"`
}

type orderResponse struct {
	ID                 uuid.UUID          `json:"id"`
	CustomerID         *string            `json:"customer_id"`
	CustomerName       string             `json:"customer_name"`
	EventName          string             `json:"event_name"`
	EventDate          string             `json:"event_date"`
	Status             string             `json:"status"`
	CancellationReason *string            `json:"cancellation_reason"`
	OrderType          string             `json:"order_type"`
	Items              []lineItemResponse `json:"items"`
	PerPlatePrice      *string            `json:"per_plate_price"`
	NumberOfPlates     *int32             `json:"number_of_plates"`
	TotalItems         int                `json:"total_items"`
	TotalQuantity      int32              `json:"total_quantity"`
	TotalAmount        string             `json:"total_amount"`
	CreatedAt          time.Time          `json:"created_at"`
	LastUpdated        time.Time          `json:"last_updated"`
}

func toLineItemResponses(items []database.OrderItem) []lineItemResponse {
	resp := make([]lineItemResponse, len(items))
	for i, item := range items {
		resp[i] = lineItemResponse{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Price:      item.Price.StringFixed(2),
			Quantity:   item.Quantity,
		}
	}
	return resp
}

func dbOrderToResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:           o.ID,
		CustomerName: o.CustomerName,
		EventName:    o.EventName,
		EventDate:    formatDate(o.EventDate),
		Status:       o.Status,
		OrderType:    o.OrderType,
		Items:        toLineItemResponses(o.Items),
		TotalAmount:  numericToString(o.TotalAmount),
		CreatedAt:    o.CreatedAt,
		LastUpdated:  o.LastUpdated,
	}

	if o.CustomerID.Valid {
		s := uuid.UUID(o.CustomerID.Bytes).String()
		resp.CustomerID = &s
	}
	if o.CancellationReason.Valid {
		resp.CancellationReason = &o.CancellationReason.String
	}
	if o.PerPlatePrice.Valid {
		s := numericToString(o.PerPlatePrice)
		resp.PerPlatePrice = &s
	}
	if o.NumberOfPlates.Valid {
		n := o.NumberOfPlates.Int32
		resp.NumberOfPlates = &n
	}

	resp.TotalItems = len(o.Items)
	for _, item := range o.Items {
		resp.TotalQuantity += item.Quantity
	}

	return resp
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		CustomerID:     req.CustomerID,
		CustomerName:   req.CustomerName,
		EventName:      req.EventName,
		EventDate:      req.EventDate.PgDate(),
		OrderType:      req.OrderType,
		Items:          toServiceItems(req.Items),
		PerPlatePrice:  req.PerPlatePrice,
		NumberOfPlates: req.NumberOfPlates,
	})
	if err != nil {
		if isOrderValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbOrderToResponse(order)
	h.publish(ws.EventOrderCreated, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /orders. Results come back grouped by status in lifecycle
// order, newest first within each group.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var statusFilter pgtype.Text
	if s := r.URL.Query().Get("status"); s != "" {
		if !status.IsValidOrderStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		statusFilter = pgtype.Text{String: s, Valid: true}
	}

	var search pgtype.Text
	if s := r.URL.Query().Get("search"); s != "" {
		search = pgtype.Text{String: s, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), database.ListOrdersParams{
		Status: statusFilter,
		Search: search,
	})
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	sort.SliceStable(orders, func(i, j int) bool {
		ri, rj := status.OrderSortRank(orders[i].Status), status.OrderSortRank(orders[j].Status)
		if ri != rj {
			return ri < rj
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbOrderToResponse(order))
}

// Update handles PUT /orders/{id}. The item list replaces the stored one and
// the total is recomputed server-side.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.UpdateOrder(r.Context(), service.UpdateOrderRequest{
		ID:                 orderID,
		EventName:          req.EventName,
		EventDate:          req.EventDate.PgDate(),
		Status:             req.Status,
		CancellationReason: req.CancellationReason,
		OrderType:          req.OrderType,
		Items:              toServiceItems(req.Items),
		PerPlatePrice:      req.PerPlatePrice,
		NumberOfPlates:     req.NumberOfPlates,
	})
	if err != nil {
		h.writeOrderUpdateError(w, err)
		return
	}

	resp := dbOrderToResponse(order)
	h.publish(ws.EventOrderUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// Cancel handles POST /orders/{id}/cancel. The reason is mandatory and is
// stored together with the status flip.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.CancelOrder(r.Context(), orderID, req.Reason)
	if err != nil {
		h.writeOrderUpdateError(w, err)
		return
	}

	resp := dbOrderToResponse(order)
	h.publish(ws.EventOrderUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func toServiceItems(items []lineItemRequest) []service.LineItemRequest {
	svcItems := make([]service.LineItemRequest, len(items))
	for i, item := range items {
		svcItems[i] = service.LineItemRequest{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
		}
	}
	return svcItems
}

func (h *OrderHandler) writeOrderUpdateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	case isOrderValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: update order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// isOrderValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isOrderValidationError(err error) bool {
	return errors.Is(err, service.ErrInvalidOrderType) ||
		errors.Is(err, service.ErrCustomerNameRequired) ||
		errors.Is(err, service.ErrEventNameRequired) ||
		errors.Is(err, service.ErrEventDateRequired) ||
		errors.Is(err, service.ErrInvalidCustomerID) ||
		errors.Is(err, service.ErrCustomerNotFound) ||
		errors.Is(err, service.ErrInvalidMenuItemID) ||
		errors.Is(err, service.ErrMenuItemNotFound) ||
		errors.Is(err, service.ErrInvalidPlatePrice) ||
		errors.Is(err, service.ErrInvalidPlateCount) ||
		errors.Is(err, service.ErrCancelReasonRequired) ||
		errors.Is(err, status.ErrUnknownStatus)
}

// publish pushes an event to the live feed, if one is attached.
func (h *OrderHandler) publish(eventType string, v interface{}) {
	if h.feed == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("ERROR: marshal %s event: %v", eventType, err)
		return
	}
	h.feed.Broadcast(ws.Event{Type: eventType, Payload: payload})
}
