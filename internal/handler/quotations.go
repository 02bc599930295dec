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

// QuotationServicer defines the service methods needed by quotation handlers.
// Satisfied by *service.QuotationService; narrow interface for testability.
type QuotationServicer interface {
	CreateQuotation(ctx context.Context, req service.CreateQuotationRequest) (database.Quotation, error)
	UpdateQuotation(ctx context.Context, req service.UpdateQuotationRequest) (database.Quotation, error)
	ConvertToOrder(ctx context.Context, quotationID uuid.UUID) (database.Order, error)
}

// QuotationStore defines the database methods needed by quotation read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type QuotationStore interface {
	ListQuotations(ctx context.Context, arg database.ListQuotationsParams) ([]database.Quotation, error)
	GetQuotation(ctx context.Context, id uuid.UUID) (database.Quotation, error)
}

// QuotationHandler handles quotation endpoints.
type QuotationHandler struct {
	svc   QuotationServicer
	store QuotationStore
	feed  Broadcaster
}

// NewQuotationHandler creates a new QuotationHandler. feed may be nil.
func NewQuotationHandler(svc QuotationServicer, store QuotationStore, feed Broadcaster) *QuotationHandler {
	return &QuotationHandler{svc: svc, store: store, feed: feed}
}

// RegisterRoutes registers quotation endpoints on the given Chi router.
// Expected to be mounted at /quotations.
func (h *QuotationHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Post("/convert", h.Convert)
	})
}

// --- Request / Response types ---

type createQuotationRequest struct {
	CustomerID     string            `json:"customer_id"`
	CustomerName   string            `json:"customer_name"`
	EventName      string            `json:"event_name"`
	EventDate      EventDate         `json:"event_date"`
	OrderType      string            `json:"order_type"`
	Items          []lineItemRequest `json:"items"`
	PerPlatePrice  string            `json:"per_plate_price"`
	NumberOfPlates int32             `json:"number_of_plates"`
}

type updateQuotationRequest struct {
	EventName      string            `json:"event_name"`
	EventDate      EventDate         `json:"event_date"`
	Status         string            `json:"status"`
	OrderType      string            `json:"order_type"`
	Items          []lineItemRequest `json:"items"`
	PerPlatePrice  string            `json:"per_plate_price"`
	NumberOfPlates int32             `json:"number_of_plates"`
}

type quotationResponse struct {
	ID             uuid.UUID          `json:"id"`
	CustomerID     *string            `json:"customer_id"`
	CustomerName   string             `json:"customer_name"`
	EventName      string             `json:"event_name"`
	EventDate      string             `json:"event_date"`
	Status         string             `json:"status"`
	OrderType      string             `json:"order_type"`
	Items          []lineItemResponse `json:"items"`
	PerPlatePrice  *string            `json:"per_plate_price"`
	NumberOfPlates *int32             `json:"number_of_plates"`
	TotalItems     int                `json:"total_items"`
	TotalQuantity  int32              `json:"total_quantity"`
	TotalAmount    string             `json:"total_amount"`
	CreatedAt      time.Time          `json:"created_at"`
	LastUpdated    time.Time          `json:"last_updated"`
}

// convertResponse names both sides of a conversion.
type convertResponse struct {
	QuotationID uuid.UUID     `json:"quotation_id"`
	Order       orderResponse `json:"order"`
}

func dbQuotationToResponse(q database.Quotation) quotationResponse {
	resp := quotationResponse{
		ID:           q.ID,
		CustomerName: q.CustomerName,
		EventName:    q.EventName,
		EventDate:    formatDate(q.EventDate),
		Status:       q.Status,
		OrderType:    q.OrderType,
		Items:        toLineItemResponses(q.Items),
		TotalAmount:  numericToString(q.TotalAmount),
		CreatedAt:    q.CreatedAt,
		LastUpdated:  q.LastUpdated,
	}

	if q.CustomerID.Valid {
		s := uuid.UUID(q.CustomerID.Bytes).String()
		resp.CustomerID = &s
	}
	if q.PerPlatePrice.Valid {
		s := numericToString(q.PerPlatePrice)
		resp.PerPlatePrice = &s
	}
	if q.NumberOfPlates.Valid {
		n := q.NumberOfPlates.Int32
		resp.NumberOfPlates = &n
	}

	resp.TotalItems = len(q.Items)
	for _, item := range q.Items {
		resp.TotalQuantity += item.Quantity
	}

	return resp
}

// --- Handlers ---

// Create handles POST /quotations. New quotations always start as DRAFT.
func (h *QuotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createQuotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	quotation, err := h.svc.CreateQuotation(r.Context(), service.CreateQuotationRequest{
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
		log.Printf("ERROR: create quotation: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, dbQuotationToResponse(quotation))
}

// List handles GET /quotations, grouped by status in lifecycle order,
// newest first within each group.
func (h *QuotationHandler) List(w http.ResponseWriter, r *http.Request) {
	var statusFilter pgtype.Text
	if s := r.URL.Query().Get("status"); s != "" {
		if !status.IsValidQuotationStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		statusFilter = pgtype.Text{String: s, Valid: true}
	}

	var search pgtype.Text
	if s := r.URL.Query().Get("search"); s != "" {
		search = pgtype.Text{String: s, Valid: true}
	}

	quotations, err := h.store.ListQuotations(r.Context(), database.ListQuotationsParams{
		Status: statusFilter,
		Search: search,
	})
	if err != nil {
		log.Printf("ERROR: list quotations: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	sort.SliceStable(quotations, func(i, j int) bool {
		ri, rj := status.QuotationSortRank(quotations[i].Status), status.QuotationSortRank(quotations[j].Status)
		if ri != rj {
			return ri < rj
		}
		return quotations[i].CreatedAt.After(quotations[j].CreatedAt)
	})

	resp := make([]quotationResponse, len(quotations))
	for i, q := range quotations {
		resp[i] = dbQuotationToResponse(q)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /quotations/{id}.
func (h *QuotationHandler) Get(w http.ResponseWriter, r *http.Request) {
	quotationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quotation ID"})
		return
	}

	quotation, err := h.store.GetQuotation(r.Context(), quotationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "quotation not found"})
			return
		}
		log.Printf("ERROR: get quotation: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbQuotationToResponse(quotation))
}

// Update handles PUT /quotations/{id}.
func (h *QuotationHandler) Update(w http.ResponseWriter, r *http.Request) {
	quotationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quotation ID"})
		return
	}

	var req updateQuotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	quotation, err := h.svc.UpdateQuotation(r.Context(), service.UpdateQuotationRequest{
		ID:             quotationID,
		EventName:      req.EventName,
		EventDate:      req.EventDate.PgDate(),
		Status:         req.Status,
		OrderType:      req.OrderType,
		Items:          toServiceItems(req.Items),
		PerPlatePrice:  req.PerPlatePrice,
		NumberOfPlates: req.NumberOfPlates,
	})
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "quotation not found"})
		case errors.Is(err, status.ErrOrderedNotDirect), errors.Is(err, status.ErrQuotationConsumed):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case isOrderValidationError(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: update quotation: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dbQuotationToResponse(quotation))
}

// Convert handles POST /quotations/{id}/convert. Only an ACCEPTED quotation
// converts; the result is a new CONFIRMED order and the quotation is retired
// as ORDERED.
func (h *QuotationHandler) Convert(w http.ResponseWriter, r *http.Request) {
	quotationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quotation ID"})
		return
	}

	order, err := h.svc.ConvertToOrder(r.Context(), quotationID)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "quotation not found"})
		case errors.Is(err, service.ErrNotAccepted):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: convert quotation: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := convertResponse{
		QuotationID: quotationID,
		Order:       dbOrderToResponse(order),
	}
	h.publish(ws.EventQuotationConverted, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// --- Helpers ---

func (h *QuotationHandler) publish(eventType string, v interface{}) {
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
