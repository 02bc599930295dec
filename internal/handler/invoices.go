package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nisarga-catering/api/internal/database"
	"github.com/nisarga-catering/api/internal/enum"
)

// InvoiceStore defines the database methods needed by invoice handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type InvoiceStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListInvoices(ctx context.Context) ([]database.Invoice, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (database.Invoice, error)
	GetInvoiceByOrder(ctx context.Context, orderID uuid.UUID) (database.Invoice, error)
	GetNextInvoiceSequence(ctx context.Context) (int64, error)
	CreateInvoice(ctx context.Context, arg database.CreateInvoiceParams) (database.Invoice, error)
}

// InvoiceHandler handles invoice endpoints.
type InvoiceHandler struct {
	store InvoiceStore
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(store InvoiceStore) *InvoiceHandler {
	return &InvoiceHandler{store: store}
}

// RegisterRoutes registers invoice read endpoints on the given Chi router.
// Expected to be mounted at /invoices. Issue is registered separately under
// /orders/{id}/invoice.
func (h *InvoiceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

type invoiceResponse struct {
	ID            uuid.UUID `json:"id"`
	OrderID       uuid.UUID `json:"order_id"`
	InvoiceNumber string    `json:"invoice_number"`
	CustomerName  string    `json:"customer_name"`
	EventName     string    `json:"event_name"`
	TotalAmount   string    `json:"total_amount"`
	IssuedAt      time.Time `json:"issued_at"`
}

func toInvoiceResponse(inv database.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:            inv.ID,
		OrderID:       inv.OrderID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerName:  inv.CustomerName,
		EventName:     inv.EventName,
		TotalAmount:   numericToString(inv.TotalAmount),
		IssuedAt:      inv.IssuedAt,
	}
}

// List returns all invoices, newest first.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.store.ListInvoices(r.Context())
	if err != nil {
		log.Printf("ERROR: list invoices: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]invoiceResponse, len(invoices))
	for i, inv := range invoices {
		resp[i] = toInvoiceResponse(inv)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single invoice by ID.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid invoice ID"})
		return
	}

	invoice, err := h.store.GetInvoice(r.Context(), invoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "invoice not found"})
			return
		}
		log.Printf("ERROR: get invoice: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toInvoiceResponse(invoice))
}

// Issue handles POST /orders/{id}/invoice. Only COMPLETED orders can be
// invoiced, and each order gets at most one invoice. Numbers run
// INV-YYYY-NNN, restarting at 001 each year.
func (h *InvoiceHandler) Issue(w http.ResponseWriter, r *http.Request) {
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
		log.Printf("ERROR: get order for invoice: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if order.Status != enum.OrderStatusCompleted {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "only completed orders can be invoiced"})
		return
	}

	if _, err := h.store.GetInvoiceByOrder(r.Context(), orderID); err == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order already has an invoice"})
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("ERROR: check existing invoice: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	seq, err := h.store.GetNextInvoiceSequence(r.Context())
	if err != nil {
		log.Printf("ERROR: next invoice sequence: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	invoice, err := h.store.CreateInvoice(r.Context(), database.CreateInvoiceParams{
		OrderID:       orderID,
		InvoiceNumber: fmt.Sprintf("INV-%d-%03d", time.Now().Year(), seq),
		CustomerName:  order.CustomerName,
		EventName:     order.EventName,
		TotalAmount:   order.TotalAmount,
	})
	if err != nil {
		// The unique index on order_id backs the one-invoice rule under
		// concurrent requests; the one on invoice_number catches two issuers
		// drawing the same sequence number.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			msg := "order already has an invoice"
			if pgErr.ConstraintName == "invoices_invoice_number_key" {
				msg = "invoice number conflict, retry"
			}
			writeJSON(w, http.StatusConflict, map[string]string{"error": msg})
			return
		}
		log.Printf("ERROR: create invoice: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toInvoiceResponse(invoice))
}
