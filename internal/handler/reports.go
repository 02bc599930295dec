package handler

import (
	"context"
	"log"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nisarga-catering/api/internal/database"
	"github.com/nisarga-catering/api/internal/status"
)

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	GetOrderStatusCounts(ctx context.Context) ([]database.OrderStatusCountRow, error)
	GetRevenueSummary(ctx context.Context) (database.RevenueSummaryRow, error)
	GetDailyRevenue(ctx context.Context, days int32) ([]database.DailyRevenueRow, error)
	GetTopItems(ctx context.Context, limit int32) ([]database.TopItemRow, error)
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	store ReportsStore
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
// Expected to be mounted at /reports.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/summary", h.Summary)
	r.Get("/daily-revenue", h.DailyRevenue)
	r.Get("/top-items", h.TopItems)
}

// --- Response types ---

type statusCountResponse struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type summaryResponse struct {
	OrdersByStatus []statusCountResponse `json:"orders_by_status"`
	TotalOrders    int64                 `json:"total_orders"`
	TotalRevenue   string                `json:"total_revenue"`
}

type dailyRevenueResponse struct {
	Date         string `json:"date"`
	OrderCount   int64  `json:"order_count"`
	TotalRevenue string `json:"total_revenue"`
}

type topItemResponse struct {
	MenuItemID    string `json:"menu_item_id"`
	Name          string `json:"name"`
	QuantityTotal int64  `json:"quantity_total"`
}

// --- Handlers ---

// Summary returns order counts per status plus revenue totals. Cancelled
// orders count toward the status breakdown but never toward revenue.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.GetOrderStatusCounts(r.Context())
	if err != nil {
		log.Printf("ERROR: order status counts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	revenue, err := h.store.GetRevenueSummary(r.Context())
	if err != nil {
		log.Printf("ERROR: revenue summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	var totalOrders int64
	byStatus := make([]statusCountResponse, len(counts))
	for i, row := range counts {
		byStatus[i] = statusCountResponse{Status: row.Status, Count: row.Count}
		totalOrders += row.Count
	}
	// Present the breakdown in lifecycle order regardless of SQL grouping.
	sort.SliceStable(byStatus, func(i, j int) bool {
		return status.OrderSortRank(byStatus[i].Status) < status.OrderSortRank(byStatus[j].Status)
	})

	writeJSON(w, http.StatusOK, summaryResponse{
		OrdersByStatus: byStatus,
		TotalOrders:    totalOrders,
		TotalRevenue:   numericToString(revenue.TotalRevenue),
	})
}

// DailyRevenue returns per-day revenue for the trailing N days (default 7).
func (h *ReportsHandler) DailyRevenue(w http.ResponseWriter, r *http.Request) {
	days := 7
	if s := r.URL.Query().Get("days"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "days must be a positive integer"})
			return
		}
		days = v
	}
	if days > 90 {
		days = 90
	}

	rows, err := h.store.GetDailyRevenue(r.Context(), int32(days))
	if err != nil {
		log.Printf("ERROR: daily revenue: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]dailyRevenueResponse, len(rows))
	for i, row := range rows {
		resp[i] = dailyRevenueResponse{
			Date:         row.Day.Format(dateLayout),
			OrderCount:   row.OrderCount,
			TotalRevenue: numericToString(row.TotalRevenue),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// TopItems returns the most-ordered menu items by total quantity.
func (h *ReportsHandler) TopItems(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = v
	}
	if limit > 50 {
		limit = 50
	}

	rows, err := h.store.GetTopItems(r.Context(), int32(limit))
	if err != nil {
		log.Printf("ERROR: top items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]topItemResponse, len(rows))
	for i, row := range rows {
		resp[i] = topItemResponse{
			MenuItemID:    row.MenuItemID,
			Name:          row.Name,
			QuantityTotal: row.QuantityTotal,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
