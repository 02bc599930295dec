package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nisarga-catering/api/internal/database"
	"github.com/nisarga-catering/api/internal/enum"
	"github.com/nisarga-catering/api/internal/handler"
	"github.com/nisarga-catering/api/internal/service"
	"github.com/nisarga-catering/api/internal/status"
	"github.com/nisarga-catering/api/internal/ws"
)

// --- Mocks ---

type mockQuotationService struct {
	createFn  func(ctx context.Context, req service.CreateQuotationRequest) (database.Quotation, error)
	updateFn  func(ctx context.Context, req service.UpdateQuotationRequest) (database.Quotation, error)
	convertFn func(ctx context.Context, quotationID uuid.UUID) (database.Order, error)
}

func (m *mockQuotationService) CreateQuotation(ctx context.Context, req service.CreateQuotationRequest) (database.Quotation, error) {
	return m.createFn(ctx, req)
}

func (m *mockQuotationService) UpdateQuotation(ctx context.Context, req service.UpdateQuotationRequest) (database.Quotation, error) {
	return m.updateFn(ctx, req)
}

func (m *mockQuotationService) ConvertToOrder(ctx context.Context, quotationID uuid.UUID) (database.Order, error) {
	return m.convertFn(ctx, quotationID)
}

type mockQuotationReadStore struct {
	quotations map[uuid.UUID]database.Quotation
}

func newMockQuotationReadStore() *mockQuotationReadStore {
	return &mockQuotationReadStore{quotations: make(map[uuid.UUID]database.Quotation)}
}

func (m *mockQuotationReadStore) ListQuotations(_ context.Context, arg database.ListQuotationsParams) ([]database.Quotation, error) {
	var result []database.Quotation
	for _, q := range m.quotations {
		if arg.Status.Valid && q.Status != arg.Status.String {
			continue
		}
		result = append(result, q)
	}
	return result, nil
}

func (m *mockQuotationReadStore) GetQuotation(_ context.Context, id uuid.UUID) (database.Quotation, error) {
	q, ok := m.quotations[id]
	if !ok {
		return database.Quotation{}, pgx.ErrNoRows
	}
	return q, nil
}

// --- Helpers ---

func setupQuotationRouter(svc handler.QuotationServicer, store handler.QuotationStore, feed handler.Broadcaster) *chi.Mux {
	h := handler.NewQuotationHandler(svc, store, feed)
	r := chi.NewRouter()
	r.Route("/quotations", h.RegisterRoutes)
	return r
}

func sampleQuotation(t *testing.T, status string) database.Quotation {
	t.Helper()
	return database.Quotation{
		ID:           uuid.New(),
		CustomerName: "Grace Miller",
		EventName:    "Charity Gala",
		EventDate:    testDate(2026, time.May, 2),
		Status:       status,
		OrderType:    enum.OrderTypeIndividual,
		Items: []database.OrderItem{
			{MenuItemID: uuid.NewString(), Name: "Caprese Skewers", Price: decimal.RequireFromString("625.50"), Quantity: 40},
		},
		TotalAmount: testNumeric(t, "25020.00"),
		CreatedAt:   time.Now(),
		LastUpdated: time.Now(),
	}
}

// --- Tests ---

func TestQuotationCreate(t *testing.T) {
	svc := &mockQuotationService{
		createFn: func(_ context.Context, req service.CreateQuotationRequest) (database.Quotation, error) {
			q := sampleQuotation(t, enum.QuotationStatusDraft)
			q.CustomerName = req.CustomerName
			q.EventName = req.EventName
			return q, nil
		},
	}
	router := setupQuotationRouter(svc, newMockQuotationReadStore(), nil)

	body, _ := json.Marshal(map[string]interface{}{
		"customer_name": "Grace Miller",
		"event_name":    "Charity Gala",
		"event_date":    "2026-05-02",
		"order_type":    "INDIVIDUAL",
		"items": []map[string]interface{}{
			{"menu_item_id": uuid.NewString(), "quantity": 40},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/quotations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	if resp["status"] != enum.QuotationStatusDraft {
		t.Errorf("status: got %v, want DRAFT", resp["status"])
	}
	if resp["total_amount"] != "25020.00" {
		t.Errorf("total_amount: got %v, want 25020.00", resp["total_amount"])
	}
}

func TestQuotationCreateValidationError(t *testing.T) {
	svc := &mockQuotationService{
		createFn: func(_ context.Context, _ service.CreateQuotationRequest) (database.Quotation, error) {
			return database.Quotation{}, service.ErrEventDateRequired
		},
	}
	router := setupQuotationRouter(svc, newMockQuotationReadStore(), nil)

	body, _ := json.Marshal(map[string]interface{}{
		"customer_name": "Grace Miller",
		"event_name":    "Charity Gala",
		"order_type":    "INDIVIDUAL",
	})

	req := httptest.NewRequest(http.MethodPost, "/quotations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestQuotationListSortedByStatusRank(t *testing.T) {
	store := newMockQuotationReadStore()

	ordered := sampleQuotation(t, enum.QuotationStatusOrdered)
	draft := sampleQuotation(t, enum.QuotationStatusDraft)
	accepted := sampleQuotation(t, enum.QuotationStatusAccepted)
	store.quotations[ordered.ID] = ordered
	store.quotations[draft.ID] = draft
	store.quotations[accepted.ID] = accepted

	router := setupQuotationRouter(&mockQuotationService{}, store, nil)

	req := httptest.NewRequest(http.MethodGet, "/quotations", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	resp := decodeList(t, rr)
	if len(resp) != 3 {
		t.Fatalf("expected 3 quotations, got %d", len(resp))
	}

	wantOrder := []string{
		enum.QuotationStatusDraft,
		enum.QuotationStatusAccepted,
		enum.QuotationStatusOrdered,
	}
	for i, want := range wantOrder {
		if resp[i]["status"] != want {
			t.Errorf("position %d: got status %v, want %s", i, resp[i]["status"], want)
		}
	}
}

func TestQuotationListStatusFilter(t *testing.T) {
	store := newMockQuotationReadStore()

	draft := sampleQuotation(t, enum.QuotationStatusDraft)
	sent := sampleQuotation(t, enum.QuotationStatusSent)
	store.quotations[draft.ID] = draft
	store.quotations[sent.ID] = sent

	router := setupQuotationRouter(&mockQuotationService{}, store, nil)

	req := httptest.NewRequest(http.MethodGet, "/quotations?status=SENT", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	resp := decodeList(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 quotation, got %d", len(resp))
	}
	if resp[0]["status"] != enum.QuotationStatusSent {
		t.Errorf("status: got %v, want SENT", resp[0]["status"])
	}
}

func TestQuotationGet(t *testing.T) {
	store := newMockQuotationReadStore()
	q := sampleQuotation(t, enum.QuotationStatusSent)
	store.quotations[q.ID] = q

	router := setupQuotationRouter(&mockQuotationService{}, store, nil)

	req := httptest.NewRequest(http.MethodGet, "/quotations/"+q.ID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	resp := decodeObject(t, rr)
	if resp["customer_name"] != "Grace Miller" {
		t.Errorf("customer_name: got %v", resp["customer_name"])
	}
	if resp["total_quantity"].(float64) != 40 {
		t.Errorf("total_quantity: got %v, want 40", resp["total_quantity"])
	}
}

func TestQuotationGetNotFound(t *testing.T) {
	router := setupQuotationRouter(&mockQuotationService{}, newMockQuotationReadStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/quotations/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestQuotationUpdate(t *testing.T) {
	svc := &mockQuotationService{
		updateFn: func(_ context.Context, req service.UpdateQuotationRequest) (database.Quotation, error) {
			q := sampleQuotation(t, req.Status)
			q.ID = req.ID
			return q, nil
		},
	}
	router := setupQuotationRouter(svc, newMockQuotationReadStore(), nil)

	body, _ := json.Marshal(map[string]interface{}{
		"event_name": "Charity Gala",
		"event_date": "2026-05-02",
		"status":     "SENT",
		"order_type": "INDIVIDUAL",
	})

	req := httptest.NewRequest(http.MethodPut, "/quotations/"+uuid.NewString(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	if resp["status"] != enum.QuotationStatusSent {
		t.Errorf("status: got %v, want SENT", resp["status"])
	}
}

func TestQuotationUpdateDirectOrderedRejected(t *testing.T) {
	svc := &mockQuotationService{
		updateFn: func(_ context.Context, _ service.UpdateQuotationRequest) (database.Quotation, error) {
			return database.Quotation{}, status.ErrOrderedNotDirect
		},
	}
	router := setupQuotationRouter(svc, newMockQuotationReadStore(), nil)

	body, _ := json.Marshal(map[string]interface{}{
		"event_name": "Charity Gala",
		"event_date": "2026-05-02",
		"status":     "ORDERED",
		"order_type": "INDIVIDUAL",
	})

	req := httptest.NewRequest(http.MethodPut, "/quotations/"+uuid.NewString(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}
}

func TestQuotationUpdateConsumedRejected(t *testing.T) {
	svc := &mockQuotationService{
		updateFn: func(_ context.Context, _ service.UpdateQuotationRequest) (database.Quotation, error) {
			return database.Quotation{}, status.ErrQuotationConsumed
		},
	}
	router := setupQuotationRouter(svc, newMockQuotationReadStore(), nil)

	body, _ := json.Marshal(map[string]interface{}{
		"event_name": "Charity Gala",
		"event_date": "2026-05-02",
		"status":     "DRAFT",
		"order_type": "INDIVIDUAL",
	})

	req := httptest.NewRequest(http.MethodPut, "/quotations/"+uuid.NewString(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}
}

func TestQuotationConvert(t *testing.T) {
	quotationID := uuid.New()
	svc := &mockQuotationService{
		convertFn: func(_ context.Context, id uuid.UUID) (database.Order, error) {
			if id != quotationID {
				t.Errorf("convert called with %s, want %s", id, quotationID)
			}
			return sampleOrder(t, enum.OrderStatusConfirmed), nil
		},
	}
	feed := &recordingFeed{}
	router := setupQuotationRouter(svc, newMockQuotationReadStore(), feed)

	req := httptest.NewRequest(http.MethodPost, "/quotations/"+quotationID.String()+"/convert", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	if resp["quotation_id"] != quotationID.String() {
		t.Errorf("quotation_id: got %v, want %s", resp["quotation_id"], quotationID)
	}
	order := resp["order"].(map[string]interface{})
	if order["status"] != enum.OrderStatusConfirmed {
		t.Errorf("order status: got %v, want CONFIRMED", order["status"])
	}

	events := feed.captured()
	if len(events) != 1 || events[0].Type != ws.EventQuotationConverted {
		t.Errorf("expected one %s event, got %v", ws.EventQuotationConverted, events)
	}
}

func TestQuotationConvertNotAccepted(t *testing.T) {
	svc := &mockQuotationService{
		convertFn: func(_ context.Context, _ uuid.UUID) (database.Order, error) {
			return database.Order{}, service.ErrNotAccepted
		},
	}
	feed := &recordingFeed{}
	router := setupQuotationRouter(svc, newMockQuotationReadStore(), feed)

	req := httptest.NewRequest(http.MethodPost, "/quotations/"+uuid.NewString()+"/convert", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}
	if len(feed.captured()) != 0 {
		t.Error("expected no broadcast when conversion is rejected")
	}
}

func TestQuotationConvertNotFound(t *testing.T) {
	svc := &mockQuotationService{
		convertFn: func(_ context.Context, _ uuid.UUID) (database.Order, error) {
			return database.Order{}, pgx.ErrNoRows
		},
	}
	router := setupQuotationRouter(svc, newMockQuotationReadStore(), nil)

	req := httptest.NewRequest(http.MethodPost, "/quotations/"+uuid.NewString()+"/convert", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}
