package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/nisarga-catering/api/internal/database"
	"github.com/nisarga-catering/api/internal/enum"
	"github.com/nisarga-catering/api/internal/handler"
)

// --- Mock store ---

type mockMenuStore struct {
	items map[uuid.UUID]database.MenuItem
}

func newMockMenuStore() *mockMenuStore {
	return &mockMenuStore{items: make(map[uuid.UUID]database.MenuItem)}
}

func (m *mockMenuStore) ListMenuItems(_ context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error) {
	var result []database.MenuItem
	for _, item := range m.items {
		if arg.Category.Valid && item.Category != arg.Category.String {
			continue
		}
		if arg.Search.Valid && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(arg.Search.String)) {
			continue
		}
		result = append(result, item)
	}
	return result, nil
}

func (m *mockMenuStore) GetMenuItem(_ context.Context, id uuid.UUID) (database.MenuItem, error) {
	item, ok := m.items[id]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	return item, nil
}

func (m *mockMenuStore) CreateMenuItem(_ context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error) {
	item := database.MenuItem{
		ID:        uuid.New(),
		Name:      arg.Name,
		Category:  arg.Category,
		Price:     arg.Price,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.items[item.ID] = item
	return item, nil
}

func (m *mockMenuStore) UpdateMenuItem(_ context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error) {
	item, ok := m.items[arg.ID]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	item.Name = arg.Name
	item.Category = arg.Category
	item.Price = arg.Price
	item.UpdatedAt = time.Now()
	m.items[item.ID] = item
	return item, nil
}

func (m *mockMenuStore) DeleteMenuItem(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	if _, ok := m.items[id]; !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(m.items, id)
	return id, nil
}

// --- Helpers ---

func setupMenuRouter(store *mockMenuStore) *chi.Mux {
	h := handler.NewMenuHandler(store)
	r := chi.NewRouter()
	r.Route("/menu-items", h.RegisterRoutes)
	return r
}

func seedMenuItem(store *mockMenuStore, name, category, price string) database.MenuItem {
	var n pgtype.Numeric
	n.Scan(price)
	item := database.MenuItem{
		ID:        uuid.New(),
		Name:      name,
		Category:  category,
		Price:     n,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	store.items[item.ID] = item
	return item
}

// --- Tests ---

func TestMenuItemList(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	seedMenuItem(store, "Paneer Tikka", enum.MenuCategoryVeg, "450.00")
	seedMenuItem(store, "Chicken Biryani", enum.MenuCategoryNonVeg, "620.00")

	req := httptest.NewRequest(http.MethodGet, "/menu-items", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	resp := decodeList(t, rr)
	if len(resp) != 2 {
		t.Errorf("expected 2 items, got %d", len(resp))
	}
}

func TestMenuItemListCategoryFilter(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	seedMenuItem(store, "Paneer Tikka", enum.MenuCategoryVeg, "450.00")
	seedMenuItem(store, "Chicken Biryani", enum.MenuCategoryNonVeg, "620.00")

	req := httptest.NewRequest(http.MethodGet, "/menu-items?category=VEG", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	resp := decodeList(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 item, got %d", len(resp))
	}
	if resp[0]["name"] != "Paneer Tikka" {
		t.Errorf("name: got %v, want Paneer Tikka", resp[0]["name"])
	}
}

func TestMenuItemListInvalidCategory(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/menu-items?category=SPICY", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestMenuItemListSearch(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	seedMenuItem(store, "Paneer Tikka", enum.MenuCategoryVeg, "450.00")
	seedMenuItem(store, "Chicken Biryani", enum.MenuCategoryNonVeg, "620.00")

	req := httptest.NewRequest(http.MethodGet, "/menu-items?search=biryani", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	resp := decodeList(t, rr)
	if len(resp) != 1 {
		t.Errorf("expected 1 item, got %d", len(resp))
	}
}

func TestMenuItemGet(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	item := seedMenuItem(store, "Paneer Tikka", enum.MenuCategoryVeg, "450.00")

	req := httptest.NewRequest(http.MethodGet, "/menu-items/"+item.ID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	if resp["name"] != "Paneer Tikka" {
		t.Errorf("name: got %v, want Paneer Tikka", resp["name"])
	}
	if resp["price"] != "450.00" {
		t.Errorf("price: got %v, want 450.00", resp["price"])
	}
}

func TestMenuItemGetNotFound(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/menu-items/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestMenuItemCreate(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	body, _ := json.Marshal(map[string]interface{}{
		"name":     "Veg Pulao",
		"category": "VEG",
		"price":    "380.50",
	})

	req := httptest.NewRequest(http.MethodPost, "/menu-items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	if resp["price"] != "380.50" {
		t.Errorf("price: got %v, want 380.50", resp["price"])
	}
	if resp["category"] != "VEG" {
		t.Errorf("category: got %v, want VEG", resp["category"])
	}
}

func TestMenuItemCreateLowercaseCategory(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	body, _ := json.Marshal(map[string]interface{}{
		"name":     "Veg Pulao",
		"category": "veg",
		"price":    "380.50",
	})

	req := httptest.NewRequest(http.MethodPost, "/menu-items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	if resp["category"] != "VEG" {
		t.Errorf("category: got %v, want VEG", resp["category"])
	}
}

func TestMenuItemCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
		want string
	}{
		{
			name: "missing name",
			body: map[string]interface{}{"category": "VEG", "price": "100.00"},
			want: "name is required",
		},
		{
			name: "bad category",
			body: map[string]interface{}{"name": "Soup", "category": "JAIN", "price": "100.00"},
			want: "category must be VEG or NON_VEG",
		},
		{
			name: "negative price",
			body: map[string]interface{}{"name": "Soup", "category": "VEG", "price": "-5.00"},
			want: "price must be a non-negative decimal string",
		},
		{
			name: "unparseable price",
			body: map[string]interface{}{"name": "Soup", "category": "VEG", "price": "abc"},
			want: "price must be a non-negative decimal string",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newMockMenuStore()
			router := setupMenuRouter(store)

			body, _ := json.Marshal(tc.body)
			req := httptest.NewRequest(http.MethodPost, "/menu-items", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rr.Code)
			}

			resp := decodeObject(t, rr)
			if !strings.Contains(resp["error"].(string), tc.want) {
				t.Errorf("expected %q error, got %v", tc.want, resp["error"])
			}
		})
	}
}

func TestMenuItemUpdate(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	item := seedMenuItem(store, "Paneer Tikka", enum.MenuCategoryVeg, "450.00")

	body, _ := json.Marshal(map[string]interface{}{
		"name":     "Paneer Tikka Masala",
		"category": "VEG",
		"price":    "495.00",
	})

	req := httptest.NewRequest(http.MethodPut, "/menu-items/"+item.ID.String(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	if resp["name"] != "Paneer Tikka Masala" {
		t.Errorf("name: got %v", resp["name"])
	}
	if resp["price"] != "495.00" {
		t.Errorf("price: got %v, want 495.00", resp["price"])
	}
}

func TestMenuItemUpdateNotFound(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	body, _ := json.Marshal(map[string]interface{}{
		"name":     "Ghost Dish",
		"category": "VEG",
		"price":    "100.00",
	})

	req := httptest.NewRequest(http.MethodPut, "/menu-items/"+uuid.NewString(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestMenuItemDelete(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	item := seedMenuItem(store, "Paneer Tikka", enum.MenuCategoryVeg, "450.00")

	req := httptest.NewRequest(http.MethodDelete, "/menu-items/"+item.ID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rr.Code)
	}

	if _, ok := store.items[item.ID]; ok {
		t.Error("expected item to be deleted")
	}
}

func TestMenuItemDeleteNotFound(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	req := httptest.NewRequest(http.MethodDelete, "/menu-items/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}
