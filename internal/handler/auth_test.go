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
	"golang.org/x/crypto/bcrypt"

	"github.com/nisarga-catering/api/internal/auth"
	"github.com/nisarga-catering/api/internal/database"
	"github.com/nisarga-catering/api/internal/enum"
	"github.com/nisarga-catering/api/internal/handler"
)

const testSecret = "test-secret-key"

// --- Mock store ---

type mockAuthStore struct {
	users map[uuid.UUID]database.User
}

func newMockAuthStore() *mockAuthStore {
	return &mockAuthStore{users: make(map[uuid.UUID]database.User)}
}

func (m *mockAuthStore) GetUserByEmail(_ context.Context, email string) (database.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return database.User{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetUserByID(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.users[id]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

// --- Helpers ---

func setupAuthRouter(store *mockAuthStore) *chi.Mux {
	h := handler.NewAuthHandler(handler.NewStoreAuthenticator(store), store, testSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func seedUser(t *testing.T, store *mockAuthStore, email, password, role string) database.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := database.User{
		ID:             uuid.New(),
		FullName:       "Test User",
		Email:          email,
		HashedPassword: string(hashed),
		Role:           role,
		CreatedAt:      time.Now(),
	}
	store.users[u.ID] = u
	return u
}

// --- Tests ---

func TestLogin(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	user := seedUser(t, store, "admin@nisarga.in", "supersecret", enum.UserRoleAdmin)

	body, _ := json.Marshal(map[string]string{
		"email":    "admin@nisarga.in",
		"password": "supersecret",
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	accessToken, _ := resp["access_token"].(string)
	if accessToken == "" {
		t.Fatal("expected non-empty access_token")
	}
	if resp["refresh_token"] == "" {
		t.Error("expected non-empty refresh_token")
	}

	claims, err := auth.ValidateToken(testSecret, accessToken)
	if err != nil {
		t.Fatalf("validate issued token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("token user ID: got %s, want %s", claims.UserID, user.ID)
	}
	if claims.Role != enum.UserRoleAdmin {
		t.Errorf("token role: got %s, want ADMIN", claims.Role)
	}

	userObj := resp["user"].(map[string]interface{})
	if userObj["email"] != "admin@nisarga.in" {
		t.Errorf("user email: got %v", userObj["email"])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	seedUser(t, store, "admin@nisarga.in", "supersecret", enum.UserRoleAdmin)

	body, _ := json.Marshal(map[string]string{
		"email":    "admin@nisarga.in",
		"password": "wrong",
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	body, _ := json.Marshal(map[string]string{
		"email":    "nobody@nisarga.in",
		"password": "supersecret",
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	// Same response as a wrong password, never reveal which field failed.
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestLoginMissingFields(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	body, _ := json.Marshal(map[string]string{"email": "admin@nisarga.in"})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestRefresh(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	user := seedUser(t, store, "staff@nisarga.in", "supersecret", enum.UserRoleStaff)

	refreshToken, err := auth.GenerateRefreshToken(testSecret, user.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"refresh_token": refreshToken})

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	accessToken, _ := resp["access_token"].(string)
	claims, err := auth.ValidateToken(testSecret, accessToken)
	if err != nil {
		t.Fatalf("validate refreshed token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("token user ID: got %s, want %s", claims.UserID, user.ID)
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	body, _ := json.Marshal(map[string]string{"refresh_token": "not-a-jwt"})

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestRefreshDeletedUser(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	refreshToken, err := auth.GenerateRefreshToken(testSecret, uuid.New())
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"refresh_token": refreshToken})

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}
