package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nisarga-catering/api/internal/config"
	"github.com/nisarga-catering/api/internal/database"
	"github.com/nisarga-catering/api/internal/enum"
	"github.com/nisarga-catering/api/internal/handler"
	mw "github.com/nisarga-catering/api/internal/middleware"
	"github.com/nisarga-catering/api/internal/service"
	"github.com/nisarga-catering/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(handler.NewStoreAuthenticator(queries), queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// User management (ADMIN only)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))
			userHandler := handler.NewUserHandler(queries)
			r.Route("/users", userHandler.RegisterRoutes)
		})

		// Customers
		customerHandler := handler.NewCustomerHandler(queries)
		r.Route("/customers", customerHandler.RegisterRoutes)

		// Menu catalog
		menuHandler := handler.NewMenuHandler(queries)
		r.Route("/menu-items", menuHandler.RegisterRoutes)

		// Orders, with invoice issuing nested under the order
		newOrderStore := func(db database.DBTX) service.OrderStore {
			return database.New(db)
		}
		orderService := service.NewOrderService(pool, newOrderStore)
		orderHandler := handler.NewOrderHandler(orderService, queries, hub)
		invoiceHandler := handler.NewInvoiceHandler(queries)
		r.Route("/orders", func(r chi.Router) {
			orderHandler.RegisterRoutes(r)
			r.Post("/{id}/invoice", invoiceHandler.Issue)
		})

		// Quotations
		newQuotationStore := func(db database.DBTX) service.QuotationStore {
			return database.New(db)
		}
		quotationService := service.NewQuotationService(pool, newQuotationStore)
		quotationHandler := handler.NewQuotationHandler(quotationService, queries, hub)
		r.Route("/quotations", quotationHandler.RegisterRoutes)

		// Invoices (read side)
		r.Route("/invoices", invoiceHandler.RegisterRoutes)

		// Reports
		reportsHandler := handler.NewReportsHandler(queries)
		r.Route("/reports", reportsHandler.RegisterRoutes)
	})

	return r
}
