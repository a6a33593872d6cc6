/**
 * @description
 * This file sets up the HTTP router for the dashboard-service using the
 * go-chi/chi router. It defines the API routes, applies middleware for
 * logging, CORS, and authentication, and maps the routes to their
 * corresponding handler functions.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers the dashboard-service
// routes.
func NewRouter(h *Handler, jwksURL string) *chi.Mux {
	r := chi.NewRouter()

	// Setup middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Dashboard service is healthy"))
	})

	// Confirmation links land here from email clients; no session exists
	// yet, so this route stays public.
	r.Get("/auth/confirm", h.handleConfirm)

	// Public dashboard data
	r.Get("/api/dashboard/stats", h.handleStats)
	r.Get("/api/transactions", h.handleTransactions)
	r.Get("/api/payment-volume", h.handlePaymentVolume)
	r.Get("/api/customers", h.handleCustomers)
	r.Get("/api/exchange-rates", h.handleExchangeRates)

	// Protected routes that require an authenticated session
	r.Group(func(r chi.Router) {
		r.Use(SessionAuthMiddleware(jwksURL))

		r.Get("/api/merchant/profile", h.handleMerchantProfile)
		r.Get("/api/compliance/progress", h.handleComplianceProgress)
		r.Get("/api/compliance/next-step", h.handleComplianceNextStep)
		r.Get("/api/compliance/steps/{step}", h.handleComplianceGuard)
		r.Post("/api/compliance/steps/{step}/complete", h.handleCompleteStep)
	})

	return r
}
