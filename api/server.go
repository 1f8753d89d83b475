/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/schedule/*   Preview and validation
  /api/methods/*    Payment method management
  /api/sales/*      Sales, schedules, collections, due report
  /api/admin/*      Seed data, manual overdue sweep
  /healthz          Liveness probe

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, sweeper *Sweeper) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Schedule routes (stateless engine access)
		r.Route("/schedule", func(r chi.Router) {
			r.Post("/preview", h.PreviewSchedule)
			r.Post("/validate", h.ValidateSchedule)
		})

		// Payment method routes
		r.Route("/methods", func(r chi.Router) {
			r.Get("/", h.ListMethods)
			r.Post("/", h.CreateMethod)
			r.Get("/{id}", h.GetMethod)
			r.Delete("/{id}", h.DeleteMethod)
		})

		// Sale routes
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.CreateSale)
			r.Get("/due", h.ListDue)
			r.Get("/{id}", h.GetSale)
			r.Post("/{id}/installments/{n}/payments", h.RecordPayment)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/seed", h.SeedDemoData)
			if sweeper != nil {
				r.Post("/sweep", sweeper.HandleRunNow)
			}
		})
	})

	// Liveness probe
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
