/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard

ROUTE GROUPS:
  /api/{domain}/requests/*   Flattened lists, details and timelines
  /api/statuses/*            Reverse status mapping
  /api/scenarios/*           Demo scenarios (replica mode only)
  /api/health                Liveness

  {domain} is leaves, loans or labor-requests (or LEAVE/LOAN/LABOR).

SECURITY NOTE:
  The API is read-only and carries no authentication. Put it behind the
  same gateway as the HR backend.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", ViewerHeader},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/statuses", func(r chi.Router) {
			r.Get("/reverse", h.ReverseStatus)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		r.Route("/{domain}/requests", func(r chi.Router) {
			r.Get("/", h.ListRequests)
			r.Get("/{id}", h.GetRequest)
			r.Get("/{id}/timeline", h.GetTimeline)
		})
	})

	return r
}
