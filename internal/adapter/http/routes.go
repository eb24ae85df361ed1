package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/shadegov/sentinel/internal/adapter/ws"
	"github.com/shadegov/sentinel/internal/middleware"
)

// NewRouter builds the chi router with the full middleware chain. hub may
// be nil to disable the live-update endpoint.
func NewRouter(h *Handlers, hub *ws.Hub, corsOrigin string) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(CORS(corsOrigin))
	r.Use(Logger)

	limiter := middleware.NewRateLimiter(20, 40)
	limiter.StartCleanup(time.Minute, 10*time.Minute)
	r.Use(limiter.Handler)

	r.Get("/health", h.Health)
	if hub != nil {
		r.Get("/ws", hub.HandleWS)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/screen", h.Screen)
		r.Get("/status", h.Status)
		r.Get("/status/{proposalID}", h.ProposalStatus)
		r.Post("/execute/{proposalID}", h.Execute)
		r.Get("/results", h.Results)
		r.Delete("/history", h.ClearHistory)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	return r
}
