// Package server exposes the ledger service as a JSON HTTP API.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/platesplit/platesplit/internal/auth"
	"github.com/platesplit/platesplit/internal/middleware"
	"github.com/platesplit/platesplit/internal/service"
)

// TokenManager mints and validates session tokens.
type TokenManager interface {
	Generate(ledgerID string) (string, error)
	Validate(tokenString string) (*auth.Claims, error)
}

// Server holds the API's dependencies.
type Server struct {
	svc    *service.LedgerService
	tokens TokenManager
}

// New creates a Server over the given service and token manager.
func New(svc *service.LedgerService, tokens TokenManager) *Server {
	return &Server{svc: svc, tokens: tokens}
}

// Routes builds the full route tree. Everything under a session requires a
// bearer token scoped to that session.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Use(middleware.RequireSession(s.tokens))

			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleResetSession)
			r.Get("/totals", s.handleTotals)
			r.Put("/service-charge", s.handleSetServiceCharge)
			r.Post("/submit", s.handleSubmit)

			r.Patch("/participants/{participantID}", s.handleRenameParticipant)

			r.Post("/items", s.handleAddItem)
			r.Delete("/items", s.handleClearItems)
			r.Patch("/items/{itemID}", s.handleRenameItem)
			r.Delete("/items/{itemID}", s.handleRemoveItem)
			r.Post("/items/{itemID}/payers/{participantID}", s.handleTogglePayer)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
