package query

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/sqlscribe-labs/sqlscribe/internal/console"
	"github.com/sqlscribe-labs/sqlscribe/internal/history"
)

// SetupRoutes registers the query workspace routes and returns the
// controller registry so the server can close it on shutdown.
func SetupRoutes(
	router chi.Router,
	api console.API,
	store *history.Store,
	sessionStore sessions.Store,
	logger *slog.Logger,
	isDev bool,
) *Registry {
	registry := NewRegistry(api, logger)
	handlers := NewHandlers(registry, store, sessionStore, logger, isDev)

	// Page routes
	router.Get("/queries/{id}", handlers.QueryPage)
	router.Get("/queries/{id}/updates", handlers.Updates)
	router.Get("/queries/{id}/refresh", handlers.Refresh)

	// API routes for workspace actions
	router.Route("/api/queries/{id}", func(r chi.Router) {
		r.Post("/resubmit", handlers.Resubmit)
		r.Post("/execute", handlers.Execute)
		r.Post("/edit", handlers.Edit)
	})

	return registry
}
