// Package router sets up HTTP routes for the console server.
package router

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/sqlscribe-labs/sqlscribe/internal/console"
	"github.com/sqlscribe-labs/sqlscribe/internal/history"
	homeFeature "github.com/sqlscribe-labs/sqlscribe/internal/ui/features/home"
	queryFeature "github.com/sqlscribe-labs/sqlscribe/internal/ui/features/query"
	"github.com/sqlscribe-labs/sqlscribe/internal/ui/notifier"
	"github.com/sqlscribe-labs/sqlscribe/internal/ui/resources"
)

// SetupRoutes configures all routes for the console server and returns
// the query controller registry for shutdown.
func SetupRoutes(
	router chi.Router,
	api console.API,
	store *history.Store,
	sessionStore *sessions.CookieStore,
	notify *notifier.Notifier,
	logger *slog.Logger,
	isDev bool,
) *queryFeature.Registry {
	// Hot reload endpoint for dev mode
	if isDev {
		setupReload(router, notify)
	}

	// Static assets
	router.Handle("/static/*", resources.Handler())

	// Feature routes
	homeFeature.SetupRoutes(router, store, logger, isDev)
	return queryFeature.SetupRoutes(router, api, store, sessionStore, logger, isDev)
}

func setupReload(router chi.Router, notify *notifier.Notifier) {
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		hotReloadOnce.Do(reload)

		updates := notify.Subscribe()
		defer notify.Unsubscribe(updates)

		select {
		case <-updates:
			reload()
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		notify.Broadcast()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
