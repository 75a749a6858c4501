// Package home implements the console landing page.
package home

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/sqlscribe-labs/sqlscribe/internal/history"
	"github.com/sqlscribe-labs/sqlscribe/internal/ui/features/common"
)

const recentLimit = 25

// Handlers provides HTTP handlers for the home feature.
type Handlers struct {
	history *history.Store
	logger  *slog.Logger
	isDev   bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store *history.Store, logger *slog.Logger, isDev bool) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{history: store, logger: logger, isDev: isDev}
}

// SetupRoutes registers the home feature routes.
func SetupRoutes(router chi.Router, store *history.Store, logger *slog.Logger, isDev bool) {
	handlers := NewHandlers(store, logger, isDev)
	router.Get("/", handlers.HomePage)
	router.Post("/open", handlers.Open)
}

// HomePage renders the landing page with recent activity.
func (h *Handlers) HomePage(w http.ResponseWriter, r *http.Request) {
	var events []*history.Event
	if h.history != nil {
		var err error
		events, err = h.history.Recent(r.Context(), recentLimit)
		if err != nil {
			h.logger.Debug("failed to load activity", "error", err)
		}
	}

	if err := common.Layout("Home", h.isDev, homeBody(events)).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Open redirects a submitted query id to its workspace page.
func (h *Handlers) Open(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := r.FormValue("id")
	if id == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/queries/"+id, http.StatusSeeOther)
}

func homeBody(events []*history.Event) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="panel">
<h2>Open a query</h2>
<form method="post" action="/open">
<input name="id" placeholder="query id" autofocus>
<button class="primary" type="submit">Open</button>
</form>
</div>
`); err != nil {
			return err
		}

		if len(events) == 0 {
			_, err := io.WriteString(w, `<div class="panel"><p class="muted">No recent activity.</p></div>
`)
			return err
		}

		if _, err := io.WriteString(w, `<div class="panel">
<h2>Recent activity</h2>
<table class="results">
<thead><tr><th>When</th><th>Query</th><th>Action</th><th>Outcome</th></tr></thead>
<tbody>
`); err != nil {
			return err
		}

		for _, ev := range events {
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td><a href="/queries/%s">%s</a></td><td>%s</td><td>%s</td></tr>
`,
				ev.OccurredAt.Local().Format("2006-01-02 15:04"),
				templ.EscapeString(ev.QueryID),
				templ.EscapeString(ev.QueryID),
				templ.EscapeString(string(ev.Kind)),
				templ.EscapeString(ev.Outcome),
			); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</tbody>\n</table>\n</div>\n")
		return err
	})
}
