// Package query implements the query review workspace, the main page of
// the console.
package query

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/sqlscribe-labs/sqlscribe/internal/console"
	"github.com/sqlscribe-labs/sqlscribe/internal/history"
	"github.com/sqlscribe-labs/sqlscribe/internal/remote"
	"github.com/sqlscribe-labs/sqlscribe/internal/ui/features/common"
)

// EditSignals are the frontend signals for the workspace editor.
type EditSignals struct {
	SQL    string `json:"sql"`
	Status string `json:"status"`
}

// Handlers provides HTTP handlers for the query feature.
type Handlers struct {
	registry     *Registry
	history      *history.Store
	sessionStore sessions.Store
	logger       *slog.Logger
	isDev        bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(registry *Registry, store *history.Store, sessionStore sessions.Store, logger *slog.Logger, isDev bool) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		registry:     registry,
		history:      store,
		sessionStore: sessionStore,
		logger:       logger,
		isDev:        isDev,
	}
}

func (h *Handlers) acquire(w http.ResponseWriter, r *http.Request) *console.Controller {
	sid := sessionID(h.sessionStore, w, r)
	return h.registry.Acquire(sid, chi.URLParam(r, "id"))
}

// QueryPage renders the workspace page with full content.
func (h *Handlers) QueryPage(w http.ResponseWriter, r *http.Request) {
	ctrl := h.acquire(w, r)

	// First paint carries real data when the service answers in time;
	// failures surface through the error view.
	if err := ctrl.Load(r.Context()); err != nil {
		h.logger.Debug("initial load failed", "query_id", ctrl.ID(), "error", err)
	}

	h.record(r.Context(), ctrl.ID(), history.KindViewed, "", "")

	page := pageBody(ctrl)
	if err := common.Layout("Query "+ctrl.ID(), h.isDev, page).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// pageBody wires the live-update stream around the workspace.
func pageBody(ctrl *console.Controller) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<div data-init=\"@get('/queries/%s/updates')\"></div>\n",
			templ.EscapeString(ctrl.ID())); err != nil {
			return err
		}
		return Workspace(ctrl).Render(ctx, w)
	})
}

// Updates is the long-lived SSE endpoint for a workspace page. It pushes
// a fresh render whenever the controller state changes.
func (h *Handlers) Updates(w http.ResponseWriter, r *http.Request) {
	ctrl := h.acquire(w, r)
	sse := datastar.NewSSE(w, r)

	updates, cancel := ctrl.Subscribe()
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := sse.PatchElementTempl(Workspace(ctrl)); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// Refresh re-fetches the record and patches the workspace. Used by the
// retry button on the error view.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	ctrl := h.acquire(w, r)
	sse := datastar.NewSSE(w, r)

	if err := ctrl.Load(r.Context()); err != nil {
		h.logger.Debug("refresh failed", "query_id", ctrl.ID(), "error", err)
	}

	if err := sse.PatchElementTempl(Workspace(ctrl)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Resubmit regenerates SQL from the original question.
func (h *Handlers) Resubmit(w http.ResponseWriter, r *http.Request) {
	ctrl := h.acquire(w, r)
	sse := datastar.NewSSE(w, r)

	q, err := ctrl.Resubmit(r.Context())
	if err != nil {
		h.record(r.Context(), ctrl.ID(), history.KindResubmitted, "", err.Error())
		_ = sse.ConsoleError(fmt.Errorf("regenerate failed: %w", err))
		return
	}

	h.record(r.Context(), q.ID, history.KindResubmitted, q.SQL, string(q.Status))
	if err := sse.PatchElementTempl(Workspace(ctrl)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Execute runs the editor's SQL through the service.
func (h *Handlers) Execute(w http.ResponseWriter, r *http.Request) {
	// Read signals BEFORE creating SSE (SSE consumes the request body).
	var signals EditSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(fmt.Errorf("failed to read signals: %w", err))
		return
	}

	ctrl := h.acquire(w, r)
	sse := datastar.NewSSE(w, r)

	sqlText := strings.TrimSpace(signals.SQL)
	if sqlText == "" {
		_ = sse.ConsoleError(fmt.Errorf("nothing to run: the SQL editor is empty"))
		return
	}

	q, err := ctrl.Execute(r.Context(), sqlText)
	if err != nil {
		h.record(r.Context(), ctrl.ID(), history.KindExecuted, sqlText, err.Error())
		_ = sse.ConsoleError(fmt.Errorf("run failed: %w", err))
		return
	}

	h.record(r.Context(), q.ID, history.KindExecuted, sqlText, string(q.Status))
	if err := sse.PatchElementTempl(Workspace(ctrl)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Edit saves the editor's SQL and status onto the record.
func (h *Handlers) Edit(w http.ResponseWriter, r *http.Request) {
	var signals EditSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(fmt.Errorf("failed to read signals: %w", err))
		return
	}

	ctrl := h.acquire(w, r)
	sse := datastar.NewSSE(w, r)

	req := remote.PutRequest{"sql_query": signals.SQL}
	if signals.Status != "" {
		req["status"] = signals.Status
	}

	q, err := ctrl.Put(r.Context(), req)
	if err != nil {
		h.record(r.Context(), ctrl.ID(), history.KindEdited, signals.SQL, err.Error())
		_ = sse.ConsoleError(fmt.Errorf("save failed: %w", err))
		return
	}

	h.record(r.Context(), q.ID, history.KindEdited, q.SQL, string(q.Status))
	if err := sse.PatchElementTempl(Workspace(ctrl)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// record best-effort writes an activity event. A nil history store
// disables recording.
func (h *Handlers) record(ctx context.Context, queryID string, kind history.Kind, sqlText, outcome string) {
	if h.history == nil {
		return
	}
	if _, err := h.history.Record(ctx, queryID, kind, sqlText, outcome); err != nil {
		h.logger.Debug("failed to record activity", "query_id", queryID, "error", err)
	}
}
