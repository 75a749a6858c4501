package query

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/sqlscribe-labs/sqlscribe/internal/console"
)

const (
	sessionName = "sqlscribe_session"
	sessionKey  = "sid"
)

// registryKey identifies one workspace page: one browser session looking
// at one query. Two tabs on different queries get independent
// controllers, so a navigation in one tab never resets the other.
type registryKey struct {
	session string
	query   string
}

// Registry owns one page controller per (session, query id) pair. A
// fresh pair gets a fresh controller with its adopt-once state re-armed.
type Registry struct {
	api    console.API
	logger *slog.Logger

	mu      sync.Mutex
	entries map[registryKey]*console.Controller
}

// NewRegistry creates a controller registry backed by the given service
// client.
func NewRegistry(api console.API, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		api:     api,
		logger:  logger,
		entries: make(map[registryKey]*console.Controller),
	}
}

// Acquire returns the controller for (sessionID, queryID), creating it
// on first use. Returning to a query the session already has open keeps
// its page state.
func (reg *Registry) Acquire(sessionID, queryID string) *console.Controller {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	key := registryKey{session: sessionID, query: queryID}
	if ctrl, ok := reg.entries[key]; ok {
		return ctrl
	}

	ctrl := console.NewController(reg.api, queryID, reg.logger)
	reg.entries[key] = ctrl
	return ctrl
}

// CloseAll shuts down every controller. Used on server shutdown.
func (reg *Registry) CloseAll() {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for key, ctrl := range reg.entries {
		ctrl.Close()
		delete(reg.entries, key)
	}
}

// sessionID returns the stable id for the browser session, creating one
// on first contact.
func sessionID(sessionStore sessions.Store, w http.ResponseWriter, r *http.Request) string {
	session, _ := sessionStore.Get(r, sessionName)

	if sid, ok := session.Values[sessionKey].(string); ok && sid != "" {
		return sid
	}

	sid := uuid.New().String()
	session.Values[sessionKey] = sid
	_ = session.Save(r, w)
	return sid
}
