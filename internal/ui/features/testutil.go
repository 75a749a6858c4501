// Package features provides shared test utilities for console feature
// tests.
package features

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/sqlscribe-labs/sqlscribe/internal/history"
	"github.com/sqlscribe-labs/sqlscribe/internal/remote"
	"github.com/sqlscribe-labs/sqlscribe/internal/testutil"
)

// FakeService is an in-memory stand-in for the query service. Handlers
// can be overridden per test; by default it serves records from Queries.
type FakeService struct {
	mu      sync.Mutex
	Queries map[string]*remote.Query

	// Optional overrides. When nil the default behavior applies.
	OnResubmit func(id string) (*remote.Query, int)
	OnExecute  func(id, sql string) (*remote.Query, int)
	OnPut      func(id string, body map[string]any) (*remote.Query, int)

	GetCalls int
}

// TestFixture holds all dependencies needed for console handler tests.
type TestFixture struct {
	Service      *FakeService
	Server       *httptest.Server
	Client       *remote.Client
	History      *history.Store
	SessionStore *sessions.CookieStore
}

// SetupTestFixture creates a fake query service, a client against it, an
// in-memory history store, and a session store.
func SetupTestFixture(t *testing.T, queries ...*remote.Query) *TestFixture {
	t.Helper()

	svc := &FakeService{Queries: map[string]*remote.Query{}}
	for _, q := range queries {
		svc.Queries[q.ID] = q
	}

	server := httptest.NewServer(svc.handler())
	t.Cleanup(server.Close)

	client, err := remote.New(remote.Config{
		BaseURL: server.URL,
		Logger:  testutil.NewTestLogger(t),
	})
	require.NoError(t, err)

	store := history.NewStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })

	return &TestFixture{
		Service:      svc,
		Server:       server,
		Client:       client,
		History:      store,
		SessionStore: NewTestSessionStore(),
	}
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}

// Set replaces a stored record.
func (s *FakeService) Set(q *remote.Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries[q.ID] = q
}

func (s *FakeService) get(id string) (*remote.Query, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.Queries[id]
	return q, ok
}

func (s *FakeService) handler() http.Handler {
	r := chi.NewMux()

	r.Get("/api/v1/heartbeat", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/v1/queries/{id}", func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.GetCalls++
		s.mu.Unlock()

		q, ok := s.get(chi.URLParam(req, "id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}

		// Reads omit the execution result, like the real service.
		partial := *q
		partial.Result = nil
		writeJSON(w, http.StatusOK, &partial)
	})

	r.Post("/api/v1/queries/{id}/resubmit", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		if s.OnResubmit != nil {
			q, status := s.OnResubmit(id)
			writeResult(w, q, status)
			return
		}
		q, ok := s.get(id)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, q)
	})

	r.Post("/api/v1/queries/{id}/execute", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		var body struct {
			SQL string `json:"sql_query"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)

		if s.OnExecute != nil {
			q, status := s.OnExecute(id, body.SQL)
			writeResult(w, q, status)
			return
		}
		q, ok := s.get(id)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, q)
	})

	r.Put("/api/v1/queries/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		var body map[string]any
		_ = json.NewDecoder(req.Body).Decode(&body)

		if s.OnPut != nil {
			q, status := s.OnPut(id, body)
			writeResult(w, q, status)
			return
		}
		q, ok := s.get(id)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, q)
	})

	return r
}

func writeResult(w http.ResponseWriter, q *remote.Query, status int) {
	if status >= 400 || q == nil {
		writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
		return
	}
	writeJSON(w, status, q)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
