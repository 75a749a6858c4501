package home

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlscribe-labs/sqlscribe/internal/history"
	"github.com/sqlscribe-labs/sqlscribe/internal/testutil"
	"github.com/sqlscribe-labs/sqlscribe/internal/ui/features"
)

func setupHomeRouter(t *testing.T) (*chi.Mux, *history.Store) {
	t.Helper()

	fixture := features.SetupTestFixture(t)

	r := chi.NewMux()
	SetupRoutes(r, fixture.History, testutil.NewTestLogger(t), false)

	return r, fixture.History
}

func TestHomePage_RendersOpenForm(t *testing.T) {
	r, _ := setupHomeRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, `action="/open"`)
	assert.Contains(t, body, "No recent activity")
}

func TestHomePage_ListsRecentActivity(t *testing.T) {
	r, store := setupHomeRouter(t)

	ctx := context.Background()
	_, err := store.Record(ctx, "q-1", history.KindViewed, "", "")
	require.NoError(t, err)
	_, err = store.Record(ctx, "q-2", history.KindExecuted, "SELECT 1", "NOT_VERIFIED")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "Recent activity")
	assert.Contains(t, body, `href="/queries/q-1"`)
	assert.Contains(t, body, `href="/queries/q-2"`)
	assert.Contains(t, body, "executed")
	assert.NotContains(t, body, "No recent activity")
}

func TestOpen_RedirectsToWorkspace(t *testing.T) {
	r, _ := setupHomeRouter(t)

	form := strings.NewReader("id=q-42")
	req := httptest.NewRequest(http.MethodPost, "/open", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/queries/q-42", rec.Header().Get("Location"))
}

func TestOpen_EmptyIDGoesBackHome(t *testing.T) {
	r, _ := setupHomeRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/open", strings.NewReader("id="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}
