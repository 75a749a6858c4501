package ui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenGate(t *testing.T) http.Handler {
	t.Helper()
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return SharedToken("s3cret")(ok)
}

func TestSharedToken_RejectsMissingToken(t *testing.T) {
	rec := httptest.NewRecorder()
	tokenGate(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSharedToken_RejectsWrongToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?token=nope", nil)
	rec := httptest.NewRecorder()
	tokenGate(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSharedToken_AcceptsBearerHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	tokenGate(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSharedToken_QueryParamSetsCookie(t *testing.T) {
	gate := tokenGate(t)

	req := httptest.NewRequest(http.MethodGet, "/?token=s3cret", nil)
	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, tokenCookie, cookies[0].Name)

	// Follow-up request authenticates via the cookie alone.
	followUp := httptest.NewRequest(http.MethodGet, "/", nil)
	followUp.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	gate.ServeHTTP(rec, followUp)

	assert.Equal(t, http.StatusOK, rec.Code)
}
