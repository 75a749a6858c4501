package ui

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// tokenCookie carries the shared token between requests once a browser
// has presented it via the ?token= query parameter.
const tokenCookie = "sqlscribe_token"

// SharedToken returns middleware that rejects requests lacking the shared
// access token. The token is accepted as a bearer header, the token
// cookie, or a ?token= query parameter; a matching query parameter sets
// the cookie so later requests from the same browser pass without it.
func SharedToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); auth != "" {
				presented := strings.TrimPrefix(auth, "Bearer ")
				if tokenMatches(token, presented) {
					next.ServeHTTP(w, r)
					return
				}
			}

			if c, err := r.Cookie(tokenCookie); err == nil && tokenMatches(token, c.Value) {
				next.ServeHTTP(w, r)
				return
			}

			if presented := r.URL.Query().Get("token"); tokenMatches(token, presented) {
				http.SetCookie(w, &http.Cookie{
					Name:     tokenCookie,
					Value:    presented,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				next.ServeHTTP(w, r)
				return
			}

			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
}

func tokenMatches(want, got string) bool {
	if got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
