// Package testutil holds helpers shared across package tests.
package testutil

import (
	"log/slog"
	"strings"
	"testing"
)

// NewTestLogger returns a debug-level logger that routes records through
// t.Log, so output interleaves with the test's own and only surfaces on
// failure or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	handler := slog.NewTextHandler(tLogWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// t.Log timestamps every line already.
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(handler)
}

type tLogWriter struct {
	t testing.TB
}

func (w tLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
