// Package ui provides the web-based review console for sqlscribe.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/sqlscribe-labs/sqlscribe/internal/console"
	"github.com/sqlscribe-labs/sqlscribe/internal/history"
	"github.com/sqlscribe-labs/sqlscribe/internal/ui/notifier"
	"github.com/sqlscribe-labs/sqlscribe/internal/ui/resources"
	"github.com/sqlscribe-labs/sqlscribe/internal/ui/router"
)

// Server is the console web server.
type Server struct {
	api          console.API
	history      *history.Store
	sessionStore *sessions.CookieStore
	port         int
	watch        bool
	accessToken  string
	logger       *slog.Logger
	notifier     *notifier.Notifier
}

// Config holds configuration for the console server.
type Config struct {
	Client        console.API
	History       *history.Store
	Port          int
	Watch         bool
	SessionSecret string

	// AccessToken, when non-empty, gates every route behind a shared
	// bearer token. The console itself performs no user auth beyond this.
	AccessToken string

	Logger *slog.Logger
}

// NewServer creates a new console server instance.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		api:          cfg.Client,
		history:      cfg.History,
		sessionStore: sessionStore,
		port:         cfg.Port,
		watch:        cfg.Watch,
		accessToken:  cfg.AccessToken,
		logger:       logger,
		notifier:     notifier.New(),
	}
}

// Serve starts the console server and blocks until the context is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting console server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)
	if s.accessToken != "" {
		r.Use(SharedToken(s.accessToken))
	}

	registry := router.SetupRoutes(r, s.api, s.history, s.sessionStore, s.notifier, s.logger, s.IsDev())
	defer registry.CloseAll()

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start asset watcher if enabled
	if s.watch {
		eg.Go(func() error {
			return s.watchAssets(egctx)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down console server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// IsDev returns true if running in development mode.
func (s *Server) IsDev() bool {
	return s.watch
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// watchAssets watches the static asset directory and triggers a browser
// reload when files change.
func (s *Server) watchAssets(ctx context.Context) error {
	dir := resources.StaticDir()
	if dir == "" {
		// Assets are embedded in this build; nothing to watch.
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		s.logger.Error("failed to watch static directory", "error", err)
		return nil
	}

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			ext := filepath.Ext(event.Name)
			if ext != ".css" && ext != ".js" {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("asset changed, reloading", "file", event.Name)
				s.notifier.Broadcast()
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}
