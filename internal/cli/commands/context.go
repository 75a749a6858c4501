// Package commands implements the sqlscribe subcommands.
package commands

import (
	"context"
	"log/slog"

	"github.com/sqlscribe-labs/sqlscribe/internal/config"
	"github.com/sqlscribe-labs/sqlscribe/internal/history"
	"github.com/sqlscribe-labs/sqlscribe/internal/remote"
)

type configKey struct{}
type loggerKey struct{}

// WithConfig stores the loaded config in the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithLogger stores the logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		ServiceURL:   config.DefaultServiceURL,
		OutputFormat: config.DefaultOutput,
		UI:           config.UIConfig{Port: config.DefaultUIPort},
	}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// newClient builds a query service client from config.
func newClient(ctx context.Context) (*remote.Client, error) {
	cfg := GetConfig(ctx)
	return remote.New(remote.Config{
		BaseURL: cfg.ServiceURL,
		APIKey:  cfg.APIKey,
		Logger:  GetLogger(ctx),
	})
}

// openHistory opens the activity database, running pending migrations.
func openHistory(ctx context.Context) (*history.Store, error) {
	cfg := GetConfig(ctx)
	store := history.NewStore(GetLogger(ctx))
	if err := store.Open(cfg.HistoryPath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
