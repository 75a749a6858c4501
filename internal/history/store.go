// Package history records operator activity against the query service in
// a local SQLite database, so past resubmits and executions can be
// reviewed from the CLI.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Kind classifies an activity event.
type Kind string

const (
	KindViewed      Kind = "viewed"
	KindResubmitted Kind = "resubmitted"
	KindExecuted    Kind = "executed"
	KindEdited      Kind = "edited"
)

// Event is one recorded interaction with a query.
type Event struct {
	ID         string
	QueryID    string
	Kind       Kind
	SQL        string
	Outcome    string
	OccurredAt time.Time
}

// Store persists activity events in SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewStore creates a store instance. Call Open before use.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger}
}

// Open opens the activity database, creating parent directories as
// needed. Use ":memory:" for an in-memory database.
func (s *Store) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create history directory: %w", err)
			}
		}
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping history database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores one activity event and returns it with its generated id.
func (s *Store) Record(ctx context.Context, queryID string, kind Kind, sqlText, outcome string) (*Event, error) {
	if s.db == nil {
		return nil, fmt.Errorf("history database not opened")
	}

	ev := &Event{
		ID:         uuid.New().String(),
		QueryID:    queryID,
		Kind:       kind,
		SQL:        sqlText,
		Outcome:    outcome,
		OccurredAt: time.Now().UTC(),
	}

	s.logger.Debug("recording activity",
		slog.String("id", ev.ID),
		slog.String("query_id", queryID),
		slog.String("kind", string(kind)))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity (id, query_id, kind, sql_text, outcome, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.QueryID, string(ev.Kind), ev.SQL, ev.Outcome,
		ev.OccurredAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	return ev, nil
}

// Recent returns the most recent events across all queries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Event, error) {
	if s.db == nil {
		return nil, fmt.Errorf("history database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query_id, kind, sql_text, outcome, occurred_at
		 FROM activity ORDER BY occurred_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ForQuery returns events for one query, newest first.
func (s *Store) ForQuery(ctx context.Context, queryID string, limit int) ([]*Event, error) {
	if s.db == nil {
		return nil, fmt.Errorf("history database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query_id, kind, sql_text, outcome, occurred_at
		 FROM activity WHERE query_id = ? ORDER BY occurred_at DESC, id LIMIT ?`,
		queryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity for query %s: %w", queryID, err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	var events []*Event
	for rows.Next() {
		var ev Event
		var kind, occurred string
		if err := rows.Scan(&ev.ID, &ev.QueryID, &kind, &ev.SQL, &ev.Outcome, &occurred); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		ev.Kind = Kind(kind)
		ts, err := time.Parse(time.RFC3339Nano, occurred)
		if err != nil {
			return nil, fmt.Errorf("failed to parse activity timestamp: %w", err)
		}
		ev.OccurredAt = ts
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity rows: %w", err)
	}
	return events, nil
}
