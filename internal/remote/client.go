package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

// ErrNotFound is returned when the service reports no query with the
// requested id.
var ErrNotFound = errors.New("query not found")

// APIError is a non-2xx response from the query service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("query service returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("query service returned %d", e.Status)
}

// Config holds connection settings for the query service.
type Config struct {
	// BaseURL is the root of the service API, e.g. "http://localhost:8000".
	BaseURL string

	// APIKey, when set, is sent as a bearer token.
	APIKey string

	// HTTPClient overrides the default client. Optional.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client talks to the query service. It implements the console's API
// surface: Get, Resubmit, Execute, Put.
//
// The client performs no retries; retry policy belongs to callers.
type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client
	logger  *slog.Logger
}

// New creates a client for the query service at cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("service URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid service URL %q: %w", cfg.BaseURL, err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		hc:      hc,
		logger:  logger,
	}, nil
}

// Get fetches a query record by id.
//
// The GET payload is partial: the service omits sql_result (and may omit
// other expensive fields) from reads. Callers that already hold a query
// from a mutation response should prefer that version.
func (c *Client) Get(ctx context.Context, id string) (*Query, error) {
	var q Query
	if err := c.do(ctx, http.MethodGet, "/api/v1/queries/"+url.PathEscape(id), nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Resubmit re-runs the query's original question through the service's
// SQL generation. The response is a full query record.
func (c *Client) Resubmit(ctx context.Context, id string) (*Query, error) {
	var q Query
	path := "/api/v1/queries/" + url.PathEscape(id) + "/resubmit"
	if err := c.do(ctx, http.MethodPost, path, nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Execute runs a caller-supplied SQL statement in the query's context.
// The response is a full query record.
func (c *Client) Execute(ctx context.Context, id, sql string) (*Query, error) {
	var q Query
	path := "/api/v1/queries/" + url.PathEscape(id) + "/execute"
	if err := c.do(ctx, http.MethodPost, path, executeRequest{SQL: sql}, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Put applies a partial edit to the query record. The response is a full
// query record.
func (c *Client) Put(ctx context.Context, id string, req PutRequest) (*Query, error) {
	var q Query
	if err := c.do(ctx, http.MethodPut, "/api/v1/queries/"+url.PathEscape(id), req, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Heartbeat checks that the service is reachable.
func (c *Client) Heartbeat(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/heartbeat", nil, nil)
}

// errorEnvelope is the service's error response body.
type errorEnvelope struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("query service call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode == http.StatusNotFound {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env errorEnvelope
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&env); err == nil {
			apiErr.Message = env.Error
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
