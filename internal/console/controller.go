package console

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/sqlscribe-labs/sqlscribe/internal/remote"
)

// API is the query service surface the controller dispatches against.
// *remote.Client satisfies it; tests use a fake.
type API interface {
	Get(ctx context.Context, id string) (*remote.Query, error)
	Resubmit(ctx context.Context, id string) (*remote.Query, error)
	Execute(ctx context.Context, id, sql string) (*remote.Query, error)
	Put(ctx context.Context, id string, req remote.PutRequest) (*remote.Query, error)
}

// Controller wires one query page together: the loader, the page state
// latch, and the three mutation dispatchers. One controller serves one
// (viewer, query id) pair; Bind re-targets it when the viewer navigates
// to another query.
type Controller struct {
	api    API
	loader *Loader
	state  *PageState
	logger *slog.Logger

	closed atomic.Bool

	mu   sync.Mutex
	id   string
	subs map[int]chan struct{}
	next int
}

// NewController creates a controller for the given query id. No load is
// issued until Load or a dispatcher runs.
func NewController(api API, id string, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Controller{
		api:    api,
		loader: NewLoader(api, id),
		state:  NewPageState(),
		logger: logger,
		id:     id,
		subs:   make(map[int]chan struct{}),
	}

	// Every loader snapshot runs the latch rule: adopt while empty,
	// ignore once seeded. The loader keeps firing on revalidation; the
	// latch must hold.
	c.loader.OnChange(func(snap Snapshot) {
		if c.closed.Load() {
			return
		}
		c.state.Observe(snap.Query)
		c.notify()
	})

	return c
}

// ID returns the query id the controller is currently bound to.
func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Bind re-targets the controller at a different query id, re-arming the
// latch and resetting the loader. Binding to the current id is a no-op.
func (c *Controller) Bind(id string) {
	c.mu.Lock()
	if c.id == id {
		c.mu.Unlock()
		return
	}
	c.id = id
	c.mu.Unlock()

	c.state.Reset()
	c.loader.Rebind(id)
}

// Load runs the initial fetch (or a manual refresh). The result flows
// through the loader snapshot and the latch.
func (c *Controller) Load(ctx context.Context) error {
	return c.loader.Refresh(ctx)
}

// Snapshot returns the loader's current view of the server state.
func (c *Controller) Snapshot() Snapshot {
	return c.loader.Snapshot()
}

// Query returns the page's local copy and whether one is held.
func (c *Controller) Query() (*remote.Query, bool) {
	return c.state.Get()
}

// View selects the render state for the current page state.
func (c *Controller) View() View {
	_, seeded := c.state.Get()
	return SelectView(c.loader.Snapshot(), seeded)
}

// Resubmit re-runs the query's original question.
func (c *Controller) Resubmit(ctx context.Context) (*remote.Query, error) {
	return c.dispatch(ctx, "resubmit", func() (*remote.Query, error) {
		return c.api.Resubmit(ctx, c.ID())
	})
}

// Execute runs a revised SQL statement in the query's context.
func (c *Controller) Execute(ctx context.Context, sql string) (*remote.Query, error) {
	return c.dispatch(ctx, "execute", func() (*remote.Query, error) {
		return c.api.Execute(ctx, c.ID(), sql)
	})
}

// Put applies a partial edit to the query record.
func (c *Controller) Put(ctx context.Context, req remote.PutRequest) (*remote.Query, error) {
	return c.dispatch(ctx, "put", func() (*remote.Query, error) {
		return c.api.Put(ctx, c.ID(), req)
	})
}

// dispatch is the shared mutation path. A failed remote call leaves page
// state untouched, triggers no refresh, and is returned to the caller
// unchanged; the page itself never swallows it. On success the result is
// installed before the refresh is issued, and the refresh serves only to
// revalidate the loader's background state: its error is logged and
// dropped.
func (c *Controller) dispatch(ctx context.Context, op string, call func() (*remote.Query, error)) (*remote.Query, error) {
	q, err := call()
	if err != nil {
		return nil, err
	}

	if c.closed.Load() {
		// Page went away while the call was in flight; do not write.
		return q, nil
	}

	c.state.Apply(q)
	c.notify()

	if err := c.loader.Refresh(ctx); err != nil {
		c.logger.Debug("post-mutation refresh failed",
			"op", op, "query_id", c.ID(), "error", err)
	}

	return q, nil
}

// Subscribe returns a channel that receives a ping after every state
// change, and a cancel func the caller must run when done.
func (c *Controller) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	c.mu.Lock()
	key := c.next
	c.next++
	c.subs[key] = ch
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		delete(c.subs, key)
		c.mu.Unlock()
	}
}

// notify pings all subscribers without blocking. A full channel is
// skipped; the subscriber catches up on the next change.
func (c *Controller) notify() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close marks the page unmounted. In-flight loader callbacks and
// dispatcher completions become no-ops; the local state is abandoned.
func (c *Controller) Close() {
	c.closed.Store(true)
}
