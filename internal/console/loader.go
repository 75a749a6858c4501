package console

import (
	"context"
	"sync"

	"github.com/sqlscribe-labs/sqlscribe/internal/remote"
)

// Getter is the read slice of the query service the loader needs.
type Getter interface {
	Get(ctx context.Context, id string) (*remote.Query, error)
}

// Snapshot is the loader's view of the server's copy at one moment.
// Err can become non-nil on any refresh, not only the first load.
type Snapshot struct {
	Query   *remote.Query
	Loading bool
	Err     error
}

// Loader fetches the server's copy of one query and notifies a callback
// on every snapshot change. Callers use Refresh's return value only as a
// completion signal; the refreshed payload is delivered through the
// snapshot, where the page's latch decides whether to adopt it.
type Loader struct {
	get Getter

	mu       sync.Mutex
	id       string
	snap     Snapshot
	onChange func(Snapshot)
}

// NewLoader creates a loader for the given query id. The initial snapshot
// is loading with no data.
func NewLoader(get Getter, id string) *Loader {
	return &Loader{
		get:  get,
		id:   id,
		snap: Snapshot{Loading: true},
	}
}

// OnChange registers the callback invoked after every snapshot change.
// Only one callback is supported; the controller owns it.
func (l *Loader) OnChange(fn func(Snapshot)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Snapshot returns the current snapshot.
func (l *Loader) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap
}

// Rebind points the loader at a different query id and resets the
// snapshot to its initial loading state.
func (l *Loader) Rebind(id string) {
	l.mu.Lock()
	l.id = id
	l.snap = Snapshot{Loading: true}
	fn, snap := l.onChange, l.snap
	l.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// Refresh re-fetches the query and updates the snapshot. The returned
// error mirrors the snapshot's Err and exists so callers can sequence on
// completion; the value itself is delivered via the change callback.
//
// A refresh that races a Rebind is discarded: its result belongs to the
// previous id.
func (l *Loader) Refresh(ctx context.Context) error {
	l.mu.Lock()
	id := l.id
	l.snap.Loading = true
	fn, snap := l.onChange, l.snap
	l.mu.Unlock()

	if fn != nil {
		fn(snap)
	}

	q, err := l.get.Get(ctx, id)

	l.mu.Lock()
	if l.id != id {
		// Rebound while in flight; the result is stale.
		l.mu.Unlock()
		return nil
	}
	l.snap = Snapshot{Query: q, Loading: false, Err: err}
	fn, snap = l.onChange, l.snap
	l.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
	return err
}
