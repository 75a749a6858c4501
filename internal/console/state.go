// Package console holds the page state logic for a single query record:
// a loader for the server's copy, a first-write-wins register for the
// page's local copy, the three mutation dispatchers, and the mapping from
// state to a view.
//
// The package is UI-agnostic. Both the web console and the terminal
// workspace drive a Controller and render whatever View it selects.
package console

import (
	"sync"

	"github.com/sqlscribe-labs/sqlscribe/internal/remote"
)

type latchState int

const (
	latchEmpty latchState = iota
	latchSeeded
)

// PageState is the page's local copy of the query, fed by two producers
// with different authority. Loader snapshots may only seed it while it is
// empty; mutation results always overwrite it.
//
// The asymmetry is deliberate: GET payloads omit fields (notably the
// result) that mutation responses carry, so adopting a later load would
// regress data the page already has.
type PageState struct {
	mu    sync.Mutex
	state latchState
	query *remote.Query
}

// NewPageState returns an empty register.
func NewPageState() *PageState {
	return &PageState{}
}

// Observe offers a loader value to the register. It is adopted only while
// the register is empty; once seeded, loader values are ignored no matter
// how often or with what payload Observe fires. A nil value while empty
// is a no-op and leaves the latch open, so the first concrete value is
// still adopted exactly once.
func (p *PageState) Observe(q *remote.Query) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != latchEmpty || q == nil {
		return
	}
	p.query = q
	p.state = latchSeeded
}

// Apply installs a mutation result. Mutation responses are authoritative
// and always win, seeding the latch as a side effect.
func (p *PageState) Apply(q *remote.Query) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.query = q
	p.state = latchSeeded
}

// Reset re-arms the latch. Used when the controller is bound to a
// different query id.
func (p *PageState) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.query = nil
	p.state = latchEmpty
}

// Get returns the current local query and whether the register has been
// seeded.
func (p *PageState) Get() (*remote.Query, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.query, p.state == latchSeeded
}
