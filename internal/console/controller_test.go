package console

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlscribe-labs/sqlscribe/internal/remote"
)

// fakeAPI lets each test script the remote service.
type fakeAPI struct {
	get      func(ctx context.Context, id string) (*remote.Query, error)
	resubmit func(ctx context.Context, id string) (*remote.Query, error)
	execute  func(ctx context.Context, id, sql string) (*remote.Query, error)
	put      func(ctx context.Context, id string, req remote.PutRequest) (*remote.Query, error)

	gets int32
}

func (f *fakeAPI) Get(ctx context.Context, id string) (*remote.Query, error) {
	atomic.AddInt32(&f.gets, 1)
	if f.get == nil {
		return nil, errors.New("get not scripted")
	}
	return f.get(ctx, id)
}

func (f *fakeAPI) Resubmit(ctx context.Context, id string) (*remote.Query, error) {
	return f.resubmit(ctx, id)
}

func (f *fakeAPI) Execute(ctx context.Context, id, sql string) (*remote.Query, error) {
	return f.execute(ctx, id, sql)
}

func (f *fakeAPI) Put(ctx context.Context, id string, req remote.PutRequest) (*remote.Query, error) {
	return f.put(ctx, id, req)
}

func (f *fakeAPI) getCount() int {
	return int(atomic.LoadInt32(&f.gets))
}

func staticGet(q *remote.Query) func(context.Context, string) (*remote.Query, error) {
	return func(context.Context, string) (*remote.Query, error) {
		return q, nil
	}
}

func TestController_LoadingThenWorkspace(t *testing.T) {
	q1 := &remote.Query{ID: "q-1", SQL: "SELECT 1"}
	api := &fakeAPI{get: staticGet(q1)}

	c := NewController(api, "q-1", nil)
	assert.Equal(t, ViewLoading, c.View())

	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, ViewWorkspace, c.View())
	got, ok := c.Query()
	require.True(t, ok)
	assert.Same(t, q1, got)
}

func TestController_LaterLoadsDoNotReplaceLocalState(t *testing.T) {
	q1 := &remote.Query{ID: "q-1", SQL: "SELECT 1"}
	q2 := &remote.Query{ID: "q-1", SQL: "SELECT 2"}

	served := q1
	api := &fakeAPI{get: func(context.Context, string) (*remote.Query, error) {
		return served, nil
	}}

	c := NewController(api, "q-1", nil)
	require.NoError(t, c.Load(context.Background()))

	// A revalidation returns a different payload; the latch must hold.
	served = q2
	require.NoError(t, c.Load(context.Background()))

	got, _ := c.Query()
	assert.Same(t, q1, got)
	assert.Equal(t, ViewWorkspace, c.View())
}

func TestController_ExecuteInstallsResultAndRefreshes(t *testing.T) {
	q1 := &remote.Query{ID: "q-1", SQL: "SELECT 1"}
	q3 := &remote.Query{ID: "q-1", SQL: "SELECT 1", Result: &remote.Result{RowCount: 1}}

	api := &fakeAPI{get: staticGet(q1)}
	api.execute = func(_ context.Context, _ string, sql string) (*remote.Query, error) {
		assert.Equal(t, "SELECT 1", sql)
		return q3, nil
	}

	c := NewController(api, "q-1", nil)
	require.NoError(t, c.Load(context.Background()))
	loadsBefore := api.getCount()

	got, err := c.Execute(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Same(t, q3, got)

	// The mutation result is the page state, and a refresh was issued.
	local, _ := c.Query()
	assert.Same(t, q3, local)
	assert.Equal(t, loadsBefore+1, api.getCount())

	// The refresh's own GET payload (q1, without the result) must not
	// have displaced the mutation result.
	assert.Same(t, q3, local)
}

func TestController_LoadErrorPreemptsWorkspace(t *testing.T) {
	q1 := &remote.Query{ID: "q-1"}
	var failing atomic.Bool

	api := &fakeAPI{get: func(context.Context, string) (*remote.Query, error) {
		if failing.Load() {
			return nil, errors.New("service down")
		}
		return q1, nil
	}}

	c := NewController(api, "q-1", nil)
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, ViewWorkspace, c.View())

	failing.Store(true)
	_ = c.Load(context.Background())

	// Error wins, but the local state survives for when it clears.
	assert.Equal(t, ViewError, c.View())
	got, ok := c.Query()
	assert.True(t, ok)
	assert.Same(t, q1, got)
}

func TestController_FailedMutationLeavesStateAndSkipsRefresh(t *testing.T) {
	q1 := &remote.Query{ID: "q-1", SQL: "SELECT 1"}
	remoteErr := errors.New("generation failed")

	api := &fakeAPI{get: staticGet(q1)}
	api.resubmit = func(context.Context, string) (*remote.Query, error) {
		return nil, remoteErr
	}

	c := NewController(api, "q-1", nil)
	require.NoError(t, c.Load(context.Background()))
	loadsBefore := api.getCount()

	_, err := c.Resubmit(context.Background())
	assert.ErrorIs(t, err, remoteErr)

	got, _ := c.Query()
	assert.Same(t, q1, got)
	assert.Equal(t, loadsBefore, api.getCount(), "no refresh after a failed mutation")
}

func TestController_PostMutationRefreshFailureIsSilent(t *testing.T) {
	q3 := &remote.Query{ID: "q-1", SQL: "SELECT 3"}

	api := &fakeAPI{get: func(context.Context, string) (*remote.Query, error) {
		return nil, errors.New("revalidation failed")
	}}
	api.put = func(context.Context, string, remote.PutRequest) (*remote.Query, error) {
		return q3, nil
	}

	c := NewController(api, "q-1", nil)

	got, err := c.Put(context.Background(), remote.PutRequest{"sql_query": "SELECT 3"})
	require.NoError(t, err, "refresh failures do not surface through the dispatcher")
	assert.Same(t, q3, got)

	local, _ := c.Query()
	assert.Same(t, q3, local)
}

func TestController_BindResetsLatchForNewID(t *testing.T) {
	q1 := &remote.Query{ID: "q-1", SQL: "SELECT 1"}
	q2 := &remote.Query{ID: "q-2", SQL: "SELECT 2"}

	api := &fakeAPI{get: func(_ context.Context, id string) (*remote.Query, error) {
		if id == "q-2" {
			return q2, nil
		}
		return q1, nil
	}}

	c := NewController(api, "q-1", nil)
	require.NoError(t, c.Load(context.Background()))

	c.Bind("q-2")

	// Navigating re-arms the latch: back to loading, then the new
	// query's data is adopted.
	assert.Equal(t, ViewLoading, c.View())
	_, seeded := c.Query()
	assert.False(t, seeded)

	require.NoError(t, c.Load(context.Background()))
	got, _ := c.Query()
	assert.Same(t, q2, got)
}

func TestController_BindSameIDIsNoOp(t *testing.T) {
	q1 := &remote.Query{ID: "q-1"}
	api := &fakeAPI{get: staticGet(q1)}

	c := NewController(api, "q-1", nil)
	require.NoError(t, c.Load(context.Background()))

	c.Bind("q-1")

	got, seeded := c.Query()
	assert.True(t, seeded)
	assert.Same(t, q1, got)
}

func TestController_NoWritesAfterClose(t *testing.T) {
	q1 := &remote.Query{ID: "q-1"}
	q3 := &remote.Query{ID: "q-1", SQL: "SELECT 3"}

	api := &fakeAPI{get: staticGet(q1)}
	c := NewController(api, "q-1", nil)

	api.resubmit = func(context.Context, string) (*remote.Query, error) {
		// The page unmounts while the call is in flight.
		c.Close()
		return q3, nil
	}

	got, err := c.Resubmit(context.Background())
	require.NoError(t, err)
	assert.Same(t, q3, got, "the caller still receives the mutation result")

	_, seeded := c.Query()
	assert.False(t, seeded, "no state write after close")
}

func TestController_SubscribeReceivesChangePings(t *testing.T) {
	q1 := &remote.Query{ID: "q-1"}
	api := &fakeAPI{get: staticGet(q1)}

	c := NewController(api, "q-1", nil)
	ch, cancel := c.Subscribe()
	defer cancel()

	require.NoError(t, c.Load(context.Background()))

	select {
	case <-ch:
	default:
		t.Fatal("expected a change ping after load")
	}
}

func TestController_StaleRefreshDiscardedAfterBind(t *testing.T) {
	q1 := &remote.Query{ID: "q-1"}
	q2 := &remote.Query{ID: "q-2"}

	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{}
	api.get = func(_ context.Context, id string) (*remote.Query, error) {
		if id == "q-1" {
			close(started)
			<-release
			return q1, nil
		}
		return q2, nil
	}

	c := NewController(api, "q-1", nil)

	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background()) }()

	<-started
	c.Bind("q-2")
	close(release)
	require.NoError(t, <-done)

	// The q-1 result landed after the rebind and must not have seeded
	// q-2's latch.
	_, seeded := c.Query()
	assert.False(t, seeded)

	require.NoError(t, c.Load(context.Background()))
	got, _ := c.Query()
	assert.Same(t, q2, got)
}
