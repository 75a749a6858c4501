package console

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlscribe-labs/sqlscribe/internal/remote"
)

type scriptedGetter struct {
	fn func(ctx context.Context, id string) (*remote.Query, error)
}

func (g *scriptedGetter) Get(ctx context.Context, id string) (*remote.Query, error) {
	return g.fn(ctx, id)
}

func TestLoader_InitialSnapshotIsLoading(t *testing.T) {
	l := NewLoader(&scriptedGetter{}, "q-1")

	snap := l.Snapshot()
	assert.True(t, snap.Loading)
	assert.Nil(t, snap.Query)
	assert.NoError(t, snap.Err)
}

func TestLoader_RefreshDeliversDataThroughCallback(t *testing.T) {
	q := &remote.Query{ID: "q-1"}
	l := NewLoader(&scriptedGetter{fn: func(_ context.Context, id string) (*remote.Query, error) {
		assert.Equal(t, "q-1", id)
		return q, nil
	}}, "q-1")

	var snaps []Snapshot
	l.OnChange(func(s Snapshot) { snaps = append(snaps, s) })

	require.NoError(t, l.Refresh(context.Background()))

	// Two notifications: loading flip, then the settled snapshot.
	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].Loading)
	assert.False(t, snaps[1].Loading)
	assert.Same(t, q, snaps[1].Query)
}

func TestLoader_RefreshErrorSetsErrAndReturnsIt(t *testing.T) {
	boom := errors.New("boom")
	l := NewLoader(&scriptedGetter{fn: func(context.Context, string) (*remote.Query, error) {
		return nil, boom
	}}, "q-1")

	err := l.Refresh(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, l.Snapshot().Err, boom)
}

func TestLoader_ErrorCanAppearOnLaterRefresh(t *testing.T) {
	q := &remote.Query{ID: "q-1"}
	var fail bool
	l := NewLoader(&scriptedGetter{fn: func(context.Context, string) (*remote.Query, error) {
		if fail {
			return nil, errors.New("flaky")
		}
		return q, nil
	}}, "q-1")

	require.NoError(t, l.Refresh(context.Background()))
	assert.NoError(t, l.Snapshot().Err)

	fail = true
	_ = l.Refresh(context.Background())
	assert.Error(t, l.Snapshot().Err)
}

func TestLoader_RebindResetsSnapshot(t *testing.T) {
	l := NewLoader(&scriptedGetter{fn: func(_ context.Context, id string) (*remote.Query, error) {
		return &remote.Query{ID: id}, nil
	}}, "q-1")

	require.NoError(t, l.Refresh(context.Background()))
	require.NotNil(t, l.Snapshot().Query)

	l.Rebind("q-2")

	snap := l.Snapshot()
	assert.True(t, snap.Loading)
	assert.Nil(t, snap.Query)

	require.NoError(t, l.Refresh(context.Background()))
	assert.Equal(t, "q-2", l.Snapshot().Query.ID)
}
