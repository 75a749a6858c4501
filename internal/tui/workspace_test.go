package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlscribe-labs/sqlscribe/internal/console"
	"github.com/sqlscribe-labs/sqlscribe/internal/remote"
)

type fakeAPI struct {
	get      func(ctx context.Context, id string) (*remote.Query, error)
	resubmit func(ctx context.Context, id string) (*remote.Query, error)
	execute  func(ctx context.Context, id, sql string) (*remote.Query, error)
	put      func(ctx context.Context, id string, req remote.PutRequest) (*remote.Query, error)
}

func (f *fakeAPI) Get(ctx context.Context, id string) (*remote.Query, error) {
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

func newTestWorkspace(api *fakeAPI) (*Workspace, *console.Controller) {
	ctrl := console.NewController(api, "q-1", nil)
	return NewWorkspace(context.Background(), ctrl), ctrl
}

// run executes the commands a model update returned, feeding resulting
// messages back, the way the bubbletea runtime would.
func run(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			return m
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				m = run(t, m, c)
			}
			return m
		}
		m, cmd = m.Update(msg)
	}
	return m
}

func TestWorkspace_ShowsLoadingThenQuestion(t *testing.T) {
	q := &remote.Query{ID: "q-1", Question: "how many orders", SQL: "SELECT count(*) FROM orders"}
	api := &fakeAPI{get: func(context.Context, string) (*remote.Query, error) { return q, nil }}

	w, _ := newTestWorkspace(api)
	assert.Contains(t, w.View(), "loading")

	m := run(t, w, w.loadCmd())

	view := m.View()
	assert.Contains(t, view, "how many orders")
	assert.Contains(t, view, "SELECT count(*) FROM orders")
}

func TestWorkspace_ShowsErrorView(t *testing.T) {
	api := &fakeAPI{get: func(context.Context, string) (*remote.Query, error) {
		return nil, errors.New("service down")
	}}

	w, _ := newTestWorkspace(api)
	m := run(t, w, w.loadCmd())

	assert.Contains(t, m.View(), "service down")
}

func TestWorkspace_RunExecutesStoredSQL(t *testing.T) {
	q := &remote.Query{ID: "q-1", Question: "q", SQL: "SELECT 1"}
	executed := &remote.Query{
		ID: "q-1", Question: "q", SQL: "SELECT 1",
		Result: &remote.Result{Columns: []string{"n"}, Rows: [][]any{{1}}, RowCount: 1},
	}

	var gotSQL string
	api := &fakeAPI{
		get: func(context.Context, string) (*remote.Query, error) { return q, nil },
		execute: func(_ context.Context, _ string, sql string) (*remote.Query, error) {
			gotSQL = sql
			return executed, nil
		},
	}

	w, ctrl := newTestWorkspace(api)
	m := run(t, w, w.loadCmd())

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = run(t, m, cmd)

	assert.Equal(t, "SELECT 1", gotSQL)
	local, _ := ctrl.Query()
	require.NotNil(t, local.Result)
	assert.Contains(t, m.View(), "run ok")
}

func TestWorkspace_FailedMutationShowsNotice(t *testing.T) {
	q := &remote.Query{ID: "q-1", Question: "q", SQL: "SELECT 1"}
	api := &fakeAPI{
		get: func(context.Context, string) (*remote.Query, error) { return q, nil },
		resubmit: func(context.Context, string) (*remote.Query, error) {
			return nil, errors.New("generation failed")
		},
	}

	w, ctrl := newTestWorkspace(api)
	m := run(t, w, w.loadCmd())

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	m = run(t, m, cmd)

	assert.Contains(t, m.View(), "regenerate failed")

	// The workspace keeps showing the last good state.
	local, ok := ctrl.Query()
	require.True(t, ok)
	assert.Equal(t, "SELECT 1", local.SQL)
}

func TestWorkspace_EditTogglesTextarea(t *testing.T) {
	q := &remote.Query{ID: "q-1", Question: "q", SQL: "SELECT 1"}
	api := &fakeAPI{get: func(context.Context, string) (*remote.Query, error) { return q, nil }}

	w, _ := newTestWorkspace(api)
	m := run(t, w, w.loadCmd())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	ws := m.(*Workspace)
	assert.True(t, ws.editing)
	assert.Equal(t, "SELECT 1", ws.editor.Value())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.(*Workspace).editing)
}

func TestWorkspace_QuitKey(t *testing.T) {
	q := &remote.Query{ID: "q-1", Question: "q"}
	api := &fakeAPI{get: func(context.Context, string) (*remote.Query, error) { return q, nil }}

	w, _ := newTestWorkspace(api)
	m := run(t, w, w.loadCmd())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
