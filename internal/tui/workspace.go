// Package tui implements the full-screen terminal workspace for one
// query record.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sqlscribe-labs/sqlscribe/internal/console"
	"github.com/sqlscribe-labs/sqlscribe/internal/remote"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	statusStyles = map[remote.Status]lipgloss.Style{
		remote.StatusVerified:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		remote.StatusRejected:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		remote.StatusSQLError:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		remote.StatusNotVerified: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	}
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	faintStyle = lipgloss.NewStyle().Faint(true)
	paneStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// loadedMsg reports a completed load or refresh.
type loadedMsg struct {
	err error
}

// mutatedMsg reports a completed mutation.
type mutatedMsg struct {
	op  string
	err error
}

// Workspace is the bubbletea model for one query record.
type Workspace struct {
	ctx  context.Context
	ctrl *console.Controller
	keys keyMap

	editor  textarea.Model
	results viewport.Model
	spin    spinner.Model

	width   int
	height  int
	editing bool
	busy    bool
	notice  string
}

// NewWorkspace creates the workspace model bound to a controller.
func NewWorkspace(ctx context.Context, ctrl *console.Controller) *Workspace {
	editor := textarea.New()
	editor.Placeholder = "SELECT ..."
	editor.ShowLineNumbers = false

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &Workspace{
		ctx:     ctx,
		ctrl:    ctrl,
		keys:    defaultKeyMap(),
		editor:  editor,
		results: viewport.New(0, 0),
		spin:    spin,
	}
}

// Init starts the spinner and the initial load.
func (w *Workspace) Init() tea.Cmd {
	return tea.Batch(w.spin.Tick, w.loadCmd())
}

func (w *Workspace) loadCmd() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: w.ctrl.Load(w.ctx)}
	}
}

func (w *Workspace) mutateCmd(op string, call func() error) tea.Cmd {
	return func() tea.Msg {
		return mutatedMsg{op: op, err: call()}
	}
}

// Update handles messages.
func (w *Workspace) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
		w.editor.SetWidth(msg.Width - 4)
		w.results.Width = msg.Width - 4
		w.results.Height = max(msg.Height-16, 3)
		return w, nil

	case loadedMsg:
		w.busy = false
		w.syncViews()
		return w, nil

	case mutatedMsg:
		w.busy = false
		if msg.err != nil {
			w.notice = errStyle.Render(fmt.Sprintf("%s failed: %v", msg.op, msg.err))
		} else {
			w.notice = fmt.Sprintf("%s ok", msg.op)
		}
		w.syncViews()
		return w, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		w.spin, cmd = w.spin.Update(msg)
		return w, cmd

	case tea.KeyMsg:
		return w.handleKey(msg)
	}

	return w, nil
}

func (w *Workspace) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if w.editing {
		switch {
		case key.Matches(msg, w.keys.Cancel):
			w.editing = false
			w.editor.Blur()
			return w, nil
		case key.Matches(msg, w.keys.Run):
			return w.startRun(w.editor.Value())
		case key.Matches(msg, w.keys.Save):
			return w.startSave(w.editor.Value())
		}
		var cmd tea.Cmd
		w.editor, cmd = w.editor.Update(msg)
		return w, cmd
	}

	switch {
	case key.Matches(msg, w.keys.Quit):
		return w, tea.Quit
	case key.Matches(msg, w.keys.Edit):
		if q, ok := w.ctrl.Query(); ok {
			w.editor.SetValue(q.SQL)
		}
		w.editing = true
		w.editor.Focus()
		return w, textarea.Blink
	case key.Matches(msg, w.keys.Run):
		sql := w.currentSQL()
		return w.startRun(sql)
	case key.Matches(msg, w.keys.Resubmit):
		w.busy = true
		w.notice = ""
		return w, w.mutateCmd("regenerate", func() error {
			_, err := w.ctrl.Resubmit(w.ctx)
			return err
		})
	case key.Matches(msg, w.keys.Refresh):
		w.busy = true
		w.notice = ""
		return w, w.loadCmd()
	}

	var cmd tea.Cmd
	w.results, cmd = w.results.Update(msg)
	return w, cmd
}

func (w *Workspace) startRun(sql string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(sql) == "" {
		w.notice = "nothing to run"
		return w, nil
	}
	w.busy = true
	w.notice = ""
	return w, w.mutateCmd("run", func() error {
		_, err := w.ctrl.Execute(w.ctx, sql)
		return err
	})
}

func (w *Workspace) startSave(sql string) (tea.Model, tea.Cmd) {
	w.busy = true
	w.notice = ""
	return w, w.mutateCmd("save", func() error {
		_, err := w.ctrl.Put(w.ctx, remote.PutRequest{"sql_query": sql})
		return err
	})
}

func (w *Workspace) currentSQL() string {
	if q, ok := w.ctrl.Query(); ok {
		return q.SQL
	}
	return ""
}

// syncViews refreshes derived widgets from the controller state.
func (w *Workspace) syncViews() {
	q, ok := w.ctrl.Query()
	if !ok {
		return
	}
	if !w.editing {
		w.editor.SetValue(q.SQL)
	}
	if q.Result != nil {
		w.results.SetContent(renderRows(q.Result))
	}
}

// View renders the workspace.
func (w *Workspace) View() string {
	switch w.ctrl.View() {
	case console.ViewLoading:
		return fmt.Sprintf("\n  %s loading query...\n", w.spin.View())
	case console.ViewError:
		snap := w.ctrl.Snapshot()
		return errStyle.Render(fmt.Sprintf("\n  failed to load query: %v\n", snap.Err)) +
			faintStyle.Render("\n  r to retry, q to quit\n")
	case console.ViewEmpty:
		return faintStyle.Render("\n  no query loaded\n")
	}

	q, _ := w.ctrl.Query()
	var b strings.Builder

	b.WriteString(titleStyle.Render(q.Question))
	b.WriteString("  ")
	b.WriteString(statusBadge(q.Status))
	if q.Confidence > 0 {
		b.WriteString(faintStyle.Render(fmt.Sprintf("  %.0f%%", q.Confidence*100)))
	}
	b.WriteString("\n\n")

	if w.editing {
		b.WriteString(paneStyle.Render(w.editor.View()))
	} else {
		b.WriteString(paneStyle.Render(q.SQL))
	}
	b.WriteString("\n\n")

	if q.Result != nil {
		b.WriteString(w.results.View())
		b.WriteString("\n")
	}

	if w.busy {
		b.WriteString(w.spin.View())
		b.WriteString(" working...\n")
	}
	if w.notice != "" {
		b.WriteString(w.notice)
		b.WriteString("\n")
	}

	b.WriteString(faintStyle.Render(helpLine(w.editing)))
	return b.String()
}

func helpLine(editing bool) string {
	if editing {
		return "ctrl+r run - ctrl+s save - esc cancel"
	}
	return "e edit - ctrl+r run - g regenerate - r refresh - q quit"
}

func statusBadge(s remote.Status) string {
	style, ok := statusStyles[s]
	if !ok {
		style = faintStyle
	}
	return style.Render(string(s))
}

// renderRows renders an execution result as a text table.
func renderRows(res *remote.Result) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, values := range res.Rows {
		row := make(table.Row, len(res.Columns))
		for i := range res.Columns {
			if i < len(values) {
				if values[i] == nil {
					row[i] = "NULL"
				} else {
					row[i] = fmt.Sprintf("%v", values[i])
				}
			}
		}
		t.AppendRow(row)
	}

	return t.Render() + fmt.Sprintf("\n(%d rows, %dms)", res.RowCount, res.DurationMS)
}
