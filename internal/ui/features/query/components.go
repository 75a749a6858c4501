package query

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/sqlscribe-labs/sqlscribe/internal/console"
	"github.com/sqlscribe-labs/sqlscribe/internal/remote"
)

// workspaceID is the element id the SSE patches morph into.
const workspaceID = "query-workspace"

// Workspace renders the page body for a controller's current view.
// The same component serves the initial render and every SSE patch, so
// the element id must stay stable across states.
func Workspace(ctrl *console.Controller) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		snap := ctrl.Snapshot()

		switch ctrl.View() {
		case console.ViewLoading:
			return renderLoading(w)
		case console.ViewError:
			return renderError(w, ctrl.ID(), snap.Err)
		case console.ViewEmpty:
			return renderEmpty(w)
		}

		q, _ := ctrl.Query()
		return renderWorkspace(w, q)
	})
}

func renderLoading(w io.Writer) error {
	_, err := fmt.Fprintf(w, `<div id="%s" class="panel">
<span class="spinner"></span> <span class="muted">loading query...</span>
</div>
`, workspaceID)
	return err
}

func renderError(w io.Writer, id string, loadErr error) error {
	msg := "failed to load query"
	if loadErr != nil {
		msg = loadErr.Error()
	}
	_, err := fmt.Fprintf(w, `<div id="%s">
<div class="error-box">
<p>%s</p>
<button data-on-click="@get('/queries/%s/refresh')">Retry</button>
</div>
</div>
`, workspaceID, templ.EscapeString(msg), templ.EscapeString(id))
	return err
}

func renderEmpty(w io.Writer) error {
	_, err := fmt.Fprintf(w, `<div id="%s" class="panel">
<p class="muted">No query loaded.</p>
</div>
`, workspaceID)
	return err
}

func renderWorkspace(w io.Writer, q *remote.Query) error {
	signals, err := json.Marshal(map[string]string{
		"sql":    q.SQL,
		"status": string(q.Status),
	})
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, `<div id="%s" data-signals='%s'>
<div class="panel">
<h2>%s</h2>
<p>%s %s</p>
`,
		workspaceID,
		templ.EscapeString(string(signals)),
		templ.EscapeString(q.Question),
		statusBadge(q.Status),
		confidenceLabel(q),
	); err != nil {
		return err
	}

	// DisplayMessage is an HTML fragment authored by the service and
	// rendered as-is; everything user-visible around it is escaped.
	if q.DisplayMessage != "" {
		if _, err := fmt.Fprintf(w, "<div class=\"muted\">%s</div>\n", q.DisplayMessage); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, `</div>
<div class="panel">
<textarea class="sql-editor" data-bind-sql>%s</textarea>
<div class="actions">
<button class="primary" data-on-click="@post('/api/queries/%s/execute')">Run</button>
<button data-on-click="@post('/api/queries/%s/resubmit')">Regenerate</button>
<button data-on-click="@post('/api/queries/%s/edit')">Save</button>
<select data-bind-status>
%s</select>
</div>
</div>
`,
		templ.EscapeString(q.SQL),
		templ.EscapeString(q.ID),
		templ.EscapeString(q.ID),
		templ.EscapeString(q.ID),
		statusOptions(q.Status),
	); err != nil {
		return err
	}

	if q.Result != nil {
		if err := renderResult(w, q.Result); err != nil {
			return err
		}
	}

	_, err = io.WriteString(w, "</div>\n")
	return err
}

func renderResult(w io.Writer, res *remote.Result) error {
	if _, err := io.WriteString(w, "<div class=\"panel\">\n<table class=\"results\">\n<thead><tr>"); err != nil {
		return err
	}
	for _, col := range res.Columns {
		if _, err := fmt.Fprintf(w, "<th>%s</th>", templ.EscapeString(col)); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "</tr></thead>\n<tbody>\n"); err != nil {
		return err
	}

	for _, values := range res.Rows {
		if _, err := io.WriteString(w, "<tr>"); err != nil {
			return err
		}
		for i := range res.Columns {
			cell := "NULL"
			if i < len(values) && values[i] != nil {
				cell = fmt.Sprintf("%v", values[i])
			}
			if _, err := fmt.Fprintf(w, "<td>%s</td>", templ.EscapeString(cell)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</tr>\n"); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "</tbody>\n</table>\n<p class=\"muted\">%d rows in %dms</p>\n</div>\n",
		res.RowCount, res.DurationMS)
	return err
}

func statusBadge(s remote.Status) string {
	class := strings.ToLower(strings.ReplaceAll(string(s), "_", "-"))
	return fmt.Sprintf(`<span class="status-badge %s">%s</span>`,
		templ.EscapeString(class), templ.EscapeString(string(s)))
}

func confidenceLabel(q *remote.Query) string {
	if q.Confidence <= 0 {
		return ""
	}
	return fmt.Sprintf(`<span class="muted">%.0f%% confidence</span>`, q.Confidence*100)
}

func statusOptions(current remote.Status) string {
	var b strings.Builder
	for _, s := range []remote.Status{
		remote.StatusNotVerified,
		remote.StatusVerified,
		remote.StatusRejected,
		remote.StatusSQLError,
	} {
		selected := ""
		if s == current {
			selected = " selected"
		}
		fmt.Fprintf(&b, "<option value=\"%s\"%s>%s</option>\n", s, selected, s)
	}
	return b.String()
}
