package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sqlscribe-labs/sqlscribe/internal/cli/output"
	"github.com/sqlscribe-labs/sqlscribe/internal/remote"
)

// renderQuery writes a query detail view in the renderer's mode.
func renderQuery(r *output.Renderer, q *remote.Query) error {
	if r.Mode() == output.ModeJSON {
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(q)
	}

	styles := r.Styles()

	r.Println(styles.Title.Render(q.ID))
	r.Println(output.FormatKeyValue("Question", q.Question))
	r.Println(output.FormatKeyValue("Status", statusStyle(styles, q.Status).Render(string(q.Status))))
	r.Println(output.FormatKeyValue("Confidence", fmt.Sprintf("%.2f", q.Confidence)))
	r.Println(output.FormatKeyValue("Tokens", fmt.Sprintf("%d", q.TotalTokens)))

	if msg := messageText(q.DisplayMessage); msg != "" {
		r.Println()
		r.Println(msg)
	}

	if q.SQL != "" {
		r.Println()
		r.Println(styles.Muted.Render("-- generated SQL"))
		r.Println(q.SQL)
	}

	if q.Result != nil {
		r.Println()
		return renderResult(r, q.Result)
	}
	return nil
}

// renderResult writes an execution result in the renderer's mode.
func renderResult(r *output.Renderer, res *remote.Result) error {
	switch r.Mode() {
	case output.ModeJSON:
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case output.ModeCSV:
		return renderResultCSV(r, res)
	case output.ModeMarkdown:
		return renderResultMarkdown(r, res)
	default:
		return renderResultTable(r, res)
	}
}

func renderResultTable(r *output.Renderer, res *remote.Result) error {
	if len(res.Rows) == 0 {
		r.Println("(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, values := range res.Rows {
		row := make(table.Row, len(res.Columns))
		for i := range res.Columns {
			if i < len(values) {
				row[i] = formatValue(values[i])
			}
		}
		t.AppendRow(row)
	}

	t.Render()
	r.Printf("(%d rows, %dms)\n", res.RowCount, res.DurationMS)
	return nil
}

func renderResultCSV(r *output.Renderer, res *remote.Result) error {
	r.Println(strings.Join(res.Columns, ","))
	for _, values := range res.Rows {
		fields := make([]string, len(res.Columns))
		for i := range res.Columns {
			if i < len(values) {
				fields[i] = escapeCSV(formatValue(values[i]))
			}
		}
		r.Println(strings.Join(fields, ","))
	}
	return nil
}

func renderResultMarkdown(r *output.Renderer, res *remote.Result) error {
	if len(res.Rows) == 0 {
		r.Println("(0 rows)")
		return nil
	}

	r.Printf("| %s |\n", strings.Join(res.Columns, " | "))
	seps := make([]string, len(res.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	r.Printf("| %s |\n", strings.Join(seps, " | "))

	for _, values := range res.Rows {
		fields := make([]string, len(res.Columns))
		for i := range res.Columns {
			if i < len(values) {
				fields[i] = formatValue(values[i])
			}
		}
		r.Printf("| %s |\n", strings.Join(fields, " | "))
	}
	return nil
}

// messageText converts the service's HTML display message to terminal
// friendly markdown.
func messageText(html string) string {
	if html == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return html
	}
	return strings.TrimSpace(md)
}

func statusStyle(styles *output.Styles, status remote.Status) lipgloss.Style {
	switch status {
	case remote.StatusVerified:
		return styles.Success
	case remote.StatusRejected:
		return styles.Warning
	case remote.StatusSQLError:
		return styles.Error
	default:
		return styles.Info
	}
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
