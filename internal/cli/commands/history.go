package commands

import (
	"encoding/json"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sqlscribe-labs/sqlscribe/internal/cli/output"
	"github.com/sqlscribe-labs/sqlscribe/internal/history"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var (
		queryID string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent activity against the query service",
		Example: `  # Last 20 events
  sqlscribe history

  # Events for one query
  sqlscribe history --query abc123`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			var events []*history.Event
			if queryID != "" {
				events, err = store.ForQuery(ctx, queryID, limit)
			} else {
				events, err = store.Recent(ctx, limit)
			}
			if err != nil {
				return err
			}

			return renderEvents(newRenderer(cmd), events)
		},
	}

	cmd.Flags().StringVar(&queryID, "query", "", "Only show events for this query id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of events")
	return cmd
}

func renderEvents(r *output.Renderer, events []*history.Event) error {
	if r.Mode() == output.ModeJSON {
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	if len(events) == 0 {
		r.Println("(no activity)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"When", "Query", "Kind", "Outcome", "SQL"})

	for _, ev := range events {
		sqlText := ev.SQL
		if len(sqlText) > 60 {
			sqlText = sqlText[:57] + "..."
		}
		t.AppendRow(table.Row{
			ev.OccurredAt.Local().Format("2006-01-02 15:04:05"),
			ev.QueryID,
			string(ev.Kind),
			ev.Outcome,
			sqlText,
		})
	}

	t.Render()
	return nil
}
