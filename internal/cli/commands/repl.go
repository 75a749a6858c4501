package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/sqlscribe-labs/sqlscribe/internal/history"
	"github.com/sqlscribe-labs/sqlscribe/internal/remote"
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl <query-id>",
		Short: "Interactive session against one query record",
		Long: `Open an interactive session bound to a query record.

SQL statements (terminated by a semicolon) are executed through the
query service against its connected database. Dot-commands inspect and
mutate the record:

  .show       show the current record
  .resubmit   regenerate SQL from the original question
  .save       store the last executed SQL on the record
  .help       list commands
  .quit       exit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd, args[0])
		},
	}
}

func runREPL(cmd *cobra.Command, queryID string) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)

	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	// Confirm the record exists before entering the loop.
	q, err := client.Get(ctx, queryID)
	if err != nil {
		return err
	}

	historyFile := filepath.Join(filepath.Dir(cfg.HistoryPath), "repl_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sqlscribe> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Connected to %s (query %s)\n", cfg.ServiceURL, q.ID)
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	renderer := newRenderer(cmd)
	var lastSQL string
	var buffer strings.Builder

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buffer.Reset()
			rl.SetPrompt("sqlscribe> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") && buffer.Len() == 0 {
			if line == ".quit" || line == ".exit" {
				break
			}
			handleDotCommand(cmd, client, queryID, line, lastSQL)
			continue
		}

		// Accumulate multi-line SQL until semicolon.
		buffer.WriteString(line)
		buffer.WriteString(" ")
		if !strings.HasSuffix(line, ";") {
			rl.SetPrompt("      ...> ")
			continue
		}

		sqlText := strings.TrimSuffix(strings.TrimSpace(buffer.String()), ";")
		buffer.Reset()
		rl.SetPrompt("sqlscribe> ")

		updated, err := client.Execute(ctx, queryID, sqlText)
		recordOutcome := "ok"
		if err != nil {
			recordOutcome = err.Error()
			_, _ = fmt.Fprintf(out, "Error: %v\n", err)
		} else {
			lastSQL = sqlText
			if updated.Result != nil {
				_ = renderResult(renderer, updated.Result)
			}
		}
		recordActivity(ctx, queryID, history.KindExecuted, sqlText, recordOutcome)
	}

	return nil
}

func handleDotCommand(cmd *cobra.Command, client *remote.Client, queryID, line, lastSQL string) {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	renderer := newRenderer(cmd)

	switch line {
	case ".help":
		_, _ = fmt.Fprintln(out, ".show       show the current record")
		_, _ = fmt.Fprintln(out, ".resubmit   regenerate SQL from the original question")
		_, _ = fmt.Fprintln(out, ".save       store the last executed SQL on the record")
		_, _ = fmt.Fprintln(out, ".quit       exit")
	case ".show":
		q, err := client.Get(ctx, queryID)
		if err != nil {
			_, _ = fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		_ = renderQuery(renderer, q)
	case ".resubmit":
		q, err := client.Resubmit(ctx, queryID)
		if err != nil {
			_, _ = fmt.Fprintf(out, "Error: %v\n", err)
			recordActivity(ctx, queryID, history.KindResubmitted, "", err.Error())
			return
		}
		recordActivity(ctx, queryID, history.KindResubmitted, q.SQL, string(q.Status))
		_ = renderQuery(renderer, q)
	case ".save":
		if lastSQL == "" {
			_, _ = fmt.Fprintln(out, "Nothing to save: execute a statement first")
			return
		}
		q, err := client.Put(ctx, queryID, remote.PutRequest{"sql_query": lastSQL})
		if err != nil {
			_, _ = fmt.Fprintf(out, "Error: %v\n", err)
			recordActivity(ctx, queryID, history.KindEdited, lastSQL, err.Error())
			return
		}
		recordActivity(ctx, queryID, history.KindEdited, lastSQL, string(q.Status))
		_, _ = fmt.Fprintln(out, "Saved")
	default:
		_, _ = fmt.Fprintf(out, "Unknown command %s (try .help)\n", line)
	}
}
