package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sqlscribe-labs/sqlscribe/internal/cli/output"
	"github.com/sqlscribe-labs/sqlscribe/internal/history"
	"github.com/sqlscribe-labs/sqlscribe/internal/remote"
)

// NewQueryCommand creates the query command group.
func NewQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Inspect and mutate query records",
		Long: `Work with individual query records on the query service.

A query record holds a natural-language question, the SQL the service
generated for it, its review status, and optionally the rows from its
last execution.`,
	}

	cmd.AddCommand(newQueryShowCommand())
	cmd.AddCommand(newQueryResubmitCommand())
	cmd.AddCommand(newQueryExecuteCommand())
	cmd.AddCommand(newQueryEditCommand())

	return cmd
}

func newRenderer(cmd *cobra.Command) *output.Renderer {
	mode := output.ParseMode(GetConfig(cmd.Context()).OutputFormat)
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
}

// recordActivity best-effort records an event in the local history
// database. History failures never fail the command.
func recordActivity(ctx context.Context, queryID string, kind history.Kind, sqlText, outcome string) {
	store, err := openHistory(ctx)
	if err != nil {
		GetLogger(ctx).Debug("history unavailable", "error", err)
		return
	}
	defer store.Close()

	if _, err := store.Record(ctx, queryID, kind, sqlText, outcome); err != nil {
		GetLogger(ctx).Debug("failed to record activity", "error", err)
	}
}

func newQueryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <query-id>",
		Short: "Show a query record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := newClient(ctx)
			if err != nil {
				return err
			}

			q, err := client.Get(ctx, args[0])
			if err != nil {
				return err
			}

			recordActivity(ctx, q.ID, history.KindViewed, "", "")
			return renderQuery(newRenderer(cmd), q)
		},
	}
}

func newQueryResubmitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resubmit <query-id>",
		Short: "Regenerate SQL for a query's question",
		Long: `Ask the service to regenerate SQL for the query's original question.
The record's SQL, confidence, and status are replaced by the new attempt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := newClient(ctx)
			if err != nil {
				return err
			}

			q, err := client.Resubmit(ctx, args[0])
			if err != nil {
				recordActivity(ctx, args[0], history.KindResubmitted, "", err.Error())
				return err
			}

			recordActivity(ctx, q.ID, history.KindResubmitted, q.SQL, string(q.Status))
			return renderQuery(newRenderer(cmd), q)
		},
	}
}

func newQueryExecuteCommand() *cobra.Command {
	var sqlFlag string

	cmd := &cobra.Command{
		Use:   "execute <query-id>",
		Short: "Run a query's SQL against the connected database",
		Long: `Run SQL through the query service and show the resulting rows.

By default the record's stored SQL is executed. Pass --sql to run an
edited statement without saving it first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := newClient(ctx)
			if err != nil {
				return err
			}

			sqlText := sqlFlag
			if sqlText == "" {
				current, err := client.Get(ctx, args[0])
				if err != nil {
					return err
				}
				sqlText = current.SQL
			}
			if strings.TrimSpace(sqlText) == "" {
				return fmt.Errorf("query %s has no SQL to execute", args[0])
			}

			q, err := client.Execute(ctx, args[0], sqlText)
			if err != nil {
				recordActivity(ctx, args[0], history.KindExecuted, sqlText, err.Error())
				return err
			}

			recordActivity(ctx, q.ID, history.KindExecuted, sqlText, string(q.Status))
			return renderQuery(newRenderer(cmd), q)
		},
	}

	cmd.Flags().StringVar(&sqlFlag, "sql", "", "SQL to execute instead of the stored statement")
	return cmd
}

// editPatch is the set of fields an operator may change on a record.
type editPatch struct {
	SQLQuery *string  `mapstructure:"sql_query"`
	Status   *string  `mapstructure:"status"`
	Question *string  `mapstructure:"question"`
	Message  *string  `mapstructure:"display_message"`
	Tags     []string `mapstructure:"tags"`
}

func newQueryEditCommand() *cobra.Command {
	var (
		setFlags []string
		fileFlag string
	)

	cmd := &cobra.Command{
		Use:   "edit <query-id>",
		Short: "Update fields of a query record",
		Example: `  # Mark a query as verified
  sqlscribe query edit abc123 --set status=VERIFIED

  # Replace the SQL
  sqlscribe query edit abc123 --set 'sql_query=SELECT count(*) FROM orders'

  # Apply a patch from a YAML file
  sqlscribe query edit abc123 --file patch.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			patch, err := buildPatch(setFlags, fileFlag)
			if err != nil {
				return err
			}
			req := patchToRequest(patch)
			if len(req) == 0 {
				return fmt.Errorf("nothing to update: pass --set or --file")
			}

			client, err := newClient(ctx)
			if err != nil {
				return err
			}

			q, err := client.Put(ctx, args[0], req)
			if err != nil {
				recordActivity(ctx, args[0], history.KindEdited, "", err.Error())
				return err
			}

			recordActivity(ctx, q.ID, history.KindEdited, q.SQL, string(q.Status))
			return renderQuery(newRenderer(cmd), q)
		},
	}

	cmd.Flags().StringArrayVar(&setFlags, "set", nil, "Field to set as key=value (repeatable)")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "YAML file with fields to set")
	return cmd
}

// buildPatch merges --file and --set inputs, with --set winning, and
// validates the field names against the edit schema.
func buildPatch(setFlags []string, fileFlag string) (*editPatch, error) {
	raw := map[string]any{}

	if fileFlag != "" {
		content, err := os.ReadFile(fileFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to read patch file: %w", err)
		}
		if err := yaml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse patch file: %w", err)
		}
	}

	for _, pair := range setFlags {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --set value %q: expected key=value", pair)
		}
		raw[key] = coerceValue(value)
	}

	var patch editPatch
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &patch,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid patch: %w", err)
	}

	return &patch, nil
}

// coerceValue interprets numeric and boolean literals so --set works for
// non-string fields. Numbers are tried first: "1" must stay numeric, so
// only the spelled-out forms count as booleans.
func coerceValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

func patchToRequest(patch *editPatch) remote.PutRequest {
	req := remote.PutRequest{}
	if patch.SQLQuery != nil {
		req["sql_query"] = *patch.SQLQuery
	}
	if patch.Status != nil {
		req["status"] = strings.ToUpper(*patch.Status)
	}
	if patch.Question != nil {
		req["question"] = *patch.Question
	}
	if patch.Message != nil {
		req["display_message"] = *patch.Message
	}
	if len(patch.Tags) > 0 {
		req["tags"] = patch.Tags
	}
	return req
}
