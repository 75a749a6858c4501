package commands

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sqlscribe-labs/sqlscribe/internal/console"
	"github.com/sqlscribe-labs/sqlscribe/internal/tui"
)

// NewWorkspaceCommand creates the workspace command.
func NewWorkspaceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "workspace <query-id>",
		Short: "Open the terminal workspace for a query record",
		Long: `Open a full-screen terminal workspace bound to a query record.

The workspace shows the question, generated SQL, and execution results,
with key bindings to edit, run, resubmit, and save.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := newClient(ctx)
			if err != nil {
				return err
			}

			ctrl := console.NewController(client, args[0], GetLogger(ctx))
			defer ctrl.Close()

			model := tui.NewWorkspace(ctx, ctrl)
			program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = program.Run()
			return err
		},
	}
}
