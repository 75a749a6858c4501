package commands

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sqlscribe-labs/sqlscribe/internal/ui"
)

// NewConsoleCommand creates the console command.
func NewConsoleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Start the sqlscribe web console",
		Long: `Start a local web server providing the query review console.

The console provides:
- A workspace for reviewing generated SQL
- One-click regeneration and execution
- Inline editing of SQL and review status`,
		Example: `  # Start on the default port
  sqlscribe console

  # Start on a custom port
  sqlscribe console --port 3000

  # Start without auto-opening a browser
  sqlscribe console --no-browser`,
		RunE: runConsole,
	}

	cmd.Flags().Int("port", 0, "Port to serve on")
	cmd.Flags().String("session-secret", "", "Cookie session secret")
	cmd.Flags().Bool("no-browser", false, "Don't auto-open browser")
	cmd.Flags().Bool("watch", false, "Reload the browser when static assets change")
	cmd.Flags().String("access-token", "", "Shared token required to access the console")

	return cmd
}

func runConsole(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	logger := GetLogger(ctx)

	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	// Fail fast when the service is unreachable.
	if err := client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("query service unreachable at %s: %w", cfg.ServiceURL, err)
	}

	store, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	secret := cfg.UI.SessionSecret
	if secret == "" {
		secret = "sqlscribe-dev-secret-change-in-production" //nolint:gosec
	}

	server := ui.NewServer(ui.Config{
		Client:        client,
		History:       store,
		Port:          cfg.UI.Port,
		Watch:         cfg.UI.Watch,
		SessionSecret: secret,
		AccessToken:   cfg.UI.AccessToken,
		Logger:        logger,
	})

	if cfg.UI.AutoOpen {
		url := fmt.Sprintf("http://localhost:%d", cfg.UI.Port)
		go openBrowser(url)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting console on http://localhost:%d\n", cfg.UI.Port)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	return server.Serve(serveCtx)
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
