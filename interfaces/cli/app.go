// Package cli provides the zantara command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Build information set at link time.
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App is the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	configPath string
}

// New creates the CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "zantara",
		Short: "Evidence-grounded reasoning backend for Bali Zero",
		Long: `zantara runs the ZANTARA reasoning service: a retrieval-augmented
assistant that gathers evidence through tools, scores it, and refuses to
answer beyond what the evidence supports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	app.root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "path to the YAML config file")

	app.root.AddCommand(
		app.newServeCmd(),
		app.newChatCmd(),
		app.newVersionCmd(),
	)
	return app
}

// WithOutput sets custom output writers, for tests.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the application with signal-driven cancellation.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with explicit arguments, for tests.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}
