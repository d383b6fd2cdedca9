package cli

import (
	"fmt"
	goruntime "runtime"

	"github.com/spf13/cobra"

	zantara "github.com/balizero/zantara-agentic"
)

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "zantara %s\n", zantara.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit:     %s\n", GitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:      %s\n", BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "  go version: %s\n", goruntime.Version())
		},
	}
}
