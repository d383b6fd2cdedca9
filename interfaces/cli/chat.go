package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balizero/zantara-agentic/application"
)

func (a *App) newChatCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask a question from the terminal",
		Long: `Ask one question, or start an interactive session when no question
is given. Interactive sessions end on "exit" or EOF.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := a.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			ask := func(query string) error {
				resp, err := rt.orchestrator.Chat(ctx, application.ChatRequest{
					UserID: userID,
					Query:  query,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, resp.Answer)
				if len(resp.Sources) > 0 {
					fmt.Fprintln(a.stdout, "\nSources:")
					for _, s := range resp.Sources {
						fmt.Fprintf(a.stdout, "  - %s (%.2f)\n", s.ID, s.Score)
					}
				}
				return nil
			}

			if len(args) > 0 {
				return ask(strings.Join(args, " "))
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(a.stdout, "> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					return nil
				}
				if err := ask(line); err != nil {
					fmt.Fprintf(a.stderr, "error: %v\n", err)
				}
			}
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "cli", "user ID for conversation memory")
	return cmd
}
