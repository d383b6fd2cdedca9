package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	zantara "github.com/balizero/zantara-agentic"
	"github.com/balizero/zantara-agentic/infrastructure/config"
	"github.com/balizero/zantara-agentic/infrastructure/logging"
	"github.com/balizero/zantara-agentic/infrastructure/observability"
	"github.com/balizero/zantara-agentic/interfaces/api"
)

func (a *App) newServeCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP reasoning service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			rt, err := a.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			tracing, err := observability.New(observability.Config{
				ServiceName:    "zantara-agentic",
				ServiceVersion: zantara.Version,
				Enabled:        rt.cfg.Tracing.Enabled,
				Export:         rt.cfg.Tracing.Export,
			})
			if err != nil {
				return fmt.Errorf("setting up tracing: %w", err)
			}
			defer func() {
				if err := tracing.Shutdown(context.Background()); err != nil {
					logging.Warn().Add(logging.ErrorField(err)).Msg("tracer shutdown failed")
				}
			}()

			server := api.NewServer(rt.orchestrator, api.Config{
				Addr:         rt.cfg.Server.Addr,
				ReadTimeout:  rt.cfg.Server.ReadTimeout,
				WriteTimeout: rt.cfg.Server.WriteTimeout,
			})

			if watch && a.configPath != "" {
				go func() {
					err := config.Watch(ctx, a.configPath, config.NewLoader(), func(cfg *config.Config) {
						// Only logging level applies live; the rest needs a restart.
						logging.SetLevel(cfg.Logging.Level)
					})
					if err != nil && !errors.Is(err, context.Canceled) {
						logging.Warn().Add(logging.ErrorField(err)).Msg("config watch stopped")
					}
				}()
			}

			errCh := make(chan error, 1)
			go func() { errCh <- server.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.Server.ShutdownTimeout)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			}
		},
	}
	cmd.Flags().BoolVar(&watch, "watch-config", false, "reload the config file on change")
	return cmd
}
