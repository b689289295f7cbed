package main

import (
	"fmt"

	httpadapter "qutebrowser-agent/internal/adapter/http"
	"qutebrowser-agent/internal/di"
	"qutebrowser-agent/internal/infrastructure/userinteraction"

	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr     string
		maxConns int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if cmd.Flags().Changed("addr") {
				a.cfg.HTTP.Addr = addr
			}
			if cmd.Flags().Changed("max-conns") {
				a.cfg.HTTP.MaxConns = maxConns
			}

			container, err := di.NewContainer(a.cfg, userinteraction.Silent{})
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			defer container.Close()

			if a.cfg.Browser.Launch {
				if err := container.Browser.EnsureRunning(ctx); err != nil {
					return fmt.Errorf("failed to start qutebrowser: %w", err)
				}
			}

			httpCfg := httpadapter.DefaultConfig()
			httpCfg.Metrics = container.Metrics.Handler()
			handler := httpadapter.NewServer(container.Sessions, container.Logger, httpCfg)

			ln, err := httpadapter.Listen(a.cfg.HTTP.Addr, a.cfg.HTTP.MaxConns)
			if err != nil {
				return err
			}

			return httpadapter.Serve(ctx, ln, handler, container.Logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (overrides HTTP_ADDR)")
	cmd.Flags().IntVar(&maxConns, "max-conns", 16, "maximum simultaneous connections (overrides HTTP_MAX_CONNS)")
	return cmd
}
