package main

import (
	"fmt"

	"qutebrowser-agent/internal/infrastructure/config"
	"qutebrowser-agent/internal/infrastructure/env"

	"github.com/spf13/cobra"
)

type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "agent",
		Short:         "Drive qutebrowser with a multimodal planning model.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(env.NewEnvService())
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			a.cfg = cfg
			return nil
		},
	}

	root.AddCommand(newServeCmd(a), newRunCmd(a))
	return root
}
