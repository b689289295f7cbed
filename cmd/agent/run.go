package main

import (
	"errors"
	"fmt"
	"io"

	"qutebrowser-agent/internal/di"
	"qutebrowser-agent/internal/infrastructure/userinteraction"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Read instructions from stdin and run them in one session.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			console := userinteraction.NewConsoleUserInteractionWithIO(cmd.InOrStdin(), color.Output)

			container, err := di.NewContainer(a.cfg, console)
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			defer container.Close()

			if a.cfg.Browser.Launch {
				if err := container.Browser.EnsureRunning(ctx); err != nil {
					return fmt.Errorf("failed to start qutebrowser: %w", err)
				}
			}

			sessionID := container.Sessions.CreateSession()
			defer container.Sessions.StopSession(sessionID)

			red := color.New(color.FgRed, color.Bold)

			for {
				instruction, err := console.AskQuestion(ctx, "Enter an instruction (empty line to quit):")
				if errors.Is(err, io.EOF) || (err == nil && instruction == "") {
					return nil
				}
				if err != nil {
					return err
				}

				if _, err := container.Sessions.SendMessage(ctx, sessionID, instruction); err != nil {
					red.Fprintf(color.Output, "\nError: %v\n", err)
					if ctx.Err() != nil {
						return ctx.Err()
					}
				}
			}
		},
	}
}
