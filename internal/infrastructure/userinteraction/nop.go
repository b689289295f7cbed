package userinteraction

import (
	"context"
	"errors"

	"qutebrowser-agent/internal/application/port/output"
	"qutebrowser-agent/internal/domain/entity"
)

var _ output.UserInteractionPort = Silent{}

var ErrNoInteraction = errors.New("no interactive user attached")

// Silent is used by the HTTP server, where nobody watches the console.
type Silent struct{}

func (Silent) AskQuestion(ctx context.Context, question string) (string, error) {
	return "", ErrNoInteraction
}

func (Silent) ShowIteration(ctx context.Context, iteration, maxIterations int) {}

func (Silent) ShowPlan(ctx context.Context, plan *entity.BrowserPlan) {}

func (Silent) ShowCommandStart(ctx context.Context, command string) {}

func (Silent) ShowCommandResult(ctx context.Context, command string, err error) {}

func (Silent) ShowFinal(ctx context.Context, result *entity.RunResult) {}
