package output

import (
	"context"

	"qutebrowser-agent/internal/domain/entity"
)

type UserInteractionPort interface {
	AskQuestion(ctx context.Context, question string) (string, error)

	ShowIteration(ctx context.Context, iteration, maxIterations int)
	ShowPlan(ctx context.Context, plan *entity.BrowserPlan)
	ShowCommandStart(ctx context.Context, command string)
	ShowCommandResult(ctx context.Context, command string, err error)
	ShowFinal(ctx context.Context, result *entity.RunResult)
}
