package output

import (
	"context"

	"qutebrowser-agent/internal/domain/entity"
)

type PlannerPort interface {
	Name() string
	GetPlan(ctx context.Context, conversation []entity.Turn) (*entity.BrowserPlan, error)
}
