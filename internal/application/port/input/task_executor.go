package input

import (
	"context"

	"qutebrowser-agent/internal/domain/entity"
)

// InstructionRunner drives one instruction through the observe/plan/execute
// loop. The caller must hold the session lock for the whole call.
type InstructionRunner interface {
	Run(ctx context.Context, session *entity.Session, instruction string) (*entity.RunResult, error)
}
