package sessions

import (
	"context"
	"encoding/base64"
	"fmt"

	"qutebrowser-agent/internal/application/port/input"
	"qutebrowser-agent/internal/application/port/output"
	"qutebrowser-agent/internal/domain/entity"
)

var _ input.SessionService = (*UseCase)(nil)

type UseCase struct {
	store   output.SessionStore
	runner  input.InstructionRunner
	logger  output.LoggerPort
	metrics output.MetricsPort
}

func New(
	store output.SessionStore,
	runner input.InstructionRunner,
	logger output.LoggerPort,
	metrics output.MetricsPort,
) *UseCase {
	return &UseCase{
		store:   store,
		runner:  runner,
		logger:  logger,
		metrics: metrics,
	}
}

func (uc *UseCase) CreateSession() string {
	id := uc.store.Create()
	uc.logger.Info("Session created", "session", id)
	uc.reportActive()
	return id
}

// SendMessage records the user message, runs the agent loop while holding
// the session, and records the final answer as an assistant message.
func (uc *UseCase) SendMessage(ctx context.Context, sessionID, message string) (string, error) {
	var response string

	err := uc.store.With(sessionID, func(session *entity.Session) error {
		session.AddUserMessage(message)

		result, err := uc.runner.Run(ctx, session, message)
		if err != nil {
			return err
		}

		session.AddAssistantMessage(result.FinalAnswer)
		response = result.FinalAnswer
		return nil
	})
	if err != nil {
		uc.logger.Error("Error processing instruction", "session", sessionID, "error", err)
		return "", err
	}

	return response, nil
}

func (uc *UseCase) UploadImage(sessionID string, imageData []byte) error {
	if len(imageData) == 0 {
		return fmt.Errorf("image data is empty")
	}

	encoded := base64.StdEncoding.EncodeToString(imageData)

	err := uc.store.With(sessionID, func(session *entity.Session) error {
		session.AddImage(encoded)
		return nil
	})
	if err != nil {
		return err
	}

	uc.logger.Info("Image uploaded", "session", sessionID, "bytes", len(imageData))
	return nil
}

// StopSession blocks until an in-flight SendMessage on the session returns.
func (uc *UseCase) StopSession(sessionID string) error {
	if err := uc.store.Remove(sessionID); err != nil {
		return err
	}

	uc.logger.Info("Session stopped", "session", sessionID)
	uc.reportActive()
	return nil
}

func (uc *UseCase) reportActive() {
	if uc.metrics != nil {
		uc.metrics.SetActiveSessions(uc.store.Len())
	}
}
