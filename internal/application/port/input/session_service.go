package input

import "context"

type SessionService interface {
	CreateSession() string
	SendMessage(ctx context.Context, sessionID, message string) (string, error)
	UploadImage(sessionID string, imageData []byte) error
	StopSession(sessionID string) error
}
