package output

import "context"

type ScreenPort interface {
	// Capture returns the current display as a base64-encoded PNG.
	Capture(ctx context.Context) (string, error)
}
