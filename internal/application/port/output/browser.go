package output

import "context"

type BrowserPort interface {
	Execute(ctx context.Context, command string) error

	IsRunning(ctx context.Context) (bool, error)
	Launch(ctx context.Context) error
	EnsureRunning(ctx context.Context) error
	FocusWindow(ctx context.Context) error
}
