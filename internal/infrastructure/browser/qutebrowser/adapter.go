package qutebrowser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"qutebrowser-agent/internal/application/port/output"
	"qutebrowser-agent/internal/domain/entity"
	"qutebrowser-agent/internal/infrastructure/process"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

// Mode decides what happens when a command cannot be delivered.
type Mode string

const (
	// ModeLenient logs delivery failures and carries on.
	ModeLenient Mode = "lenient"
	// ModeStrict turns delivery failures into ExecutionError.
	ModeStrict Mode = "strict"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLenient:
		return ModeLenient, nil
	case ModeStrict:
		return ModeStrict, nil
	default:
		return "", fmt.Errorf("unknown execution mode %q (want lenient or strict)", s)
	}
}

const (
	outcomeOK         = "ok"
	outcomeInvalid    = "invalid"
	outcomeFailed     = "failed"
	outcomeSpawnError = "spawn_error"
)

type BrowserAdapter struct {
	binary        string
	mode          Mode
	baseDir       string
	containerized bool
	goos          string
	runner        process.Runner
	logger        output.LoggerPort
	metrics       output.MetricsPort
}

type Config struct {
	Binary        string
	Mode          Mode
	BaseDir       string
	Containerized bool
	GOOS          string
	Runner        process.Runner
	Logger        output.LoggerPort
	Metrics       output.MetricsPort
}

func DefaultConfig() Config {
	return Config{
		Binary:  "qutebrowser",
		Mode:    ModeLenient,
		BaseDir: DefaultBaseDir(runtime.GOOS),
		GOOS:    runtime.GOOS,
	}
}

// DefaultBaseDir is the qutebrowser configuration directory used when
// launching the browser.
func DefaultBaseDir(goos string) string {
	if goos == "darwin" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.Getenv("HOME")
		}
		return filepath.Join(home, ".config", "qutebrowser")
	}
	return "/config/.config/qutebrowser"
}

func NewBrowserAdapter(cfg Config) *BrowserAdapter {
	if cfg.Binary == "" {
		cfg.Binary = "qutebrowser"
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeLenient
	}
	if cfg.GOOS == "" {
		cfg.GOOS = runtime.GOOS
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = DefaultBaseDir(cfg.GOOS)
	}
	if cfg.Runner == nil {
		cfg.Runner = process.NewExecRunner()
	}

	return &BrowserAdapter{
		binary:        cfg.Binary,
		mode:          cfg.Mode,
		baseDir:       cfg.BaseDir,
		containerized: cfg.Containerized,
		goos:          cfg.GOOS,
		runner:        cfg.Runner,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
	}
}

func (b *BrowserAdapter) Mode() Mode { return b.mode }

// Execute delivers a ":"-prefixed command to the running browser.
func (b *BrowserAdapter) Execute(ctx context.Context, command string) error {
	cmd := entity.BrowserCommand{Command: command}
	if !cmd.HasPrefix() {
		b.observe(outcomeInvalid)
		return &entity.ValidationError{Command: command}
	}

	arg := entity.CommandPrefix + cmd.Body()

	res, err := b.runner.Run(ctx, b.binary, arg)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("execute %q: %w", command, ctx.Err())
		}
		b.observe(outcomeSpawnError)
		if b.logger != nil {
			b.logger.Error("Failed to execute qutebrowser command", "command", command, "error", err)
		}
		if b.mode == ModeStrict {
			return &entity.ExecutionError{Command: command, Err: err}
		}
		return nil
	}

	if !res.Success() {
		b.observe(outcomeFailed)
		stderr := strings.TrimSpace(res.Stderr)
		if b.logger != nil {
			b.logger.Warn("qutebrowser command failed", "command", command, "exitCode", res.ExitCode, "stderr", stderr)
		}
		if b.mode == ModeStrict {
			return &entity.ExecutionError{
				Command: command,
				Stderr:  stderr,
				Err:     fmt.Errorf("exit status %d", res.ExitCode),
			}
		}
		return nil
	}

	b.observe(outcomeOK)
	if b.logger != nil {
		b.logger.Debug("qutebrowser command executed", "command", command)
	}
	return nil
}

func (b *BrowserAdapter) IsRunning(ctx context.Context) (bool, error) {
	res, err := b.runner.Run(ctx, "pgrep", "-f", b.binary)
	if err != nil {
		return false, fmt.Errorf("failed to check if %s is running: %w", b.binary, err)
	}
	return res.Success() && strings.TrimSpace(res.Stdout) != "", nil
}

func (b *BrowserAdapter) Launch(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	spec := process.Spec{Name: b.binary}

	if b.goos != "darwin" {
		spec.Args = []string{"--basedir", b.baseDir, "--untrusted-args"}
		if b.containerized {
			spec.Env = []string{"DISPLAY=:1", "XDG_RUNTIME_DIR=/tmp/runtime-root"}
			spec.Dir = "/config"
		}
	}

	if err := b.runner.Start(spec); err != nil {
		return fmt.Errorf("failed to spawn %s process: %w", b.binary, err)
	}

	if b.logger != nil {
		b.logger.Info("Launched qutebrowser", "basedir", b.baseDir, "containerized", b.containerized)
	}
	return nil
}

func (b *BrowserAdapter) EnsureRunning(ctx context.Context) error {
	running, err := b.IsRunning(ctx)
	if err != nil {
		return err
	}
	if running {
		if b.logger != nil {
			b.logger.Debug("qutebrowser already running")
		}
		return nil
	}
	return b.Launch(ctx)
}

func (b *BrowserAdapter) FocusWindow(ctx context.Context) error {
	windowID, err := b.windowID(ctx)
	if err != nil {
		return err
	}

	res, err := b.runner.Run(ctx, "xdotool", "windowfocus", windowID)
	if err != nil {
		return fmt.Errorf("failed to focus %s window: %w", b.binary, err)
	}
	if !res.Success() {
		return fmt.Errorf("failed to focus %s window: %s", b.binary, strings.TrimSpace(res.Stderr))
	}
	return nil
}

func (b *BrowserAdapter) windowID(ctx context.Context) (string, error) {
	res, err := b.runner.Run(ctx, "xdotool", "search", "--name", b.binary)
	if err != nil {
		return "", fmt.Errorf("failed to find %s window: %w", b.binary, err)
	}
	if !res.Success() {
		return "", fmt.Errorf("no %s window found", b.binary)
	}

	id, _, _ := strings.Cut(strings.TrimSpace(res.Stdout), "\n")
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("no window id found")
	}
	return id, nil
}

func (b *BrowserAdapter) observe(outcome string) {
	if b.metrics != nil {
		b.metrics.ObserveCommand(outcome)
	}
}
