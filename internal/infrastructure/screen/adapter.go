package screen

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"runtime"
	"strings"

	"qutebrowser-agent/internal/application/port/output"
	"qutebrowser-agent/internal/domain/entity"
	"qutebrowser-agent/internal/infrastructure/process"

	"github.com/disintegration/imaging"
	"github.com/kbinani/screenshot"
)

var _ output.ScreenPort = (*ScreenAdapter)(nil)

type Backend string

const (
	// BackendExternal shells out to scrot (Linux) or screencapture (macOS).
	BackendExternal Backend = "external"
	// BackendNative grabs display 0 in-process.
	BackendNative Backend = "native"
)

func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendExternal:
		return BackendExternal, nil
	case BackendNative:
		return BackendNative, nil
	default:
		return "", fmt.Errorf("unknown screen backend %q (want external or native)", s)
	}
}

const DefaultPath = "/tmp/screenshot.png"

// Focuser brings the browser window to the front before a capture.
type Focuser interface {
	FocusWindow(ctx context.Context) error
}

type ScreenAdapter struct {
	backend  Backend
	path     string
	maxWidth int
	goos     string
	runner   process.Runner
	focuser  Focuser
	grab     func() (image.Image, error)
	logger   output.LoggerPort
}

type Config struct {
	Backend  Backend
	Path     string
	MaxWidth int
	GOOS     string
	Runner   process.Runner
	Focuser  Focuser
	Logger   output.LoggerPort
}

func DefaultConfig() Config {
	return Config{
		Backend: BackendExternal,
		Path:    DefaultPath,
		GOOS:    runtime.GOOS,
	}
}

func NewScreenAdapter(cfg Config) *ScreenAdapter {
	if cfg.Backend == "" {
		cfg.Backend = BackendExternal
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.GOOS == "" {
		cfg.GOOS = runtime.GOOS
	}
	if cfg.Runner == nil {
		cfg.Runner = process.NewExecRunner()
	}

	return &ScreenAdapter{
		backend:  cfg.Backend,
		path:     cfg.Path,
		maxWidth: cfg.MaxWidth,
		goos:     cfg.GOOS,
		runner:   cfg.Runner,
		focuser:  cfg.Focuser,
		grab:     grabPrimaryDisplay,
		logger:   cfg.Logger,
	}
}

func (s *ScreenAdapter) Capture(ctx context.Context) (string, error) {
	if s.focuser != nil {
		if err := s.focuser.FocusWindow(ctx); err != nil && s.logger != nil {
			s.logger.Warn("Failed to focus browser window before capture", "error", err)
		}
	}

	var (
		data []byte
		err  error
	)
	switch s.backend {
	case BackendNative:
		data, err = s.captureNative()
	default:
		data, err = s.captureExternal(ctx)
	}
	if err != nil {
		return "", err
	}

	data, err = downscale(data, s.maxWidth)
	if err != nil {
		return "", err
	}

	if s.logger != nil {
		s.logger.Debug("Screenshot captured", "backend", s.backend, "bytes", len(data))
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

func (s *ScreenAdapter) captureExternal(ctx context.Context) ([]byte, error) {
	name, args := "scrot", []string{"-z", s.path}
	if s.goos == "darwin" {
		name, args = "screencapture", []string{"-x", s.path}
	}

	res, err := s.runner.Run(ctx, name, args...)
	if err != nil {
		return nil, &entity.CaptureError{Msg: "failed to take screenshot with " + name, Err: err}
	}
	if !res.Success() {
		return nil, &entity.CaptureError{Msg: strings.TrimSpace(res.Stderr)}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &entity.CaptureError{Msg: "failed to read screenshot file", Err: err}
	}

	if err := os.Remove(s.path); err != nil && s.logger != nil {
		s.logger.Debug("Failed to remove screenshot file", "path", s.path, "error", err)
	}

	return data, nil
}

func (s *ScreenAdapter) captureNative() ([]byte, error) {
	img, err := s.grab()
	if err != nil {
		return nil, &entity.CaptureError{Msg: "failed to capture display", Err: err}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &entity.CaptureError{Msg: "failed to encode screenshot", Err: err}
	}
	return buf.Bytes(), nil
}

func grabPrimaryDisplay() (image.Image, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("no active display")
	}
	return screenshot.CaptureRect(screenshot.GetDisplayBounds(0))
}

// downscale shrinks images wider than maxWidth, keeping the aspect ratio.
// The result is always PNG.
func downscale(data []byte, maxWidth int) ([]byte, error) {
	if maxWidth <= 0 {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &entity.CaptureError{Msg: "failed to decode screenshot", Err: err}
	}
	if img.Bounds().Dx() <= maxWidth {
		return data, nil
	}

	resized := imaging.Resize(img, maxWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.PNG); err != nil {
		return nil, &entity.CaptureError{Msg: "failed to encode resized screenshot", Err: err}
	}
	return buf.Bytes(), nil
}
