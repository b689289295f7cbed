package di

import (
	"fmt"
	"os"

	"qutebrowser-agent/internal/application/port/input"
	"qutebrowser-agent/internal/application/port/output"
	"qutebrowser-agent/internal/application/service"
	"qutebrowser-agent/internal/domain/entity"
	"qutebrowser-agent/internal/infrastructure/browser/qutebrowser"
	"qutebrowser-agent/internal/infrastructure/config"
	"qutebrowser-agent/internal/infrastructure/llm/gemini"
	"qutebrowser-agent/internal/infrastructure/llm/openrouter"
	"qutebrowser-agent/internal/infrastructure/logger"
	"qutebrowser-agent/internal/infrastructure/metrics"
	"qutebrowser-agent/internal/infrastructure/process"
	"qutebrowser-agent/internal/infrastructure/prompts"
	"qutebrowser-agent/internal/infrastructure/screen"
	"qutebrowser-agent/internal/usecase/executor"
	"qutebrowser-agent/internal/usecase/sessions"
)

type Container struct {
	Config   *config.Config
	Logger   output.LoggerPort
	Metrics  *metrics.Collector
	Browser  *qutebrowser.BrowserAdapter
	Screen   output.ScreenPort
	Planner  output.PlannerPort
	Store    output.SessionStore
	Runner   input.InstructionRunner
	Sessions input.SessionService
}

func NewContainer(cfg *config.Config, ui output.UserInteractionPort) (*Container, error) {
	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.File = cfg.Log.File
	logCfg.Console = os.Stderr

	log, err := logger.NewLoggerAdapter(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	collector := metrics.NewCollector()
	runner := process.NewExecRunner()

	browserCfg := qutebrowser.DefaultConfig()
	browserCfg.Mode = cfg.Browser.Mode
	browserCfg.Containerized = cfg.Browser.Containerized
	if cfg.Browser.BaseDir != "" {
		browserCfg.BaseDir = cfg.Browser.BaseDir
	}
	browserCfg.Runner = runner
	browserCfg.Logger = log.WithField("component", "qutebrowser")
	browserCfg.Metrics = collector
	browser := qutebrowser.NewBrowserAdapter(browserCfg)

	screenCfg := screen.DefaultConfig()
	screenCfg.Backend = cfg.Screen.Backend
	screenCfg.Path = cfg.Screen.Path
	screenCfg.MaxWidth = cfg.Screen.MaxWidth
	screenCfg.Runner = runner
	screenCfg.Logger = log.WithField("component", "screen")
	if cfg.Screen.FocusBeforeCapture {
		screenCfg.Focuser = browser
	}
	capture := screen.NewScreenAdapter(screenCfg)

	systemPrompt, err := prompts.GenerateSystemPrompt(prompts.SystemPromptTemplate, prompts.SystemPromptData{
		Prefix:     entity.CommandPrefix,
		ExtraRules: cfg.Prompt.ExtraRules,
	})
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to render system prompt: %w", err)
	}

	planner, err := newPlanner(cfg.Planner, systemPrompt, log, collector)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create planner: %w", err)
	}

	loopCfg := executor.DefaultConfig()
	loopCfg.MaxSteps = cfg.Loop.MaxSteps
	loopCfg.Delays.Navigation = cfg.Loop.NavigationDelay
	loopCfg.Delays.Default = cfg.Loop.DefaultDelay
	loop := executor.New(planner, browser, capture, ui, log, collector, loopCfg)

	store := service.NewSessionStore()

	log.Info("Container ready",
		"planner", planner.Name(),
		"executionMode", cfg.Browser.Mode,
		"screenBackend", cfg.Screen.Backend,
		"maxSteps", loopCfg.MaxSteps,
	)

	return &Container{
		Config:   cfg,
		Logger:   log,
		Metrics:  collector,
		Browser:  browser,
		Screen:   capture,
		Planner:  planner,
		Store:    store,
		Runner:   loop,
		Sessions: sessions.New(store, loop, log, collector),
	}, nil
}

func (c *Container) Close() {
	if c.Logger != nil {
		c.Logger.Close()
	}
}

func newPlanner(cfg config.PlannerConfig, systemPrompt string, log output.LoggerPort, collector output.MetricsPort) (output.PlannerPort, error) {
	switch cfg.Provider {
	case config.ProviderOpenRouter:
		orCfg := openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, systemPrompt)
		orCfg.Logger = log.WithField("component", "openrouter")
		orCfg.Metrics = collector
		planner, err := openrouter.NewOpenRouterAdapter(orCfg)
		if err != nil {
			return nil, err
		}
		return planner, nil
	default:
		gCfg := gemini.DefaultConfig(cfg.GeminiAPIKey, systemPrompt)
		if cfg.GeminiModel != "" {
			gCfg.Model = cfg.GeminiModel
		}
		if cfg.GeminiBaseURL != "" {
			gCfg.BaseURL = cfg.GeminiBaseURL
		}
		gCfg.Logger = log.WithField("component", "gemini")
		gCfg.Metrics = collector
		planner, err := gemini.NewGeminiAdapter(gCfg)
		if err != nil {
			return nil, err
		}
		return planner, nil
	}
}
