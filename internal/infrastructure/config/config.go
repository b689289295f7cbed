package config

import (
	"fmt"
	"strings"
	"time"

	"qutebrowser-agent/internal/application/port/output"
	"qutebrowser-agent/internal/infrastructure/browser/qutebrowser"
	"qutebrowser-agent/internal/infrastructure/screen"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

type Config struct {
	Planner PlannerConfig
	Browser BrowserConfig
	Loop    LoopConfig
	Screen  ScreenConfig
	Log     LogConfig
	HTTP    HTTPConfig
	Prompt  PromptConfig
}

type PlannerConfig struct {
	Provider         string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	OpenRouterAPIKey string
	OpenRouterModel  string
}

type BrowserConfig struct {
	Containerized bool
	BaseDir       string
	Launch        bool
	Mode          qutebrowser.Mode
}

type LoopConfig struct {
	MaxSteps        int
	NavigationDelay time.Duration
	DefaultDelay    time.Duration
}

type ScreenConfig struct {
	Backend            screen.Backend
	Path               string
	MaxWidth           int
	FocusBeforeCapture bool
}

type LogConfig struct {
	Level string
	File  string
}

type HTTPConfig struct {
	Addr     string
	MaxConns int
}

type PromptConfig struct {
	ExtraRules []string
}

// Load reads every setting from env. Credentials are checked later by the
// planner constructors so that commands which never plan can run without them.
func Load(env output.ConfigPort) (*Config, error) {
	mode, err := qutebrowser.ParseMode(env.Get("EXECUTION_MODE"))
	if err != nil {
		return nil, fmt.Errorf("EXECUTION_MODE: %w", err)
	}

	backend, err := screen.ParseBackend(env.Get("SCREEN_BACKEND"))
	if err != nil {
		return nil, fmt.Errorf("SCREEN_BACKEND: %w", err)
	}

	provider := strings.ToLower(strings.TrimSpace(env.GetWithDefault("PLANNER_PROVIDER", ProviderGemini)))
	if provider != ProviderGemini && provider != ProviderOpenRouter {
		return nil, fmt.Errorf("PLANNER_PROVIDER: unknown provider %q (want %s or %s)", provider, ProviderGemini, ProviderOpenRouter)
	}

	r := &reader{env: env}

	// Set counts, even when empty.
	_, containerized := env.Lookup("IS_CONTAINERIZED")

	maxSteps := r.int("MAX_STEPS", 10)
	if r.err == nil && maxSteps < 1 {
		return nil, fmt.Errorf("MAX_STEPS: must be at least 1, got %d", maxSteps)
	}

	cfg := &Config{
		Planner: PlannerConfig{
			Provider:         provider,
			GeminiAPIKey:     env.Get("GEMINI_API_KEY"),
			GeminiModel:      env.GetWithDefault("GEMINI_MODEL", "gemini-2.5-flash"),
			GeminiBaseURL:    env.GetWithDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/models"),
			OpenRouterAPIKey: env.Get("OPENROUTER_API_KEY"),
			OpenRouterModel:  env.Get("OPENROUTER_MODEL_NAME"),
		},
		Browser: BrowserConfig{
			Containerized: containerized,
			BaseDir:       env.Get("QUTEBROWSER_BASEDIR"),
			Launch:        r.bool("LAUNCH_BROWSER", false),
			Mode:          mode,
		},
		Loop: LoopConfig{
			MaxSteps:        maxSteps,
			NavigationDelay: r.duration("NAVIGATION_DELAY", 3000*time.Millisecond),
			DefaultDelay:    r.duration("DEFAULT_DELAY", 1000*time.Millisecond),
		},
		Screen: ScreenConfig{
			Backend:            backend,
			Path:               env.GetWithDefault("SCREENSHOT_PATH", screen.DefaultPath),
			MaxWidth:           r.int("SCREENSHOT_MAX_WIDTH", 0),
			FocusBeforeCapture: r.bool("FOCUS_BEFORE_CAPTURE", false),
		},
		Log: LogConfig{
			Level: env.GetWithDefault("LOG_LEVEL", "info"),
			File:  env.GetWithDefault("LOG_FILE", "log/agent.log"),
		},
		HTTP: HTTPConfig{
			Addr:     env.GetWithDefault("HTTP_ADDR", ":8080"),
			MaxConns: r.int("HTTP_MAX_CONNS", 16),
		},
		Prompt: PromptConfig{
			ExtraRules: splitRules(env.Get("SYSTEM_PROMPT_EXTRA_RULES")),
		},
	}

	if r.err != nil {
		return nil, r.err
	}

	return cfg, nil
}

// reader keeps the first parse error of a sequence of typed reads.
type reader struct {
	env output.ConfigPort
	err error
}

func (r *reader) keep(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) int(key string, defaultValue int) int {
	v, err := r.env.GetInt(key, defaultValue)
	r.keep(err)
	return v
}

func (r *reader) bool(key string, defaultValue bool) bool {
	v, err := r.env.GetBool(key, defaultValue)
	r.keep(err)
	return v
}

func (r *reader) duration(key string, defaultValue time.Duration) time.Duration {
	v, err := r.env.GetDuration(key, defaultValue)
	r.keep(err)
	return v
}

func splitRules(raw string) []string {
	var rules []string
	for _, rule := range strings.Split(raw, "|") {
		if rule = strings.TrimSpace(rule); rule != "" {
			rules = append(rules, rule)
		}
	}
	return rules
}
