package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"qutebrowser-agent/internal/application/port/output"
	"qutebrowser-agent/internal/domain/entity"
	"qutebrowser-agent/internal/infrastructure/llm/planjson"
)

var _ output.PlannerPort = (*GeminiAdapter)(nil)

const (
	ProviderName = "gemini"

	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel   = "gemini-2.5-flash"
	defaultTimeout = 2 * time.Minute
)

type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	SystemPrompt string
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       output.LoggerPort
	Metrics      output.MetricsPort
}

func DefaultConfig(apiKey, systemPrompt string) Config {
	return Config{
		APIKey:       apiKey,
		Model:        defaultModel,
		BaseURL:      defaultBaseURL,
		SystemPrompt: systemPrompt,
		Timeout:      defaultTimeout,
	}
}

type GeminiAdapter struct {
	client       *http.Client
	apiKey       string
	model        string
	baseURL      string
	systemPrompt string
	logger       output.LoggerPort
	metrics      output.MetricsPort
}

// loggingTransport logs request metadata. The URL is logged without its
// query string so the API key never reaches the log.
type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.logger.Debug("HTTP Request",
		"method", req.Method,
		"url", req.URL.Scheme+"://"+req.URL.Host+req.URL.Path,
		"contentLength", req.ContentLength,
	)

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Warn("HTTP Request failed", "error", err, "duration", time.Since(start))
		return nil, err
	}

	t.logger.Debug("HTTP Response",
		"status", resp.Status,
		"statusCode", resp.StatusCode,
		"duration", time.Since(start),
	)
	return resp, nil
}

func NewGeminiAdapter(cfg Config) (*GeminiAdapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &entity.ConfigurationError{Key: "GEMINI_API_KEY", Msg: "environment variable not set"}
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
		if cfg.Logger != nil {
			client.Transport = &loggingTransport{
				base:   http.DefaultTransport,
				logger: cfg.Logger,
			}
		}
	}

	return &GeminiAdapter{
		client:       client,
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		systemPrompt: cfg.SystemPrompt,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}, nil
}

func (a *GeminiAdapter) Name() string { return ProviderName }

func (a *GeminiAdapter) GetPlan(ctx context.Context, conversation []entity.Turn) (*entity.BrowserPlan, error) {
	start := time.Now()
	plan, err := a.getPlan(ctx, conversation)
	a.observe(err, time.Since(start))
	return plan, err
}

func (a *GeminiAdapter) getPlan(ctx context.Context, conversation []entity.Turn) (*entity.BrowserPlan, error) {
	contents := make([]content, 0, len(conversation)+1)
	contents = append(contents, content{
		Role:  string(entity.TurnRoleUser),
		Parts: []part{textPart(a.systemPrompt)},
	})
	contents = append(contents, convertTurns(conversation)...)

	body, err := json.Marshal(generateRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   planjson.ResponseSchemaJSON(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &entity.TransportError{Err: redactKey(err, a.apiKey)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &entity.TransportError{Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if a.logger != nil {
			a.logger.Error("Gemini API error", "statusCode", resp.StatusCode, "body", string(respBody))
		}
		return nil, &entity.ServiceError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return nil, &entity.MalformedPlanError{Raw: string(respBody), Cleaned: string(respBody), Err: fmt.Errorf("failed to parse gemini response: %w", err)}
	}

	text, err := firstText(&gr)
	if err != nil {
		return nil, err
	}

	if a.logger != nil {
		a.logger.Debug("Gemini raw plan", "text", text)
	}

	return planjson.Decode(text)
}

func (a *GeminiAdapter) endpoint() string {
	return fmt.Sprintf("%s/%s:generateContent?key=%s", a.baseURL, a.model, url.QueryEscape(a.apiKey))
}

func firstText(gr *generateResponse) (string, error) {
	if len(gr.Candidates) == 0 {
		return "", &entity.EmptyResponseError{Reason: "no candidates in gemini response"}
	}
	parts := gr.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", &entity.EmptyResponseError{Reason: "no parts in gemini response"}
	}
	if parts[0].Text == nil {
		return "", &entity.EmptyResponseError{Reason: "no text in gemini response"}
	}
	return *parts[0].Text, nil
}

// redactedError hides the API key that net/http embeds in *url.Error
// messages while keeping the cause reachable for errors.Is.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redactKey(err error, key string) error {
	msg := err.Error()
	if key == "" || !strings.Contains(msg, url.QueryEscape(key)) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(msg, url.QueryEscape(key), "REDACTED"), err: err}
}

func (a *GeminiAdapter) observe(err error, d time.Duration) {
	if a.metrics != nil {
		a.metrics.ObservePlanRequest(ProviderName, planjson.Status(err), d)
	}
}
