package openrouter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"qutebrowser-agent/internal/application/port/output"
	"qutebrowser-agent/internal/domain/entity"
	"qutebrowser-agent/internal/infrastructure/llm/planjson"

	"github.com/sashabaranov/go-openai"
)

var _ output.PlannerPort = (*OpenRouterAdapter)(nil)

const ProviderName = "openrouter"

type OpenRouterAdapter struct {
	client       *openai.Client
	model        string
	systemPrompt string
	temperature  float32
	logger       output.LoggerPort
	metrics      output.MetricsPort
}

type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	SystemPrompt string
	Temperature  float32
	Logger       output.LoggerPort
	Metrics      output.MetricsPort
}

func DefaultConfig(apiKey, model, systemPrompt string) Config {
	return Config{
		APIKey:       apiKey,
		Model:        model,
		BaseURL:      "https://openrouter.ai/api/v1",
		SystemPrompt: systemPrompt,
	}
}

// errorBody receives the raw body of a non-success response so the
// service error can carry it verbatim.
type errorBody struct {
	data []byte
}

type errorBodyKey struct{}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var bodyLen int
	if req.Body != nil {
		bodyBytes, _ := io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		bodyLen = len(bodyBytes)
	}

	if t.logger != nil {
		t.logger.Debug("HTTP Request",
			"method", req.Method,
			"url", req.URL.String(),
			"bodyBytes", bodyLen,
		)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	if t.logger != nil {
		t.logger.Debug("HTTP Response",
			"status", resp.Status,
			"statusCode", resp.StatusCode,
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if capture, ok := req.Context().Value(errorBodyKey{}).(*errorBody); ok {
			data, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return nil, readErr
			}
			capture.data = data
			resp.Body = io.NopCloser(bytes.NewReader(data))
		}
	}

	return resp, nil
}

func NewOpenRouterAdapter(cfg Config) (*OpenRouterAdapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &entity.ConfigurationError{Key: "OPENROUTER_API_KEY", Msg: "environment variable not set"}
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, &entity.ConfigurationError{Key: "OPENROUTER_MODEL_NAME", Msg: "environment variable not set"}
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL

	config.HTTPClient = &http.Client{
		Transport: &loggingTransport{
			base:   http.DefaultTransport,
			logger: cfg.Logger,
		},
	}

	return &OpenRouterAdapter{
		client:       openai.NewClientWithConfig(config),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}, nil
}

func (a *OpenRouterAdapter) Name() string { return ProviderName }

func (a *OpenRouterAdapter) GetPlan(ctx context.Context, conversation []entity.Turn) (*entity.BrowserPlan, error) {
	start := time.Now()
	plan, err := a.getPlan(ctx, conversation)
	if a.metrics != nil {
		a.metrics.ObservePlanRequest(ProviderName, planjson.Status(err), time.Since(start))
	}
	return plan, err
}

func (a *OpenRouterAdapter) getPlan(ctx context.Context, conversation []entity.Turn) (*entity.BrowserPlan, error) {
	capture := &errorBody{}
	ctx = context.WithValue(ctx, errorBodyKey{}, capture)

	messages := append([]openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: a.systemPrompt,
	}}, convertTurns(conversation)...)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: a.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "browser_plan",
				Schema: planjson.ResponseSchemaJSON(),
			},
		},
	})
	if err != nil {
		return nil, convertError(err, capture.data)
	}

	if len(resp.Choices) == 0 {
		return nil, &entity.EmptyResponseError{Reason: "no choices in response"}
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return nil, &entity.EmptyResponseError{Reason: "no content in response"}
	}

	if a.logger != nil {
		a.logger.Debug("OpenRouter raw plan", "text", text)
	}

	return planjson.Decode(text)
}

// convertError maps client errors onto entity errors. rawBody is the
// response body as received, when one was captured.
func convertError(err error, rawBody []byte) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &entity.ServiceError{StatusCode: apiErr.HTTPStatusCode, Body: bodyOr(rawBody, apiErr.Message)}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &entity.ServiceError{StatusCode: reqErr.HTTPStatusCode, Body: bodyOr(rawBody, reqErr.Error())}
	}

	return &entity.TransportError{Err: fmt.Errorf("chat completion failed: %w", err)}
}

func bodyOr(rawBody []byte, fallback string) string {
	if rawBody != nil {
		return string(rawBody)
	}
	return fallback
}

// convertTurns maps conversation turns onto chat messages. Model turns
// become assistant messages; images travel as data URLs.
func convertTurns(turns []entity.Turn) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		role := openai.ChatMessageRoleUser
		if turn.Role == entity.TurnRoleModel {
			role = openai.ChatMessageRoleAssistant
		}

		if !hasImage(turn) {
			result = append(result, openai.ChatCompletionMessage{
				Role:    role,
				Content: joinText(turn),
			})
			continue
		}

		msg := openai.ChatCompletionMessage{Role: role}
		for _, p := range turn.Parts {
			if p.IsImage() {
				msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL: "data:" + p.InlineData.MimeType + ";base64," + p.InlineData.Data,
					},
				})
				continue
			}
			msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: p.Text,
			})
		}
		result = append(result, msg)
	}
	return result
}

func hasImage(turn entity.Turn) bool {
	for _, p := range turn.Parts {
		if p.IsImage() {
			return true
		}
	}
	return false
}

func joinText(turn entity.Turn) string {
	texts := make([]string, 0, len(turn.Parts))
	for _, p := range turn.Parts {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n")
}
