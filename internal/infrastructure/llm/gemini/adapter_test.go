package gemini

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qutebrowser-agent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planResponse(text string) string {
	data, _ := json.Marshal(generateResponse{
		Candidates: []candidate{{Content: content{Role: "model", Parts: []part{textPart(text)}}}},
	})
	return string(data)
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *GeminiAdapter {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig("test-key", "SYSTEM PROMPT")
	cfg.BaseURL = server.URL + "/v1beta/models"

	adapter, err := NewGeminiAdapter(cfg)
	require.NoError(t, err)
	return adapter
}

func sampleConversation() []entity.Turn {
	return []entity.Turn{
		{Role: entity.TurnRoleUser, Parts: []entity.Part{
			entity.ImagePart(entity.MimeTypePNG, "aW1hZ2U="),
			entity.TextPart("go to example.com"),
		}},
		{Role: entity.TurnRoleModel, Parts: []entity.Part{entity.TextPart("Executed plan: opened it")}},
	}
}

func TestNewGeminiAdapter_MissingKey(t *testing.T) {
	_, err := NewGeminiAdapter(DefaultConfig("  ", "prompt"))

	var cfgErr *entity.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "GEMINI_API_KEY", cfgErr.Key)
}

func TestGetPlan_RequestShape(t *testing.T) {
	var captured map[string]any

	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))

		fmt.Fprint(w, planResponse(`{"action":"finish","thought":"Done","wittyMessage":"🎉"}`))
	})

	plan, err := adapter.GetPlan(t.Context(), sampleConversation())
	require.NoError(t, err)
	assert.Equal(t, "Done", plan.Thought)

	contents := captured["contents"].([]any)
	require.Len(t, contents, 3)

	system := contents[0].(map[string]any)
	assert.Equal(t, "user", system["role"])
	assert.Equal(t, "SYSTEM PROMPT", system["parts"].([]any)[0].(map[string]any)["text"])

	user := contents[1].(map[string]any)
	userParts := user["parts"].([]any)
	require.Len(t, userParts, 2)
	inline := userParts[0].(map[string]any)["inlineData"].(map[string]any)
	assert.Equal(t, "image/png", inline["mimeType"])
	assert.Equal(t, "aW1hZ2U=", inline["data"])
	assert.NotContains(t, userParts[0].(map[string]any), "text")
	assert.Equal(t, "go to example.com", userParts[1].(map[string]any)["text"])

	model := contents[2].(map[string]any)
	assert.Equal(t, "model", model["role"])

	genCfg := captured["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", genCfg["responseMimeType"])
	schema := genCfg["responseSchema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
}

func TestGetPlan_FencedResponse(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, planResponse("```json\n{\"action\":\"execute\",\"thought\":\"t\",\"wittyMessage\":\"w\",\"steps\":[{\"command\":\":open https://example.com\"}]}\n```"))
	})

	plan, err := adapter.GetPlan(t.Context(), sampleConversation())
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, ":open https://example.com", plan.Steps[0].Command)
}

func TestGetPlan_ServiceErrorKeepsBody(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":429,"message":"quota"}}`)
	})

	_, err := adapter.GetPlan(t.Context(), sampleConversation())

	var svcErr *entity.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusTooManyRequests, svcErr.StatusCode)
	assert.Equal(t, `{"error":{"code":429,"message":"quota"}}`, svcErr.Body)
}

func TestGetPlan_EmptyResponses(t *testing.T) {
	cases := map[string]string{
		"no candidates": `{"candidates":[]}`,
		"no parts":      `{"candidates":[{"content":{"role":"model","parts":[]}}]}`,
		"no text":       `{"candidates":[{"content":{"role":"model","parts":[{"inlineData":{"mimeType":"image/png","data":""}}]}}]}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			})

			_, err := adapter.GetPlan(t.Context(), sampleConversation())

			var empty *entity.EmptyResponseError
			assert.ErrorAs(t, err, &empty)
		})
	}
}

func TestGetPlan_InvalidPlan(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, planResponse(`{"action":"execute","thought":"t","wittyMessage":"w","steps":[]}`))
	})

	_, err := adapter.GetPlan(t.Context(), sampleConversation())

	var invalid *entity.InvalidPlanError
	assert.ErrorAs(t, err, &invalid)
}

func TestGetPlan_TransportErrorHidesKey(t *testing.T) {
	cfg := DefaultConfig("secret-key", "prompt")
	cfg.BaseURL = "http://127.0.0.1:1/v1beta/models"
	cfg.Timeout = time.Second

	adapter, err := NewGeminiAdapter(cfg)
	require.NoError(t, err)

	_, err = adapter.GetPlan(t.Context(), sampleConversation())

	var transport *entity.TransportError
	require.ErrorAs(t, err, &transport)
	assert.NotContains(t, err.Error(), "secret-key")
}

type recordingMetrics struct {
	statuses []string
}

func (m *recordingMetrics) ObservePlanRequest(provider, status string, _ time.Duration) {
	m.statuses = append(m.statuses, provider+":"+status)
}
func (m *recordingMetrics) ObserveCommand(string)  {}
func (m *recordingMetrics) ObserveRun(string, int) {}
func (m *recordingMetrics) SetActiveSessions(int)  {}

func TestGetPlan_ReportsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer server.Close()

	metrics := &recordingMetrics{}
	cfg := DefaultConfig("k", "prompt")
	cfg.BaseURL = server.URL
	cfg.Metrics = metrics

	adapter, err := NewGeminiAdapter(cfg)
	require.NoError(t, err)

	_, _ = adapter.GetPlan(t.Context(), sampleConversation())

	assert.Equal(t, []string{"gemini:empty_response"}, metrics.statuses)
}
