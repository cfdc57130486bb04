package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stepsJSON = `{"steps":["Resta 3 en ambos lados","Divide entre 2"],"answer":"4"}`

func serve(t *testing.T, status int, body any) (*httptest.Server, *map[string]any) {
	t.Helper()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func newTestAnthropic(t *testing.T, url string) *Anthropic {
	t.Helper()
	p, err := NewAnthropic(AnthropicConfig{APIKey: "test-key", Model: "claude-haiku"},
		option.WithBaseURL(url), option.WithMaxRetries(0))
	require.NoError(t, err)
	return p
}

func TestAnthropicGenerate(t *testing.T) {
	srv, sent := serve(t, http.StatusOK, map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": "end_turn",
		"content":     []map[string]any{{"type": "text", "text": stepsJSON}},
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	})

	p := newTestAnthropic(t, srv.URL)
	assert.Equal(t, "claude-haiku-4-5-20251001", p.Model())

	resp, err := p.Generate(context.Background(), Request{
		System:    "Eres un tutor de matemáticas.",
		Prompt:    "Explica 2x + 3 = 11",
		Schema:    stepsSchema,
		MaxTokens: 512,
	})
	require.NoError(t, err)
	assert.JSONEq(t, stepsJSON, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 50, OutputTokens: 30}, resp.Usage)
	assert.Equal(t, "claude-haiku-4-5-20251001", (*sent)["model"])
}

func TestAnthropicTruncated(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": "max_tokens",
		"content":     []map[string]any{{"type": "text", "text": `{"steps":["Resta`}},
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 512},
	})

	_, err := newTestAnthropic(t, srv.URL).Generate(context.Background(), Request{Prompt: "x", MaxTokens: 512})
	var trunc *ErrMaxTokensExceeded
	assert.ErrorAs(t, err, &trunc)
}

func TestAnthropicRateLimit(t *testing.T) {
	srv, _ := serve(t, http.StatusTooManyRequests, map[string]any{
		"type":  "error",
		"error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
	})

	_, err := newTestAnthropic(t, srv.URL).Generate(context.Background(), Request{Prompt: "x", MaxTokens: 16})
	var rl *ErrRateLimit
	assert.ErrorAs(t, err, &rl)
}

func newTestOpenAI(t *testing.T, url string) *OpenAI {
	t.Helper()
	p, err := NewOpenAI(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: url + "/v1"})
	require.NoError(t, err)
	return p
}

func openAIReply(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func TestOpenAIGenerate(t *testing.T) {
	srv, sent := serve(t, http.StatusOK, openAIReply(stepsJSON, "stop"))

	resp, err := newTestOpenAI(t, srv.URL).Generate(context.Background(), Request{
		System:    "Eres un tutor de matemáticas.",
		Prompt:    "Explica 2x + 3 = 11",
		Schema:    stepsSchema,
		MaxTokens: 512,
	})
	require.NoError(t, err)
	assert.JSONEq(t, stepsJSON, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 40, OutputTokens: 25}, resp.Usage)

	format, ok := (*sent)["response_format"].(map[string]any)
	require.True(t, ok, "response_format not sent")
	assert.Equal(t, "json_schema", format["type"])
	msgs := (*sent)["messages"].([]any)
	assert.Len(t, msgs, 2)
}

func TestOpenAISchemaMismatch(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, openAIReply(`{"answer":"4"}`, "stop"))
	_, err := newTestOpenAI(t, srv.URL).Generate(context.Background(), Request{Prompt: "x", Schema: stepsSchema})
	var inv *ErrInvalidResponse
	assert.ErrorAs(t, err, &inv)
}

func TestOpenAIServerError(t *testing.T) {
	srv, _ := serve(t, http.StatusInternalServerError, map[string]any{
		"error": map[string]any{"message": "boom", "type": "server_error"},
	})
	_, err := newTestOpenAI(t, srv.URL).Generate(context.Background(), Request{Prompt: "x"})
	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)
}

func TestGeminiSchemaConversion(t *testing.T) {
	s := geminiSchema(stepsSchema.Definition)
	assert.Equal(t, "OBJECT", string(s.Type))
	require.Contains(t, s.Properties, "steps")
	assert.Equal(t, "ARRAY", string(s.Properties["steps"].Type))
	assert.Equal(t, "STRING", string(s.Properties["steps"].Items.Type))
	assert.Equal(t, []string{"steps", "answer"}, s.Required)
}

func TestResolveModel(t *testing.T) {
	assert.Equal(t, "gemini-2.0-flash", resolveModel("gemini-flash", geminiAliases))
	assert.Equal(t, "gemini-2.0-flash-001", resolveModel("gemini-2.0-flash-001", geminiAliases))
}
