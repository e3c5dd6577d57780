package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/genai"
)

var levelSchema = &Schema{
	Name: "test-level",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"title", "level"},
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"level": map[string]any{"type": "string", "enum": []any{"basic", "moderate", "advanced"}},
		},
	},
}

func jsonHandler(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}

func openAIServer(t *testing.T, h http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func openAICompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
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
	var got map[string]any
	p := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		jsonHandler(http.StatusOK, openAICompletion(`{"title":"Budgeting","level":"basic"}`, "stop"))(w, r)
	})

	resp, err := p.Generate(context.Background(), Prompt("You write finance lessons.", "Budgeting", levelSchema, 512))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 || resp.Usage.Total() != 65 {
		t.Errorf("usage = %+v", resp.Usage)
	}
	if resp.StopReason != StopEnd {
		t.Errorf("stop = %q", resp.StopReason)
	}
	var out struct{ Title, Level string }
	if err := resp.Decode(&out); err != nil || out.Level != "basic" {
		t.Errorf("decode = %+v, %v", out, err)
	}

	msgs, _ := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Errorf("sent %d messages, want system and user", len(msgs))
	}
	if rf, _ := got["response_format"].(map[string]any); rf["type"] != "json_schema" {
		t.Errorf("response_format = %v", got["response_format"])
	}
}

func TestOpenAISchemaMismatch(t *testing.T) {
	p := openAIServer(t, jsonHandler(http.StatusOK, openAICompletion(`{"title":"x","level":"expert"}`, "stop")))
	_, err := p.Generate(context.Background(), Prompt("", "x", levelSchema, 64))
	var invalid *ErrInvalidResponse
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want ErrInvalidResponse", err)
	}
}

func TestOpenAITruncated(t *testing.T) {
	p := openAIServer(t, jsonHandler(http.StatusOK, openAICompletion(`{"title":`, "length")))
	_, err := p.Generate(context.Background(), Prompt("", "x", levelSchema, 8))
	var truncated *ErrMaxTokensExceeded
	if !errors.As(err, &truncated) {
		t.Fatalf("err = %v, want ErrMaxTokensExceeded", err)
	}
}

func TestOpenAIErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusTooManyRequests, func(err error) bool { var e *ErrRateLimit; return errors.As(err, &e) }},
		{http.StatusBadGateway, func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) }},
	}
	for _, tt := range tests {
		p := openAIServer(t, jsonHandler(tt.status, map[string]any{
			"error": map[string]any{"message": "nope", "type": "server_error"},
		}))
		_, err := p.Generate(context.Background(), Prompt("", "x", nil, 8))
		if !tt.check(err) {
			t.Errorf("status %d: err = %v (%T)", tt.status, err, err)
		}
	}
}

func TestAnthropicGenerate(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusOK, map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": `{"title":"Saving","level":"moderate"}`}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}))
	t.Cleanup(srv.Close)

	p, err := NewAnthropicProvider(ProviderConfig{APIKey: "test-key", Model: "claude-haiku", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if p.ModelID() != "claude-haiku-4-5-20251001" {
		t.Errorf("model = %q", p.ModelID())
	}
	resp, err := p.Generate(context.Background(), Prompt("sys", "Saving", levelSchema, 256))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Usage.InputTokens != 50 || resp.Usage.OutputTokens != 30 {
		t.Errorf("usage = %+v", resp.Usage)
	}
	if resp.Model != "claude-haiku-4-5-20251001" {
		t.Errorf("model = %q", resp.Model)
	}
}

func TestConstructorsRequireKeys(t *testing.T) {
	if _, err := NewOpenAIProvider(ProviderConfig{}); err == nil {
		t.Error("openai without key")
	}
	if _, err := NewAnthropicProvider(ProviderConfig{}); err == nil {
		t.Error("anthropic without key")
	}
	if _, err := NewGeminiProvider(context.Background(), ProviderConfig{}); err == nil {
		t.Error("gemini without key")
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type":     "object",
		"required": []string{"title"},
		"properties": map[string]any{
			"title": map[string]any{"type": "string", "description": "Module title"},
			"level": map[string]any{"type": "string", "enum": []any{"basic", "moderate"}},
			"tags":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"score": map[string]any{"type": "number"},
		},
	})
	if s.Type != genai.TypeObject {
		t.Errorf("type = %v", s.Type)
	}
	if len(s.Required) != 1 || s.Required[0] != "title" {
		t.Errorf("required = %v", s.Required)
	}
	if s.Properties["title"].Description != "Module title" {
		t.Errorf("title = %+v", s.Properties["title"])
	}
	if len(s.Properties["level"].Enum) != 2 {
		t.Errorf("enum = %v", s.Properties["level"].Enum)
	}
	if s.Properties["tags"].Items == nil || s.Properties["tags"].Items.Type != genai.TypeString {
		t.Errorf("items = %+v", s.Properties["tags"].Items)
	}
	if s.Properties["score"].Type != genai.TypeNumber {
		t.Errorf("score = %v", s.Properties["score"].Type)
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct{ provider, in, want string }{
		{ProviderGemini, "gemini-flash", "gemini-2.0-flash"},
		{ProviderAnthropic, "claude-sonnet", "claude-sonnet-4-20250514"},
		{ProviderOpenAI, "gpt-4.1", "gpt-4.1"},
		{"other", "gemini-flash", "gemini-flash"},
	}
	for _, tt := range tests {
		if got := ResolveModel(tt.provider, tt.in); got != tt.want {
			t.Errorf("ResolveModel(%s, %s) = %s, want %s", tt.provider, tt.in, got, tt.want)
		}
	}
}
