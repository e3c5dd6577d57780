// Package llm is a small provider abstraction over the Gemini, OpenAI and
// Anthropic SDKs, used to generate learning content as schema-constrained
// JSON.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a response for a request.
type Provider interface {
	// Generate runs one completion. When req.Schema is set the returned
	// Content is JSON that has been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the model the provider sends requests to.
	ModelID() string
}

// Role is the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Schema is a named JSON Schema the response must satisfy.
type Schema struct {
	Name        string // kebab-case, used as the OpenAI schema name
	Description string
	Definition  map[string]any
}

// Request is a completion request.
type Request struct {
	System      string
	Messages    []Message
	Schema      *Schema
	MaxTokens   int
	Temperature float64 // 0 leaves the provider default
}

// Prompt builds a single-turn request.
func Prompt(system, user string, schema *Schema, maxTokens int) Request {
	return Request{
		System:    system,
		Messages:  []Message{{Role: RoleUser, Content: user}},
		Schema:    schema,
		MaxTokens: maxTokens,
	}
}

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// Response is the provider output.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string
}

// Decode unmarshals the response content into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Content, v); err != nil {
		return &ErrInvalidResponse{Content: r.Content, Err: err}
	}
	return nil
}

// Usage is the token count of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// finish validates provider output and assembles the response. Text
// that stopped on the token limit is reported as truncated when a schema
// was requested, since partial JSON cannot satisfy it.
func finish(req Request, content string, usage Usage, model, stop string) (*Response, error) {
	raw := json.RawMessage(content)
	if req.Schema != nil {
		if stop == StopMaxTokens {
			return nil, &ErrMaxTokensExceeded{Content: raw}
		}
		if err := validateResponse(req.Schema, raw); err != nil {
			return nil, err
		}
	}
	return &Response{Content: raw, Usage: usage, Model: model, StopReason: stop}, nil
}
