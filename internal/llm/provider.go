// Package llm sends prompts to hosted language models and returns
// schema-validated JSON. It backs the optional tutor explanations.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a completion for a single-turn prompt.
type Provider interface {
	// Generate sends req and returns the model output. When req.Schema is
	// set the output is JSON that has been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name is the provider identifier ("anthropic", "openai", "gemini", "mock").
	Name() string

	// Model is the model ID requests are sent to.
	Model() string
}

// Request is a single-turn prompt.
type Request struct {
	System string
	Prompt string

	// Schema, when set, requests structured JSON output.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

// Schema names a JSON Schema the response must satisfy.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is the model output.
type Response struct {
	Content json.RawMessage
	Usage   Usage

	// Model is the model that actually served the request.
	Model string
}

// Usage reports token consumption of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// resolveModel maps a short alias to a full model ID. Unknown names pass
// through unchanged so full IDs can be configured directly.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
