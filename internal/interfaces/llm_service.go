package interfaces

import (
	"context"
)

// Embedder generates fixed-dimension vector embeddings for text. The
// implementation owns retry/backoff; callers must not retry a failed call.
type Embedder interface {
	// Embed generates an embedding vector for the given text. The returned
	// vector always has Dimension() elements on success.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding model's output dimensionality.
	Dimension() int

	// ModelName returns the embedding model identifier.
	ModelName() string
}

// GenerateRequest is a provider-agnostic text generation request.
type GenerateRequest struct {
	// Prompt is the full grounded prompt, sent as a single user turn.
	Prompt string

	// Model optionally overrides the configured generation model.
	Model string

	// SystemInstruction is an optional system prompt.
	SystemInstruction string

	// Temperature overrides the configured temperature when > 0.
	Temperature float32

	// OutputSchema, when non-nil, constrains generation output to a declared
	// JSON shape. Passed through to the provider unchanged; providers without
	// structured-output support ignore it.
	OutputSchema map[string]interface{}
}

// Generator produces a single text completion for a prompt. One request, one
// response; no streaming, no multi-turn state.
type Generator interface {
	// Generate calls the generation model once and returns the response text.
	Generate(ctx context.Context, request *GenerateRequest) (string, error)

	// ModelName returns the generation model identifier.
	ModelName() string
}
