package provider

import (
	"context"
	"errors"
)

// Client names a supported LLM backend.
type Client string

const (
	OpenAI Client = "openai"
)

// ErrEmptyCompletion is returned when the model answered with no content.
var ErrEmptyCompletion = errors.New("empty completion")

// CompletionRequest is a single-turn prompt sent as one user message.
type CompletionRequest struct {
	Model  string
	Prompt string
	// JSON asks the model for a JSON object response.
	JSON      bool
	MaxTokens int
}

// Generator produces text completions.
type Generator interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Embedder turns text into a vector for nearest-neighbor search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ImageDescriber produces a textual description of a publicly reachable image.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, imageURL, prompt string) (string, error)
}

// LLM bundles every capability the pipeline needs from a provider.
type LLM interface {
	Generator
	Embedder
	ImageDescriber
}
