package driven

import "context"

// LLMService provides generation model operations for query expansion
// and grounded answer synthesis. The model is a black box behind
// complete(prompt) -> text; prompt construction and output parsing are
// core concerns, not adapter concerns.
//
// Implementations may include:
//   - OpenAI (GPT-4 family)
//   - Anthropic (Claude)
type LLMService interface {
	// Complete produces a text completion for the prompt.
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// CompleteOptions constrains a single completion call.
type CompleteOptions struct {
	// System is the system prompt, if the provider supports one.
	System string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// StopSequences stop generation when encountered.
	StopSequences []string
}
