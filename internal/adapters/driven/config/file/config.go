// Package file loads the TOML configuration file and validates it.
// Model API keys are never stored here; they come from the environment
// (optionally via a .env file loaded at startup).
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
)

// Config is the full configuration surface, decoded from config.toml.
type Config struct {
	// DataDir overrides the default ~/.athenea data directory.
	DataDir string `toml:"data_dir"`

	Search   SearchConfig   `toml:"search"`
	Chunking ChunkingConfig `toml:"chunking"`
	Models   ModelsConfig   `toml:"models"`
	Retry    RetryConfig    `toml:"retry"`
}

// SearchConfig tunes hybrid retrieval.
type SearchConfig struct {
	TopKVector          int     `toml:"top_k_vector" validate:"gt=0"`
	TopKKeyword         int     `toml:"top_k_keyword" validate:"gt=0"`
	TopKFinal           int     `toml:"top_k_final" validate:"gt=0"`
	SimilarityThreshold float64 `toml:"similarity_threshold" validate:"gte=0,lte=1"`
	FusionWeight        float64 `toml:"fusion_weight" validate:"gte=0,lte=1"`
	FusionMethod        string  `toml:"fusion_method" validate:"oneof=weighted rrf"`
	EnableHyDE          bool    `toml:"enable_hyde"`
}

// ChunkingConfig tunes document segmentation.
type ChunkingConfig struct {
	MaxTokens    int     `toml:"max_tokens" validate:"gt=0"`
	MinTokens    int     `toml:"min_tokens" validate:"gt=0,ltefield=MaxTokens"`
	OverlapRatio float64 `toml:"overlap_ratio" validate:"gte=0,lt=1"`
}

// ModelsConfig selects the model provider and models.
type ModelsConfig struct {
	// Provider is the LLM provider: openai or anthropic. Embeddings
	// always use OpenAI; Anthropic has no embedding endpoint.
	Provider       string `toml:"provider" validate:"oneof=openai anthropic"`
	EmbeddingModel string `toml:"embedding_model" validate:"required"`
	ChatModel      string `toml:"chat_model" validate:"required"`

	// BaseURL overrides the provider API endpoint (Azure, proxies).
	BaseURL string `toml:"base_url"`
}

// RetryConfig tunes the model-call retry policy.
type RetryConfig struct {
	MaxAttempts int `toml:"max_attempts" validate:"gte=1"`
	BaseDelayMs int `toml:"base_delay_ms" validate:"gt=0"`
	MaxDelayMs  int `toml:"max_delay_ms" validate:"gtefield=BaseDelayMs"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Search: SearchConfig{
			TopKVector:          20,
			TopKKeyword:         20,
			TopKFinal:           5,
			SimilarityThreshold: 0.7,
			FusionWeight:        0.6,
			FusionMethod:        "weighted",
			EnableHyDE:          true,
		},
		Chunking: ChunkingConfig{
			MaxTokens:    512,
			MinTokens:    64,
			OverlapRatio: 0.15,
		},
		Models: ModelsConfig{
			Provider:       "openai",
			EmbeddingModel: "text-embedding-3-large",
			ChatModel:      "gpt-4o-mini",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelayMs: 500,
			MaxDelayMs:  8000,
		},
	}
}

// DefaultPath returns ~/.athenea/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".athenea", "config.toml"), nil
}

// Load reads the configuration file at path, applying defaults for any
// omitted key. An empty path uses DefaultPath; a missing file yields
// the defaults. The result is always validated.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := Default()

	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Decode over the defaults so partial files inherit them
	if err := toml.Unmarshal(body, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks all constraint tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// SearchOptions converts the search section to the domain options.
func (c *Config) SearchOptions() domain.SearchOptions {
	return domain.SearchOptions{
		TopKVector:          c.Search.TopKVector,
		TopKKeyword:         c.Search.TopKKeyword,
		TopKFinal:           c.Search.TopKFinal,
		SimilarityThreshold: c.Search.SimilarityThreshold,
		FusionWeight:        c.Search.FusionWeight,
		FusionMethod:        c.Search.FusionMethod,
		EnableHyDE:          c.Search.EnableHyDE,
	}
}
