// Package cli provides the command-line interface for Athenea. Commands
// talk to the core services through the driving ports; wiring happens
// once in Execute so tests can swap the package-level services for
// mocks.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	configfile "github.com/atheneahq/athenea-cli/internal/adapters/driven/config/file"
	"github.com/atheneahq/athenea-cli/internal/adapters/driven/embedding/openai"
	"github.com/atheneahq/athenea-cli/internal/adapters/driven/index/lexical"
	"github.com/atheneahq/athenea-cli/internal/adapters/driven/index/vector"
	"github.com/atheneahq/athenea-cli/internal/adapters/driven/llm/anthropic"
	llmopenai "github.com/atheneahq/athenea-cli/internal/adapters/driven/llm/openai"
	"github.com/atheneahq/athenea-cli/internal/adapters/driven/storage/sqlite"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driven"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driving"
	"github.com/atheneahq/athenea-cli/internal/core/services"
	"github.com/atheneahq/athenea-cli/internal/logger"
	"github.com/atheneahq/athenea-cli/internal/postprocessors"
	"github.com/atheneahq/athenea-cli/internal/retry"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfgPath string
	verbose bool
)

// Services used by the commands. Execute wires the real ones; tests
// substitute mocks.
var (
	askService    driving.AskService
	ingestService driving.IngestService
)

var rootCmd = &cobra.Command{
	Use:   "athenea",
	Short: "Question answering over a bilingual contract corpus",
	Long: `Athenea answers natural-language questions over ingested legal
contracts (Spanish and English) using hybrid keyword and semantic
retrieval with citation-verified generation.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.toml (default ~/.athenea/config.toml)")
}

// Execute wires the services and runs the root command.
func Execute() error {
	cobra.OnInitialize(func() {
		if err := initServices(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	})
	return rootCmd.Execute()
}

// initServices builds the full adapter stack from configuration. Model
// adapters are optional: a missing API key degrades the pipeline
// (keyword-only retrieval, no generation) instead of failing startup.
func initServices() error {
	// Load API keys from a .env file if present
	_ = godotenv.Load()

	cfg, err := configfile.Load(cfgPath)
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}

	policy := retryPolicy(cfg)
	embedder := buildEmbedder(cfg, policy)
	llm := buildLLM(cfg, policy)

	indexes := services.NewIndexSet(nil)
	factory := func() (driven.SearchEngine, driven.VectorIndex, error) {
		dims := 0
		modelID := cfg.Models.EmbeddingModel
		if embedder != nil {
			dims = embedder.Dimensions()
			modelID = embedder.ModelName()
		}
		return lexical.New(), vector.New(modelID, dims), nil
	}

	pipeline := postprocessors.DefaultPipeline(
		cfg.Chunking.MaxTokens,
		cfg.Chunking.MinTokens,
		cfg.Chunking.OverlapRatio,
	)

	ingestService = services.NewIngestService(store, pipeline, embedder, indexes, factory)
	askService = services.NewAskService(
		services.NewExpander(llm),
		services.NewRetriever(store, indexes, embedder),
		services.NewGenerator(llm),
		services.NewVerifier(),
		cfg.SearchOptions(),
	)

	return nil
}

func retryPolicy(cfg *configfile.Config) retry.Policy {
	policy := retry.Default()
	if cfg.Retry.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if cfg.Retry.BaseDelayMs > 0 {
		policy.BaseDelay = time.Duration(cfg.Retry.BaseDelayMs) * time.Millisecond
	}
	if cfg.Retry.MaxDelayMs > 0 {
		policy.MaxDelay = time.Duration(cfg.Retry.MaxDelayMs) * time.Millisecond
	}
	return policy
}

// buildEmbedder returns nil when no OpenAI key is configured, leaving
// retrieval keyword-only.
func buildEmbedder(cfg *configfile.Config, policy retry.Policy) driven.EmbeddingService {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		logger.Warn("OPENAI_API_KEY not set; semantic search disabled")
		return nil
	}

	embedder, err := openai.NewEmbeddingService(openai.Config{
		APIKey:  apiKey,
		BaseURL: cfg.Models.BaseURL,
		Model:   cfg.Models.EmbeddingModel,
		Retry:   policy,
	})
	if err != nil {
		logger.Warn("Embedding service unavailable: %v", err)
		return nil
	}
	return embedder
}

// buildLLM returns nil when the configured provider has no API key,
// disabling HyDE expansion and answer generation.
func buildLLM(cfg *configfile.Config, policy retry.Policy) driven.LLMService {
	switch cfg.Models.Provider {
	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			logger.Warn("ANTHROPIC_API_KEY not set; answer generation disabled")
			return nil
		}
		llm, err := anthropic.NewLLMService(anthropic.Config{
			APIKey:  apiKey,
			BaseURL: cfg.Models.BaseURL,
			Model:   cfg.Models.ChatModel,
			Retry:   policy,
		})
		if err != nil {
			logger.Warn("LLM service unavailable: %v", err)
			return nil
		}
		return llm
	default:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			logger.Warn("OPENAI_API_KEY not set; answer generation disabled")
			return nil
		}
		llm, err := llmopenai.NewLLMService(llmopenai.LLMConfig{
			APIKey:  apiKey,
			BaseURL: cfg.Models.BaseURL,
			Model:   cfg.Models.ChatModel,
			Retry:   policy,
		})
		if err != nil {
			logger.Warn("LLM service unavailable: %v", err)
			return nil
		}
		return llm
	}
}

// warmIndexes rebuilds the in-memory snapshot from the stored corpus.
// Query commands call this once at startup; an ingest run publishes its
// own snapshot.
func warmIndexes(cmd *cobra.Command) error {
	if ingestService == nil {
		return nil
	}
	if _, err := ingestService.IngestDocuments(cmd.Context(), nil); err != nil {
		return fmt.Errorf("building indexes: %w", err)
	}
	return nil
}
