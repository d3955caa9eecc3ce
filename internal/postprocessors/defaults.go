package postprocessors

import (
	"github.com/atheneahq/athenea-cli/internal/postprocessors/chunker"
	"github.com/atheneahq/athenea-cli/internal/postprocessors/cleaner"
)

// DefaultPipeline builds the standard ingestion pipeline: content
// cleaning followed by sentence-aware chunking.
func DefaultPipeline(maxTokens, minTokens int, overlapRatio float64) *Pipeline {
	return NewPipeline(
		cleaner.New(),
		chunker.New(
			chunker.WithMaxTokens(maxTokens),
			chunker.WithMinTokens(minTokens),
			chunker.WithOverlapRatio(overlapRatio),
		),
	)
}
