package driven

import (
	"context"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
)

// SearchEngine provides lexical (keyword) search over chunk text.
// Backed by an in-memory BM25 inverted index with bilingual
// tokenization; scores are normalised into [0,1] per query.
//
// Ingestion inserts into an unsealed index and seals it before
// publication; a sealed index rejects writes with domain.ErrIndexSealed.
// A query failure is reported as an error, distinct from zero hits.
type SearchEngine interface {
	// Index adds a chunk to the search index.
	Index(ctx context.Context, chunk domain.Chunk) error

	// Search performs a keyword search and returns matching chunk IDs
	// with normalised scores, best first.
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)

	// Seal marks the index immutable and ready for concurrent readers.
	Seal()

	// Len returns the number of indexed chunks.
	Len() int

	// Close releases resources.
	Close() error
}

// SearchHit represents a search result from the engine.
type SearchHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the normalised relevance score in [0,1].
	Score float64
}
