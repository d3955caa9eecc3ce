package driven

import (
	"context"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
)

// VectorIndex provides semantic similarity search over chunk embeddings.
// Scores are cosine similarity mapped into [0,1], higher is more
// relevant. Like SearchEngine, the index is write-once: ingestion
// inserts records, seals the index, and publishes it atomically.
type VectorIndex interface {
	// Add inserts an embedding record. Returns
	// domain.ErrDimensionMismatch if the vector does not match the
	// index's configured dimension, or domain.ErrIndexSealed after Seal.
	Add(ctx context.Context, rec domain.EmbeddingRecord) error

	// Search finds the k nearest neighbours to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Seal marks the index immutable and ready for concurrent readers.
	Seal()

	// Len returns the number of indexed vectors.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score in [0,1].
	Similarity float64
}
