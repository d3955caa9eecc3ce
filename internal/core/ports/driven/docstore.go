package driven

import (
	"context"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
)

// DocumentStore persists documents and their chunks.
// Chunks are written once at ingestion and read-only afterwards.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores the chunks for a document, replacing any
	// previous set.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunk retrieves a specific chunk by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks retrieves all chunks for a document, ordered by sequence.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ListDocuments returns all stored documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// SaveEmbeddings stores chunk embeddings, replacing any previous
	// vector for the same chunk. Replacing a document's chunks discards
	// their stored embeddings.
	SaveEmbeddings(ctx context.Context, recs []domain.EmbeddingRecord) error

	// GetEmbeddings retrieves the stored embeddings for a document's
	// chunks. Chunks without a stored embedding are absent from the
	// result, not an error.
	GetEmbeddings(ctx context.Context, documentID string) ([]domain.EmbeddingRecord, error)

	// DeleteDocument removes a document, its chunks, and their
	// embeddings.
	DeleteDocument(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}
