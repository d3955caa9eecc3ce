package driving

import (
	"context"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
)

// IngestStats summarises one ingestion run.
type IngestStats struct {
	Documents int
	Chunks    int
	Skipped   int
	Errors    int
}

// IngestService builds the retrieval indexes from extracted documents.
// Ingestion is a batch step: it builds fresh immutable index snapshots
// and swaps them atomically, so in-flight queries never observe a
// partially built index. Concurrent ingestion runs are rejected with
// domain.ErrIngestInProgress.
type IngestService interface {
	// IngestDocuments chunks, embeds, and indexes the given documents,
	// then publishes the new snapshot.
	IngestDocuments(ctx context.Context, docs []domain.Document) (IngestStats, error)

	// IngestDirectory reads extracted plain-text documents from a
	// directory tree and ingests them.
	IngestDirectory(ctx context.Context, dir string) (IngestStats, error)
}
