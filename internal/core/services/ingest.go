package services

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driven"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driving"
	"github.com/atheneahq/athenea-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// embedBatchSize bounds one embedding API call during index builds.
const embedBatchSize = 64

// SnapshotFactory creates a fresh, unsealed index pair for a rebuild.
type SnapshotFactory func() (driven.SearchEngine, driven.VectorIndex, error)

// IngestService persists extracted documents and rebuilds the retrieval
// indexes. Each run builds a complete fresh snapshot from the document
// store and publishes it atomically; queries in flight keep the old
// snapshot. Runs are serialized.
type IngestService struct {
	docStore driven.DocumentStore
	pipeline driven.PostProcessorPipeline
	embedder driven.EmbeddingService
	indexes  *IndexSet
	factory  SnapshotFactory

	mu sync.Mutex
}

// NewIngestService creates an ingest service. embedder may be nil,
// which leaves the vector index empty and retrieval keyword-only.
func NewIngestService(
	docStore driven.DocumentStore,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	indexes *IndexSet,
	factory SnapshotFactory,
) *IngestService {
	return &IngestService{
		docStore: docStore,
		pipeline: pipeline,
		embedder: embedder,
		indexes:  indexes,
		factory:  factory,
	}
}

// IngestDocuments chunks, persists, and indexes the given documents,
// then publishes a fresh snapshot covering the whole stored corpus.
func (s *IngestService) IngestDocuments(ctx context.Context, docs []domain.Document) (driving.IngestStats, error) {
	if !s.mu.TryLock() {
		return driving.IngestStats{}, domain.ErrIngestInProgress
	}
	defer s.mu.Unlock()

	runID := uuid.NewString()[:8]
	started := time.Now()
	logger.Section("Ingestion Run " + runID)

	var stats driving.IngestStats

	for i := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		doc := docs[i]
		if err := s.ingestOne(ctx, &doc, &stats); err != nil {
			logger.Warn("Run %s: document %s failed: %v", runID, doc.ID, err)
			stats.Errors++
		}
	}

	if err := s.rebuild(ctx); err != nil {
		return stats, fmt.Errorf("rebuilding indexes: %w", err)
	}

	logger.Info("Run %s: %d documents, %d chunks, %d skipped, %d errors in %s",
		runID, stats.Documents, stats.Chunks, stats.Skipped, stats.Errors,
		time.Since(started).Round(time.Millisecond))

	return stats, nil
}

// ingestOne cleans, chunks, and persists a single document.
func (s *IngestService) ingestOne(ctx context.Context, doc *domain.Document, stats *driving.IngestStats) error {
	if strings.TrimSpace(doc.Content) == "" {
		logger.Debug("Skipping %s: empty content", doc.ID)
		stats.Skipped++
		return nil
	}

	// The pipeline cleans doc.Content in place; chunk spans index into
	// the cleaned text, so the cleaned version is what gets stored.
	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return fmt.Errorf("processing: %w", err)
	}
	if len(chunks) == 0 {
		stats.Skipped++
		return nil
	}

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		return fmt.Errorf("saving chunks: %w", err)
	}

	stats.Documents++
	stats.Chunks += len(chunks)
	return nil
}

// rebuild constructs a fresh index pair over every stored chunk, seals
// it, and swaps it in.
func (s *IngestService) rebuild(ctx context.Context) error {
	lexical, vector, err := s.factory()
	if err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	var pending []domain.Chunk // chunks awaiting embedding
	var reused, embedded int

	flushEmbeddings := func() error {
		if s.embedder == nil || len(pending) == 0 {
			pending = nil
			return nil
		}

		texts := make([]string, len(pending))
		for i, c := range pending {
			texts[i] = c.Content
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch: %w", err)
		}

		recs := make([]domain.EmbeddingRecord, len(pending))
		for i, c := range pending {
			recs[i] = domain.EmbeddingRecord{
				ChunkID:   c.ID,
				Vector:    vectors[i],
				ModelID:   s.embedder.ModelName(),
				Dimension: len(vectors[i]),
			}
		}

		// Persist before indexing so the next rebuild finds them
		if err := s.docStore.SaveEmbeddings(ctx, recs); err != nil {
			return fmt.Errorf("saving embeddings: %w", err)
		}
		for _, rec := range recs {
			if err := vector.Add(ctx, rec); err != nil {
				return fmt.Errorf("indexing vector for %s: %w", rec.ChunkID, err)
			}
		}

		embedded += len(pending)
		pending = nil
		return nil
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunks, err := s.docStore.GetChunks(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("loading chunks for %s: %w", doc.ID, err)
		}

		stored, err := s.storedEmbeddings(ctx, doc.ID)
		if err != nil {
			return err
		}

		for _, chunk := range chunks {
			if err := lexical.Index(ctx, chunk); err != nil {
				return fmt.Errorf("indexing chunk %s: %w", chunk.ID, err)
			}

			if rec, ok := stored[chunk.ID]; ok {
				if err := vector.Add(ctx, rec); err != nil {
					return fmt.Errorf("indexing vector for %s: %w", rec.ChunkID, err)
				}
				reused++
				continue
			}

			pending = append(pending, chunk)
			if len(pending) >= embedBatchSize {
				if err := flushEmbeddings(); err != nil {
					return err
				}
			}
		}
		if err := flushEmbeddings(); err != nil {
			return err
		}
	}

	if reused > 0 || embedded > 0 {
		logger.Debug("Embeddings: %d reused, %d computed", reused, embedded)
	}

	lexical.Seal()
	vector.Seal()

	// The replaced snapshot is not closed: queries in flight may still
	// hold it, and the in-memory indexes free their storage via GC once
	// the last reader drops the pointer.
	s.indexes.Publish(&Snapshot{Lexical: lexical, Vector: vector})
	logger.Debug("Published snapshot: %d lexical, %d vector entries", lexical.Len(), vector.Len())

	return nil
}

// storedEmbeddings returns the reusable stored vectors for a document,
// keyed by chunk ID. Vectors computed by a different model or dimension
// are ignored and recomputed.
func (s *IngestService) storedEmbeddings(ctx context.Context, docID string) (map[string]domain.EmbeddingRecord, error) {
	if s.embedder == nil {
		return nil, nil
	}

	recs, err := s.docStore.GetEmbeddings(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("loading embeddings for %s: %w", docID, err)
	}

	stored := make(map[string]domain.EmbeddingRecord, len(recs))
	for _, rec := range recs {
		if rec.ModelID == s.embedder.ModelName() && rec.Dimension == s.embedder.Dimensions() {
			stored[rec.ChunkID] = rec
		}
	}
	return stored, nil
}

// textExtensions are the extracted-document formats ingestion accepts.
// Binary extraction (PDF, DOCX) happens upstream; this service consumes
// its plain-text output.
var textExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// IngestDirectory walks a directory tree of extracted text documents
// and ingests every supported file. Document IDs derive from the
// relative path so re-ingesting an updated file replaces it.
func (s *IngestService) IngestDirectory(ctx context.Context, dir string) (driving.IngestStats, error) {
	var docs []domain.Document

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !textExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}

		docs = append(docs, domain.Document{
			ID:         docIDFromPath(rel),
			SourcePath: path,
			Title:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Content:    string(content),
		})
		return nil
	})
	if err != nil {
		return driving.IngestStats{}, fmt.Errorf("walking %s: %w", dir, err)
	}

	logger.Info("Found %d documents under %s", len(docs), dir)
	return s.IngestDocuments(ctx, docs)
}

// docIDFromPath turns a relative path into a stable document ID.
func docIDFromPath(rel string) string {
	id := strings.ToLower(filepath.ToSlash(rel))
	id = strings.TrimSuffix(id, filepath.Ext(id))
	return strings.NewReplacer("/", "-", " ", "-").Replace(id)
}
