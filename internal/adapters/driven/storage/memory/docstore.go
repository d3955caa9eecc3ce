// Package memory provides in-memory implementations of the storage
// ports, used in tests and for ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents  map[string]domain.Document
	chunks     map[string][]domain.Chunk // by document ID, sequence order
	byChunkID  map[string]domain.Chunk
	embeddings map[string]domain.EmbeddingRecord // by chunk ID
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents:  make(map[string]domain.Document),
		chunks:     make(map[string][]domain.Chunk),
		byChunkID:  make(map[string]domain.Chunk),
		embeddings: make(map[string]domain.EmbeddingRecord),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// SaveChunks stores chunks for a document, replacing any previous set.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docID := chunks[0].DocumentID
	for _, old := range s.chunks[docID] {
		delete(s.byChunkID, old.ID)
		delete(s.embeddings, old.ID)
	}

	sorted := make([]domain.Chunk, len(chunks))
	copy(sorted, chunks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Sequence < sorted[j].Sequence })

	s.chunks[docID] = sorted
	for _, c := range sorted {
		s.byChunkID[c.ID] = c
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.byChunkID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

// GetChunks retrieves all chunks for a document, ordered by sequence.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := s.chunks[documentID]
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

// ListDocuments returns all stored documents.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, 0, len(s.documents))
	for id := range s.documents {
		out = append(out, s.documents[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveEmbeddings stores chunk embeddings, upserting per chunk.
func (s *DocumentStore) SaveEmbeddings(_ context.Context, recs []domain.EmbeddingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		s.embeddings[rec.ChunkID] = rec
	}
	return nil
}

// GetEmbeddings retrieves the stored embeddings for a document's
// chunks, in sequence order.
func (s *DocumentStore) GetEmbeddings(_ context.Context, documentID string) ([]domain.EmbeddingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var recs []domain.EmbeddingRecord
	for _, c := range s.chunks[documentID] {
		if rec, ok := s.embeddings[c.ID]; ok {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

// DeleteDocument removes a document, its chunks, and their embeddings.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chunks[id] {
		delete(s.byChunkID, c.ID)
		delete(s.embeddings, c.ID)
	}
	delete(s.documents, id)
	delete(s.chunks, id)
	return nil
}

// Close releases resources.
func (s *DocumentStore) Close() error {
	return nil
}
