package services

import (
	"context"
	"sync"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockSearchEngine implements driven.SearchEngine for testing.
type mockSearchEngine struct {
	hits      []driven.SearchHit
	searchErr error
	indexed   []domain.Chunk
	sealed    bool
	closed    bool
}

func (m *mockSearchEngine) Index(_ context.Context, chunk domain.Chunk) error {
	m.indexed = append(m.indexed, chunk)
	return nil
}

func (m *mockSearchEngine) Search(_ context.Context, _ string, limit int) ([]driven.SearchHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if limit > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:limit], nil
}

func (m *mockSearchEngine) Seal() { m.sealed = true }

func (m *mockSearchEngine) Len() int { return len(m.indexed) }

func (m *mockSearchEngine) Close() error {
	m.closed = true
	return nil
}

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	hits      []driven.VectorHit
	searchErr error
	added     []domain.EmbeddingRecord
	sealed    bool
	closed    bool
}

func (m *mockVectorIndex) Add(_ context.Context, rec domain.EmbeddingRecord) error {
	m.added = append(m.added, rec)
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

func (m *mockVectorIndex) Seal() { m.sealed = true }

func (m *mockVectorIndex) Len() int { return len(m.added) }

func (m *mockVectorIndex) Close() error {
	m.closed = true
	return nil
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
	calls     int
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.embedding
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int { return len(m.embedding) }

func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Close() error { return nil }

// mockLLMService implements driven.LLMService for testing. Responses
// are served in order; calls past the script repeat the last response.
type mockLLMService struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (m *mockLLMService) Complete(_ context.Context, prompt string, _ driven.CompleteOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.prompts = append(m.prompts, prompt)

	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	if m.calls <= len(m.responses) {
		return m.responses[m.calls-1], nil
	}
	return m.responses[len(m.responses)-1], nil
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }

func (m *mockLLMService) Close() error { return nil }

func (m *mockLLMService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
