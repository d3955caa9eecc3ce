package mcp

import (
	"context"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driving"
)

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	result     *domain.AnswerResult
	candidates []domain.RetrievalCandidate
	err        error
}

func (m *mockAskService) Ask(_ context.Context, _ string) (*domain.AnswerResult, error) {
	return m.result, m.err
}

func (m *mockAskService) Retrieve(_ context.Context, _ string) ([]domain.RetrievalCandidate, error) {
	return m.candidates, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	stats driving.IngestStats
	err   error
	dirs  []string
}

func (m *mockIngestService) IngestDocuments(_ context.Context, _ []domain.Document) (driving.IngestStats, error) {
	return m.stats, m.err
}

func (m *mockIngestService) IngestDirectory(_ context.Context, dir string) (driving.IngestStats, error) {
	m.dirs = append(m.dirs, dir)
	return m.stats, m.err
}
