package cli

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
	questions  []string
}

func (m *mockAskService) Ask(_ context.Context, question string) (*domain.AnswerResult, error) {
	m.questions = append(m.questions, question)
	return m.result, m.err
}

func (m *mockAskService) Retrieve(_ context.Context, question string) ([]domain.RetrievalCandidate, error) {
	m.questions = append(m.questions, question)
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

// setupTestServices swaps the package-level services for mocks and
// returns a cleanup restoring the previous wiring.
func setupTestServices() func() {
	oldAsk := askService
	oldIngest := ingestService

	askService = &mockAskService{
		result: &domain.AnswerResult{
			AnswerText: "The management fee is 5% of gross revenue.",
			Citations: []domain.Citation{
				{ChunkID: "doc-1:3", QuotedSpan: "the management fee is 5% of gross revenue"},
			},
			Confidence: 0.85,
			State:      domain.StateReturned,
		},
		candidates: []domain.RetrievalCandidate{
			{
				ChunkID:    "doc-1:3",
				DocumentID: "doc-1",
				Content:    "Clause 3: the management fee is 5% of gross revenue.",
				Score:      0.95,
				Source:     domain.SourceBoth,
				Rank:       1,
				Highlights: []string{"the management fee is 5%"},
			},
		},
	}
	ingestService = &mockIngestService{
		stats: driving.IngestStats{Documents: 2, Chunks: 9},
	}

	return func() {
		askService = oldAsk
		ingestService = oldIngest
	}
}
