package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driving"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with citations", func(t *testing.T) {
		mockAsk := &mockAskService{
			result: &domain.AnswerResult{
				AnswerText: "The management fee is 5% of gross revenue.",
				Citations: []domain.Citation{
					{ChunkID: "doc-1:3", QuotedSpan: "the management fee is 5% of gross revenue", Fuzzy: false},
				},
				Confidence: 0.85,
				Warnings:   []string{"semantic search unavailable; results are keyword-only"},
				State:      domain.StateReturned,
			},
		}

		server, err := NewServer(&Ports{Ask: mockAsk})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "What is the fee?"})

		require.NoError(t, err)
		assert.Equal(t, "The management fee is 5% of gross revenue.", output.Answer)
		require.Len(t, output.Citations, 1)
		assert.Equal(t, "doc-1:3", output.Citations[0].ChunkID)
		assert.False(t, output.Citations[0].Fuzzy)
		assert.Equal(t, 0.85, output.Confidence)
		assert.Len(t, output.Warnings, 1)
	})

	t.Run("returns error on pipeline failure", func(t *testing.T) {
		mockAsk := &mockAskService{err: errors.New("ask failed")}

		server, err := NewServer(&Ports{Ask: mockAsk})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "anything"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "ask failed")
	})
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns retrieval candidates", func(t *testing.T) {
		mockAsk := &mockAskService{
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

		server, err := NewServer(&Ports{Ask: mockAsk})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "management fee"})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "doc-1:3", output.Results[0].ChunkID)
		assert.Equal(t, "doc-1", output.Results[0].DocumentID)
		assert.Equal(t, 0.95, output.Results[0].Score)
		assert.Equal(t, "both", output.Results[0].Source)
		assert.Contains(t, output.Results[0].Content, "management fee")
	})

	t.Run("empty corpus yields empty result", func(t *testing.T) {
		server, err := NewServer(&Ports{Ask: &mockAskService{}})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "anything"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Empty(t, output.Results)
	})

	t.Run("returns error on retrieval failure", func(t *testing.T) {
		mockAsk := &mockAskService{err: errors.New("index unavailable")}

		server, err := NewServer(&Ports{Ask: mockAsk})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "anything"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "index unavailable")
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("returns run stats", func(t *testing.T) {
		mockIngest := &mockIngestService{
			stats: driving.IngestStats{Documents: 3, Chunks: 12, Skipped: 1},
		}

		server, err := NewServer(&Ports{Ask: &mockAskService{}, Ingest: mockIngest})
		require.NoError(t, err)

		_, output, err := server.handleIngest(ctx, nil, IngestInput{Directory: "/contracts"})

		require.NoError(t, err)
		assert.Equal(t, 3, output.Documents)
		assert.Equal(t, 12, output.Chunks)
		assert.Equal(t, 1, output.Skipped)
		assert.Equal(t, []string{"/contracts"}, mockIngest.dirs)
	})

	t.Run("returns error when a run is in progress", func(t *testing.T) {
		mockIngest := &mockIngestService{err: domain.ErrIngestInProgress}

		server, err := NewServer(&Ports{Ask: &mockAskService{}, Ingest: mockIngest})
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Directory: "/contracts"})

		assert.ErrorIs(t, err, domain.ErrIngestInProgress)
	})
}
