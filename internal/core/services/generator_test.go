package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
)

const wellFormedCompletion = `ANSWER:
The management fee is 5% of gross revenue [S1]. It is invoiced quarterly [S2].

CITATIONS:
[S1] "the management fee is 5% of gross revenue"
[S2] "invoiced on a quarterly basis"`

func TestParseTaggedAnswer_WellFormed(t *testing.T) {
	parsed, err := ParseTaggedAnswer(wellFormedCompletion)
	require.NoError(t, err)

	assert.Equal(t, "The management fee is 5% of gross revenue [S1]. It is invoiced quarterly [S2].", parsed.AnswerText)
	require.Len(t, parsed.Citations, 2)

	assert.Equal(t, 1, parsed.Citations[0].SourceIndex)
	assert.Equal(t, "the management fee is 5% of gross revenue", parsed.Citations[0].QuotedSpan)
	assert.Equal(t, "The management fee is 5% of gross revenue.", parsed.Citations[0].ClaimText)

	assert.Equal(t, 2, parsed.Citations[1].SourceIndex)
	assert.Equal(t, "It is invoiced quarterly.", parsed.Citations[1].ClaimText)
}

func TestParseTaggedAnswer_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no answer tag", "The fee is 5%.\n\nCITATIONS:\n[S1] \"quote\""},
		{"no citations block", "ANSWER:\nThe fee is 5%."},
		{"empty answer", "ANSWER:\n\nCITATIONS:\n[S1] \"quote\""},
		{"empty citations block", "ANSWER:\nThe fee is 5%.\n\nCITATIONS:\n"},
		{"unquoted span", "ANSWER:\nThe fee [S1].\n\nCITATIONS:\n[S1] the fee is 5%"},
		{"missing index", "ANSWER:\nThe fee [S1].\n\nCITATIONS:\n[] \"the fee\""},
		{"prose in citations block", "ANSWER:\nThe fee [S1].\n\nCITATIONS:\nsee source one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTaggedAnswer(tt.raw)
			require.Error(t, err)

			var parseErr *domain.ParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestParseTaggedAnswer_UntaggedCitationHasEmptyClaim(t *testing.T) {
	raw := "ANSWER:\nThe fee is 5%.\n\nCITATIONS:\n[S1] \"the fee is 5%\""
	parsed, err := ParseTaggedAnswer(raw)
	require.NoError(t, err)
	require.Len(t, parsed.Citations, 1)
	assert.Empty(t, parsed.Citations[0].ClaimText)
}

func TestGenerator_NumbersSourcesInRankOrder(t *testing.T) {
	llm := &mockLLMService{responses: []string{wellFormedCompletion}}
	g := NewGenerator(llm)

	candidates := []domain.RetrievalCandidate{
		{ChunkID: "doc-1:3", Content: "the management fee is 5% of gross revenue", Rank: 1},
		{ChunkID: "doc-1:7", Content: "invoiced on a quarterly basis", Rank: 2},
	}

	_, parsed, err := g.Generate(context.Background(), "what is the fee?", candidates)
	require.NoError(t, err)
	require.NotNil(t, parsed)

	require.Len(t, llm.prompts, 1)
	prompt := llm.prompts[0]
	assert.Contains(t, prompt, "[S1]\nthe management fee is 5% of gross revenue")
	assert.Contains(t, prompt, "[S2]\ninvoiced on a quarterly basis")
	assert.Contains(t, prompt, "Question: what is the fee?")
}

func TestGenerator_ParseFailureReturnsRawText(t *testing.T) {
	llm := &mockLLMService{responses: []string{"The fee is 5%, trust me."}}
	g := NewGenerator(llm)

	raw, parsed, err := g.Generate(context.Background(), "q", []domain.RetrievalCandidate{
		{ChunkID: "doc-1:0", Content: "text"},
	})
	require.Error(t, err)
	assert.Nil(t, parsed)
	assert.Equal(t, "The fee is 5%, trust me.", raw)

	var parseErr *domain.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestGenerator_NilLLM(t *testing.T) {
	g := NewGenerator(nil)
	_, _, err := g.Generate(context.Background(), "q", []domain.RetrievalCandidate{{ChunkID: "c"}})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}
