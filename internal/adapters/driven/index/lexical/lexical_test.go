package lexical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
)

func buildIndex(t *testing.T, contents map[string]string) *Index {
	t.Helper()
	ix := New()
	ctx := context.Background()
	for id, content := range contents {
		require.NoError(t, ix.Index(ctx, domain.Chunk{ID: id, Content: content}))
	}
	ix.Seal()
	return ix
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lowercases and splits punctuation",
			input: "Clause 3: Termination!",
			want:  []string{"clause", "3", "termination"},
		},
		{
			name:  "folds accents",
			input: "Cláusula de rescisión",
			want:  []string{"clausula", "rescision"},
		},
		{
			name:  "drops stopwords in both languages",
			input: "the fee of la tarifa",
			want:  []string{"fee", "tarifa"},
		},
		{
			name:  "keeps clause numbers",
			input: "Section 12.3(b)",
			want:  []string{"section", "12", "3", "b"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Tokenize(tc.input))
		})
	}

	assert.Empty(t, Tokenize("   "))
}

func TestIndex_RanksTermFrequency(t *testing.T) {
	ix := buildIndex(t, map[string]string{
		"doc-1:0": "The termination clause requires notice. Termination takes effect after notice.",
		"doc-1:1": "The payment clause requires an invoice.",
		"doc-1:2": "Warranty claims expire after one year.",
	})

	hits, err := ix.Search(context.Background(), "termination notice", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1, "only the chunk containing the query terms matches")
	assert.Equal(t, "doc-1:0", hits[0].ChunkID)
	assert.Equal(t, 1.0, hits[0].Score, "top hit is normalised to 1")
}

func TestIndex_RareTermOutweighsCommon(t *testing.T) {
	ix := buildIndex(t, map[string]string{
		"doc-1:0": "clause about fees and charges",
		"doc-1:1": "clause about indemnification duties",
		"doc-1:2": "clause about fees again",
	})

	// "indemnification" appears once in the corpus; "clause" everywhere.
	hits, err := ix.Search(context.Background(), "clause indemnification", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "doc-1:1", hits[0].ChunkID)
}

func TestIndex_AccentInsensitiveSearch(t *testing.T) {
	ix := buildIndex(t, map[string]string{
		"doc-es:0": "Cláusula 4: la rescisión requiere notificación escrita.",
	})

	for _, query := range []string{"rescisión", "rescision", "RESCISION"} {
		hits, err := ix.Search(context.Background(), query, 5)
		require.NoError(t, err)
		require.Len(t, hits, 1, "query %q", query)
		assert.Equal(t, "doc-es:0", hits[0].ChunkID)
	}
}

func TestIndex_ScoresNormalisedAndDeterministic(t *testing.T) {
	ix := buildIndex(t, map[string]string{
		"doc-1:0": "fee fee fee",
		"doc-1:1": "fee schedule attached",
		"doc-1:2": "fee waived entirely",
	})

	first, err := ix.Search(context.Background(), "fee", 10)
	require.NoError(t, err)
	second, err := ix.Search(context.Background(), "fee", 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1.0, first[0].Score)
	for _, h := range first {
		assert.LessOrEqual(t, h.Score, 1.0)
		assert.Greater(t, h.Score, 0.0)
	}
}

func TestIndex_TieBreakByChunkID(t *testing.T) {
	ix := buildIndex(t, map[string]string{
		"doc-b:0": "arbitration venue geneva",
		"doc-a:0": "arbitration venue geneva",
	})

	hits, err := ix.Search(context.Background(), "arbitration", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "doc-a:0", hits[0].ChunkID)
	assert.Equal(t, "doc-b:0", hits[1].ChunkID)
}

func TestIndex_LimitAndNoMatch(t *testing.T) {
	ix := buildIndex(t, map[string]string{
		"doc-1:0": "fee one",
		"doc-1:1": "fee two",
		"doc-1:2": "fee three",
	})
	ctx := context.Background()

	hits, err := ix.Search(ctx, "fee", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = ix.Search(ctx, "zzzz", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = ix.Search(ctx, "fee", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_SealRejectsWrites(t *testing.T) {
	ix := New()
	ctx := context.Background()

	require.NoError(t, ix.Index(ctx, domain.Chunk{ID: "doc-1:0", Content: "first"}))
	ix.Seal()

	err := ix.Index(ctx, domain.Chunk{ID: "doc-1:1", Content: "second"})
	assert.ErrorIs(t, err, domain.ErrIndexSealed)
	assert.Equal(t, 1, ix.Len())
}

func TestIndex_DuplicateChunkRejected(t *testing.T) {
	ix := New()
	ctx := context.Background()

	require.NoError(t, ix.Index(ctx, domain.Chunk{ID: "doc-1:0", Content: "first"}))
	err := ix.Index(ctx, domain.Chunk{ID: "doc-1:0", Content: "again"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestIndex_ClosedIsUnavailable(t *testing.T) {
	ix := buildIndex(t, map[string]string{"doc-1:0": "fee"})
	require.NoError(t, ix.Close())

	_, err := ix.Search(context.Background(), "fee", 5)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)

	err = ix.Index(context.Background(), domain.Chunk{ID: "doc-1:1", Content: "x"})
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestIndex_EmptySearchable(t *testing.T) {
	ix := New()
	ix.Seal()

	hits, err := ix.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
