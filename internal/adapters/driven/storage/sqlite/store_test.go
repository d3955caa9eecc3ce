package sqlite

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "athenea-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

func testDocument(id string) *domain.Document {
	return &domain.Document{
		ID:           id,
		SourcePath:   "/contracts/" + id + ".txt",
		Title:        "Master Services Agreement " + id,
		ContractType: "services",
		Date:         "2024-03-15",
		Parties:      []string{"Acme Corp", "Globex SA"},
		Content:      "Clause 1: scope of services. Clause 2: fees.",
		Metadata:     map[string]any{"language": "en"},
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestStore_SaveAndGetDocument(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	doc := testDocument("doc-1")
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.Parties, got.Parties)
	assert.Equal(t, doc.Metadata, got.Metadata)
	assert.Equal(t, doc.Content, got.Content)
}

func TestStore_GetDocument_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SaveDocument_Upsert(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	doc := testDocument("doc-1")
	require.NoError(t, store.SaveDocument(ctx, doc))

	doc.Title = "Amended Agreement"
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Amended Agreement", got.Title)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestStore_SaveAndGetChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1")))

	chunks := []domain.Chunk{
		{ID: "doc-1:0", DocumentID: "doc-1", Sequence: 0, Content: "Clause 1: scope.", CharStart: 0, CharEnd: 16, TokenCount: 3},
		{ID: "doc-1:1", DocumentID: "doc-1", Sequence: 1, Content: "Clause 2: fees.", CharStart: 17, CharEnd: 32, TokenCount: 3, OverlapWithPrev: 1, ForcedSplit: true},
	}
	require.NoError(t, store.SaveChunks(ctx, chunks))

	got, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "doc-1:0", got[0].ID)
	assert.Equal(t, "doc-1:1", got[1].ID)
	assert.True(t, got[1].ForcedSplit)
	assert.Equal(t, 1, got[1].OverlapWithPrev)

	single, err := store.GetChunk(ctx, "doc-1:1")
	require.NoError(t, err)
	assert.Equal(t, "Clause 2: fees.", single.Content)
}

func TestStore_SaveChunks_ReplacesPrevious(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1")))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "doc-1:0", DocumentID: "doc-1", Sequence: 0, Content: "old"},
		{ID: "doc-1:1", DocumentID: "doc-1", Sequence: 1, Content: "old"},
	}))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "doc-1:0", DocumentID: "doc-1", Sequence: 0, Content: "new"},
	}))

	got, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Content)
}

func TestStore_DeleteDocument_CascadesChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1")))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "doc-1:0", DocumentID: "doc-1", Sequence: 0, Content: "text"},
	}))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.GetChunk(ctx, "doc-1:0")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SaveAndGetEmbeddings(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1")))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "doc-1:0", DocumentID: "doc-1", Sequence: 0, Content: "Clause 1."},
		{ID: "doc-1:1", DocumentID: "doc-1", Sequence: 1, Content: "Clause 2."},
	}))

	recs := []domain.EmbeddingRecord{
		{ChunkID: "doc-1:0", Vector: []float32{0.25, -1.5, 3}, ModelID: "text-embedding-3-large", Dimension: 3},
		{ChunkID: "doc-1:1", Vector: []float32{0, 0.5, -0.5}, ModelID: "text-embedding-3-large", Dimension: 3},
	}
	require.NoError(t, store.SaveEmbeddings(ctx, recs))

	got, err := store.GetEmbeddings(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, recs[0].Vector, got[0].Vector)
	assert.Equal(t, "text-embedding-3-large", got[0].ModelID)
	assert.Equal(t, 3, got[0].Dimension)
	assert.Equal(t, "doc-1:1", got[1].ChunkID)
}

func TestStore_ReplacingChunksDiscardsEmbeddings(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1")))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "doc-1:0", DocumentID: "doc-1", Sequence: 0, Content: "old"},
	}))
	require.NoError(t, store.SaveEmbeddings(ctx, []domain.EmbeddingRecord{
		{ChunkID: "doc-1:0", Vector: []float32{1}, ModelID: "m", Dimension: 1},
	}))

	// Re-chunking the document must not leave a stale vector behind
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "doc-1:0", DocumentID: "doc-1", Sequence: 0, Content: "new"},
	}))

	got, err := store.GetEmbeddings(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ListDocuments_Sorted(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-b")))
	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-a")))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-a", docs[0].ID)
	assert.Equal(t, "doc-b", docs[1].ID)
}

func TestStore_MigrationsIdempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "athenea-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-apply migrations
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
