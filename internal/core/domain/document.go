package domain

import "time"

// Document is the canonical representation of one extracted contract.
// It arrives from the external extractor already decoded to plain text
// and is immutable once ingested; a re-upload produces a new ID.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourcePath is the original location of the source file.
	SourcePath string

	// Title is the human-readable title.
	Title string

	// ContractType classifies the contract (lease, franchise, services...).
	ContractType string

	// Date is the contract date as found by the extractor, if any.
	Date string

	// Parties lists the contracting parties, if known.
	Parties []string

	// Content is the full plain text after cleaning.
	Content string

	// Metadata contains arbitrary extractor-supplied key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Chunk is a bounded, contiguous segment of document text, the unit of
// retrieval. Chunks from one document are ordered by Sequence and their
// character spans cover the document text without gaps. Chunks are owned
// by the chunker and read-only afterwards.
type Chunk struct {
	// ID is the unique identifier for the chunk. IDs are deterministic
	// (documentID:sequence) so repeated ingestion of the same document is
	// reproducible.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Sequence is the ordinal position within the document.
	Sequence int

	// Content is the text content of this chunk.
	Content string

	// CharStart and CharEnd are the byte offsets of Content within the
	// cleaned document text, half-open [CharStart, CharEnd).
	CharStart int
	CharEnd   int

	// TokenCount is the approximate token length of Content.
	TokenCount int

	// OverlapWithPrev is the number of tokens duplicated from the
	// previous chunk to preserve cross-boundary meaning.
	OverlapWithPrev int

	// ForcedSplit marks a chunk produced by hard-splitting a single
	// sentence longer than the configured maximum.
	ForcedSplit bool
}

// EmbeddingRecord pairs a chunk with its vector under a specific model.
// Records live exclusively in the vector index; Dimension always matches
// the model's declared output size.
type EmbeddingRecord struct {
	ChunkID   string
	Vector    []float32
	ModelID   string
	Dimension int
}
