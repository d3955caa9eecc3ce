package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIndexUnavailable indicates both index legs failed after the
	// retry budget was exhausted.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrIndexSealed indicates a write was attempted on a published
	// (immutable) index snapshot.
	ErrIndexSealed = errors.New("index snapshot is sealed")

	// ErrDimensionMismatch indicates a vector whose dimension does not
	// match the index's configured embedding model.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generation service is not
	// configured. Answering and HyDE expansion are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrExtractionUpstream indicates the external extractor delivered
	// an unusable document. Never retried here.
	ErrExtractionUpstream = errors.New("extraction upstream failure")

	// ErrIngestInProgress indicates an ingestion run is already active.
	// Writes to the shared indexes are serialized.
	ErrIngestInProgress = errors.New("ingestion already in progress")
)

// ModelErrorKind classifies model-service failures for retry decisions.
type ModelErrorKind int

const (
	// ModelErrTimeout is a request timeout. Transient.
	ModelErrTimeout ModelErrorKind = iota

	// ModelErrRateLimited is an HTTP 429. Transient.
	ModelErrRateLimited

	// ModelErrTransport is a network-level failure. Transient.
	ModelErrTransport

	// ModelErrAuth is an authentication or quota failure. Fatal.
	ModelErrAuth

	// ModelErrMalformed is an unparseable service response. Fatal.
	ModelErrMalformed
)

// ModelError is a typed failure from the embedding or generation
// service. Transient kinds are retried with backoff; fatal kinds
// propagate to the caller immediately.
type ModelError struct {
	Kind    ModelErrorKind
	Service string // "embedding" or "llm"
	Err     error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s service: %v", e.Service, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// Transient reports whether the failure class is worth retrying.
func (e *ModelError) Transient() bool {
	switch e.Kind {
	case ModelErrTimeout, ModelErrRateLimited, ModelErrTransport:
		return true
	default:
		return false
	}
}

// ParseError indicates the generation model's output did not conform to
// the citation tag grammar. It feeds citation verification as a
// validation failure rather than being silently accepted.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "answer parse failure: " + e.Reason
}
