package driving

import (
	"context"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
)

// AskService answers natural-language questions over the ingested
// corpus with citation-backed, verified answers.
type AskService interface {
	// Ask runs the full pipeline: expansion, hybrid retrieval, grounded
	// generation, and citation verification. A question with no
	// supporting context returns a fixed low-confidence AnswerResult,
	// not an error; system failures return a typed error and no result.
	Ask(ctx context.Context, question string) (*domain.AnswerResult, error)

	// Retrieve runs hybrid retrieval only, without generation. Used by
	// the search command and for corpus diagnosis.
	Retrieve(ctx context.Context, question string) ([]domain.RetrievalCandidate, error)
}
