package domain

// QueryState tracks one question through the pipeline. Transitions are
// sequential with no backtracking; StateEmptyContext is terminal and
// short-circuits to a fixed low-confidence answer.
type QueryState string

const (
	StateReceived     QueryState = "RECEIVED"
	StateExpanded     QueryState = "EXPANDED"
	StateRetrieved    QueryState = "RETRIEVED"
	StateEmptyContext QueryState = "EMPTY_CONTEXT"
	StateGenerated    QueryState = "GENERATED"
	StateVerified     QueryState = "VERIFIED"
	StateReturned     QueryState = "RETURNED"
)

// Citation ties one generated claim to a span of retrieved source text.
// A citation is valid only if QuotedSpan is a verifiable substring
// (after normalisation) of the referenced chunk's content.
type Citation struct {
	// ChunkID references the supporting chunk.
	ChunkID string

	// QuotedSpan is the text the model quoted from the chunk.
	QuotedSpan string

	// ClaimText is the answer sentence the citation supports.
	ClaimText string

	// Fuzzy is set when the span only matched above the fuzzy floor
	// rather than as an exact normalised substring. Fuzzy matches
	// contribute less confidence.
	Fuzzy bool

	// RejectReason explains why verification rejected the citation.
	// Empty for accepted citations.
	RejectReason string
}

// AnswerResult is the terminal artifact of one query, immutable once
// returned. A low-confidence answer is a valid result shape, distinct
// from a system failure.
type AnswerResult struct {
	// Question is the original user question.
	Question string

	// AnswerText is the generated (or fixed fallback) answer.
	AnswerText string

	// Citations are the verified citations, in answer order.
	Citations []Citation

	// RejectedCitations are claims whose support could not be verified.
	// Their presence downgrades Confidence and adds a warning; they are
	// surfaced, never silently dropped.
	RejectedCitations []Citation

	// Confidence is a bounded [0,1] score summarising how well-supported
	// the answer is.
	Confidence float64

	// RetrievalSet lists the chunk IDs that formed the prompt context,
	// in rank order.
	RetrievalSet []string

	// State is the terminal pipeline state (RETURNED or EMPTY_CONTEXT).
	State QueryState

	// Warnings carries user-visible caveats such as failed citation
	// verification or HyDE degradation.
	Warnings []string
}

// InsufficientContextAnswer is the fixed response returned when
// retrieval produces no candidates above the similarity threshold.
const InsufficientContextAnswer = "No relevant information was found in the " +
	"indexed contracts to answer this question. Try rephrasing with more " +
	"specific terms, or check that the relevant documents have been ingested."
