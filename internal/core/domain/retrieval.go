package domain

// RetrievalSource identifies which index (or both) produced a candidate.
type RetrievalSource string

const (
	// SourceVector means the candidate came from the embedding index only.
	SourceVector RetrievalSource = "vector"

	// SourceKeyword means the candidate came from the lexical index only.
	SourceKeyword RetrievalSource = "keyword"

	// SourceBoth means the candidate appeared in both result lists.
	SourceBoth RetrievalSource = "both"
)

// specificity orders sources for tie-breaking: both > vector > keyword.
func (s RetrievalSource) specificity() int {
	switch s {
	case SourceBoth:
		return 2
	case SourceVector:
		return 1
	default:
		return 0
	}
}

// MoreSpecificThan reports whether s outranks other when fused scores tie.
func (s RetrievalSource) MoreSpecificThan(other RetrievalSource) bool {
	return s.specificity() > other.specificity()
}

// RetrievalCandidate is one fused search hit. Candidates are transient,
// produced per query and never persisted.
type RetrievalCandidate struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID links to the chunk's parent document.
	DocumentID string

	// Content is the chunk text, hydrated from the document store.
	Content string

	// Score is the fused relevance score in [0,1].
	Score float64

	// Source is where the candidate came from.
	Source RetrievalSource

	// Rank is the 1-based position in the final ordering.
	Rank int

	// Highlights contains short snippets with matched query terms.
	Highlights []string
}

// SearchOptions configures a retrieval request.
type SearchOptions struct {
	// TopKVector is how many candidates to pull from the embedding index.
	TopKVector int

	// TopKKeyword is how many candidates to pull from the lexical index.
	TopKKeyword int

	// TopKFinal caps the fused result list.
	TopKFinal int

	// SimilarityThreshold drops candidates whose fused score falls below it.
	SimilarityThreshold float64

	// FusionWeight is the semantic share of the weighted fusion sum.
	FusionWeight float64

	// FusionMethod selects "weighted" or "rrf" fusion.
	FusionMethod string

	// EnableHyDE turns on hypothetical document expansion for the
	// embedding leg of the search.
	EnableHyDE bool
}

// Expansion is the query expander output: one text per retrieval leg.
type Expansion struct {
	// EmbeddingQuery is embedded for the semantic leg. With HyDE enabled
	// this is a generated hypothetical passage, not the question.
	EmbeddingQuery string

	// KeywordQuery feeds the lexical leg. Always derived from the
	// original question; expansion would inject noise here.
	KeywordQuery string

	// Hypothetical is true when EmbeddingQuery was LLM-generated.
	Hypothetical bool
}
