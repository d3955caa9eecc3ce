// Package lexical provides an in-memory BM25 inverted index over chunk
// text. The corpus is bounded and rebuilt as a whole during ingestion,
// so the index is write-once: inserts happen on an unsealed instance,
// Seal makes it immutable, and the serving layer swaps whole snapshots.
package lexical

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.SearchEngine = (*Index)(nil)

// BM25 constants, standard Robertson/Sparck Jones values.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// stopwords covers the two corpus languages. Keeping the list short is
// deliberate: contract vocabulary is dominated by content words and an
// aggressive list hurts clause-number queries.
var stopwords = map[string]struct{}{
	// Spanish
	"el": {}, "la": {}, "de": {}, "que": {}, "y": {}, "a": {}, "en": {},
	"un": {}, "por": {}, "con": {}, "para": {}, "es": {}, "se": {},
	"del": {}, "al": {}, "los": {}, "las": {}, "una": {}, "su": {},
	// English
	"the": {}, "of": {}, "and": {}, "to": {}, "in": {}, "is": {},
	"for": {}, "on": {}, "by": {}, "with": {}, "an": {}, "as": {},
	"at": {}, "or": {}, "be": {},
}

// accentFolder strips combining marks after NFD decomposition, so
// "cláusula" and "clausula" tokenize identically.
var accentFolder = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// posting records one chunk's term frequency for a term.
type posting struct {
	chunkID string
	tf      int
}

// Index is an in-memory BM25 inverted index.
type Index struct {
	mu       sync.RWMutex
	sealed   bool
	closed   bool
	postings map[string][]posting
	docLen   map[string]int
	totalLen int
}

// New creates an empty, unsealed index.
func New() *Index {
	return &Index{
		postings: make(map[string][]posting),
		docLen:   make(map[string]int),
	}
}

// Tokenize case-folds, strips accents, splits on non-alphanumeric runes
// and drops stopwords. Exported because the retriever reuses it for
// highlight generation.
func Tokenize(text string) []string {
	folded, _, err := transform.String(accentFolder, strings.ToLower(text))
	if err != nil {
		// Fold failure leaves accents in place; tokenization still works.
		folded = strings.ToLower(text)
	}

	tokens := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	out := tokens[:0]
	for _, t := range tokens {
		if _, stop := stopwords[t]; !stop {
			out = append(out, t)
		}
	}
	return out
}

// Index adds a chunk to the inverted index.
func (ix *Index) Index(_ context.Context, chunk domain.Chunk) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return domain.ErrIndexUnavailable
	}
	if ix.sealed {
		return domain.ErrIndexSealed
	}
	if _, dup := ix.docLen[chunk.ID]; dup {
		return domain.ErrAlreadyExists
	}

	tokens := Tokenize(chunk.Content)
	freqs := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freqs[t]++
	}
	for term, tf := range freqs {
		ix.postings[term] = append(ix.postings[term], posting{chunkID: chunk.ID, tf: tf})
	}

	ix.docLen[chunk.ID] = len(tokens)
	ix.totalLen += len(tokens)
	return nil
}

// Seal marks the index immutable and ready for concurrent readers.
func (ix *Index) Seal() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.sealed = true
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docLen)
}

// Search scores every chunk containing at least one query term with
// BM25 and returns the top results with scores divided by the best
// score, so the top hit sits at 1.0 and the rest land in (0,1]. Zero
// hits is a valid empty result; a closed index is an error.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]driven.SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return nil, domain.ErrIndexUnavailable
	}
	if limit <= 0 || len(ix.docLen) == 0 {
		return []driven.SearchHit{}, nil
	}

	n := float64(len(ix.docLen))
	avgLen := float64(ix.totalLen) / n

	scores := make(map[string]float64)
	for _, term := range Tokenize(query) {
		plist, ok := ix.postings[term]
		if !ok {
			continue
		}
		df := float64(len(plist))
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		for _, p := range plist {
			tf := float64(p.tf)
			dl := float64(ix.docLen[p.chunkID])
			denom := tf + bm25K1*(1-bm25B+bm25B*dl/avgLen)
			scores[p.chunkID] += idf * tf * (bm25K1 + 1) / denom
		}
	}

	if len(scores) == 0 {
		return []driven.SearchHit{}, nil
	}

	hits := make([]driven.SearchHit, 0, len(scores))
	maxScore := 0.0
	for id, s := range scores {
		if s > maxScore {
			maxScore = s
		}
		hits = append(hits, driven.SearchHit{ChunkID: id, Score: s})
	}
	for i := range hits {
		hits[i].Score /= maxScore
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Close releases the index. Subsequent queries fail with
// domain.ErrIndexUnavailable rather than returning empty results.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.closed = true
	ix.postings = nil
	ix.docLen = nil
	return nil
}
