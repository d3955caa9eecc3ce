package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driven"
	"github.com/atheneahq/athenea-cli/internal/logger"
)

// rrfK is the reciprocal rank fusion constant; it keeps top ranks from
// dominating the fused score.
const rrfK = 60

// legHit is a single-index result before fusion.
type legHit struct {
	score float64
	rank  int // 1-based
}

// Retriever runs both index legs and fuses the results.
type Retriever struct {
	docStore driven.DocumentStore
	indexes  *IndexSet
	embedder driven.EmbeddingService
}

// NewRetriever creates a hybrid retriever. embedder may be nil, which
// degrades retrieval to the keyword leg.
func NewRetriever(docStore driven.DocumentStore, indexes *IndexSet, embedder driven.EmbeddingService) *Retriever {
	return &Retriever{
		docStore: docStore,
		indexes:  indexes,
		embedder: embedder,
	}
}

// Retrieve fans out to the lexical and vector indexes, fuses by chunk
// ID, filters by the similarity threshold, and hydrates the survivors.
// Zero candidates above the threshold is a valid empty result. If
// exactly one leg fails, retrieval degrades to the surviving leg with a
// warning; both legs failing is an error.
func (r *Retriever) Retrieve(
	ctx context.Context, expansion domain.Expansion, opts domain.SearchOptions,
) ([]domain.RetrievalCandidate, []string, error) {
	snapshot := r.indexes.Load()
	if snapshot == nil {
		return nil, nil, fmt.Errorf("no index published: %w", domain.ErrIndexUnavailable)
	}

	var keywordHits map[string]legHit
	var vectorHits map[string]legHit
	var keywordErr, vectorErr error

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		keywordHits, keywordErr = r.keywordLeg(gctx, snapshot, expansion.KeywordQuery, opts.TopKKeyword)
		return nil // leg errors are handled jointly below
	})
	g.Go(func() error {
		vectorHits, vectorErr = r.vectorLeg(gctx, snapshot, expansion.EmbeddingQuery, opts.TopKVector)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}

	var warnings []string
	switch {
	case keywordErr != nil && vectorErr != nil:
		logger.Warn("Both retrieval legs failed: keyword=%v vector=%v", keywordErr, vectorErr)
		return nil, nil, fmt.Errorf("retrieval: keyword=%v, vector=%v: %w",
			keywordErr, vectorErr, domain.ErrIndexUnavailable)
	case keywordErr != nil:
		logger.Warn("Keyword leg failed, degrading to vector results: %v", keywordErr)
		warnings = append(warnings, "keyword search unavailable; results are semantic-only")
	case vectorErr != nil:
		logger.Warn("Vector leg failed, degrading to keyword results: %v", vectorErr)
		warnings = append(warnings, "semantic search unavailable; results are keyword-only")
	}

	fused := fuse(keywordHits, vectorHits, opts)
	logger.Debug("Fused %d keyword + %d vector hits into %d candidates",
		len(keywordHits), len(vectorHits), len(fused))

	// Threshold filter on the fused score
	kept := fused[:0]
	for _, c := range fused {
		if c.Score >= opts.SimilarityThreshold {
			kept = append(kept, c)
		}
	}
	fused = kept

	candidates, err := r.hydrate(ctx, fused, expansion.KeywordQuery)
	if err != nil {
		return nil, nil, err
	}

	sortCandidates(candidates)

	if opts.TopKFinal > 0 && len(candidates) > opts.TopKFinal {
		candidates = candidates[:opts.TopKFinal]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}

	logger.Debug("Final candidates: %d", len(candidates))
	return candidates, warnings, nil
}

// keywordLeg queries the lexical index.
func (r *Retriever) keywordLeg(
	ctx context.Context, snapshot *Snapshot, query string, limit int,
) (map[string]legHit, error) {
	if snapshot.Lexical == nil {
		return nil, errors.New("lexical index unavailable")
	}

	hits, err := snapshot.Lexical.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	results := make(map[string]legHit, len(hits))
	for i, hit := range hits {
		results[hit.ChunkID] = legHit{score: hit.Score, rank: i + 1}
	}
	return results, nil
}

// vectorLeg embeds the query text and searches the vector index.
func (r *Retriever) vectorLeg(
	ctx context.Context, snapshot *Snapshot, query string, limit int,
) (map[string]legHit, error) {
	if snapshot.Vector == nil {
		return nil, errors.New("vector index unavailable")
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	hits, err := snapshot.Vector.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make(map[string]legHit, len(hits))
	for i, hit := range hits {
		results[hit.ChunkID] = legHit{score: hit.Similarity, rank: i + 1}
	}
	return results, nil
}

// fuse merges the two legs by chunk ID. Weighted fusion combines the
// normalised leg scores for chunks found by both legs; a chunk found by
// only one leg keeps that leg's score, so single-leg hits are not
// penalised against the threshold. RRF sums reciprocal ranks and
// renormalises by the maximum so the threshold stays meaningful.
// Fusion is idempotent: a chunk contributes once per leg regardless of
// result order.
func fuse(keyword, vector map[string]legHit, opts domain.SearchOptions) []domain.RetrievalCandidate {
	ids := make(map[string]struct{}, len(keyword)+len(vector))
	for id := range keyword {
		ids[id] = struct{}{}
	}
	for id := range vector {
		ids[id] = struct{}{}
	}

	candidates := make([]domain.RetrievalCandidate, 0, len(ids))
	for id := range ids {
		kw, inKeyword := keyword[id]
		vec, inVector := vector[id]

		var source domain.RetrievalSource
		switch {
		case inKeyword && inVector:
			source = domain.SourceBoth
		case inVector:
			source = domain.SourceVector
		default:
			source = domain.SourceKeyword
		}

		var score float64
		if opts.FusionMethod == "rrf" {
			if inKeyword {
				score += 1.0 / float64(rrfK+kw.rank)
			}
			if inVector {
				score += 1.0 / float64(rrfK+vec.rank)
			}
		} else {
			switch {
			case inKeyword && inVector:
				score = opts.FusionWeight*vec.score + (1-opts.FusionWeight)*kw.score
			case inVector:
				score = vec.score
			default:
				score = kw.score
			}
		}

		candidates = append(candidates, domain.RetrievalCandidate{
			ChunkID: id,
			Score:   score,
			Source:  source,
		})
	}

	if opts.FusionMethod == "rrf" {
		normaliseScores(candidates)
	}

	return candidates
}

// normaliseScores rescales scores so the best candidate sits at 1.0.
func normaliseScores(candidates []domain.RetrievalCandidate) {
	var maxScore float64
	for _, c := range candidates {
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}
	if maxScore == 0 {
		return
	}
	for i := range candidates {
		candidates[i].Score /= maxScore
	}
}

// hydrate fills in chunk content and highlights from the document
// store. Chunks deleted since the snapshot was built are skipped.
func (r *Retriever) hydrate(
	ctx context.Context, fused []domain.RetrievalCandidate, query string,
) ([]domain.RetrievalCandidate, error) {
	hydrated := make([]domain.RetrievalCandidate, 0, len(fused))

	for _, c := range fused {
		chunk, err := r.docStore.GetChunk(ctx, c.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", c.ChunkID, err)
		}

		c.DocumentID = chunk.DocumentID
		c.Content = chunk.Content
		c.Highlights = generateHighlights(chunk.Content, query)
		hydrated = append(hydrated, c)
	}

	return hydrated, nil
}

// sortCandidates orders by fused score descending; ties break on
// source specificity (both > vector > keyword), then shorter chunk,
// then chunk ID for determinism.
func sortCandidates(candidates []domain.RetrievalCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Source != b.Source {
			return a.Source.MoreSpecificThan(b.Source)
		}
		if len(a.Content) != len(b.Content) {
			return len(a.Content) < len(b.Content)
		}
		return a.ChunkID < b.ChunkID
	})
}

// generateHighlights creates up to three sentence snippets containing
// query terms.
func generateHighlights(content, query string) []string {
	queryTerms := strings.Fields(strings.ToLower(query))
	if len(queryTerms) == 0 {
		return nil
	}

	var highlights []string
	for _, sentence := range splitSentences(content) {
		sentenceLower := strings.ToLower(sentence)
		for _, term := range queryTerms {
			if strings.Contains(sentenceLower, term) {
				if len(sentence) > 200 {
					sentence = sentence[:200] + "..."
				}
				highlights = append(highlights, sentence)
				break
			}
		}
		if len(highlights) >= 3 {
			break
		}
	}

	return highlights
}

// splitSentences splits content into sentences on common terminators.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
