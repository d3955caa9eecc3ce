// Package vector provides an in-memory cosine-similarity index over
// chunk embeddings. The corpus is bounded, so exact brute-force search
// over pre-normalised vectors is used instead of an approximate
// structure. Write-once like the lexical index: insert, Seal, swap.
package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type entry struct {
	chunkID string
	vec     []float32 // unit-normalised at insert
}

// Index is an in-memory exact nearest-neighbour index.
type Index struct {
	mu        sync.RWMutex
	sealed    bool
	closed    bool
	dimension int
	modelID   string
	entries   []entry
	ids       map[string]struct{}
}

// New creates an empty index bound to one embedding model. Every
// inserted record must carry that model's dimension.
func New(modelID string, dimension int) *Index {
	return &Index{
		dimension: dimension,
		modelID:   modelID,
		ids:       make(map[string]struct{}),
	}
}

// Add inserts an embedding record.
func (ix *Index) Add(_ context.Context, rec domain.EmbeddingRecord) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return domain.ErrIndexUnavailable
	}
	if ix.sealed {
		return domain.ErrIndexSealed
	}
	if len(rec.Vector) != ix.dimension || rec.Dimension != ix.dimension {
		return domain.ErrDimensionMismatch
	}
	if _, dup := ix.ids[rec.ChunkID]; dup {
		return domain.ErrAlreadyExists
	}

	ix.entries = append(ix.entries, entry{
		chunkID: rec.ChunkID,
		vec:     normalise(rec.Vector),
	})
	ix.ids[rec.ChunkID] = struct{}{}
	return nil
}

// Seal marks the index immutable and ready for concurrent readers.
func (ix *Index) Seal() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.sealed = true
}

// Len returns the number of indexed vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Search returns the k most similar chunks to the query vector.
// Cosine similarity is mapped from [-1,1] to [0,1].
func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return nil, domain.ErrIndexUnavailable
	}
	if len(query) != ix.dimension {
		return nil, domain.ErrDimensionMismatch
	}
	if k <= 0 || len(ix.entries) == 0 {
		return []driven.VectorHit{}, nil
	}

	q := normalise(query)
	hits := make([]driven.VectorHit, 0, len(ix.entries))
	for _, e := range ix.entries {
		var dot float32
		for i, v := range e.vec {
			dot += v * q[i]
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    e.chunkID,
			Similarity: (float64(dot) + 1) / 2,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close releases the index.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.closed = true
	ix.entries = nil
	ix.ids = nil
	return nil
}

// normalise returns a unit-length copy of v. A zero vector is returned
// unchanged; its dot product with anything is 0, which the similarity
// mapping places at the 0.5 midpoint.
func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}
	inv := float32(1 / math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}
