package services

import (
	"sync/atomic"

	"github.com/atheneahq/athenea-cli/internal/core/ports/driven"
)

// Snapshot pairs a sealed lexical index with its matching sealed vector
// index. Both were built from the same corpus state; queries always see
// the pair together.
type Snapshot struct {
	Lexical driven.SearchEngine
	Vector  driven.VectorIndex
}

// IndexSet publishes index snapshots to concurrent readers. Ingestion
// builds a fresh Snapshot off to the side and swaps the pointer;
// in-flight queries keep the snapshot they loaded.
type IndexSet struct {
	current atomic.Pointer[Snapshot]
}

// NewIndexSet creates an IndexSet, optionally seeded with an initial
// snapshot. Without one, queries fail until the first ingestion run.
func NewIndexSet(initial *Snapshot) *IndexSet {
	s := &IndexSet{}
	if initial != nil {
		s.current.Store(initial)
	}
	return s
}

// Load returns the currently published snapshot, or nil before the
// first publication.
func (s *IndexSet) Load() *Snapshot {
	return s.current.Load()
}

// Publish swaps in a new snapshot and returns the previous one.
// Callers must not close the returned snapshot while readers that
// loaded it earlier may still be searching it; replaced in-memory
// snapshots are simply left to the garbage collector.
func (s *IndexSet) Publish(next *Snapshot) *Snapshot {
	return s.current.Swap(next)
}
