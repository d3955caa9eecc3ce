// Package domain defines the core business entities for Athenea.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An extracted contract, immutable once ingested
//   - Chunk: A bounded segment of document text, the unit of retrieval
//   - RetrievalCandidate: A transient fused search hit
//   - Citation / AnswerResult: The grounded answer artifacts
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
