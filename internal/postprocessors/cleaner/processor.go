// Package cleaner normalises extracted contract text before chunking.
// Extraction output often carries OCR noise: typographic quotes, stray
// control characters, and irregular whitespace. Chunk character spans
// index into the cleaned text, so cleaning must run exactly once,
// before the chunker.
package cleaner

import (
	"context"
	"strings"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor rewrites the document content in place and passes chunks
// through untouched. It must precede the chunker in the pipeline.
type Processor struct{}

// New creates a cleaner processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "cleaner"
}

// Process normalises doc.Content. Chunks are passed through unchanged.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	doc.Content = Clean(doc.Content)
	return chunks, nil
}

// quoteReplacer maps typographic quotes to their ASCII equivalents.
var quoteReplacer = strings.NewReplacer(
	"“", `"`, "”", `"`, // left/right double
	"„", `"`, "«", `"`, "»", `"`, // German and angular
	"‘", "'", "’", "'", // left/right single
	"‚", "'", "‛", "'",
)

// Clean normalises whitespace, quotes, and control characters.
// The result is deterministic: cleaning twice yields the same text.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = quoteReplacer.Replace(text)

	var sb strings.Builder
	sb.Grow(len(text))

	// Strip control characters, keep newlines, map tabs to spaces
	for _, r := range text {
		switch {
		case r == '\n':
			sb.WriteRune('\n')
		case r == '\t':
			sb.WriteRune(' ')
		case r < 0x20 || r == 0x7f:
			// drop
		default:
			sb.WriteRune(r)
		}
	}
	text = sb.String()

	// Per-line: trim and collapse space runs
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text = strings.Join(lines, "\n")

	// Collapse runs of blank lines to a single paragraph break
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(text)
}
