// Package chunker provides a sentence-aware text chunking processor.
//
// Sentences accumulate into a chunk until the token budget is reached;
// the next chunk repeats the trailing sentences of the previous one so
// that clauses split across a boundary stay answerable. Chunk character
// spans index into the document content as the chunker saw it, and
// their union covers the content with no gaps.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Default chunking parameters, in estimated tokens.
const (
	DefaultMaxTokens    = 512
	DefaultMinTokens    = 64
	DefaultOverlapRatio = 0.15
)

// Processor splits document content into sentence-aligned chunks.
// It implements the PostProcessor interface.
type Processor struct {
	maxTokens    int
	minTokens    int
	overlapRatio float64
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxTokens sets the chunk token budget.
func WithMaxTokens(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithMinTokens sets the minimum chunk size. A trailing chunk smaller
// than this merges into its predecessor.
func WithMinTokens(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.minTokens = n
		}
	}
}

// WithOverlapRatio sets the overlap as a fraction of the token budget.
func WithOverlapRatio(r float64) Option {
	return func(p *Processor) {
		if r >= 0 && r < 1 {
			p.overlapRatio = r
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxTokens:    DefaultMaxTokens,
		minTokens:    DefaultMinTokens,
		overlapRatio: DefaultOverlapRatio,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.minTokens > p.maxTokens {
		p.minTokens = p.maxTokens / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// unit is a sentence (or a forced piece of an oversized sentence) with
// its half-open character span. Unit spans tile the document content.
type unit struct {
	start  int
	end    int
	tokens int
	forced bool
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.Content == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	units := p.splitUnits(doc.Content)
	chunks := p.accumulate(doc, units)

	return chunks, nil
}

// countTokens estimates tokens as whitespace-delimited words.
func countTokens(s string) int {
	return len(strings.Fields(s))
}

// splitUnits segments content into sentence units whose spans tile the
// text. A sentence over the token budget is hard-split on word
// boundaries into forced pieces.
func (p *Processor) splitUnits(content string) []unit {
	starts := sentenceStarts(content)

	var units []unit
	for i, start := range starts {
		end := len(content)
		if i+1 < len(starts) {
			end = starts[i+1]
		}

		tokens := countTokens(content[start:end])
		if tokens == 0 {
			// Whitespace-only span: fold into the previous unit so
			// coverage holds without empty chunks.
			if len(units) > 0 {
				units[len(units)-1].end = end
			}
			continue
		}

		if tokens <= p.maxTokens {
			units = append(units, unit{start: start, end: end, tokens: tokens})
			continue
		}

		units = append(units, p.forceSplit(content, start, end)...)
	}

	return units
}

// sentenceStarts returns the start offsets of each sentence. A sentence
// ends at a terminator followed by whitespace, or at a paragraph break.
func sentenceStarts(content string) []int {
	starts := []int{0}

	i := 0
	for i < len(content) {
		c := content[i]

		isBoundary := false
		switch {
		case c == '.' || c == '!' || c == '?':
			if i+1 == len(content) || content[i+1] == ' ' || content[i+1] == '\n' {
				isBoundary = true
			}
			i++
		case c == '\n' && i+1 < len(content) && content[i+1] == '\n':
			isBoundary = true
		default:
			i++
		}

		if !isBoundary {
			continue
		}

		// The next sentence starts at the first non-whitespace char;
		// the current one keeps the whitespace so spans tile.
		j := i
		for j < len(content) && (content[j] == ' ' || content[j] == '\n') {
			j++
		}
		if j > i && j < len(content) {
			starts = append(starts, j)
		}
		i = j
	}

	return starts
}

// forceSplit cuts an oversized sentence into token-bounded pieces on
// word boundaries. Pieces carry forced=true and never participate in
// overlap.
func (p *Processor) forceSplit(content string, start, end int) []unit {
	// Word start offsets within [start, end)
	var wordStarts []int
	inWord := false
	for i := start; i < end; i++ {
		isSpace := content[i] == ' ' || content[i] == '\n'
		if !isSpace && !inWord {
			wordStarts = append(wordStarts, i)
		}
		inWord = !isSpace
	}

	var units []unit
	for w := 0; w < len(wordStarts); w += p.maxTokens {
		pieceStart := wordStarts[w]
		pieceEnd := end
		if w+p.maxTokens < len(wordStarts) {
			pieceEnd = wordStarts[w+p.maxTokens]
		}
		if w == 0 {
			pieceStart = start // cover leading whitespace
		}
		units = append(units, unit{
			start:  pieceStart,
			end:    pieceEnd,
			tokens: countTokens(content[pieceStart:pieceEnd]),
			forced: true,
		})
	}

	return units
}

// accumulate packs units into chunks with overlap carry-over.
func (p *Processor) accumulate(doc *domain.Document, units []unit) []domain.Chunk {
	overlapBudget := int(p.overlapRatio * float64(p.maxTokens))

	var chunks []domain.Chunk
	var window []unit // units of the chunk being built
	overlapTokens := 0

	flush := func(forced bool) {
		if len(window) == 0 {
			return
		}
		start := window[0].start
		end := window[len(window)-1].end
		content := doc.Content[start:end]
		chunks = append(chunks, domain.Chunk{
			ID:              fmt.Sprintf("%s:%d", doc.ID, len(chunks)),
			DocumentID:      doc.ID,
			Sequence:        len(chunks),
			Content:         content,
			CharStart:       start,
			CharEnd:         end,
			TokenCount:      countTokens(content),
			OverlapWithPrev: overlapTokens,
			ForcedSplit:     forced,
		})
		window = nil
		overlapTokens = 0
	}

	windowTokens := func() int {
		n := 0
		for _, u := range window {
			n += u.tokens
		}
		return n
	}

	for _, u := range units {
		if u.forced {
			flush(false)
			window = []unit{u}
			flush(true)
			continue
		}

		if len(window) > 0 && windowTokens()+u.tokens > p.maxTokens {
			carried := p.carryOver(window, overlapBudget)
			flush(false)
			window = carried
			for _, c := range carried {
				overlapTokens += c.tokens
			}
		}

		window = append(window, u)
	}

	// Fold an undersized tail into the previous chunk
	if len(window) > 0 && windowTokens() < p.minTokens && len(chunks) > 0 && !chunks[len(chunks)-1].ForcedSplit {
		prev := &chunks[len(chunks)-1]
		prev.CharEnd = window[len(window)-1].end
		prev.Content = doc.Content[prev.CharStart:prev.CharEnd]
		prev.TokenCount = countTokens(prev.Content)
		window = nil
		overlapTokens = 0
	}
	flush(false)

	return chunks
}

// carryOver selects the trailing units worth up to budget tokens for
// duplication into the next chunk.
func (p *Processor) carryOver(window []unit, budget int) []unit {
	if budget <= 0 {
		return nil
	}

	total := 0
	i := len(window)
	for i > 0 && total+window[i-1].tokens <= budget {
		total += window[i-1].tokens
		i--
	}

	carried := make([]unit, len(window)-i)
	copy(carried, window[i:])
	return carried
}
