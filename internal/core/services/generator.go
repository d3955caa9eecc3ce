package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driven"
	"github.com/atheneahq/athenea-cli/internal/logger"
)

// generateSystemPrompt pins the model to the retrieved context and the
// tagged output format the parser expects.
const generateSystemPrompt = `You answer questions about legal contracts using ONLY the numbered source
passages provided. Never use outside knowledge. If the sources do not contain
the answer, say so.

Respond in EXACTLY this format:

ANSWER:
<your answer, marking each supported claim with its source tag like [S1]>

CITATIONS:
[S1] "<exact quote from source S1 that supports the claim>"
[S2] "<exact quote from source S2>"

Every quote must be copied verbatim from the source passage it names.`

// TaggedCitation is one entry of the CITATIONS block, before the
// source index is resolved to a chunk.
type TaggedCitation struct {
	// SourceIndex is the 1-based [Sn] index into the prompt context.
	SourceIndex int

	// QuotedSpan is the quoted text.
	QuotedSpan string

	// ClaimText is the answer sentence carrying the matching [Sn] tag.
	ClaimText string
}

// ParsedAnswer is the structured form of a model completion.
type ParsedAnswer struct {
	AnswerText string
	Citations  []TaggedCitation
}

// Generator produces grounded answers from retrieved context.
type Generator struct {
	llm driven.LLMService
}

// NewGenerator creates an answer generator.
func NewGenerator(llm driven.LLMService) *Generator {
	return &Generator{llm: llm}
}

// Generate builds the grounded prompt, runs the model, and parses the
// tagged output. The caller guarantees candidates is non-empty; the
// empty-context short circuit happens before generation so no model
// call is spent on unanswerable questions. A grammar violation returns
// the raw completion alongside a *domain.ParseError.
func (g *Generator) Generate(
	ctx context.Context, question string, candidates []domain.RetrievalCandidate,
) (string, *ParsedAnswer, error) {
	if g.llm == nil {
		return "", nil, domain.ErrLLMUnavailable
	}

	prompt := buildPrompt(question, candidates)
	logger.Debug("Generation prompt: %d chars, %d sources", len(prompt), len(candidates))

	raw, err := g.llm.Complete(ctx, prompt, driven.CompleteOptions{
		System:      generateSystemPrompt,
		MaxTokens:   1024,
		Temperature: 0,
	})
	if err != nil {
		return "", nil, fmt.Errorf("answer generation: %w", err)
	}

	parsed, err := ParseTaggedAnswer(raw)
	if err != nil {
		return raw, nil, err
	}

	return raw, parsed, nil
}

// buildPrompt numbers the candidates [S1]..[Sn] in rank order.
func buildPrompt(question string, candidates []domain.RetrievalCandidate) string {
	var sb strings.Builder

	sb.WriteString("Source passages:\n\n")
	for i, c := range candidates {
		fmt.Fprintf(&sb, "[S%d]\n%s\n\n", i+1, strings.TrimSpace(c.Content))
	}
	fmt.Fprintf(&sb, "Question: %s\n", question)

	return sb.String()
}

// citationLine matches one CITATIONS entry: [S3] "quoted text".
var citationLine = regexp.MustCompile(`^\[S(\d+)\]\s+"(.+)"$`)

// sourceTag matches [Sn] markers inside answer prose.
var sourceTag = regexp.MustCompile(`\[S(\d+)\]`)

// punctuationSpacer tightens the gap left where a tag preceded
// punctuation.
var punctuationSpacer = strings.NewReplacer(" .", ".", " ,", ",", " ;", ";", " :", ":", " ?", "?", " !", "!")

// ParseTaggedAnswer parses a completion against the tagged grammar.
// The parser is strict: a malformed completion is a *domain.ParseError,
// never a silently accepted answer.
func ParseTaggedAnswer(raw string) (*ParsedAnswer, error) {
	text := strings.TrimSpace(raw)

	answerIdx := strings.Index(text, "ANSWER:")
	if answerIdx != 0 {
		return nil, &domain.ParseError{Reason: "completion does not start with ANSWER:"}
	}

	citationsIdx := strings.Index(text, "CITATIONS:")
	if citationsIdx < 0 {
		return nil, &domain.ParseError{Reason: "missing CITATIONS: block"}
	}

	answerText := strings.TrimSpace(text[len("ANSWER:"):citationsIdx])
	if answerText == "" {
		return nil, &domain.ParseError{Reason: "empty answer text"}
	}

	block := strings.TrimSpace(text[citationsIdx+len("CITATIONS:"):])
	if block == "" {
		return nil, &domain.ParseError{Reason: "empty CITATIONS: block"}
	}

	var citations []TaggedCitation
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := citationLine.FindStringSubmatch(line)
		if m == nil {
			return nil, &domain.ParseError{Reason: fmt.Sprintf("malformed citation line: %q", line)}
		}

		index, err := strconv.Atoi(m[1])
		if err != nil || index < 1 {
			return nil, &domain.ParseError{Reason: fmt.Sprintf("invalid source index in %q", line)}
		}

		span := strings.TrimSpace(m[2])
		if span == "" {
			return nil, &domain.ParseError{Reason: fmt.Sprintf("empty quoted span in %q", line)}
		}

		citations = append(citations, TaggedCitation{
			SourceIndex: index,
			QuotedSpan:  span,
			ClaimText:   claimFor(answerText, index),
		})
	}

	return &ParsedAnswer{
		AnswerText: answerText,
		Citations:  citations,
	}, nil
}

// claimFor finds the answer sentence carrying the [Sn] tag for the
// given source index. An untagged citation yields an empty claim.
func claimFor(answerText string, index int) string {
	tag := fmt.Sprintf("[S%d]", index)
	for _, sentence := range splitSentences(answerText) {
		if strings.Contains(sentence, tag) {
			claim := sourceTag.ReplaceAllString(sentence, "")
			claim = strings.Join(strings.Fields(claim), " ")
			return punctuationSpacer.Replace(claim)
		}
	}
	return ""
}
