package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driven"
	"github.com/atheneahq/athenea-cli/internal/logger"
)

// hydePrompt asks for a hypothetical contract passage. The passage is
// embedded in place of the question: a fake answer lands closer to real
// answers in embedding space than the question does.
const hydePrompt = `You are drafting an excerpt from a commercial contract.
Write a single short passage (2-4 sentences) that could plausibly appear in a
contract and that would directly answer the question below. Use formal
contract language. Do not mention that it is hypothetical. Output only the
passage.

Question: %s

Passage:`

// Expander produces the per-leg query texts for hybrid retrieval.
// The keyword leg always receives the raw question; generated text
// would inject vocabulary the corpus never uses. Only the embedding
// leg benefits from a hypothetical passage.
type Expander struct {
	llm driven.LLMService
}

// NewExpander creates an expander. llm may be nil, which disables
// hypothetical expansion regardless of options.
func NewExpander(llm driven.LLMService) *Expander {
	return &Expander{llm: llm}
}

// Expand derives the retrieval queries for a question. With HyDE
// enabled a generation failure is not fatal: the embedding leg falls
// back to the raw question and the degradation is logged.
func (e *Expander) Expand(ctx context.Context, question string, enableHyDE bool) domain.Expansion {
	expansion := domain.Expansion{
		EmbeddingQuery: question,
		KeywordQuery:   question,
	}

	if !enableHyDE || e.llm == nil {
		return expansion
	}

	logger.Debug("HyDE expansion for %q", question)

	passage, err := e.llm.Complete(ctx, fmt.Sprintf(hydePrompt, question), driven.CompleteOptions{
		MaxTokens:   200,
		Temperature: 0.3,
	})
	if err != nil {
		logger.Warn("HyDE generation failed: %v (embedding the raw question)", err)
		return expansion
	}

	passage = strings.TrimSpace(passage)
	if passage == "" {
		logger.Warn("HyDE generation returned empty passage (embedding the raw question)")
		return expansion
	}

	logger.Debug("HyDE passage: %q", passage)
	expansion.EmbeddingQuery = passage
	expansion.Hypothetical = true

	return expansion
}
