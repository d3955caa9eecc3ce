package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driving"
	"github.com/atheneahq/athenea-cli/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// AskService runs the question pipeline: expansion, hybrid retrieval,
// grounded generation, citation verification. Each query moves through
// the states sequentially with no backtracking; EMPTY_CONTEXT
// short-circuits to a fixed answer without spending a model call.
type AskService struct {
	expander  *Expander
	retriever *Retriever
	generator *Generator
	verifier  *Verifier
	opts      domain.SearchOptions
}

// NewAskService creates the pipeline orchestrator.
func NewAskService(
	expander *Expander,
	retriever *Retriever,
	generator *Generator,
	verifier *Verifier,
	opts domain.SearchOptions,
) *AskService {
	return &AskService{
		expander:  expander,
		retriever: retriever,
		generator: generator,
		verifier:  verifier,
		opts:      opts,
	}
}

// Ask answers a question over the ingested corpus.
func (s *AskService) Ask(ctx context.Context, question string) (*domain.AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question: %w", domain.ErrInvalidInput)
	}

	logger.Section("Question Pipeline")
	logger.Debug("State %s: %q", domain.StateReceived, question)

	expansion := s.expander.Expand(ctx, question, s.opts.EnableHyDE)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Debug("State %s: hypothetical=%t", domain.StateExpanded, expansion.Hypothetical)

	var warnings []string
	if s.opts.EnableHyDE && !expansion.Hypothetical {
		warnings = append(warnings, "query expansion degraded; searched with the raw question")
	}

	candidates, retrievalWarnings, err := s.retriever.Retrieve(ctx, expansion, s.opts)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, retrievalWarnings...)
	logger.Debug("State %s: %d candidates", domain.StateRetrieved, len(candidates))

	if len(candidates) == 0 {
		logger.Info("State %s: no context above threshold, returning fixed answer", domain.StateEmptyContext)
		return &domain.AnswerResult{
			Question:   question,
			AnswerText: domain.InsufficientContextAnswer,
			Confidence: 0,
			State:      domain.StateEmptyContext,
			Warnings:   warnings,
		}, nil
	}

	raw, parsed, err := s.generator.Generate(ctx, question, candidates)
	if err != nil {
		var parseErr *domain.ParseError
		if errors.As(err, &parseErr) {
			// The completion arrived but violated the citation grammar:
			// surface the text unverified rather than dropping it.
			logger.Warn("State %s: %v", domain.StateGenerated, parseErr)
			return s.unverifiedResult(question, raw, candidates, warnings, parseErr), nil
		}
		return nil, err
	}
	logger.Debug("State %s: %d tagged citations", domain.StateGenerated, len(parsed.Citations))

	verification := s.verifier.Verify(parsed, candidates)
	logger.Debug("State %s: %d accepted, %d rejected, confidence %.2f",
		domain.StateVerified, len(verification.Accepted), len(verification.Rejected), verification.Confidence)

	for _, rejected := range verification.Rejected {
		warnings = append(warnings, fmt.Sprintf("unverified citation: %s", rejected.RejectReason))
	}

	result := &domain.AnswerResult{
		Question:          question,
		AnswerText:        parsed.AnswerText,
		Citations:         verification.Accepted,
		RejectedCitations: verification.Rejected,
		Confidence:        verification.Confidence,
		RetrievalSet:      chunkIDs(candidates),
		State:             domain.StateReturned,
		Warnings:          warnings,
	}

	logger.Info("State %s: confidence %.2f", domain.StateReturned, result.Confidence)
	return result, nil
}

// Retrieve runs expansion and hybrid retrieval without generation.
func (s *AskService) Retrieve(ctx context.Context, question string) ([]domain.RetrievalCandidate, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question: %w", domain.ErrInvalidInput)
	}

	expansion := s.expander.Expand(ctx, question, s.opts.EnableHyDE)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates, _, err := s.retriever.Retrieve(ctx, expansion, s.opts)
	return candidates, err
}

// unverifiedResult wraps a completion that failed citation parsing:
// answer text with zero verified citations and degraded confidence.
func (s *AskService) unverifiedResult(
	question, raw string,
	candidates []domain.RetrievalCandidate,
	warnings []string,
	parseErr *domain.ParseError,
) *domain.AnswerResult {
	verification := s.verifier.Verify(&ParsedAnswer{AnswerText: raw}, candidates)

	return &domain.AnswerResult{
		Question:     question,
		AnswerText:   strings.TrimSpace(raw),
		Confidence:   verification.Confidence,
		RetrievalSet: chunkIDs(candidates),
		State:        domain.StateReturned,
		Warnings:     append(warnings, fmt.Sprintf("citation validation failed: %s", parseErr.Reason)),
	}
}

func chunkIDs(candidates []domain.RetrievalCandidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ChunkID
	}
	return ids
}
