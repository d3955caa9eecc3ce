package services

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
	"github.com/atheneahq/athenea-cli/internal/logger"
)

// fuzzyFloor is the minimum bigram similarity for a quoted span to pass
// as a fuzzy match. Below it the citation is rejected as fabricated.
const fuzzyFloor = 0.80

// VerificationResult is the verifier's judgement on one answer.
type VerificationResult struct {
	// Accepted holds citations whose spans were found in their chunk.
	Accepted []domain.Citation

	// Rejected holds citations that failed verification, with reasons.
	Rejected []domain.Citation

	// Confidence is the bounded [0,1] answer confidence.
	Confidence float64
}

// Verifier checks that every citation quotes text actually present in
// the retrieved chunk it names. The model asserts support; the verifier
// proves it.
type Verifier struct{}

// NewVerifier creates a citation verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify resolves each tagged citation against the prompt context and
// checks its quoted span. Exact normalised substring matches count
// fully; fuzzy matches above the floor count half toward confidence and
// are flagged. Citations naming sources outside the context, or with
// unverifiable spans, are rejected but surfaced.
func (v *Verifier) Verify(parsed *ParsedAnswer, candidates []domain.RetrievalCandidate) VerificationResult {
	var result VerificationResult
	var supportScore float64

	for _, tagged := range parsed.Citations {
		citation := domain.Citation{
			QuotedSpan: tagged.QuotedSpan,
			ClaimText:  tagged.ClaimText,
		}

		if tagged.SourceIndex < 1 || tagged.SourceIndex > len(candidates) {
			citation.RejectReason = fmt.Sprintf("cites source S%d outside the retrieved context", tagged.SourceIndex)
			result.Rejected = append(result.Rejected, citation)
			continue
		}

		chunk := candidates[tagged.SourceIndex-1]
		citation.ChunkID = chunk.ChunkID

		span := normalise(tagged.QuotedSpan)
		content := normalise(chunk.Content)

		switch {
		case strings.Contains(content, span):
			supportScore += 1.0
			result.Accepted = append(result.Accepted, citation)
		case bestBigramSimilarity(span, content) >= fuzzyFloor:
			citation.Fuzzy = true
			supportScore += 0.5
			result.Accepted = append(result.Accepted, citation)
			logger.Debug("Fuzzy citation match in chunk %s: %q", chunk.ChunkID, tagged.QuotedSpan)
		default:
			citation.RejectReason = "quoted span not found in the cited chunk"
			result.Rejected = append(result.Rejected, citation)
			logger.Warn("Rejected citation for chunk %s: span %q not present", chunk.ChunkID, tagged.QuotedSpan)
		}
	}

	result.Confidence = confidence(supportScore, len(parsed.Citations), result.Accepted, candidates)
	return result
}

// confidence averages three bounded signals: the fraction of citations
// that verified, the top fused retrieval score, and citation breadth
// (distinct cited chunks, saturating at three).
func confidence(supportScore float64, totalCitations int, accepted []domain.Citation, candidates []domain.RetrievalCandidate) float64 {
	var verifiedFraction float64
	if totalCitations > 0 {
		verifiedFraction = supportScore / float64(totalCitations)
	}

	var topScore float64
	if len(candidates) > 0 {
		topScore = candidates[0].Score
	}

	distinct := make(map[string]struct{}, len(accepted))
	for _, c := range accepted {
		distinct[c.ChunkID] = struct{}{}
	}
	breadth := float64(len(distinct)) / 3.0
	if breadth > 1 {
		breadth = 1
	}

	return (verifiedFraction + topScore + breadth) / 3.0
}

// spanFolder lowercases and strips accents so quote verification
// tolerates case and diacritic drift between model output and corpus.
var spanFolder = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// normalise prepares text for span comparison: lowercase, accent-fold,
// collapse whitespace.
func normalise(s string) string {
	folded, _, err := transform.String(spanFolder, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(folded), " ")
}

// bigramSet builds the character-bigram multiset of a string as a
// frequency map.
func bigramSet(s string) map[string]int {
	runes := []rune(s)
	set := make(map[string]int, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])]++
	}
	return set
}

// bestBigramSimilarity slides the span over the content and returns the
// best Dice coefficient over windows of the span's length. A direct
// whole-content comparison would punish short spans in long chunks.
func bestBigramSimilarity(span, content string) float64 {
	spanRunes := []rune(span)
	contentRunes := []rune(content)
	if len(spanRunes) < 2 || len(contentRunes) < 2 {
		return 0
	}
	if len(contentRunes) <= len(spanRunes) {
		return diceCoefficient(bigramSet(span), bigramSet(content))
	}

	spanSet := bigramSet(span)
	window := len(spanRunes)
	step := window / 4
	if step < 1 {
		step = 1
	}

	var best float64
	for start := 0; start+window <= len(contentRunes); start += step {
		sim := diceCoefficient(spanSet, bigramSet(string(contentRunes[start:start+window])))
		if sim > best {
			best = sim
		}
	}
	// Tail window
	sim := diceCoefficient(spanSet, bigramSet(string(contentRunes[len(contentRunes)-window:])))
	if sim > best {
		best = sim
	}

	return best
}

// diceCoefficient computes 2*|A∩B| / (|A|+|B|) over bigram multisets.
func diceCoefficient(a, b map[string]int) float64 {
	var sizeA, sizeB, overlap int
	for bg, n := range a {
		sizeA += n
		if m, ok := b[bg]; ok {
			if m < n {
				overlap += m
			} else {
				overlap += n
			}
		}
	}
	for _, n := range b {
		sizeB += n
	}
	if sizeA+sizeB == 0 {
		return 0
	}
	return 2.0 * float64(overlap) / float64(sizeA+sizeB)
}
