// Package evaluator scores a free-text answer against reference passages
// retrieved from the loaded document.
package evaluator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/vectorstore"
)

const (
	referenceTopK      = 5
	referenceThreshold = 0.3
	semanticWeight     = 0.6
	coverageWeight     = 0.4
	maxMissing         = 5
	maxExcerpts        = 2
	excerptRunes       = 200

	noReferenceJustification = "No relevant reference content found in the document for the given topic."
	noReferenceMissing       = "Unable to find reference material in the uploaded document"
)

// Evaluator compares candidate answers with document content.
type Evaluator struct {
	searcher domain.Searcher
	embedder embedding.Embedder
	logger   *zap.Logger
}

// New returns an Evaluator reading reference material from searcher and
// embedding answers with embedder, which must be the one the index uses.
func New(searcher domain.Searcher, embedder embedding.Embedder, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{searcher: searcher, embedder: embedder, logger: logger}
}

// Evaluate scores candidate against the passages retrieved for referenceQuery.
// A missing reference is reported as a zero score, not an error.
func (e *Evaluator) Evaluate(ctx context.Context, candidate, referenceQuery string) (domain.EvaluationResult, error) {
	results, err := e.searcher.Search(ctx, referenceQuery, referenceTopK)
	if err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("search reference: %w", err)
	}
	if len(results) == 0 || results[0].Score < referenceThreshold {
		e.logger.Debug("no reference material", zap.String("topic", referenceQuery))
		return domain.EvaluationResult{
			SimilarityPercentage: 0,
			Justification:        noReferenceJustification,
			MissingElements:      []string{noReferenceMissing},
			ReferenceExcerpts:    []string{},
		}, nil
	}

	var parts []string
	for _, r := range results {
		if r.Score > referenceThreshold {
			parts = append(parts, r.Chunk.Text)
		}
	}
	reference := strings.Join(parts, " ")

	semantic, err := e.semanticSimilarity(ctx, candidate, reference)
	if err != nil {
		return domain.EvaluationResult{}, err
	}

	refConcepts := ExtractConcepts(reference)
	covered, missing := coverage(refConcepts, ExtractConcepts(candidate))
	conceptCoverage := 0.0
	if len(refConcepts) > 0 {
		conceptCoverage = float64(len(covered)) / float64(len(refConcepts))
	}

	percentage := int(math.Round((semanticWeight*semantic + coverageWeight*conceptCoverage) * 100))
	if len(missing) > maxMissing {
		missing = missing[:maxMissing]
	}
	if missing == nil {
		missing = []string{}
	}

	e.logger.Debug("answer evaluated",
		zap.Int("percentage", percentage),
		zap.Float64("semantic", semantic),
		zap.Float64("coverage", conceptCoverage))

	return domain.EvaluationResult{
		SimilarityPercentage: percentage,
		Justification:        justification(percentage, semantic, len(covered), len(refConcepts)),
		MissingElements:      missing,
		ReferenceExcerpts:    excerpts(results),
	}, nil
}

// semanticSimilarity is the cosine of the two embeddings, floored at zero.
// A blank candidate scores zero without calling the embedder.
func (e *Evaluator) semanticSimilarity(ctx context.Context, candidate, reference string) (float64, error) {
	if strings.TrimSpace(candidate) == "" {
		return 0, nil
	}
	a, err := e.embedder.Embed(ctx, candidate)
	if err != nil {
		return 0, fmt.Errorf("embed answer: %w", err)
	}
	b, err := e.embedder.Embed(ctx, reference)
	if err != nil {
		return 0, fmt.Errorf("embed reference: %w", err)
	}
	return math.Max(0, vectorstore.CosineSimilarity(a, b)), nil
}

func justification(percentage int, semantic float64, covered, total int) string {
	switch {
	case percentage >= 80:
		return fmt.Sprintf("Strong match with %d%% similarity. The answer covers %d/%d key concepts from the reference material. Semantic alignment is high (%d%%).",
			percentage, covered, total, int(math.Round(semantic*100)))
	case percentage >= 60:
		return fmt.Sprintf("Moderate match with %d%% similarity. The answer captures %d/%d key concepts. Some important points from the reference may be missing or differently expressed.",
			percentage, covered, total)
	case percentage >= 40:
		return fmt.Sprintf("Partial match with %d%% similarity. Only %d/%d key concepts are addressed. Consider reviewing the reference material for additional important points.",
			percentage, covered, total)
	default:
		return fmt.Sprintf("Low match with %d%% similarity. The answer covers only %d/%d reference concepts. The response may be addressing different aspects or missing core information.",
			percentage, covered, total)
	}
}

func excerpts(results []domain.SearchResult) []string {
	n := min(len(results), maxExcerpts)
	out := make([]string, n)
	for i := range n {
		text := []rune(results[i].Chunk.Text)
		if len(text) > excerptRunes {
			text = text[:excerptRunes]
		}
		out[i] = string(text) + "..."
	}
	return out
}
