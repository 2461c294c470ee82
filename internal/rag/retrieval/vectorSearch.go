package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/metrics"
	"github.com/akolanti/DocuMind/internal/rag/embedding"
	"github.com/akolanti/DocuMind/internal/rag/vectorDB"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

// NoContextFound replaces the context when nothing clears the threshold.
const NoContextFound = "I couldn't find enough relevant information in the documents to answer your question."

// SearchPolicy thresholds are inclusive. A zero FallbackThreshold disables the second pass.
type SearchPolicy struct {
	TopK              int
	Threshold         float32
	FallbackThreshold float32
}

var Policies = map[chatModel.Intent]SearchPolicy{
	chatModel.IntentQA:          {TopK: 10, Threshold: 0.65},
	chatModel.IntentExplanation: {TopK: 15, Threshold: 0.60, FallbackThreshold: 0.40},
}

type vectorSearchStrategy struct {
	documents commonModels.DocumentStore
	embedder  embedding.Embedder
	index     vectorDB.Index
	policy    SearchPolicy
	logger    *logger_i.Logger
}

func (s *vectorSearchStrategy) Context(ctx context.Context, req Request) (string, error) {
	log := s.logger.With("traceId", config.TraceId(ctx), "intent", req.Intent)

	documentIds, err := s.ownedDocuments(ctx, req)
	if err != nil {
		return "", err
	}
	if len(documentIds) == 0 {
		log.Warn("no owned documents to search", "requested", len(req.DocumentIds))
		metrics.IncrementRetrievalFallback("no_context")
		return NoContextFound, nil
	}

	vector, err := s.embedder.Embed(ctx, req.Question)
	if err != nil {
		return "", fmt.Errorf("embedding question: %w", err)
	}

	results, err := s.index.Query(ctx, vector, documentIds, s.policy.TopK)
	if err != nil {
		return "", fmt.Errorf("searching index: %w", err)
	}

	relevant := aboveThreshold(results, s.policy.Threshold)
	if len(relevant) == 0 && s.policy.FallbackThreshold > 0 {
		log.Warn("no chunks above threshold, retrying with fallback", "threshold", s.policy.Threshold, "fallback", s.policy.FallbackThreshold)
		relevant = aboveThreshold(results, s.policy.FallbackThreshold)
		if len(relevant) > 0 {
			metrics.IncrementRetrievalFallback("low_threshold")
		}
	}
	if len(relevant) == 0 {
		log.Warn("no relevant chunks found", "candidates", len(results), "threshold", s.policy.Threshold)
		metrics.IncrementRetrievalFallback("no_context")
		return NoContextFound, nil
	}
	log.Debug("vector context built", "candidates", len(results), "kept", len(relevant))
	return renderSources(relevant), nil
}

// ownedDocuments drops ids the session owner does not own.
func (s *vectorSearchStrategy) ownedDocuments(ctx context.Context, req Request) ([]string, error) {
	docs, err := s.documents.GetSelected(ctx, req.DocumentIds, req.OwnerId)
	if err != nil {
		return nil, fmt.Errorf("loading documents: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.Id)
	}
	return ids, nil
}

func aboveThreshold(results []commonModels.SearchResult, threshold float32) []commonModels.SearchResult {
	var kept []commonModels.SearchResult
	for _, r := range results {
		if r.Score >= threshold {
			kept = append(kept, r)
		}
	}
	return kept
}

func renderSources(results []commonModels.SearchResult) string {
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "[Source %d] (Score: %.2f)\n", i+1, r.Score)
		sb.WriteString(strings.TrimSpace(r.Text))
		sb.WriteString("\n\n")
	}
	return sb.String()
}
