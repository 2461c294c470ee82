package retrieval

import (
	"context"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/rag/embedding"
	"github.com/akolanti/DocuMind/internal/rag/extract"
	"github.com/akolanti/DocuMind/internal/rag/vectorDB"
	"github.com/akolanti/DocuMind/internal/storage"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

type Request struct {
	Intent      chatModel.Intent
	Question    string
	SessionId   string
	OwnerId     string
	DocumentIds []string
}

// Strategy builds the context block handed to the prompt composer.
type Strategy interface {
	Context(ctx context.Context, req Request) (string, error)
}

type Retriever struct {
	strategies map[chatModel.Intent]Strategy
	fallback   Strategy
	logger     *logger_i.Logger
}

type Options struct {
	Documents commonModels.DocumentStore
	Files     storage.FileStorage
	Extractor extract.TextExtractor
	Embedder  embedding.Embedder
	Index     vectorDB.Index
}

// New wires the default table: SUMMARY reads whole documents, QA and EXPLANATION search vectors.
func New(opts Options) *Retriever {
	if opts.Extractor == nil {
		opts.Extractor = extract.New(config.MaxFileSize)
	}
	full := &fullDocumentStrategy{
		documents: opts.Documents,
		files:     opts.Files,
		extractor: opts.Extractor,
		logger:    logger_i.NewLogger("Full Document Retrieval"),
	}
	search := func(policy SearchPolicy) Strategy {
		return &vectorSearchStrategy{
			documents: opts.Documents,
			embedder:  opts.Embedder,
			index:     opts.Index,
			policy:    policy,
			logger:    logger_i.NewLogger("Vector Retrieval"),
		}
	}
	qa := search(Policies[chatModel.IntentQA])

	return NewWithStrategies(map[chatModel.Intent]Strategy{
		chatModel.IntentSummary:     full,
		chatModel.IntentQA:          qa,
		chatModel.IntentExplanation: search(Policies[chatModel.IntentExplanation]),
	}, qa)
}

// NewWithStrategies lets callers swap the table; fallback serves intents missing from it.
func NewWithStrategies(strategies map[chatModel.Intent]Strategy, fallback Strategy) *Retriever {
	return &Retriever{
		strategies: strategies,
		fallback:   fallback,
		logger:     logger_i.NewLogger("Retriever"),
	}
}

func (r *Retriever) Retrieve(ctx context.Context, req Request) (string, error) {
	strategy, ok := r.strategies[req.Intent]
	if !ok {
		r.logger.Warn("no strategy for intent, using QA", "traceId", config.TraceId(ctx), "intent", req.Intent)
		strategy = r.fallback
	}
	return strategy.Context(ctx, req)
}
