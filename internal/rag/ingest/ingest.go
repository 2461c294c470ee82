package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/metrics"
	"github.com/akolanti/DocuMind/internal/rag/chunker"
	"github.com/akolanti/DocuMind/internal/rag/embedding"
	"github.com/akolanti/DocuMind/internal/rag/extract"
	"github.com/akolanti/DocuMind/internal/rag/vectorDB"
	"github.com/akolanti/DocuMind/internal/storage"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

const (
	msgNoChunks  = "no chunks could be indexed"
	msgCancelled = "ingestion cancelled"
	msgNoIndex   = "vector index unavailable"
)

type Orchestrator struct {
	documents commonModels.DocumentStore
	files     storage.FileStorage
	extractor extract.TextExtractor
	chunker   chunker.Chunker
	embedder  embedding.Embedder
	index     vectorDB.Index
	batchSize int
	logger    *logger_i.Logger
}

type Options struct {
	Documents commonModels.DocumentStore
	Files     storage.FileStorage
	Extractor extract.TextExtractor
	Chunker   chunker.Chunker
	Embedder  embedding.Embedder
	Index     vectorDB.Index
	BatchSize int
}

func New(opts Options) *Orchestrator {
	if opts.Chunker.Size == 0 {
		opts.Chunker = chunker.New(chunker.DefaultChunkSize, chunker.DefaultOverlap)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = embedding.BatchSize
	}
	if opts.Extractor == nil {
		opts.Extractor = extract.New(config.MaxFileSize)
	}
	return &Orchestrator{
		documents: opts.Documents,
		files:     opts.Files,
		extractor: opts.Extractor,
		chunker:   opts.Chunker,
		embedder:  opts.Embedder,
		index:     opts.Index,
		batchSize: opts.BatchSize,
		logger:    logger_i.NewLogger("Document Ingestion"),
	}
}

// ProcessDocument runs one document from Pending to Ready or Error.
// Losing the claim returns ErrAlreadyClaimed without touching the document.
func (o *Orchestrator) ProcessDocument(ctx context.Context, documentId string) error {
	log := o.logger.With("traceId", config.TraceId(ctx), "documentId", documentId)
	start := time.Now()

	doc, err := o.documents.ClaimForProcessing(ctx, documentId)
	if err != nil {
		if errors.Is(err, commonModels.ErrAlreadyClaimed) {
			log.Info("document already claimed, skipping")
		}
		return err
	}
	log.Debug("document claimed", "file", doc.FileName, "size", doc.Size)

	text, err := o.readText(ctx, doc)
	if err != nil {
		log.Error("Error extracting document", "error", err)
		return o.fail(ctx, doc, failureMessage(err), err)
	}

	chunks := prepareChunks(doc, o.chunker.Chunk(text))
	log.Debug("document chunked", "chunks", len(chunks))
	if len(chunks) == 0 {
		err = commonModels.NewValidationError(commonModels.ErrEmptyText, doc.FileName)
		return o.fail(ctx, doc, err.Error(), err)
	}

	if err := o.index.EnsureCollection(ctx); err != nil {
		log.Error("Error preparing vector index", "error", err)
		return o.fail(ctx, doc, msgNoIndex, err)
	}

	indexed, err := o.indexBatches(ctx, log, chunks)
	metrics.CaptureIngestedChunks(indexed, len(chunks)-indexed)
	if err != nil {
		log.Warn("ingestion interrupted", "indexed", indexed, "error", err)
		return o.fail(ctx, doc, msgCancelled, err)
	}
	if indexed == 0 {
		return o.fail(ctx, doc, msgNoChunks, errors.New(msgNoChunks))
	}

	err = o.documents.UpdateStatus(ctx, doc.Id, commonModels.StatusProcessing, commonModels.StatusReady, commonModels.StatusUpdate{
		ChunkCount:        len(chunks),
		IndexedChunkCount: indexed,
	})
	if err != nil {
		log.Error("Error marking document ready", "error", err)
		return err
	}
	metrics.IncrementDocumentOutcome(string(commonModels.StatusReady))
	metrics.CaptureExecutionMetrics("ingest_document", time.Since(start))
	log.Info("document ready", "chunks", len(chunks), "indexed", indexed, "elapsed", time.Since(start))
	return nil
}

func (o *Orchestrator) readText(ctx context.Context, doc commonModels.Document) (string, error) {
	stream, err := o.files.ReadStream(ctx, doc.StoragePath)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	raw, err := o.extractor.Extract(ctx, doc.FileName, stream)
	if err != nil {
		return "", err
	}
	text := extract.CleanText(raw)
	if text == "" {
		return "", commonModels.NewValidationError(commonModels.ErrEmptyText, doc.FileName)
	}
	return text, nil
}

// fail commits the Error status even when ctx is already cancelled, so the document never stays Processing.
func (o *Orchestrator) fail(ctx context.Context, doc commonModels.Document, message string, cause error) error {
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	err := o.documents.UpdateStatus(commitCtx, doc.Id, commonModels.StatusProcessing, commonModels.StatusError,
		commonModels.StatusUpdate{ErrorMessage: message})
	if err != nil {
		o.logger.Error("Error marking document failed", "documentId", doc.Id, "error", err)
	}
	metrics.IncrementDocumentOutcome(string(commonModels.StatusError))
	return fmt.Errorf("ingesting %s: %w", doc.Id, cause)
}

func failureMessage(err error) string {
	switch {
	case commonModels.IsValidation(err):
		return err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return msgCancelled
	default:
		return "text extraction failed"
	}
}
