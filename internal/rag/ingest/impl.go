package ingest

import (
	"context"

	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/metrics"
	"github.com/akolanti/DocuMind/internal/rag/embedding"
	"github.com/akolanti/DocuMind/internal/rag/vectorDB"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

func prepareChunks(doc commonModels.Document, texts []string) []commonModels.DocChunk {
	chunks := make([]commonModels.DocChunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, commonModels.DocChunk{
			DocumentId: doc.Id,
			DocName:    doc.FileName,
			Sequence:   i,
			Text:       text,
		})
	}
	return chunks
}

// indexBatches embeds and upserts batch by batch. A failed batch is skipped; only cancellation stops the loop.
func (o *Orchestrator) indexBatches(ctx context.Context, log *logger_i.Logger, chunks []commonModels.DocChunk) (int, error) {
	indexed := 0
	for i, batch := range embedding.Batch(chunks, o.batchSize) {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Text
		}

		log.Debug("Starting embedding call", "batch", i, "size", len(batch))
		vectors, err := o.embedder.EmbedBatch(ctx, texts)
		if err == nil {
			err = vectorDB.CheckBatch(batch, vectors)
		}
		if err == nil {
			err = o.index.Upsert(ctx, batch, vectors)
		}
		if err != nil {
			if ctx.Err() != nil {
				return indexed, ctx.Err()
			}
			log.Error("batch failed, skipping", "batch", i, "firstSequence", batch[0].Sequence, "error", err)
			metrics.IncrementBatchFailure()
			continue
		}
		indexed += len(batch)
	}
	return indexed, nil
}
