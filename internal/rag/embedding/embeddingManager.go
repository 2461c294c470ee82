package embedding

import (
	"context"

	"github.com/akolanti/DocuMind/internal/config"
)

const BatchSize = config.EmbeddingBatchSize

// Embedder must use the same model for ingestion and for questions, otherwise scores are meaningless.
type Embedder interface {
	// Embed is used for questions.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Batch splits items into consecutive groups of at most size.
func Batch[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = BatchSize
	}
	var batches [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}
