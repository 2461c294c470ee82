package vectorDB

import (
	"context"
	"fmt"
	"math"

	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/google/uuid"
)

// Index stores chunk vectors. Scores are cosine similarity, higher is closer.
type Index interface {
	EnsureCollection(ctx context.Context) error
	// Upsert writes vectors[i] for chunks[i]. Re-upserting a (document, sequence) pair overwrites it.
	Upsert(ctx context.Context, chunks []commonModels.DocChunk, vectors [][]float32) error
	// Query returns at most topK matches restricted to documentIds, best score first.
	Query(ctx context.Context, vector []float32, documentIds []string, topK int) ([]commonModels.SearchResult, error)
	DeleteDocument(ctx context.Context, documentId string) error
}

var chunkNamespace = uuid.MustParse("9c0e4b1e-6a55-4a8e-9f1a-5d0c2f43b7a1")

// ChunkPointId is stable for a (document, sequence) pair so a re-run of ingestion overwrites.
func ChunkPointId(documentId string, sequence int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s:%d", documentId, sequence))).String()
}

func CheckBatch(chunks []commonModels.DocChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("empty vector for chunk %d of %s", chunks[i].Sequence, chunks[i].DocumentId)
		}
	}
	return nil
}

// Cosine returns 0 when either vector has no magnitude or the lengths differ.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
