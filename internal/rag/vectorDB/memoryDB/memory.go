package memoryDB

import (
	"context"
	"sort"
	"sync"

	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/rag/vectorDB"
)

type entry struct {
	chunk  commonModels.DocChunk
	vector []float32
}

// Storage is a brute-force cosine index for local runs and tests.
type Storage struct {
	mu     sync.RWMutex
	points map[string]entry
}

func NewStorage() *Storage {
	return &Storage{points: make(map[string]entry)}
}

func (s *Storage) EnsureCollection(ctx context.Context) error {
	return nil
}

func (s *Storage) Upsert(ctx context.Context, chunks []commonModels.DocChunk, vectors [][]float32) error {
	if err := vectorDB.CheckBatch(chunks, vectors); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range chunks {
		v := make([]float32, len(vectors[i]))
		copy(v, vectors[i])
		s.points[vectorDB.ChunkPointId(c.DocumentId, c.Sequence)] = entry{chunk: c, vector: v}
	}
	return nil
}

func (s *Storage) Query(ctx context.Context, vector []float32, documentIds []string, topK int) ([]commonModels.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	allowed := make(map[string]struct{}, len(documentIds))
	for _, id := range documentIds {
		allowed[id] = struct{}{}
	}

	s.mu.RLock()
	results := make([]commonModels.SearchResult, 0, len(s.points))
	for _, e := range s.points {
		if _, ok := allowed[e.chunk.DocumentId]; !ok {
			continue
		}
		results = append(results, commonModels.SearchResult{
			Text:       e.chunk.Text,
			Score:      vectorDB.Cosine(vector, e.vector),
			DocumentId: e.chunk.DocumentId,
			Sequence:   e.chunk.Sequence,
		})
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].DocumentId != results[j].DocumentId {
			return results[i].DocumentId < results[j].DocumentId
		}
		return results[i].Sequence < results[j].Sequence
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *Storage) DeleteDocument(ctx context.Context, documentId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.points {
		if e.chunk.DocumentId == documentId {
			delete(s.points, id)
		}
	}
	return nil
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}
