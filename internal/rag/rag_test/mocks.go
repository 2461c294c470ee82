package rag_test

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/akolanti/DocuMind/internal/domain/commonModels"
)

// MockIndex implements vectorDB.Index and remembers every upserted chunk.
type MockIndex struct {
	OnEnsureCollection func(ctx context.Context) error
	OnUpsert           func(ctx context.Context, chunks []commonModels.DocChunk, vectors [][]float32) error
	OnQuery            func(ctx context.Context, vector []float32, documentIds []string, topK int) ([]commonModels.SearchResult, error)

	mu          sync.Mutex
	UpsertCalls int
	QueryCalls  int
	Upserted    []commonModels.DocChunk
}

func (m *MockIndex) EnsureCollection(ctx context.Context) error {
	if m.OnEnsureCollection != nil {
		return m.OnEnsureCollection(ctx)
	}
	return nil
}

func (m *MockIndex) Upsert(ctx context.Context, chunks []commonModels.DocChunk, vectors [][]float32) error {
	m.mu.Lock()
	m.UpsertCalls++
	m.mu.Unlock()
	if m.OnUpsert != nil {
		if err := m.OnUpsert(ctx, chunks, vectors); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Upserted = append(m.Upserted, chunks...)
	m.mu.Unlock()
	return nil
}

func (m *MockIndex) Query(ctx context.Context, vector []float32, documentIds []string, topK int) ([]commonModels.SearchResult, error) {
	m.mu.Lock()
	m.QueryCalls++
	m.mu.Unlock()
	if m.OnQuery != nil {
		return m.OnQuery(ctx, vector, documentIds, topK)
	}
	return nil, nil
}

func (m *MockIndex) DeleteDocument(ctx context.Context, documentId string) error {
	return nil
}

// MockEmbedder returns a fixed three dimensional vector per text unless overridden.
type MockEmbedder struct {
	OnEmbed      func(ctx context.Context, text string) ([]float32, error)
	OnEmbedBatch func(ctx context.Context, texts []string) ([][]float32, error)

	mu         sync.Mutex
	EmbedCalls int
	BatchCalls int
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.EmbedCalls++
	m.mu.Unlock()
	if m.OnEmbed != nil {
		return m.OnEmbed(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.BatchCalls++
	m.mu.Unlock()
	if m.OnEmbedBatch != nil {
		return m.OnEmbedBatch(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnComplete func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	Prompts []string
}

func (m *MockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
	if m.OnComplete != nil {
		return m.OnComplete(ctx, prompt)
	}
	return "mocked llm response", nil
}

// MockFileStorage keeps files in memory, keyed by path.
type MockFileStorage struct {
	OnReadStream func(ctx context.Context, path string) (io.ReadCloser, error)

	mu        sync.Mutex
	Files     map[string][]byte
	ReadCalls int
}

func NewMockFileStorage(files map[string][]byte) *MockFileStorage {
	if files == nil {
		files = make(map[string][]byte)
	}
	return &MockFileStorage{Files: files}
}

func (m *MockFileStorage) Upload(ctx context.Context, r io.Reader, name string, ownerId string) (string, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	path := ownerId + "/" + name
	m.mu.Lock()
	m.Files[path] = data
	m.mu.Unlock()
	return path, int64(len(data)), nil
}

func (m *MockFileStorage) ReadStream(ctx context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	m.ReadCalls++
	data, ok := m.Files[path]
	m.mu.Unlock()
	if m.OnReadStream != nil {
		return m.OnReadStream(ctx, path)
	}
	if !ok {
		return nil, commonModels.NewValidationError(commonModels.ErrFileMissing, path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockFileStorage) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Files, path)
	return nil
}

// MockIngestor implements rag.DocumentIngestor
type MockIngestor struct {
	OnProcessDocument func(ctx context.Context, documentId string) error
}

func (m *MockIngestor) ProcessDocument(ctx context.Context, documentId string) error {
	if m.OnProcessDocument != nil {
		return m.OnProcessDocument(ctx, documentId)
	}
	return nil
}
