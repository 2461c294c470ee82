package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/akolanti/DocuMind/internal/domain/commonModels"
)

type InMemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string]commonModels.Document
	now  func() time.Time
}

func InitInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		docs: make(map[string]commonModels.Document),
		now:  time.Now,
	}
}

func (store *InMemoryDocumentStore) Create(ctx context.Context, doc commonModels.Document) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, exists := store.docs[doc.Id]; exists {
		return fmt.Errorf("document %s already exists", doc.Id)
	}
	if doc.Status == "" {
		doc.Status = commonModels.StatusPending
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = store.now().UTC()
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	store.docs[doc.Id] = doc
	inMemLogger.Debug("document created", "documentId", doc.Id)
	return nil
}

func (store *InMemoryDocumentStore) GetById(ctx context.Context, id string) (commonModels.Document, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	doc, ok := store.docs[id]
	if !ok {
		return doc, fmt.Errorf("document %s: %w", id, commonModels.ErrNotFound)
	}
	return doc, nil
}

func (store *InMemoryDocumentStore) ClaimForProcessing(ctx context.Context, id string) (commonModels.Document, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	doc, ok := store.docs[id]
	if !ok {
		return doc, fmt.Errorf("document %s: %w", id, commonModels.ErrNotFound)
	}
	if doc.Status != commonModels.StatusPending {
		return commonModels.Document{}, commonModels.ErrAlreadyClaimed
	}
	doc.Status = commonModels.StatusProcessing
	doc.UpdatedAt = store.now().UTC()
	store.docs[id] = doc
	return doc, nil
}

func (store *InMemoryDocumentStore) UpdateStatus(ctx context.Context, id string, from commonModels.DocumentStatus, to commonModels.DocumentStatus, update commonModels.StatusUpdate) error {
	if err := commonModels.CheckTransition(from, to); err != nil {
		return err
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	doc, ok := store.docs[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, commonModels.ErrNotFound)
	}
	if doc.Status != from {
		return fmt.Errorf("%w: document %s is no longer %s", commonModels.ErrInvalidTransition, id, from)
	}
	doc.Status = to
	doc.ErrorMessage = update.ErrorMessage
	doc.ChunkCount = update.ChunkCount
	doc.IndexedChunkCount = update.IndexedChunkCount
	doc.UpdatedAt = store.now().UTC()
	store.docs[id] = doc
	return nil
}

func (store *InMemoryDocumentStore) GetSelected(ctx context.Context, ids []string, ownerId string) ([]commonModels.Document, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	docs := make([]commonModels.Document, 0, len(ids))
	if ownerId == "" {
		return docs, nil
	}
	for _, id := range ids {
		doc, ok := store.docs[id]
		if !ok || doc.OwnerId != ownerId {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (store *InMemoryDocumentStore) ListByStatus(ctx context.Context, status commonModels.DocumentStatus) ([]commonModels.Document, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	var docs []commonModels.Document
	for _, doc := range store.docs {
		if doc.Status == status {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.Before(docs[j].CreatedAt) })
	return docs, nil
}
