package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/data/redisStore"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

const (
	documentKeyPrefix    = "document:"
	documentIndexKey     = "documents:index"
	documentStatusPrefix = "documents:status:"
)

// KEYS: document hash, index set, status set. ARGV: id, then field/value pairs.
var createDocumentScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return 0 end
redis.call('HSET', KEYS[1], unpack(ARGV, 2))
redis.call('SADD', KEYS[2], ARGV[1])
redis.call('SADD', KEYS[3], ARGV[1])
return 1
`)

// KEYS: document hash, from status set, to status set.
// ARGV: id, expected status, new status, then field/value pairs.
// Returns -1 when the document is missing, 0 when the status did not match.
var compareAndSetStatusScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
if redis.call('HGET', KEYS[1], 'status') ~= ARGV[2] then return 0 end
redis.call('HSET', KEYS[1], 'status', ARGV[3])
if #ARGV > 3 then redis.call('HSET', KEYS[1], unpack(ARGV, 4)) end
redis.call('SREM', KEYS[2], ARGV[1])
redis.call('SADD', KEYS[3], ARGV[1])
return 1
`)

type RedisDocumentStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
	now    func() time.Time
}

func GetRedisDocumentStore(store *redisStore.Store) *RedisDocumentStore {
	return &RedisDocumentStore{
		store:  store,
		logger: logger_i.NewLogger("DocumentStore"),
		now:    time.Now,
	}
}

func documentKey(id string) string {
	return documentKeyPrefix + id
}

func statusKey(status commonModels.DocumentStatus) string {
	return documentStatusPrefix + string(status)
}

func (s *RedisDocumentStore) Create(ctx context.Context, doc commonModels.Document) error {
	if doc.Status == "" {
		doc.Status = commonModels.StatusPending
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.now().UTC()
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}

	args := append([]interface{}{doc.Id}, documentFields(doc)...)
	res, err := s.store.RunScript(ctx, createDocumentScript,
		[]string{documentKey(doc.Id), documentIndexKey, statusKey(doc.Status)}, args...)
	if err != nil {
		return fmt.Errorf("%w: creating document: %w", commonModels.ErrTransient, err)
	}
	if res.(int64) == 0 {
		return fmt.Errorf("document %s already exists", doc.Id)
	}
	s.logger.Debug("document created", "traceId", config.TraceId(ctx), "documentId", doc.Id)
	return nil
}

func (s *RedisDocumentStore) GetById(ctx context.Context, id string) (commonModels.Document, error) {
	fields, err := s.store.HGetAll(ctx, documentKey(id))
	if err != nil {
		return commonModels.Document{}, fmt.Errorf("%w: reading document: %w", commonModels.ErrTransient, err)
	}
	if len(fields) == 0 {
		return commonModels.Document{}, fmt.Errorf("document %s: %w", id, commonModels.ErrNotFound)
	}
	return documentFromHash(fields)
}

func (s *RedisDocumentStore) ClaimForProcessing(ctx context.Context, id string) (commonModels.Document, error) {
	err := s.compareAndSet(ctx, id, commonModels.StatusPending, commonModels.StatusProcessing, nil)
	if err != nil {
		return commonModels.Document{}, err
	}
	return s.GetById(ctx, id)
}

func (s *RedisDocumentStore) UpdateStatus(ctx context.Context, id string, from commonModels.DocumentStatus, to commonModels.DocumentStatus, update commonModels.StatusUpdate) error {
	if err := commonModels.CheckTransition(from, to); err != nil {
		return err
	}
	fields := []interface{}{
		"error_message", update.ErrorMessage,
		"chunk_count", update.ChunkCount,
		"indexed_chunk_count", update.IndexedChunkCount,
	}
	err := s.compareAndSet(ctx, id, from, to, fields)
	if errors.Is(err, commonModels.ErrAlreadyClaimed) {
		return fmt.Errorf("%w: document %s is no longer %s", commonModels.ErrInvalidTransition, id, from)
	}
	return err
}

func (s *RedisDocumentStore) compareAndSet(ctx context.Context, id string, from commonModels.DocumentStatus, to commonModels.DocumentStatus, fields []interface{}) error {
	args := []interface{}{id, string(from), string(to)}
	args = append(args, "updated_at", s.now().UTC().Format(time.RFC3339Nano))
	args = append(args, fields...)

	res, err := s.store.RunScript(ctx, compareAndSetStatusScript,
		[]string{documentKey(id), statusKey(from), statusKey(to)}, args...)
	if err != nil {
		return fmt.Errorf("%w: updating document status: %w", commonModels.ErrTransient, err)
	}
	switch res.(int64) {
	case -1:
		return fmt.Errorf("document %s: %w", id, commonModels.ErrNotFound)
	case 0:
		return commonModels.ErrAlreadyClaimed
	}
	s.logger.Debug("document status changed", "traceId", config.TraceId(ctx), "documentId", id, "from", from, "to", to)
	return nil
}

// GetSelected keeps the order of ids and skips ids that are unknown or owned by someone else.
// An empty ownerId matches nothing.
func (s *RedisDocumentStore) GetSelected(ctx context.Context, ids []string, ownerId string) ([]commonModels.Document, error) {
	if ownerId == "" {
		return []commonModels.Document{}, nil
	}
	return s.getMany(ctx, ids, func(doc commonModels.Document) bool { return doc.OwnerId == ownerId })
}

func (s *RedisDocumentStore) getMany(ctx context.Context, ids []string, keep func(commonModels.Document) bool) ([]commonModels.Document, error) {
	docs := make([]commonModels.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.GetById(ctx, id)
		if err != nil {
			if commonModels.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if !keep(doc) {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *RedisDocumentStore) ListByStatus(ctx context.Context, status commonModels.DocumentStatus) ([]commonModels.Document, error) {
	ids, err := s.store.SMembers(ctx, statusKey(status))
	if err != nil {
		return nil, fmt.Errorf("%w: listing documents: %w", commonModels.ErrTransient, err)
	}
	return s.getMany(ctx, ids, func(commonModels.Document) bool { return true })
}

func documentFields(doc commonModels.Document) []interface{} {
	return []interface{}{
		"id", doc.Id,
		"owner_id", doc.OwnerId,
		"file_name", doc.FileName,
		"storage_path", doc.StoragePath,
		"size", doc.Size,
		"status", string(doc.Status),
		"error_message", doc.ErrorMessage,
		"chunk_count", doc.ChunkCount,
		"indexed_chunk_count", doc.IndexedChunkCount,
		"created_at", doc.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at", doc.UpdatedAt.UTC().Format(time.RFC3339Nano),
		"not_before", formatOptionalTime(doc.NotBefore),
	}
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func documentFromHash(h map[string]string) (commonModels.Document, error) {
	doc := commonModels.Document{
		Id:           h["id"],
		OwnerId:      h["owner_id"],
		FileName:     h["file_name"],
		StoragePath:  h["storage_path"],
		Status:       commonModels.DocumentStatus(h["status"]),
		ErrorMessage: h["error_message"],
	}
	var err error
	if doc.Size, err = parseInt64(h["size"]); err != nil {
		return doc, fmt.Errorf("document %s size: %w", doc.Id, err)
	}
	chunks, err := parseInt64(h["chunk_count"])
	if err != nil {
		return doc, fmt.Errorf("document %s chunk_count: %w", doc.Id, err)
	}
	indexed, err := parseInt64(h["indexed_chunk_count"])
	if err != nil {
		return doc, fmt.Errorf("document %s indexed_chunk_count: %w", doc.Id, err)
	}
	doc.ChunkCount, doc.IndexedChunkCount = int(chunks), int(indexed)

	if doc.CreatedAt, err = parseTime(h["created_at"]); err != nil {
		return doc, fmt.Errorf("document %s created_at: %w", doc.Id, err)
	}
	if doc.UpdatedAt, err = parseTime(h["updated_at"]); err != nil {
		return doc, fmt.Errorf("document %s updated_at: %w", doc.Id, err)
	}
	if doc.NotBefore, err = parseTime(h["not_before"]); err != nil {
		return doc, fmt.Errorf("document %s not_before: %w", doc.Id, err)
	}
	return doc, nil
}

func parseInt64(v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, v)
}
