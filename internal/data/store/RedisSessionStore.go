package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/data/redisStore"
	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

type RedisSessionStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisSessionStore(store *redisStore.Store) *RedisSessionStore {
	return &RedisSessionStore{
		store:  store,
		logger: logger_i.NewLogger("SessionStore"),
	}
}

func sessionKey(id string) string          { return "session:" + id }
func sessionDocumentsKey(id string) string { return "session:" + id + ":documents" }
func sessionMessagesKey(id string) string  { return "session:" + id + ":messages" }

func (s *RedisSessionStore) CreateSession(ctx context.Context, session chatModel.ChatSession) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	err := s.store.HSet(ctx, sessionKey(session.Id), map[string]interface{}{
		"id":         session.Id,
		"owner_id":   session.OwnerId,
		"title":      session.Title,
		"created_at": session.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("%w: creating session: %w", commonModels.ErrTransient, err)
	}
	for _, docId := range session.DocumentIds {
		if err := s.store.SAdd(ctx, sessionDocumentsKey(session.Id), docId); err != nil {
			return fmt.Errorf("%w: attaching document: %w", commonModels.ErrTransient, err)
		}
	}
	s.logger.Debug("session created", "traceId", config.TraceId(ctx), "sessionId", session.Id)
	return nil
}

func (s *RedisSessionStore) GetSession(ctx context.Context, id string) (chatModel.ChatSession, error) {
	fields, err := s.store.HGetAll(ctx, sessionKey(id))
	if err != nil {
		return chatModel.ChatSession{}, fmt.Errorf("%w: reading session: %w", commonModels.ErrTransient, err)
	}
	if len(fields) == 0 {
		return chatModel.ChatSession{}, fmt.Errorf("session %s: %w", id, commonModels.ErrNotFound)
	}
	created, err := parseTime(fields["created_at"])
	if err != nil {
		return chatModel.ChatSession{}, fmt.Errorf("session %s created_at: %w", id, err)
	}

	docIds, err := s.store.SMembers(ctx, sessionDocumentsKey(id))
	if err != nil {
		return chatModel.ChatSession{}, fmt.Errorf("%w: reading session documents: %w", commonModels.ErrTransient, err)
	}
	sort.Strings(docIds)

	return chatModel.ChatSession{
		Id:          fields["id"],
		OwnerId:     fields["owner_id"],
		Title:       fields["title"],
		DocumentIds: docIds,
		CreatedAt:   created,
	}, nil
}

func (s *RedisSessionStore) AttachDocument(ctx context.Context, sessionId string, documentId string) error {
	if err := s.mustExist(ctx, sessionId); err != nil {
		return err
	}
	if err := s.store.SAdd(ctx, sessionDocumentsKey(sessionId), documentId); err != nil {
		return fmt.Errorf("%w: attaching document: %w", commonModels.ErrTransient, err)
	}
	return nil
}

func (s *RedisSessionStore) AppendMessage(ctx context.Context, message chatModel.ChatMessage) error {
	if err := s.mustExist(ctx, message.SessionId); err != nil {
		return err
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	if err := s.store.ListPush(ctx, sessionMessagesKey(message.SessionId), data); err != nil {
		return fmt.Errorf("%w: saving message: %w", commonModels.ErrTransient, err)
	}
	return nil
}

func (s *RedisSessionStore) GetRecentMessages(ctx context.Context, sessionId string, n int) ([]chatModel.ChatMessage, error) {
	raw, err := s.store.ListGetLast(ctx, sessionMessagesKey(sessionId), n)
	if err != nil {
		return nil, fmt.Errorf("%w: reading messages: %w", commonModels.ErrTransient, err)
	}
	return decodeMessages(raw)
}

func (s *RedisSessionStore) GetMessages(ctx context.Context, sessionId string) ([]chatModel.ChatMessage, error) {
	raw, err := s.store.ListGetAll(ctx, sessionMessagesKey(sessionId))
	if err != nil {
		return nil, fmt.Errorf("%w: reading messages: %w", commonModels.ErrTransient, err)
	}
	return decodeMessages(raw)
}

func (s *RedisSessionStore) mustExist(ctx context.Context, sessionId string) error {
	ok, err := s.store.Exists(ctx, sessionKey(sessionId))
	if err != nil {
		return fmt.Errorf("%w: reading session: %w", commonModels.ErrTransient, err)
	}
	if !ok {
		return fmt.Errorf("session %s: %w", sessionId, commonModels.ErrNotFound)
	}
	return nil
}

func decodeMessages(raw []string) ([]chatModel.ChatMessage, error) {
	messages := make([]chatModel.ChatMessage, 0, len(raw))
	for _, r := range raw {
		var m chatModel.ChatMessage
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("decoding message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, nil
}
