package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
)

type InMemorySessionStore struct {
	chatLock *sync.RWMutex
	sessions map[string]chatModel.ChatSession
	messages map[string][]chatModel.ChatMessage
}

func InitInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		chatLock: new(sync.RWMutex),
		sessions: make(map[string]chatModel.ChatSession),
		messages: make(map[string][]chatModel.ChatMessage),
	}
}

func (store *InMemorySessionStore) CreateSession(ctx context.Context, session chatModel.ChatSession) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	session.DocumentIds = append([]string(nil), session.DocumentIds...)
	session.Messages = nil
	store.sessions[session.Id] = session
	inMemLogger.Debug("session created", "sessionId", session.Id)
	return nil
}

func (store *InMemorySessionStore) GetSession(ctx context.Context, id string) (chatModel.ChatSession, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	session, ok := store.sessions[id]
	if !ok {
		return session, fmt.Errorf("session %s: %w", id, commonModels.ErrNotFound)
	}
	session.DocumentIds = append([]string(nil), session.DocumentIds...)
	sort.Strings(session.DocumentIds)
	return session, nil
}

func (store *InMemorySessionStore) AttachDocument(ctx context.Context, sessionId string, documentId string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	session, ok := store.sessions[sessionId]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionId, commonModels.ErrNotFound)
	}
	for _, id := range session.DocumentIds {
		if id == documentId {
			return nil
		}
	}
	session.DocumentIds = append(session.DocumentIds, documentId)
	store.sessions[sessionId] = session
	return nil
}

func (store *InMemorySessionStore) AppendMessage(ctx context.Context, message chatModel.ChatMessage) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	if _, ok := store.sessions[message.SessionId]; !ok {
		return fmt.Errorf("session %s: %w", message.SessionId, commonModels.ErrNotFound)
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}
	store.messages[message.SessionId] = append(store.messages[message.SessionId], message)
	return nil
}

func (store *InMemorySessionStore) GetRecentMessages(ctx context.Context, sessionId string, n int) ([]chatModel.ChatMessage, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	all := store.messages[sessionId]
	if n <= 0 {
		return []chatModel.ChatMessage{}, nil
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return append([]chatModel.ChatMessage(nil), all...), nil
}

func (store *InMemorySessionStore) GetMessages(ctx context.Context, sessionId string) ([]chatModel.ChatMessage, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	return append([]chatModel.ChatMessage{}, store.messages[sessionId]...), nil
}
