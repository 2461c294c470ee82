package sqlStore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sessionRecord struct {
	Id        string `gorm:"primaryKey;size:64"`
	OwnerId   string `gorm:"size:128;index"`
	Title     string `gorm:"size:512"`
	CreatedAt time.Time
}

func (sessionRecord) TableName() string { return "chat_sessions" }

type sessionDocumentRecord struct {
	SessionId  string `gorm:"primaryKey;size:64"`
	DocumentId string `gorm:"primaryKey;size:64"`
}

func (sessionDocumentRecord) TableName() string { return "session_documents" }

type messageRecord struct {
	Id         uint   `gorm:"primaryKey;autoIncrement"`
	SessionId  string `gorm:"size:64;index"`
	IsFromUser bool
	Content    string `gorm:"type:text"`
	Timestamp  time.Time
}

func (messageRecord) TableName() string { return "chat_messages" }

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, session chatModel.ChatSession) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	db := r.db.WithContext(ctx)
	err := db.Create(&sessionRecord{
		Id:        session.Id,
		OwnerId:   session.OwnerId,
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
	}).Error
	if err != nil {
		return fmt.Errorf("%w: creating session: %w", commonModels.ErrTransient, err)
	}
	for _, docId := range session.DocumentIds {
		if err := r.attach(ctx, session.Id, docId); err != nil {
			return err
		}
	}
	return nil
}

func (r *SessionRepository) GetSession(ctx context.Context, id string) (chatModel.ChatSession, error) {
	record, err := r.find(ctx, id)
	if err != nil {
		return chatModel.ChatSession{}, err
	}
	var docIds []string
	err = r.db.WithContext(ctx).Model(&sessionDocumentRecord{}).
		Where("session_id = ?", id).Order("document_id").Pluck("document_id", &docIds).Error
	if err != nil {
		return chatModel.ChatSession{}, fmt.Errorf("%w: reading session documents: %w", commonModels.ErrTransient, err)
	}
	return chatModel.ChatSession{
		Id:          record.Id,
		OwnerId:     record.OwnerId,
		Title:       record.Title,
		DocumentIds: docIds,
		CreatedAt:   record.CreatedAt,
	}, nil
}

func (r *SessionRepository) AttachDocument(ctx context.Context, sessionId string, documentId string) error {
	if _, err := r.find(ctx, sessionId); err != nil {
		return err
	}
	return r.attach(ctx, sessionId, documentId)
}

func (r *SessionRepository) attach(ctx context.Context, sessionId string, documentId string) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&sessionDocumentRecord{SessionId: sessionId, DocumentId: documentId}).Error
	if err != nil {
		return fmt.Errorf("%w: attaching document: %w", commonModels.ErrTransient, err)
	}
	return nil
}

func (r *SessionRepository) AppendMessage(ctx context.Context, message chatModel.ChatMessage) error {
	if _, err := r.find(ctx, message.SessionId); err != nil {
		return err
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}
	err := r.db.WithContext(ctx).Create(&messageRecord{
		SessionId:  message.SessionId,
		IsFromUser: message.IsFromUser,
		Content:    message.Content,
		Timestamp:  message.Timestamp,
	}).Error
	if err != nil {
		return fmt.Errorf("%w: saving message: %w", commonModels.ErrTransient, err)
	}
	return nil
}

func (r *SessionRepository) GetRecentMessages(ctx context.Context, sessionId string, n int) ([]chatModel.ChatMessage, error) {
	if n <= 0 {
		return []chatModel.ChatMessage{}, nil
	}
	var records []messageRecord
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionId).Order("id DESC").Limit(n).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: reading messages: %w", commonModels.ErrTransient, err)
	}
	slices.Reverse(records)
	return toMessages(records), nil
}

func (r *SessionRepository) GetMessages(ctx context.Context, sessionId string) ([]chatModel.ChatMessage, error) {
	var records []messageRecord
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionId).Order("id").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: reading messages: %w", commonModels.ErrTransient, err)
	}
	return toMessages(records), nil
}

func (r *SessionRepository) find(ctx context.Context, id string) (sessionRecord, error) {
	var record sessionRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return record, fmt.Errorf("session %s: %w", id, commonModels.ErrNotFound)
	}
	if err != nil {
		return record, fmt.Errorf("%w: reading session: %w", commonModels.ErrTransient, err)
	}
	return record, nil
}

func toMessages(records []messageRecord) []chatModel.ChatMessage {
	messages := make([]chatModel.ChatMessage, 0, len(records))
	for _, rec := range records {
		messages = append(messages, chatModel.ChatMessage{
			SessionId:  rec.SessionId,
			IsFromUser: rec.IsFromUser,
			Content:    rec.Content,
			Timestamp:  rec.Timestamp,
		})
	}
	return messages
}
