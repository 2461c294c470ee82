package sqlStore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"gorm.io/gorm"
)

type documentRecord struct {
	Id                string `gorm:"primaryKey;size:64"`
	OwnerId           string `gorm:"size:128;index"`
	FileName          string `gorm:"size:512"`
	StoragePath       string `gorm:"size:1024"`
	Size              int64
	Status            string `gorm:"size:16;index"`
	ErrorMessage      string `gorm:"type:text"`
	ChunkCount        int
	IndexedChunkCount int
	CreatedAt         time.Time
	UpdatedAt         time.Time
	NotBefore         *time.Time
}

func (documentRecord) TableName() string { return "documents" }

func (r documentRecord) toDocument() commonModels.Document {
	return commonModels.Document{
		Id:                r.Id,
		OwnerId:           r.OwnerId,
		FileName:          r.FileName,
		StoragePath:       r.StoragePath,
		Size:              r.Size,
		Status:            commonModels.DocumentStatus(r.Status),
		ErrorMessage:      r.ErrorMessage,
		ChunkCount:        r.ChunkCount,
		IndexedChunkCount: r.IndexedChunkCount,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		NotBefore:         derefTime(r.NotBefore),
	}
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

type DocumentRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db, now: time.Now}
}

func (r *DocumentRepository) Create(ctx context.Context, doc commonModels.Document) error {
	if doc.Status == "" {
		doc.Status = commonModels.StatusPending
	}
	now := r.now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	record := documentRecord{
		Id:          doc.Id,
		OwnerId:     doc.OwnerId,
		FileName:    doc.FileName,
		StoragePath: doc.StoragePath,
		Size:        doc.Size,
		Status:      string(doc.Status),
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   now,
	}
	if !doc.NotBefore.IsZero() {
		notBefore := doc.NotBefore.UTC()
		record.NotBefore = &notBefore
	}
	err := r.db.WithContext(ctx).Create(&record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("document %s already exists", doc.Id)
	}
	if err != nil {
		return fmt.Errorf("%w: creating document: %w", commonModels.ErrTransient, err)
	}
	return nil
}

func (r *DocumentRepository) GetById(ctx context.Context, id string) (commonModels.Document, error) {
	var record documentRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return commonModels.Document{}, fmt.Errorf("document %s: %w", id, commonModels.ErrNotFound)
	}
	if err != nil {
		return commonModels.Document{}, fmt.Errorf("%w: reading document: %w", commonModels.ErrTransient, err)
	}
	return record.toDocument(), nil
}

func (r *DocumentRepository) ClaimForProcessing(ctx context.Context, id string) (commonModels.Document, error) {
	ok, err := r.compareAndSet(ctx, id, commonModels.StatusPending, map[string]interface{}{
		"status": string(commonModels.StatusProcessing),
	})
	if err != nil {
		return commonModels.Document{}, err
	}
	if !ok {
		if _, err := r.GetById(ctx, id); err != nil {
			return commonModels.Document{}, err
		}
		return commonModels.Document{}, commonModels.ErrAlreadyClaimed
	}
	return r.GetById(ctx, id)
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, from commonModels.DocumentStatus, to commonModels.DocumentStatus, update commonModels.StatusUpdate) error {
	if err := commonModels.CheckTransition(from, to); err != nil {
		return err
	}
	ok, err := r.compareAndSet(ctx, id, from, map[string]interface{}{
		"status":              string(to),
		"error_message":       update.ErrorMessage,
		"chunk_count":         update.ChunkCount,
		"indexed_chunk_count": update.IndexedChunkCount,
	})
	if err != nil {
		return err
	}
	if !ok {
		if _, err := r.GetById(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: document %s is no longer %s", commonModels.ErrInvalidTransition, id, from)
	}
	return nil
}

// compareAndSet is a conditional UPDATE; zero affected rows means the status had already moved.
func (r *DocumentRepository) compareAndSet(ctx context.Context, id string, from commonModels.DocumentStatus, values map[string]interface{}) (bool, error) {
	values["updated_at"] = r.now().UTC()
	res := r.db.WithContext(ctx).Model(&documentRecord{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(values)
	if res.Error != nil {
		return false, fmt.Errorf("%w: updating document status: %w", commonModels.ErrTransient, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *DocumentRepository) GetSelected(ctx context.Context, ids []string, ownerId string) ([]commonModels.Document, error) {
	if len(ids) == 0 || ownerId == "" {
		return []commonModels.Document{}, nil
	}
	var records []documentRecord
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Where("owner_id = ?", ownerId).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: reading documents: %w", commonModels.ErrTransient, err)
	}

	byId := make(map[string]documentRecord, len(records))
	for _, rec := range records {
		byId[rec.Id] = rec
	}
	docs := make([]commonModels.Document, 0, len(records))
	for _, id := range ids {
		if rec, ok := byId[id]; ok {
			docs = append(docs, rec.toDocument())
			delete(byId, id)
		}
	}
	return docs, nil
}

func (r *DocumentRepository) ListByStatus(ctx context.Context, status commonModels.DocumentStatus) ([]commonModels.Document, error) {
	var records []documentRecord
	err := r.db.WithContext(ctx).Where("status = ?", string(status)).Order("created_at").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: listing documents: %w", commonModels.ErrTransient, err)
	}
	docs := make([]commonModels.Document, 0, len(records))
	for _, rec := range records {
		docs = append(docs, rec.toDocument())
	}
	return docs, nil
}
