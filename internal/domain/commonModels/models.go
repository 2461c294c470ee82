package commonModels

import (
	"context"
	"time"
)

type Document struct {
	Id                string         `json:"document_id"`
	OwnerId           string         `json:"owner_id"`
	FileName          string         `json:"file_name"`
	StoragePath       string         `json:"storage_path"`
	Size              int64          `json:"size"`
	Status            DocumentStatus `json:"status"`
	ErrorMessage      string         `json:"error_message,omitempty"`
	ChunkCount        int            `json:"chunk_count"`
	IndexedChunkCount int            `json:"indexed_chunk_count"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	// NotBefore is set for delayed ingestion; zero means as soon as possible.
	NotBefore time.Time `json:"not_before,omitempty"`
}

// DueAt is when ingestion of a Pending document was meant to start.
func (d Document) DueAt() time.Time {
	if d.NotBefore.After(d.CreatedAt) {
		return d.NotBefore
	}
	return d.CreatedAt
}

// DocChunk is one slice of a document, written once by ingestion and owned by the vector index.
type DocChunk struct {
	DocumentId string `json:"document_id"`
	DocName    string `json:"doc_name"`
	Sequence   int    `json:"sequence"`
	Text       string `json:"content"`
}

// SearchResult lives for the duration of a single query.
type SearchResult struct {
	Text       string  `json:"content"`
	Score      float32 `json:"score"`
	DocumentId string  `json:"document_id"`
	Sequence   int     `json:"sequence"`
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"

// StatusUpdate carries the optional fields written alongside a status transition.
type StatusUpdate struct {
	ErrorMessage      string
	ChunkCount        int
	IndexedChunkCount int
}

type DocumentStore interface {
	Create(ctx context.Context, doc Document) error
	GetById(ctx context.Context, id string) (Document, error)
	// ClaimForProcessing atomically moves a Pending document to Processing.
	// It returns ErrAlreadyClaimed when the document is in any other state.
	ClaimForProcessing(ctx context.Context, id string) (Document, error)
	UpdateStatus(ctx context.Context, id string, from DocumentStatus, to DocumentStatus, update StatusUpdate) error
	GetSelected(ctx context.Context, ids []string, ownerId string) ([]Document, error)
	ListByStatus(ctx context.Context, status DocumentStatus) ([]Document, error)
}
