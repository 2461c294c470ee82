package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id         string            `json:"id" example:"4b7f0c1e-2a8d-4c11-9a55-6c0e2b9d1f3a"`
	Type       string            `json:"type,omitempty" example:"Query"`
	SessionId  string            `json:"session_id,omitempty" example:"session_550"`
	DocumentId string            `json:"document_id,omitempty"`
	Result     Result            `json:"result"`
	Error      *JobOutgoingError `json:"error,omitempty"`
	StartTime  time.Time         `json:"start_time"`
	EndTime    time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type RAGResponse struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Intent    string `json:"intent,omitempty" example:"QA"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

type Result struct {
	Status              string       `json:"status"`
	Step                string       `json:"step,omitempty"`
	RAGExternalResponse *RAGResponse `json:"rag_response,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type UploadResponse struct {
	DocumentId  string `json:"document_id"`
	JobId       string `json:"job_id,omitempty"`
	Status      string `json:"status" example:"Pending"`
	DocumentURL string `json:"document_url"`
	StatusURL   string `json:"status_url,omitempty"`
}

type DocumentResponse struct {
	Id                string    `json:"document_id"`
	OwnerId           string    `json:"owner_id"`
	FileName          string    `json:"file_name"`
	Size              int64     `json:"size"`
	Status            string    `json:"status" example:"Ready"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	ChunkCount        int       `json:"chunk_count"`
	IndexedChunkCount int       `json:"indexed_chunk_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type SessionResponse struct {
	Id        string             `json:"session_id"`
	OwnerId   string             `json:"owner_id"`
	Title     string             `json:"title"`
	Documents []DocumentResponse `json:"documents"`
	CreatedAt time.Time          `json:"created_at"`
}

type MessageResponse struct {
	IsFromUser bool      `json:"is_from_user"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

type MessagesResponse struct {
	SessionId string            `json:"session_id"`
	Messages  []MessageResponse `json:"messages"`
}

type AskResponse struct {
	Success   bool   `json:"success"`
	Answer    string `json:"answer,omitempty"`
	Intent    string `json:"intent,omitempty" example:"SUMMARY"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Message   string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string           `json:"status" example:"ok"`
	Queues map[string]int64 `json:"queues,omitempty"`
}

// requests---------------------

type ChatRequest struct {
	SessionId   string   `json:"session_id" validate:"required"`
	Message     string   `json:"message" validate:"required"`
	DocumentIds []string `json:"document_ids,omitempty"`
}

type CreateSessionRequest struct {
	OwnerId     string   `json:"owner_id"`
	Title       string   `json:"title"`
	DocumentIds []string `json:"document_ids,omitempty"`
}
