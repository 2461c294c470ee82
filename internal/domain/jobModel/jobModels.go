package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	UserQueryInit     InternalStatus = "Init"
	ClassifyCall      InternalStatus = "Classify"
	RetrievalCall     InternalStatus = "Retrieval"
	HistoryCall       InternalStatus = "History"
	PromptComposition InternalStatus = "Prompt"
	LLMCall           InternalStatus = "LLM"
	SessionSave       InternalStatus = "SessionSave"

	IngestInit       InternalStatus = "IngestInit"
	IngestProcessing InternalStatus = "IngestProcessing"
	CleanupInit      InternalStatus = "CleanupInit"
	CleanupRunning   InternalStatus = "Cleanup"
	Error            InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeQuery   JobType = "Query"
	JobTypeIngest  JobType = "Ingest"
	JobTypeCleanup JobType = "Cleanup"
)

type Job struct {
	Id          string         `json:"id"`
	Queue       string         `json:"queue"`
	SessionId   string         `json:"session_id,omitempty"`
	DocumentId  string         `json:"document_id,omitempty"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	Attempt     int            `json:"attempt"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	Question    string   `json:"question,omitempty"`
	DocumentIds []string `json:"document_ids,omitempty"`
	Answer      string   `json:"answer,omitempty"`
	Intent      string   `json:"intent,omitempty"`
	ElapsedMs   int64    `json:"elapsed_ms,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

// Queue is a durable, at-least-once job queue. A dequeued job stays in flight until Ack.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	ScheduleDelayed(ctx context.Context, job Job, delay time.Duration) error
	// Dequeue checks the queues in the given order and returns the first job found.
	Dequeue(ctx context.Context, queues ...string) (Job, bool, error)
	Ack(ctx context.Context, job Job) error
	// PromoteDue moves delayed jobs whose time has come onto their queue.
	PromoteDue(ctx context.Context, now time.Time) (int, error)
	// RequeueInFlight puts back jobs that were dequeued but never acked.
	RequeueInFlight(ctx context.Context) (int, error)
	Depth(ctx context.Context, queue string) (int64, error)
}
