package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/domain/jobModel"
	"github.com/akolanti/DocuMind/internal/job"
	"github.com/akolanti/DocuMind/internal/rag"
	"github.com/akolanti/DocuMind/internal/storage"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           = logger_i.NewLogger("JobHandler")
)

type Dependencies struct {
	Jobs      *job.Service
	Documents commonModels.DocumentStore
	Sessions  chatModel.SessionStore
	Files     storage.FileStorage
	Rag       rag.Service
	Ingestion config.IngestionSettings
}

type JobHandler struct {
	service   *job.Service
	documents commonModels.DocumentStore
	sessions  chatModel.SessionStore
	files     storage.FileStorage
	rag       rag.Service
	ingestion config.IngestionSettings
}

func InitJobHandler(deps Dependencies) {
	once.Do(func() {
		handlerInstance = newJobHandler(deps)
		logJH.Info("Starting job handler")
	})
}

func newJobHandler(deps Dependencies) *JobHandler {
	if deps.Ingestion.MaxFileSize <= 0 {
		deps.Ingestion.MaxFileSize = config.MaxFileSize
	}
	if len(deps.Ingestion.AllowedExtensions) == 0 {
		deps.Ingestion.AllowedExtensions = config.AllowedExtensions
	}
	return &JobHandler{
		service:   deps.Jobs,
		documents: deps.Documents,
		sessions:  deps.Sessions,
		files:     deps.Files,
		rag:       deps.Rag,
		ingestion: deps.Ingestion,
	}
}

// CreateQueryJob queues an asynchronous answer for the session.
func CreateQueryJob(ctx context.Context, sessionId string, question string, documentIds []string) (jobModel.Job, error) {
	log := logJH.With("traceId", config.TraceId(ctx), "sessionId", sessionId)
	log.Info("To create new query job")
	return handlerInstance.service.Submit(ctx, job.NewQueryJob(sessionId, question, documentIds, config.TraceId(ctx)), 0)
}

// CreateIngestJob queues ingestion of a stored document, delayed when delay > 0.
func CreateIngestJob(ctx context.Context, documentId string, sessionId string, delay time.Duration) (jobModel.Job, error) {
	log := logJH.With("traceId", config.TraceId(ctx), "documentId", documentId)
	log.Info("To create new ingest job", "delay", delay)
	return handlerInstance.service.Submit(ctx, job.NewIngestJob(documentId, sessionId, config.TraceId(ctx)), delay)
}

func GetJobStatus(ctx context.Context, id string) (result jobModel.Job, isFound bool) {
	if handlerInstance != nil {
		return handlerInstance.service.GetJob(ctx, id)
	}
	return result, false
}
