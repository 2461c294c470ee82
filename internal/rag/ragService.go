package rag

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/domain/jobModel"
	"github.com/akolanti/DocuMind/internal/metrics"
	"github.com/akolanti/DocuMind/internal/rag/llm"
	"github.com/akolanti/DocuMind/internal/rag/retrieval"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

/*
Service is the only thing workers, handlers and the MCP server see.
The private service struct owns the stores and clients; callers never
reach the retriever or the llm directly, which keeps them swappable in tests.
*/
type Service interface {
	AskQuestion(ctx context.Context, req chatModel.AskRequest) chatModel.AnswerResult
	ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
}

type IntentClassifier interface {
	Classify(ctx context.Context, question string) chatModel.Intent
}

type ContextRetriever interface {
	Retrieve(ctx context.Context, req retrieval.Request) (string, error)
}

type DocumentIngestor interface {
	ProcessDocument(ctx context.Context, documentId string) error
}

type Dependencies struct {
	Sessions   chatModel.SessionStore
	Classifier IntentClassifier
	Retriever  ContextRetriever
	LLM        llm.Provider
	Ingestor   DocumentIngestor
	// HistorySize defaults to config.RecentMessageCount.
	HistorySize int
}

type service struct {
	sessions    chatModel.SessionStore
	classifier  IntentClassifier
	retriever   ContextRetriever
	llmProvider llm.Provider
	ingestor    DocumentIngestor
	historySize int
	logger      *logger_i.Logger
}

func NewService(deps Dependencies) Service {
	if deps.HistorySize <= 0 {
		deps.HistorySize = config.RecentMessageCount
	}
	return &service{
		sessions:    deps.Sessions,
		classifier:  deps.Classifier,
		retriever:   deps.Retriever,
		llmProvider: deps.LLM,
		ingestor:    deps.Ingestor,
		historySize: deps.HistorySize,
		logger:      logger_i.NewLogger("RAG Service"),
	}
}

const (
	msgEmptyQuestion   = "Question must not be empty"
	msgSessionNotFound = "Chat session not found"
	msgRetrieval       = "Failed to retrieve context from the documents"
	msgHistory         = "Failed to load the conversation history"
	msgGeneration      = "Failed to generate an answer"
	msgCancelled       = "Request was cancelled"
)

// AskQuestion never returns an error: every failure is reported in the result.
func (s *service) AskQuestion(ctx context.Context, req chatModel.AskRequest) chatModel.AnswerResult {
	result, _ := s.ask(ctx, req, nil)
	return result
}

func (s *service) ask(ctx context.Context, req chatModel.AskRequest, job *jobModel.Job) (chatModel.AnswerResult, error) {
	log := s.logger.With("traceId", config.TraceId(ctx), "sessionId", req.SessionId)
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("answer_total", time.Since(start)) }()

	if strings.TrimSpace(req.Question) == "" {
		return chatModel.Failure(msgEmptyQuestion), commonModels.NewValidationError(commonModels.ErrValidation, "empty question")
	}

	session, err := s.sessions.GetSession(ctx, req.SessionId)
	if err != nil {
		log.Warn("session lookup failed", "error", err)
		if commonModels.IsNotFound(err) {
			return chatModel.Failure(msgSessionNotFound), err
		}
		return chatModel.Failure(msgHistory), err
	}
	documentIds := req.DocumentIds
	if len(documentIds) == 0 {
		documentIds = session.DocumentIds
	}

	intent := s.executeClassifyStep(ctx, log, job, req.Question)
	if err := ctx.Err(); err != nil {
		return chatModel.Failure(msgCancelled), err
	}

	docContext, err := s.executeRetrievalStep(ctx, log, job, retrieval.Request{
		Intent:      intent,
		Question:    req.Question,
		SessionId:   session.Id,
		OwnerId:     session.OwnerId,
		DocumentIds: documentIds,
	})
	if err != nil {
		log.Error("retrieval failed", "intent", intent, "error", err)
		return chatModel.Failure(failureMessage(err, msgRetrieval)), err
	}

	history, err := s.executeHistoryStep(ctx, log, job, session.Id)
	if err != nil {
		log.Error("history failed", "error", err)
		return chatModel.Failure(failureMessage(err, msgHistory)), err
	}

	prompt := s.executePromptStep(log, job, intent, req.Question, docContext, history)
	if err := ctx.Err(); err != nil {
		return chatModel.Failure(msgCancelled), err
	}

	answer, err := s.executeLLMStep(ctx, log, job, prompt)
	if err != nil {
		log.Error("generation failed", "error", err)
		return chatModel.Failure(failureMessage(err, msgGeneration)), err
	}

	elapsed := time.Since(start)
	log.Info("question answered", "intent", intent, "elapsedMs", elapsed.Milliseconds())
	return chatModel.Success(answer, intent, elapsed), nil
}

// ProcessRequest is the worker entry point for queued chat jobs.
func (s *service) ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.logger.With("traceId", config.TraceId(ctx), "JobId", job.Id)
	job = logOutput(job, jobModel.UserQueryInit, log)

	result, err := s.ask(ctx, chatModel.AskRequest{
		SessionId:   job.SessionId,
		Question:    job.JobPayload.Question,
		DocumentIds: job.JobPayload.DocumentIds,
	}, &job)
	if err != nil {
		return s.jobError(job, err, result.Message, isRetryable(err))
	}

	job = logOutput(job, jobModel.SessionSave, log)
	s.saveExchange(ctx, log, job.SessionId, job.JobPayload.Question, result.Answer)

	job.JobPayload.Intent = string(result.Intent)
	job.JobPayload.ElapsedMs = result.ElapsedMs
	return returnOutput(job, result.Answer)
}

// IngestDocument hands the job's document to the ingestion orchestrator.
func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.logger.With("traceId", config.TraceId(ctx), "JobId", job.Id, "documentId", job.DocumentId)
	job = logOutput(job, jobModel.IngestProcessing, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("Document_ingestion", time.Since(start)) }()

	err := s.ingestor.ProcessDocument(ctx, job.DocumentId)
	if errors.Is(err, commonModels.ErrAlreadyClaimed) {
		log.Info("document handled by another worker")
		return returnOutput(job, "")
	}
	if err != nil {
		return s.jobError(job, err, "Document ingestion failed", false)
	}
	return returnOutput(job, "")
}

func (s *service) saveExchange(ctx context.Context, log *logger_i.Logger, sessionId string, question string, answer string) {
	now := time.Now().UTC()
	messages := []chatModel.ChatMessage{
		{SessionId: sessionId, IsFromUser: true, Content: question, Timestamp: now},
		{SessionId: sessionId, IsFromUser: false, Content: answer, Timestamp: now},
	}
	for _, m := range messages {
		if err := s.sessions.AppendMessage(ctx, m); err != nil {
			log.Error("Failed to save message", "isFromUser", m.IsFromUser, "error", err)
			return
		}
	}
}

func failureMessage(err error, fallback string) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return msgCancelled
	}
	return fallback
}

func isRetryable(err error) bool {
	return commonModels.IsTransient(err)
}

func errorCode(err error) int {
	switch {
	case commonModels.IsNotFound(err):
		return http.StatusNotFound
	case commonModels.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
