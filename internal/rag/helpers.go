package rag

import (
	"context"
	"time"

	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/domain/jobModel"
	"github.com/akolanti/DocuMind/internal/metrics"
	"github.com/akolanti/DocuMind/internal/rag/prompt"
	"github.com/akolanti/DocuMind/internal/rag/retrieval"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

func returnOutput(job jobModel.Job, ans string) jobModel.Job {
	job.JobPayload.Answer = ans
	job.CurrentStep = jobModel.Complete
	job.Status = jobModel.JobStatusComplete
	job.EndTime = time.Now()
	return job
}

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("ProcessRequest", "Current Status", job.CurrentStep)
	return job
}

// step records progress on the job when the call came from a worker.
func step(job *jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) {
	if job == nil {
		log.Debug("AskQuestion", "Current Status", status)
		return
	}
	*job = logOutput(*job, status, log)
}

func (s *service) jobError(job jobModel.Job, err error, message string, canRetry bool) jobModel.Job {
	s.logger.Error(message, "jobId", job.Id, "step", job.CurrentStep, "error", err)

	job.Error = jobModel.JobError{
		Code:    errorCode(err),
		Message: message,
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	job.EndTime = time.Now()
	return job
}

func (s *service) executeClassifyStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, question string) chatModel.Intent {
	step(job, jobModel.ClassifyCall, log)
	return s.classifier.Classify(ctx, question)
}

func (s *service) executeRetrievalStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, req retrieval.Request) (string, error) {
	step(job, jobModel.RetrievalCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("retrieval", time.Since(start)) }()

	return s.retriever.Retrieve(ctx, req)
}

func (s *service) executeHistoryStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, sessionId string) ([]string, error) {
	step(job, jobModel.HistoryCall, log)

	messages, err := s.sessions.GetRecentMessages(ctx, sessionId, s.historySize)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, m.HistoryLine())
	}
	return lines, nil
}

func (s *service) executePromptStep(log *logger_i.Logger, job *jobModel.Job, intent chatModel.Intent, question string, docContext string, history []string) string {
	step(job, jobModel.PromptComposition, log)
	return prompt.Compose(intent, question, docContext, history)
}

func (s *service) executeLLMStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, fullPrompt string) (string, error) {
	step(job, jobModel.LLMCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.llmProvider.Complete(ctx, fullPrompt)
}
