package worker

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/jobModel"
	"github.com/akolanti/DocuMind/internal/metrics"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

func executeJob(job jobModel.Job) {
	start := time.Now()
	defer func() {
		// Record total time at the end
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, jobTimeout)
	defer cancel()
	log := logger.With("traceId", job.TraceId, "jobId", job.Id, "type", job.JobType)
	log.Debug("Processing job")

	job.Attempt++
	job.Error = jobModel.JobError{}
	saveJobState(ctx, job, jobModel.JobStatusRunning, log)

	switch job.JobType {
	case jobModel.JobTypeIngest:
		job.CurrentStep = jobModel.IngestProcessing
		job = _ragService.IngestDocument(ctx, job)
	case jobModel.JobTypeQuery:
		job = _ragService.ProcessRequest(ctx, job)
	case jobModel.JobTypeCleanup:
		job = runCleanup(ctx, job, log)
	default:
		log.Error("Unknown job type")
		job.Status = jobModel.JobStatusError
		job.CurrentStep = jobModel.Error
		job.Error = jobModel.JobError{Code: http.StatusBadRequest, Message: "Unknown job type"}
		job.EndTime = time.Now()
	}

	// the job context may be spent by now, the bookkeeping still has to land
	finishCtx, finishCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer finishCancel()

	if err := _jobService.Queue.Ack(finishCtx, job); err != nil {
		log.Error("Failed to ack job", "err", err)
	}
	if shouldRetry(job) {
		retryJob(finishCtx, job, log)
		return
	}
	saveJobState(finishCtx, job, job.Status, log)
	log.Info("Job finished", "status", job.Status, "step", job.CurrentStep, "attempt", job.Attempt)
}

func shouldRetry(job jobModel.Job) bool {
	return job.Status == jobModel.JobStatusError && job.Error.Retry && job.Attempt < maxAttempts
}

// retryJob puts the job back on its queue with a linear backoff.
func retryJob(ctx context.Context, job jobModel.Job, log *logger_i.Logger) {
	delay := time.Duration(job.Attempt) * retryBackoff
	log.Warn("Retrying job", "attempt", job.Attempt, "delay", delay, "reason", job.Error.Message)

	job.Status = jobModel.JobStatusQueued
	job.EndTime = time.Time{}
	if err := _jobService.Queue.ScheduleDelayed(ctx, job, delay); err != nil {
		log.Error("Failed to schedule retry", "err", err)
		job.Status = jobModel.JobStatusError
		job.Error.Retry = false
	}
	saveJobState(ctx, job, job.Status, log)
}

func runCleanup(ctx context.Context, job jobModel.Job, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = jobModel.CleanupRunning
	if _cleanup == nil {
		log.Warn("No cleanup configured")
		job.CurrentStep = jobModel.Complete
		job.Status = jobModel.JobStatusComplete
		job.EndTime = time.Now()
		return job
	}

	report, err := _cleanup.Run(ctx)
	job.JobPayload.Answer = report.String()
	job.EndTime = time.Now()
	if err != nil {
		job.Status = jobModel.JobStatusError
		job.CurrentStep = jobModel.Error
		job.Error = jobModel.JobError{Code: http.StatusInternalServerError, Message: err.Error()}
		return job
	}
	job.CurrentStep = jobModel.Complete
	job.Status = jobModel.JobStatusComplete
	return job
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	logger.Info("Removed worker", "reason", reason, "workerCount", atomic.LoadInt64(&currentWorkerCount))
	metrics.DecrementActiveWorkerCount()
}

func saveJobState(ctx context.Context, job jobModel.Job, jobStatus jobModel.JobStatus, log *logger_i.Logger) {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		log.Error("Failed to save job state", "err", err)
	}
}
