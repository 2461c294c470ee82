package job

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/jobModel"
	"github.com/akolanti/DocuMind/internal/metrics"
	"github.com/akolanti/DocuMind/pkg/logger_i"
	"github.com/google/uuid"
)

// Service is shared by the handlers, the scheduler and the worker pool.
// Jobs go to the durable Queue first; the scheduler feeds JobChannel from it.
type Service struct {
	JobChannel           chan jobModel.Job
	RequestCount         int64
	DispatcherChannel    chan bool
	JobStore             jobModel.JobStore
	Queue                jobModel.Queue
	RequestsPerNewWorker int64
	logger               *logger_i.Logger
}

type ServiceConfig struct {
	JobChannel           chan jobModel.Job
	RequestCount         int64
	DispatcherChannel    chan bool
	JobStore             jobModel.JobStore
	Queue                jobModel.Queue
	RequestsPerNewWorker int64
}

func InitJobService(cfg ServiceConfig) *Service {
	if cfg.RequestsPerNewWorker <= 0 {
		cfg.RequestsPerNewWorker = config.RequestsPerNewWorkerCount
	}
	return &Service{
		JobChannel:           cfg.JobChannel,
		RequestCount:         cfg.RequestCount,
		DispatcherChannel:    cfg.DispatcherChannel,
		JobStore:             cfg.JobStore,
		Queue:                cfg.Queue,
		RequestsPerNewWorker: cfg.RequestsPerNewWorker,
		logger:               logger_i.NewLogger("JobService"),
	}
}

func NewQueryJob(sessionId string, question string, documentIds []string, traceId string) jobModel.Job {
	return jobModel.Job{
		Id:          uuid.NewString(),
		Queue:       config.QueueDefault,
		SessionId:   sessionId,
		TraceId:     traceId,
		JobType:     jobModel.JobTypeQuery,
		CurrentStep: jobModel.UserQueryInit,
		JobPayload: jobModel.JobPayload{
			Question:    question,
			DocumentIds: documentIds,
		},
	}
}

// NewIngestJob goes on the processing queue, which the poller checks first.
func NewIngestJob(documentId string, sessionId string, traceId string) jobModel.Job {
	return jobModel.Job{
		Id:          uuid.NewString(),
		Queue:       config.QueueProcessing,
		SessionId:   sessionId,
		DocumentId:  documentId,
		TraceId:     traceId,
		JobType:     jobModel.JobTypeIngest,
		CurrentStep: jobModel.IngestInit,
	}
}

func NewCleanupJob() jobModel.Job {
	return jobModel.Job{
		Id:          uuid.NewString(),
		Queue:       config.QueueDefault,
		TraceId:     uuid.NewString(),
		JobType:     jobModel.JobTypeCleanup,
		CurrentStep: jobModel.CleanupInit,
	}
}

// Submit records the job as queued and puts it on the durable queue, delayed when delay > 0.
func (s *Service) Submit(ctx context.Context, job jobModel.Job, delay time.Duration) (jobModel.Job, error) {
	if job.Id == "" {
		job.Id = uuid.NewString()
	}
	if job.CreatedTime.IsZero() {
		job.CreatedTime = time.Now()
	}
	job.Status = jobModel.JobStatusQueued
	log := s.logger.With("traceId", job.TraceId, "jobId", job.Id, "type", job.JobType)

	if err := s.JobStore.SaveJob(ctx, job); err != nil {
		log.Error("Failed to save queued job", "err", err)
		return job, fmt.Errorf("saving job %s: %w", job.Id, err)
	}

	var err error
	if delay > 0 {
		err = s.Queue.ScheduleDelayed(ctx, job, delay)
	} else {
		err = s.Queue.Enqueue(ctx, job)
	}
	if err != nil {
		log.Error("Failed to queue job", "err", err)
		return job, err
	}
	log.Info("Job queued", "queue", job.Queue, "delay", delay)
	return job, nil
}

// GetJob reads the last saved state of a job.
func (s *Service) GetJob(ctx context.Context, id string) (jobModel.Job, bool) {
	if id == "" {
		return jobModel.Job{}, false
	}
	return s.JobStore.GetJob(ctx, id)
}

// dispatch hands a dequeued job to the worker pool. The send blocks while
// the channel is full so a slow pool pushes back on the poller.
func (s *Service) dispatch(ctx context.Context, job jobModel.Job) bool {
	select {
	case s.JobChannel <- job:
	case <-ctx.Done():
		return false
	}
	metrics.IncrementJobsInQueue()

	//a new worker every N jobs, or right away for ingestion since it holds a worker for a while
	//idle workers retire on their own so this stays cheap
	count := atomic.AddInt64(&s.RequestCount, 1)
	if count%s.RequestsPerNewWorker == 0 || job.JobType == jobModel.JobTypeIngest {
		metrics.StartDispatcherSignalCount()
		select {
		case s.DispatcherChannel <- true:
		default:
			s.logger.Debug("dispatcher busy, skipping signal", "count", count)
		}
	}
	return true
}
