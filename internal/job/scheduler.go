package job

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/jobModel"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

type SchedulerOptions struct {
	PollInterval    time.Duration
	PromoteInterval time.Duration
}

type recurringJob struct {
	name     string
	interval time.Duration
	factory  func() jobModel.Job
}

// Scheduler moves work from the durable queue into the worker pool.
// It runs three kinds of loops: the queue poller, the delayed job promoter and one loop per recurring job.
type Scheduler struct {
	service   *Service
	opts      SchedulerOptions
	recurring []recurringJob
	queues    []string
	wg        sync.WaitGroup
	now       func() time.Time
	logger    *logger_i.Logger
}

func NewScheduler(service *Service, opts SchedulerOptions) *Scheduler {
	if opts.PollInterval <= 0 {
		opts.PollInterval = config.QueuePollInterval
	}
	if opts.PromoteInterval <= 0 {
		opts.PromoteInterval = config.DelayedPromoteInterval
	}
	return &Scheduler{
		service: service,
		opts:    opts,
		queues:  []string{config.QueueProcessing, config.QueueDefault},
		now:     time.Now,
		logger:  logger_i.NewLogger("Scheduler"),
	}
}

// Recurring registers a job built by factory every interval. Must be called before Start.
func (s *Scheduler) Recurring(name string, interval time.Duration, factory func() jobModel.Job) {
	s.recurring = append(s.recurring, recurringJob{name: name, interval: interval, factory: factory})
}

// Start puts back jobs a previous run left in flight and starts the loops. They stop when ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	if n, err := s.service.Queue.RequeueInFlight(ctx); err != nil {
		s.logger.Error("Could not requeue in-flight jobs", "err", err)
	} else if n > 0 {
		s.logger.Info("Requeued jobs from the previous run", "count", n)
	}

	s.loop(ctx, "poller", s.opts.PollInterval, func(ctx context.Context) { s.drain(ctx) })
	s.loop(ctx, "promoter", s.opts.PromoteInterval, s.promote)
	for _, r := range s.recurring {
		s.loop(ctx, r.name, r.interval, func(ctx context.Context) { s.submitRecurring(ctx, r) })
	}
	s.logger.Info("Scheduler started", "recurring", len(s.recurring))
}

// Wait blocks until every loop has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, tick func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("loop stopped", "loop", name)
				return
			case <-ticker.C:
				tick(ctx)
			}
		}
	}()
}

// drain dequeues until the queues are empty. A job dequeued while shutting
// down stays in flight and is requeued on the next start.
func (s *Scheduler) drain(ctx context.Context) int {
	n := 0
	for ctx.Err() == nil {
		job, ok, err := s.service.Queue.Dequeue(ctx, s.queues...)
		if err != nil {
			s.logger.Error("Dequeue failed", "err", err)
			return n
		}
		if !ok {
			return n
		}
		if !s.service.dispatch(ctx, job) {
			return n
		}
		n++
	}
	return n
}

func (s *Scheduler) promote(ctx context.Context) {
	if _, err := s.service.Queue.PromoteDue(ctx, s.now()); err != nil {
		s.logger.Error("Promoting delayed jobs failed", "err", err)
	}
}

func (s *Scheduler) submitRecurring(ctx context.Context, r recurringJob) {
	job, err := s.service.Submit(ctx, r.factory(), 0)
	if err != nil {
		s.logger.Error("Recurring job not queued", "name", r.name, "err", err)
		return
	}
	s.logger.Debug("Recurring job queued", "name", r.name, "jobId", job.Id)
}
