package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/akolanti/DocuMind/internal/domain/jobModel"
)

type delayedJob struct {
	job jobModel.Job
	due time.Time
}

// MemoryQueue is the single process fallback when redis is unavailable. Nothing survives a restart.
type MemoryQueue struct {
	mu       sync.Mutex
	queues   map[string][]jobModel.Job
	inFlight map[string]jobModel.Job
	delayed  []delayedJob
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		queues:   make(map[string][]jobModel.Job),
		inFlight: make(map[string]jobModel.Job),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job jobModel.Job) error {
	job, _, err := prepare(job)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queues[job.Queue] = append(q.queues[job.Queue], job)
	return nil
}

func (q *MemoryQueue) ScheduleDelayed(ctx context.Context, job jobModel.Job, delay time.Duration) error {
	if delay <= 0 {
		return q.Enqueue(ctx, job)
	}
	job, _, err := prepare(job)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.delayed = append(q.delayed, delayedJob{job: job, due: time.Now().Add(delay)})
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context, queues ...string) (jobModel.Job, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, name := range queues {
		pending := q.queues[name]
		if len(pending) == 0 {
			continue
		}
		job := pending[0]
		q.queues[name] = pending[1:]
		q.inFlight[job.Id] = job
		return job, true, nil
	}
	return jobModel.Job{}, false, nil
}

func (q *MemoryQueue) Ack(ctx context.Context, job jobModel.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inFlight, job.Id)
	return nil
}

func (q *MemoryQueue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	sort.SliceStable(q.delayed, func(i, j int) bool { return q.delayed[i].due.Before(q.delayed[j].due) })

	promoted := 0
	remaining := q.delayed[:0]
	for _, d := range q.delayed {
		if d.due.After(now) {
			remaining = append(remaining, d)
			continue
		}
		q.queues[d.job.Queue] = append(q.queues[d.job.Queue], d.job)
		promoted++
	}
	q.delayed = remaining
	return promoted, nil
}

func (q *MemoryQueue) RequeueInFlight(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for id, job := range q.inFlight {
		q.queues[job.Queue] = append([]jobModel.Job{job}, q.queues[job.Queue]...)
		delete(q.inFlight, id)
		n++
	}
	return n, nil
}

func (q *MemoryQueue) Depth(ctx context.Context, name string) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.queues[name])), nil
}
