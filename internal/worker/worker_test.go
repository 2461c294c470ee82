package worker

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/data/queue"
	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/domain/jobModel"
	"github.com/akolanti/DocuMind/internal/job"
)

// MockRagService to track if jobs are executed
type MockRagService struct {
	ProcessedCount   int32
	OnProcessRequest func(ctx context.Context, j jobModel.Job) jobModel.Job
	OnIngestDocument func(ctx context.Context, j jobModel.Job) jobModel.Job
}

func (m *MockRagService) AskQuestion(ctx context.Context, req chatModel.AskRequest) chatModel.AnswerResult {
	return chatModel.AnswerResult{}
}

func (m *MockRagService) ProcessRequest(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.ProcessedCount, 1)
	if m.OnProcessRequest != nil {
		return m.OnProcessRequest(ctx, j)
	}
	j.Status = jobModel.JobStatusComplete
	j.CurrentStep = jobModel.Complete
	return j
}

func (m *MockRagService) IngestDocument(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.ProcessedCount, 1)
	if m.OnIngestDocument != nil {
		return m.OnIngestDocument(ctx, j)
	}
	j.Status = jobModel.JobStatusComplete
	j.CurrentStep = jobModel.Complete
	return j
}

type MockJobStore struct {
	mu     sync.Mutex
	saved  []jobModel.Job
	OnSave func(ctx context.Context, job jobModel.Job) error
}

func (m *MockJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].Id == jobId {
			return m.saved[i], true
		}
	}
	return jobModel.Job{}, false
}

func (m *MockJobStore) DeleteJob(ctx context.Context, jobID string) {}

func (m *MockJobStore) SaveJob(ctx context.Context, j jobModel.Job) error {
	m.mu.Lock()
	m.saved = append(m.saved, j)
	m.mu.Unlock()
	if m.OnSave != nil {
		return m.OnSave(ctx, j)
	}
	return nil
}

func (m *MockJobStore) statuses(id string) []jobModel.JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []jobModel.JobStatus
	for _, j := range m.saved {
		if j.Id == id {
			out = append(out, j.Status)
		}
	}
	return out
}

type MockCleanup struct {
	OnRun func(ctx context.Context) (job.CleanupReport, error)
}

func (m *MockCleanup) Run(ctx context.Context) (job.CleanupReport, error) {
	if m.OnRun != nil {
		return m.OnRun(ctx)
	}
	return job.CleanupReport{}, nil
}

func newJobService(jobStore jobModel.JobStore, q jobModel.Queue) *job.Service {
	return job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          jobStore,
		Queue:             q,
	})
}

func TestWorkerPool_Flow(t *testing.T) {
	// 1. Setup
	jobSvc := newJobService(&MockJobStore{}, queue.NewMemoryQueue())
	mockRag := &MockRagService{}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	// Reset global state for test
	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, 1)
	atomic.StoreInt64(&maxWorkerCount, 3)
	idleTimeout = time.Minute

	InitServices(jobSvc, mockRag, &MockCleanup{})
	InitWorkerPool(stopChan, wg)

	t.Run("Pool starts with the minimum", func(t *testing.T) {
		if count := atomic.LoadInt64(&currentWorkerCount); count != 1 {
			t.Errorf("Expected 1 worker, got %d", count)
		}
	})

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		jobSvc.DispatcherChannel <- true
		time.Sleep(50 * time.Millisecond)

		if count := atomic.LoadInt64(&currentWorkerCount); count < 2 {
			t.Errorf("Expected at least 2 workers, got %d", count)
		}
	})

	t.Run("Dispatcher respects the maximum", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			jobSvc.DispatcherChannel <- true
		}
		time.Sleep(50 * time.Millisecond)

		if count := atomic.LoadInt64(&currentWorkerCount); count > 3 {
			t.Errorf("Expected at most 3 workers, got %d", count)
		}
	})

	t.Run("Worker processes a job", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "test-1", JobType: jobModel.JobTypeQuery}
		time.Sleep(50 * time.Millisecond)

		if processed := atomic.LoadInt32(&mockRag.ProcessedCount); processed != 1 {
			t.Errorf("Expected 1 job processed, got %d", processed)
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestWorker_IdleTimeout(t *testing.T) {
	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, 0)
	idleTimeout = 50 * time.Millisecond
	defer func() {
		atomic.StoreInt64(&minWorkerCount, config.MinWorkerCount)
		idleTimeout = config.IdleWorkerTimeout
	}()

	jobSvc := newJobService(&MockJobStore{}, queue.NewMemoryQueue())
	InitServices(jobSvc, &MockRagService{}, nil)
	workerWaitGroup = &sync.WaitGroup{}
	stopWorkerChannel = make(chan bool)

	createWorker()
	time.Sleep(300 * time.Millisecond)

	if count := atomic.LoadInt64(&currentWorkerCount); count != 0 {
		t.Errorf("Worker should have timed out and retired, but count is %d", count)
	}
}

func TestWorker_IdleKeepsMinimum(t *testing.T) {
	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, 1)
	idleTimeout = 20 * time.Millisecond
	defer func() { idleTimeout = config.IdleWorkerTimeout }()

	jobSvc := newJobService(&MockJobStore{}, queue.NewMemoryQueue())
	InitServices(jobSvc, &MockRagService{}, nil)
	wg := &sync.WaitGroup{}
	workerWaitGroup = wg
	stop := make(chan bool)
	stopWorkerChannel = stop

	createWorker()
	time.Sleep(150 * time.Millisecond)
	if count := atomic.LoadInt64(&currentWorkerCount); count != 1 {
		t.Errorf("the last worker should stay, count is %d", count)
	}
	close(stop)
	wg.Wait()
}

func TestExecuteJob_ByType(t *testing.T) {
	tests := []struct {
		name       string
		job        jobModel.Job
		wantStatus jobModel.JobStatus
		wantRag    int32
		wantClean  int32
	}{
		{"query", jobModel.Job{Id: "q1", JobType: jobModel.JobTypeQuery}, jobModel.JobStatusComplete, 1, 0},
		{"ingest", jobModel.Job{Id: "i1", JobType: jobModel.JobTypeIngest, Queue: config.QueueProcessing}, jobModel.JobStatusComplete, 1, 0},
		{"cleanup", jobModel.Job{Id: "c1", JobType: jobModel.JobTypeCleanup}, jobModel.JobStatusComplete, 0, 1},
		{"unknown", jobModel.Job{Id: "u1", JobType: "Mystery"}, jobModel.JobStatusError, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockJobStore{}
			q := queue.NewMemoryQueue()
			_ = q.Enqueue(context.Background(), tt.job)
			dequeued, _, _ := q.Dequeue(context.Background(), config.QueueProcessing, config.QueueDefault)

			rag := &MockRagService{}
			var cleanups int32
			cleanup := &MockCleanup{OnRun: func(ctx context.Context) (job.CleanupReport, error) {
				atomic.AddInt32(&cleanups, 1)
				return job.CleanupReport{TimedOut: 2}, nil
			}}
			InitServices(newJobService(store, q), rag, cleanup)

			executeJob(dequeued)

			statuses := store.statuses(tt.job.Id)
			if len(statuses) != 2 || statuses[0] != jobModel.JobStatusRunning || statuses[1] != tt.wantStatus {
				t.Errorf("saved statuses = %v, want [RUNNING %s]", statuses, tt.wantStatus)
			}
			if rag.ProcessedCount != tt.wantRag || cleanups != tt.wantClean {
				t.Errorf("rag calls = %d, cleanup calls = %d", rag.ProcessedCount, cleanups)
			}
			if n, _ := q.RequeueInFlight(context.Background()); n != 0 {
				t.Errorf("job was not acked, %d left in flight", n)
			}
		})
	}
}

func TestExecuteJob_CleanupReport(t *testing.T) {
	store := &MockJobStore{}
	InitServices(newJobService(store, queue.NewMemoryQueue()), &MockRagService{}, &MockCleanup{
		OnRun: func(ctx context.Context) (job.CleanupReport, error) {
			return job.CleanupReport{TimedOut: 1, Requeued: 2}, errors.New("janitor failed")
		},
	})

	executeJob(jobModel.Job{Id: "c2", JobType: jobModel.JobTypeCleanup})

	got, _ := store.GetJob(context.Background(), "c2")
	if got.Status != jobModel.JobStatusError || got.Error.Code != http.StatusInternalServerError {
		t.Errorf("unexpected job %+v", got)
	}
	if got.JobPayload.Answer != "timed out 1, requeued 2, files removed 0" {
		t.Errorf("report = %q", got.JobPayload.Answer)
	}
}

func TestExecuteJob_Retry(t *testing.T) {
	failing := func(retry bool) func(ctx context.Context, j jobModel.Job) jobModel.Job {
		return func(ctx context.Context, j jobModel.Job) jobModel.Job {
			j.Status = jobModel.JobStatusError
			j.CurrentStep = jobModel.Error
			j.Error = jobModel.JobError{Code: 500, Message: "Failed to generate an answer", Retry: retry}
			return j
		}
	}

	tests := []struct {
		name      string
		attempt   int
		retry     bool
		wantRetry bool
	}{
		{"transient first attempt", 0, true, true},
		{"not retryable", 0, false, false},
		{"attempts used up", maxAttempts - 1, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockJobStore{}
			q := queue.NewMemoryQueue()
			InitServices(newJobService(store, q), &MockRagService{OnProcessRequest: failing(tt.retry)}, nil)

			executeJob(jobModel.Job{Id: "r1", JobType: jobModel.JobTypeQuery, Attempt: tt.attempt})

			_, _ = q.PromoteDue(context.Background(), time.Now().Add(time.Hour))
			requeued, ok, _ := q.Dequeue(context.Background(), config.QueueDefault)
			if ok != tt.wantRetry {
				t.Fatalf("requeued = %v, want %v", ok, tt.wantRetry)
			}

			saved, _ := store.GetJob(context.Background(), "r1")
			if tt.wantRetry {
				if saved.Status != jobModel.JobStatusQueued || requeued.Attempt != tt.attempt+1 {
					t.Errorf("saved status %s, requeued attempt %d", saved.Status, requeued.Attempt)
				}
				return
			}
			if saved.Status != jobModel.JobStatusError {
				t.Errorf("saved status = %s, want Error", saved.Status)
			}
		})
	}
}
