package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/data/queue"
	"github.com/akolanti/DocuMind/internal/data/redisStore"
	"github.com/akolanti/DocuMind/internal/data/store"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/domain/jobModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type MockJanitor struct {
	OnRemoveStale func(ctx context.Context, olderThan time.Duration) (int, error)
}

func (m *MockJanitor) RemoveStale(ctx context.Context, olderThan time.Duration) (int, error) {
	if m.OnRemoveStale != nil {
		return m.OnRemoveStale(ctx, olderThan)
	}
	return 0, nil
}

func newTestService(q jobModel.Queue) *Service {
	return InitJobService(ServiceConfig{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 1),
		JobStore:          store.InitInMemoryJobStore(),
		Queue:             q,
	})
}

func receive(t *testing.T, ch chan jobModel.Job) jobModel.Job {
	t.Helper()
	select {
	case j := <-ch:
		return j
	case <-time.After(2 * time.Second):
		t.Fatal("no job reached the worker channel")
		return jobModel.Job{}
	}
}

func TestSubmit_SavesAndQueues(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(queue.NewMemoryQueue())

	submitted, err := svc.Submit(ctx, NewQueryJob("s1", "what is it?", nil, "trace-1"), 0)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	saved, found := svc.GetJob(ctx, submitted.Id)
	if !found {
		t.Fatal("job was not saved")
	}
	if saved.Status != jobModel.JobStatusQueued || saved.CreatedTime.IsZero() {
		t.Errorf("unexpected saved job %+v", saved)
	}

	got, ok, err := svc.Queue.Dequeue(ctx, config.QueueDefault)
	if err != nil || !ok {
		t.Fatalf("Dequeue: ok=%v err=%v", ok, err)
	}
	if got.Id != submitted.Id || got.JobPayload.Question != "what is it?" {
		t.Errorf("queued job mismatch: %+v", got)
	}
}

func TestSubmit_Delayed(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(queue.NewMemoryQueue())

	if _, err := svc.Submit(ctx, NewIngestJob("d1", "s1", "t"), time.Hour); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, ok, _ := svc.Queue.Dequeue(ctx, config.QueueProcessing); ok {
		t.Fatal("delayed job was available immediately")
	}

	n, err := svc.Queue.PromoteDue(ctx, time.Now().Add(2*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("PromoteDue: n=%d err=%v", n, err)
	}
	got, ok, _ := svc.Queue.Dequeue(ctx, config.QueueProcessing)
	if !ok || got.DocumentId != "d1" {
		t.Errorf("expected the ingest job after promotion, got %+v ok=%v", got, ok)
	}
}

func TestGetJob_EmptyId(t *testing.T) {
	svc := newTestService(queue.NewMemoryQueue())
	if _, found := svc.GetJob(context.Background(), ""); found {
		t.Error("empty id should not be found")
	}
}

func TestScheduler_DrainProcessingFirst(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(queue.NewMemoryQueue())
	query, _ := svc.Submit(ctx, NewQueryJob("s1", "q", nil, "t"), 0)
	ingest, _ := svc.Submit(ctx, NewIngestJob("d1", "s1", "t"), 0)

	s := NewScheduler(svc, SchedulerOptions{})
	if n := s.drain(ctx); n != 2 {
		t.Fatalf("drained %d jobs, want 2", n)
	}

	if first := receive(t, svc.JobChannel); first.Id != ingest.Id {
		t.Errorf("first job = %s, want the ingest job", first.Id)
	}
	if second := receive(t, svc.JobChannel); second.Id != query.Id {
		t.Errorf("second job = %s, want the query job", second.Id)
	}

	select {
	case <-svc.DispatcherChannel:
	default:
		t.Error("an ingest job should signal the dispatcher")
	}
}

func TestScheduler_DrainStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := newTestService(queue.NewMemoryQueue())
	svc.JobChannel = make(chan jobModel.Job)
	_, _ = svc.Submit(context.Background(), NewQueryJob("s1", "q", nil, "t"), 0)

	s := NewScheduler(svc, SchedulerOptions{})
	done := make(chan int)
	go func() { done <- s.drain(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case n := <-done:
		if n != 0 {
			t.Errorf("drained %d, want 0", n)
		}
	case <-time.After(time.Second):
		t.Fatal("drain did not return after cancel")
	}
}

func TestScheduler_RequeuesInFlightOnStart(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q := queue.NewRedisQueue(redisStore.NewStore(client, config.RedisQueueStore))
	svc := newTestService(q)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	submitted, _ := svc.Submit(ctx, NewIngestJob("d1", "", "t"), 0)
	// a previous process took the job and died before acking it
	if _, ok, _ := q.Dequeue(ctx, config.QueueProcessing); !ok {
		t.Fatal("setup dequeue failed")
	}

	s := NewScheduler(svc, SchedulerOptions{PollInterval: 10 * time.Millisecond, PromoteInterval: 10 * time.Millisecond})
	s.Start(ctx)

	if got := receive(t, svc.JobChannel); got.Id != submitted.Id {
		t.Errorf("got %s, want %s", got.Id, submitted.Id)
	}
	cancel()
	s.Wait()
}

func TestScheduler_PromotesDelayedJobs(t *testing.T) {
	svc := newTestService(queue.NewMemoryQueue())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	submitted, _ := svc.Submit(ctx, NewIngestJob("d1", "", "t"), time.Minute)

	s := NewScheduler(svc, SchedulerOptions{PollInterval: 10 * time.Millisecond, PromoteInterval: 10 * time.Millisecond})
	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	s.Start(ctx)

	if got := receive(t, svc.JobChannel); got.Id != submitted.Id {
		t.Errorf("got %s, want %s", got.Id, submitted.Id)
	}
	cancel()
	s.Wait()
}

func TestScheduler_Recurring(t *testing.T) {
	svc := newTestService(queue.NewMemoryQueue())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewScheduler(svc, SchedulerOptions{PollInterval: 10 * time.Millisecond})
	s.Recurring("cleanup", 10*time.Millisecond, NewCleanupJob)
	s.Start(ctx)

	got := receive(t, svc.JobChannel)
	if got.JobType != jobModel.JobTypeCleanup {
		t.Errorf("job type = %s, want Cleanup", got.JobType)
	}
	if _, found := svc.GetJob(ctx, got.Id); !found {
		t.Error("recurring job should be saved like any other")
	}
	cancel()
	s.Wait()
}

func seedDocuments(t *testing.T, docs *store.InMemoryDocumentStore, now time.Time) {
	t.Helper()
	old := now.Add(-2 * time.Hour)
	seed := []commonModels.Document{
		{Id: "stuck", Status: commonModels.StatusProcessing, CreatedAt: old, UpdatedAt: old},
		{Id: "busy", Status: commonModels.StatusProcessing, CreatedAt: old, UpdatedAt: now},
		{Id: "lost", Status: commonModels.StatusPending, CreatedAt: old},
		{Id: "fresh", Status: commonModels.StatusPending, CreatedAt: now},
		{Id: "done", Status: commonModels.StatusReady, CreatedAt: old},
	}
	for _, d := range seed {
		if err := docs.Create(context.Background(), d); err != nil {
			t.Fatalf("seed %s: %v", d.Id, err)
		}
	}
}

func TestCleaner_Run(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	docs := store.InitInMemoryDocumentStore()
	seedDocuments(t, docs, now)
	svc := newTestService(queue.NewMemoryQueue())

	var retention time.Duration
	janitor := &MockJanitor{OnRemoveStale: func(ctx context.Context, olderThan time.Duration) (int, error) {
		retention = olderThan
		return 3, nil
	}}
	c := NewCleaner(svc, CleanupOptions{Documents: docs, Janitor: janitor, StaleAfter: 30 * time.Minute})
	c.now = func() time.Time { return now }

	report, err := c.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := CleanupReport{TimedOut: 1, Requeued: 1, FilesRemoved: 3}
	if report != want {
		t.Errorf("report = %+v, want %+v", report, want)
	}
	if retention != 30*time.Minute {
		t.Errorf("janitor retention = %v", retention)
	}

	stuck, _ := docs.GetById(ctx, "stuck")
	if stuck.Status != commonModels.StatusError || stuck.ErrorMessage != msgProcessingTimedOut {
		t.Errorf("stuck document = %s %q", stuck.Status, stuck.ErrorMessage)
	}
	busy, _ := docs.GetById(ctx, "busy")
	if busy.Status != commonModels.StatusProcessing {
		t.Errorf("a recently claimed document was touched: %s", busy.Status)
	}

	requeued, ok, _ := svc.Queue.Dequeue(ctx, config.QueueProcessing)
	if !ok || requeued.DocumentId != "lost" || requeued.JobType != jobModel.JobTypeIngest {
		t.Errorf("expected an ingest job for the lost document, got %+v", requeued)
	}
	if _, ok, _ := svc.Queue.Dequeue(ctx, config.QueueProcessing); ok {
		t.Error("only the old pending document should be requeued")
	}
}

func TestCleaner_JanitorFailureKeepsOtherResults(t *testing.T) {
	now := time.Now()
	docs := store.InitInMemoryDocumentStore()
	seedDocuments(t, docs, now)
	boom := errors.New("disk gone")

	c := NewCleaner(newTestService(queue.NewMemoryQueue()), CleanupOptions{
		Documents: docs,
		Janitor: &MockJanitor{OnRemoveStale: func(ctx context.Context, olderThan time.Duration) (int, error) {
			return 0, boom
		}},
	})
	c.now = func() time.Time { return now }

	report, err := c.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want the janitor error", err)
	}
	if report.TimedOut != 1 || report.Requeued != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestCleaner_NoJanitor(t *testing.T) {
	c := NewCleaner(newTestService(queue.NewMemoryQueue()), CleanupOptions{Documents: store.InitInMemoryDocumentStore()})
	report, err := c.Run(context.Background())
	if err != nil || report != (CleanupReport{}) {
		t.Errorf("report=%+v err=%v", report, err)
	}
}

func TestCleaner_LeavesDelayedUploadsAlone(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	created := now.Add(-31 * time.Minute)
	docs := store.InitInMemoryDocumentStore()
	err := docs.Create(ctx, commonModels.Document{
		Id:        "d1",
		Status:    commonModels.StatusPending,
		CreatedAt: created,
		NotBefore: created.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := newTestService(queue.NewMemoryQueue())
	if _, err := svc.Submit(ctx, NewIngestJob("d1", "s1", ""), 2*time.Hour); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	c := NewCleaner(svc, CleanupOptions{Documents: docs, StaleAfter: 30 * time.Minute})
	c.now = func() time.Time { return now }

	report, err := c.Run(ctx)
	if err != nil || report.Requeued != 0 {
		t.Fatalf("report=%+v err=%v", report, err)
	}
	if j, ok, _ := svc.Queue.Dequeue(ctx, config.QueueProcessing); ok {
		t.Fatalf("delayed ingestion became runnable early: %+v", j)
	}

	//past the due time plus the stale window the upload counts as lost
	c.now = func() time.Time { return created.Add(2*time.Hour + 31*time.Minute) }
	report, err = c.Run(ctx)
	if err != nil || report.Requeued != 1 {
		t.Errorf("overdue delayed upload: report=%+v err=%v", report, err)
	}
}
