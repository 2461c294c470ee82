package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/data/redisStore"
	"github.com/akolanti/DocuMind/internal/data/store"
	"github.com/akolanti/DocuMind/internal/domain/jobModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisJobStore_Lifecycle(t *testing.T) {
	// 1. Start miniredis
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jobStore := store.GetRedisJobStore(redisStore.NewStore(client, config.RedisJobStore), time.Hour)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	jobID := "job_abc_123"

	testJob := jobModel.Job{
		Id:      jobID,
		Status:  jobModel.JobStatusRunning,
		JobType: jobModel.JobTypeQuery,
		JobPayload: jobModel.JobPayload{
			Question: "What does the warranty cover?",
		},
	}

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		err := jobStore.SaveJob(ctx, testJob)
		if err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}

		retrievedJob, found := jobStore.GetJob(ctx, jobID)
		if !found {
			t.Fatal("Job was saved but not found in Redis")
		}

		if !mr.Exists("job:" + jobID) {
			t.Error("job should be stored under its job: key")
		}
		if retrievedJob.JobPayload.Question != testJob.JobPayload.Question {
			t.Errorf("Data mismatch! Got %s, want %s",
				retrievedJob.JobPayload.Question, testJob.JobPayload.Question)
		}
	})

	t.Run("Get Non-Existent Job", func(t *testing.T) {
		_, found := jobStore.GetJob(ctx, "ghost-id")
		if found {
			t.Error("Expected found=false for non-existent key")
		}
	})

	t.Run("Delete Job", func(t *testing.T) {
		jobStore.DeleteJob(ctx, jobID)

		if mr.Exists("job:" + jobID) {
			t.Error("Job still exists in Redis after DeleteJob call")
		}
	})
}

func TestRedisJobStore_Race(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jobStore := store.GetRedisJobStore(redisStore.NewStore(client, config.RedisJobStore), 0)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "race-trace")
	job := jobModel.Job{Id: "race-job"}

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = jobStore.SaveJob(ctx, job)
			_, _ = jobStore.GetJob(ctx, "race-job")
		}()
	}
	wg.Wait()

	if _, found := jobStore.GetJob(ctx, "race-job"); !found {
		t.Error("job missing after concurrent writes")
	}
}

func TestRedisJobStore_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jobStore := store.GetRedisJobStore(redisStore.NewStore(client, config.RedisJobStore), time.Minute)

	ctx := context.Background()
	if err := jobStore.SaveJob(ctx, jobModel.Job{Id: "short-lived"}); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, found := jobStore.GetJob(ctx, "short-lived"); found {
		t.Error("job should have expired")
	}
}

func TestInMemoryJobStore(t *testing.T) {
	jobStore := store.InitInMemoryJobStore()
	ctx := context.Background()

	if err := jobStore.SaveJob(ctx, jobModel.Job{Id: "j1", Status: jobModel.JobStatusQueued}); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}
	if err := jobStore.SaveJob(ctx, jobModel.Job{Id: "j1", Status: jobModel.JobStatusComplete}); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}
	got, found := jobStore.GetJob(ctx, "j1")
	if !found || got.Status != jobModel.JobStatusComplete {
		t.Errorf("expected the latest save, got %+v (found %v)", got, found)
	}

	jobStore.DeleteJob(ctx, "j1")
	if _, found := jobStore.GetJob(ctx, "j1"); found {
		t.Error("job still present after delete")
	}
}
