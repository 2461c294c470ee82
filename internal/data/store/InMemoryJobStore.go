package store

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/jobModel"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("InMem Store")

type storedJob struct {
	job       jobModel.Job
	expiresAt time.Time
}

// InMemoryJobStore mirrors the redis store, including the record ttl.
type InMemoryJobStore struct {
	jobMutex *sync.RWMutex
	jobMap   map[string]storedJob
	ttl      time.Duration
	now      func() time.Time
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		jobMutex: new(sync.RWMutex),
		jobMap:   make(map[string]storedJob),
		ttl:      config.RedisJobStoreTTL,
		now:      time.Now,
	}
}

func (store *InMemoryJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	store.jobMutex.Lock()
	defer store.jobMutex.Unlock()
	now := store.now()
	store.jobMap[job.Id] = storedJob{job: job, expiresAt: now.Add(store.ttl)}
	store.evictExpired(now)
	inMemLogger.Debug("Saved job to store", "jobId", job.Id, "status", job.Status)
	return nil
}

func (store *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	store.jobMutex.RLock()
	defer store.jobMutex.RUnlock()
	entry, found := store.jobMap[jobId]
	if found && !store.now().Before(entry.expiresAt) {
		found = false
	}
	inMemLogger.Debug("job lookup", "jobId", jobId, "found", found)
	if !found {
		return jobModel.Job{}, false
	}
	return entry.job, true
}

func (store *InMemoryJobStore) DeleteJob(ctx context.Context, jobId string) {
	store.jobMutex.Lock()
	defer store.jobMutex.Unlock()
	delete(store.jobMap, jobId)
}

// caller holds the write lock
func (store *InMemoryJobStore) evictExpired(now time.Time) {
	for id, entry := range store.jobMap {
		if !now.Before(entry.expiresAt) {
			delete(store.jobMap, id)
		}
	}
}
