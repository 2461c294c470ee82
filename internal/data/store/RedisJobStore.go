package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/data/redisStore"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/domain/jobModel"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

type RedisJobStore struct {
	store  *redisStore.Store
	ttl    time.Duration
	logger *logger_i.Logger
}

func GetRedisJobStore(store *redisStore.Store, ttl time.Duration) *RedisJobStore {
	if ttl <= 0 {
		ttl = config.RedisJobStoreTTL
	}
	return &RedisJobStore{
		store:  store,
		ttl:    ttl,
		logger: logger_i.NewLogger("JobStore"),
	}
}

func jobKey(id string) string { return "job:" + id }

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	log := s.logger.With("traceId", config.TraceId(ctx), "jobId", job.Id, "status", job.Status)
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	err = s.store.Set(ctx, jobKey(job.Id), data, s.ttl)
	if err != nil {
		log.Error("Error saving job", "error", err)
		return fmt.Errorf("%w: saving job %s: %w", commonModels.ErrTransient, job.Id, err)
	}
	log.Debug("Saved job to Redis")
	return nil
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	log := s.logger.With("traceId", config.TraceId(ctx), "jobId", jobId)
	val, err := s.store.Get(ctx, jobKey(jobId))
	if s.store.IsNil(err) {
		return job, false
	} else if err != nil {
		log.Error("Error reading job", "error", err)
		return job, false
	}

	err = json.Unmarshal([]byte(val), &job)
	if err != nil {
		log.Error("Error unmarshalling job", "error", err)
		return job, false
	}

	log.Debug("Job found in Redis", "status", job.Status)
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	err := s.store.Del(ctx, jobKey(jobID))
	if err != nil {
		s.logger.Error("Error deleting job from Redis", "jobId", jobID, "error", err)
		return
	}
	s.logger.Debug("Job deleted from Redis", "jobId", jobID)
}
