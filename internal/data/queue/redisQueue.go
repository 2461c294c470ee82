package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/data/redisStore"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/domain/jobModel"
	"github.com/akolanti/DocuMind/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix      = "queue:"
	jobsKey        = "queue:jobs"
	namesKey       = "queue:names"
	delayedKey     = "queue:delayed"
	delayedTarget  = "queue:delayed:target"
	inFlightSuffix = ":inflight"
	promoteBatch   = 100
)

// KEYS: jobs hash, names set, queue list. ARGV: id, body, queue name.
var enqueueScript = redis.NewScript(`
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('SADD', KEYS[2], ARGV[3])
redis.call('RPUSH', KEYS[3], ARGV[1])
return 1
`)

// KEYS: jobs hash, delayed zset, target hash. ARGV: id, body, due unix ms, queue name.
var scheduleScript = redis.NewScript(`
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('HSET', KEYS[3], ARGV[1], ARGV[4])
redis.call('ZADD', KEYS[2], ARGV[3], ARGV[1])
return 1
`)

// KEYS: delayed zset, target hash, names set. ARGV: now unix ms, batch size, queue key prefix.
var promoteScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
for _, id in ipairs(due) do
  local q = redis.call('HGET', KEYS[2], id)
  redis.call('ZREM', KEYS[1], id)
  redis.call('HDEL', KEYS[2], id)
  if q then
    redis.call('SADD', KEYS[3], q)
    redis.call('RPUSH', ARGV[3] .. q, id)
  end
end
return #due
`)

// KEYS: in-flight list, jobs hash. ARGV: id.
var ackScript = redis.NewScript(`
redis.call('LREM', KEYS[1], 1, ARGV[1])
redis.call('HDEL', KEYS[2], ARGV[1])
return 1
`)

// KEYS: in-flight list, queue list. Moves everything back to the head of the queue.
var requeueScript = redis.NewScript(`
local n = 0
while true do
  local id = redis.call('RPOP', KEYS[1])
  if not id then break end
  redis.call('LPUSH', KEYS[2], id)
  n = n + 1
end
return n
`)

// RedisQueue keeps job ids in lists per queue and the bodies in one hash.
// Dequeue moves an id to the queue's in-flight list until Ack removes it.
type RedisQueue struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisQueue(store *redisStore.Store) *RedisQueue {
	return &RedisQueue{
		store:  store,
		logger: logger_i.NewLogger("Redis Queue"),
	}
}

func queueKey(name string) string    { return keyPrefix + name }
func inFlightKey(name string) string { return keyPrefix + name + inFlightSuffix }

func (q *RedisQueue) Enqueue(ctx context.Context, job jobModel.Job) error {
	job, body, err := prepare(job)
	if err != nil {
		return err
	}
	_, err = q.store.RunScript(ctx, enqueueScript, []string{jobsKey, namesKey, queueKey(job.Queue)}, job.Id, body, job.Queue)
	if err != nil {
		return fmt.Errorf("%w: enqueue: %w", commonModels.ErrTransient, err)
	}
	q.logger.Debug("job enqueued", "traceId", job.TraceId, "jobId", job.Id, "queue", job.Queue)
	return nil
}

func (q *RedisQueue) ScheduleDelayed(ctx context.Context, job jobModel.Job, delay time.Duration) error {
	if delay <= 0 {
		return q.Enqueue(ctx, job)
	}
	job, body, err := prepare(job)
	if err != nil {
		return err
	}
	due := time.Now().Add(delay).UnixMilli()
	_, err = q.store.RunScript(ctx, scheduleScript, []string{jobsKey, delayedKey, delayedTarget}, job.Id, body, due, job.Queue)
	if err != nil {
		return fmt.Errorf("%w: schedule: %w", commonModels.ErrTransient, err)
	}
	q.logger.Debug("job scheduled", "traceId", job.TraceId, "jobId", job.Id, "queue", job.Queue, "delay", delay)
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, queues ...string) (jobModel.Job, bool, error) {
	for _, name := range queues {
		id, err := q.store.ListMove(ctx, queueKey(name), inFlightKey(name))
		if q.store.IsNil(err) {
			continue
		}
		if err != nil {
			return jobModel.Job{}, false, fmt.Errorf("%w: dequeue %s: %w", commonModels.ErrTransient, name, err)
		}

		body, err := q.store.HGet(ctx, jobsKey, id)
		if q.store.IsNil(err) {
			q.logger.Warn("queued job has no body, dropping", "jobId", id, "queue", name)
			_ = q.Ack(ctx, jobModel.Job{Id: id, Queue: name})
			continue
		}
		if err != nil {
			return jobModel.Job{}, false, fmt.Errorf("%w: reading job %s: %w", commonModels.ErrTransient, id, err)
		}

		var job jobModel.Job
		if err := json.Unmarshal([]byte(body), &job); err != nil {
			q.logger.Error("undecodable job, dropping", "jobId", id, "error", err)
			_ = q.Ack(ctx, jobModel.Job{Id: id, Queue: name})
			continue
		}
		return job, true, nil
	}
	return jobModel.Job{}, false, nil
}

func (q *RedisQueue) Ack(ctx context.Context, job jobModel.Job) error {
	_, err := q.store.RunScript(ctx, ackScript, []string{inFlightKey(queueName(job)), jobsKey}, job.Id)
	if err != nil {
		return fmt.Errorf("%w: ack: %w", commonModels.ErrTransient, err)
	}
	return nil
}

func (q *RedisQueue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	res, err := q.store.RunScript(ctx, promoteScript, []string{delayedKey, delayedTarget, namesKey},
		now.UnixMilli(), promoteBatch, keyPrefix)
	if err != nil {
		return 0, fmt.Errorf("%w: promote: %w", commonModels.ErrTransient, err)
	}
	n, _ := res.(int64)
	if n > 0 {
		q.logger.Debug("promoted delayed jobs", "count", n)
	}
	return int(n), nil
}

func (q *RedisQueue) RequeueInFlight(ctx context.Context) (int, error) {
	names, err := q.store.SMembers(ctx, namesKey)
	if err != nil {
		return 0, fmt.Errorf("%w: listing queues: %w", commonModels.ErrTransient, err)
	}
	total := 0
	for _, name := range names {
		res, err := q.store.RunScript(ctx, requeueScript, []string{inFlightKey(name), queueKey(name)})
		if err != nil {
			return total, fmt.Errorf("%w: requeue %s: %w", commonModels.ErrTransient, name, err)
		}
		n, _ := res.(int64)
		total += int(n)
	}
	if total > 0 {
		q.logger.Info("requeued in-flight jobs", "count", total)
	}
	return total, nil
}

// Depth reports how many jobs are waiting on a queue.
func (q *RedisQueue) Depth(ctx context.Context, name string) (int64, error) {
	return q.store.ListLen(ctx, queueKey(name))
}

func queueName(job jobModel.Job) string {
	if job.Queue == "" {
		return config.QueueDefault
	}
	return job.Queue
}

func prepare(job jobModel.Job) (jobModel.Job, []byte, error) {
	if job.Id == "" {
		return job, nil, errors.New("job id is required")
	}
	job.Queue = queueName(job)
	if job.Status == "" {
		job.Status = jobModel.JobStatusQueued
	}
	body, err := json.Marshal(job)
	if err != nil {
		return job, nil, fmt.Errorf("encoding job %s: %w", job.Id, err)
	}
	return job, body, nil
}
