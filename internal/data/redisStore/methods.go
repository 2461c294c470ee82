package redisStore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.client.Set(ctx, key, value, expiration).Err()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	count, err := s.getCount(ctx, key)
	return count > 0, err
}

func (s *Store) getCount(ctx context.Context, key string) (int64, error) {
	return s.client.Exists(ctx, key).Result()
}

// hashes

func (s *Store) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	return s.client.HSet(ctx, key, values).Err()
}

func (s *Store) HGet(ctx context.Context, key string, field string) (string, error) {
	return s.client.HGet(ctx, key, field).Result()
}

// HGetAll returns an empty map, not an error, when the key is missing.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return s.client.HGetAll(ctx, key).Result()
}

// sets

func (s *Store) SAdd(ctx context.Context, key string, members ...interface{}) error {
	return s.client.SAdd(ctx, key, members...).Err()
}

func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	return s.client.SMembers(ctx, key).Result()
}

// lists

func (s *Store) ListPush(ctx context.Context, key string, value interface{}) error {
	return s.client.RPush(ctx, key, value).Err()
}

// ListMove pops the oldest entry of src onto dst in one step. redis.Nil means src was empty.
func (s *Store) ListMove(ctx context.Context, src string, dst string) (string, error) {
	return s.client.LMove(ctx, src, dst, "LEFT", "RIGHT").Result()
}

func (s *Store) ListGetAll(ctx context.Context, key string) ([]string, error) {
	return s.listGetPreviousXMessages(ctx, key, int64(0))
}

// ListGetLast returns the newest n entries, oldest first.
func (s *Store) ListGetLast(ctx context.Context, key string, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	return s.listGetPreviousXMessages(ctx, key, -int64(n))
}

func (s *Store) listGetPreviousXMessages(ctx context.Context, key string, start int64) ([]string, error) {
	result, err := s.client.LRange(ctx, key, start, -1).Result()
	return result, err
}

func (s *Store) ListLen(ctx context.Context, key string) (int64, error) {
	return s.client.LLen(ctx, key).Result()
}

// scripts

// RunScript uses EVALSHA and falls back to EVAL when the script is not cached yet.
func (s *Store) RunScript(ctx context.Context, script *redis.Script, keys []string, args ...interface{}) (interface{}, error) {
	return script.Run(ctx, s.client, keys, args...).Result()
}
