package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/labelscan/backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "labelscan:scan:"

// RedisStore keeps jobs in Redis so they survive restarts and are shared
// between instances. Expiry is left to Redis.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

// NewRedisStore wraps an existing client
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func jobKey(id string) string {
	return keyPrefix + id
}

// Save writes the job with ttl
func (s *RedisStore) Save(ctx context.Context, job *domain.ScanJob, ttl time.Duration) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidRequest
	}

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	if err := s.rdb.Set(ctx, jobKey(job.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", job.ID, err)
	}
	return nil
}

// Get reads a job
func (s *RedisStore) Get(ctx context.Context, id string) (*domain.ScanJob, error) {
	data, err := s.rdb.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", id, err)
	}

	var job domain.ScanJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}
