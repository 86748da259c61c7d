package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisJobKeyPrefix = "job:"
	// Terminal jobs stay readable for pollers until Redis expires them.
	redisUpdateRetries = 5
)

// RedisStore persists jobs as JSON values in Redis. Atomic updates use
// WATCH/MULTI optimistic locking; retention is enforced by key TTL.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisStore constructs a RedisStore with the given retention window.
func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &RedisStore{client: client, retention: retention}
}

func jobKey(id string) string { return redisJobKeyPrefix + id }

// Create stores a new job with the retention TTL.
func (s *RedisStore) Create(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	ok, err := s.client.SetNX(ctx, jobKey(job.ID), data, s.retention).Result()
	if err != nil {
		return fmt.Errorf("redis create job: %w", err)
	}
	if !ok {
		return ErrDuplicateID
	}
	return nil
}

// Get returns a job by id.
func (s *RedisStore) Get(ctx context.Context, id string) (Job, error) {
	raw, err := s.client.Get(ctx, jobKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Job{}, ErrNotFound
		}
		return Job{}, fmt.Errorf("redis get job: %w", err)
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return Job{}, fmt.Errorf("unmarshal job %s: %w", id, err)
	}
	return job, nil
}

// Update applies the mutator under optimistic locking so that concurrent
// progress updates are serialized rather than silently dropped.
func (s *RedisStore) Update(ctx context.Context, id string, mutate func(*Job) error) (Job, error) {
	key := jobKey(id)
	var updated Job

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			return fmt.Errorf("unmarshal job %s: %w", id, err)
		}
		if job.Status.Terminal() {
			updated = job
			return ErrTerminal
		}
		if err := mutate(&job); err != nil {
			updated = job
			return err
		}
		job.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("marshal job: %w", err)
		}
		updated = job
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		return err
	}

	for i := 0; i < redisUpdateRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return updated, err
	}
	return Job{}, fmt.Errorf("redis update job %s: too many contention retries", id)
}

// ListStalled scans job keys for queued and processing jobs with a stale
// UpdatedAt.
func (s *RedisStore) ListStalled(ctx context.Context, staleFor time.Duration) ([]Job, error) {
	cutoff := time.Now().UTC().Add(-staleFor)
	var stalled []Job

	iter := s.client.Scan(ctx, 0, redisJobKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("redis scan jobs: %w", err)
		}
		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			continue
		}
		if !job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			stalled = append(stalled, job)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan jobs: %w", err)
	}
	return stalled, nil
}

// Reap is a no-op for Redis: retention is enforced by per-key TTL set at
// Create time.
func (s *RedisStore) Reap(ctx context.Context, olderThan time.Duration) (int, error) {
	return 0, nil
}

var _ Store = (*RedisStore)(nil)
