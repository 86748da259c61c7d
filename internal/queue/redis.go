package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPopTimeout = 5 * time.Second

// RedisQueue is a Redis-list backed queue: LPUSH to enqueue, BRPOP to
// consume. A popped task is gone from the broker, so a worker crash between
// pop and terminal state is recovered by the liveness monitor, not by
// redelivery.
type RedisQueue struct {
	client *redis.Client
	name   Name
}

// NewRedisQueue constructs a RedisQueue for the given queue name.
func NewRedisQueue(client *redis.Client, name Name) (*RedisQueue, error) {
	if err := name.Validate(); err != nil {
		return nil, err
	}
	return &RedisQueue{client: client, name: name}, nil
}

func (q *RedisQueue) key() string { return "queue:" + q.name.String() }

// Enqueue pushes the encoded task onto the list. A nil return means the
// broker accepted the task.
func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	payload, err := EncodeTask(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	if err := q.client.LPush(ctx, q.key(), payload).Err(); err != nil {
		return fmt.Errorf("enqueue to %s: %w", q.name, err)
	}
	return nil
}

// Dequeue blocks on BRPOP until a task arrives or ctx is done. Malformed
// payloads are skipped with an error returned so the worker can log them.
func (q *RedisQueue) Dequeue(ctx context.Context) (Delivery, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Delivery{}, err
		}
		vals, err := q.client.BRPop(ctx, redisPopTimeout, q.key()).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return Delivery{}, fmt.Errorf("dequeue from %s: %w", q.name, err)
		}
		if len(vals) != 2 {
			continue
		}
		task, err := DecodeTask([]byte(vals[1]))
		if err != nil {
			return Delivery{}, err
		}
		return Delivery{Task: task, ReceiveCount: 1}, nil
	}
}

var (
	_ Producer = (*RedisQueue)(nil)
	_ Consumer = (*RedisQueue)(nil)
)
