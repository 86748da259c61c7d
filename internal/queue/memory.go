package queue

import (
	"context"
	"fmt"
)

const defaultMemoryBuffer = 256

// MemoryQueue is a channel-backed queue for dev mode and tests. It is FIFO
// and delivers each task to exactly one consumer; Ack is a no-op.
type MemoryQueue struct {
	name  Name
	tasks chan Task
}

// NewMemoryQueue constructs a MemoryQueue for the given queue name.
func NewMemoryQueue(name Name, buffer int) (*MemoryQueue, error) {
	if err := name.Validate(); err != nil {
		return nil, err
	}
	if buffer <= 0 {
		buffer = defaultMemoryBuffer
	}
	return &MemoryQueue{name: name, tasks: make(chan Task, buffer)}, nil
}

// Enqueue places a task on the queue, failing fast when the buffer is full
// rather than blocking submission on worker availability.
func (q *MemoryQueue) Enqueue(ctx context.Context, task Task) error {
	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("queue %s is full", q.name)
	}
}

// Dequeue blocks until a task is available or ctx is done.
func (q *MemoryQueue) Dequeue(ctx context.Context) (Delivery, error) {
	select {
	case task := <-q.tasks:
		return Delivery{Task: task, ReceiveCount: 1}, nil
	case <-ctx.Done():
		return Delivery{}, ctx.Err()
	}
}

var (
	_ Producer = (*MemoryQueue)(nil)
	_ Consumer = (*MemoryQueue)(nil)
)
