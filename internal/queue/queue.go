// Package queue carries document-processing tasks from the orchestrator to
// workers. Delivery is at-least-once: consumers must tolerate redelivery,
// which the worker handles by discarding tasks for terminal jobs.
package queue

import (
	"context"
	"fmt"
)

// Name identifies a queue. Routing is restricted to the known names below
// so a task can never be sent to a queue no worker consumes.
type Name string

// DocumentProcessing is the dedicated queue for document extraction tasks.
const DocumentProcessing Name = "document_processing"

var knownNames = map[Name]struct{}{
	DocumentProcessing: {},
}

// Validate rejects queue names outside the known set. Called at startup by
// every backend constructor.
func (n Name) Validate() error {
	if _, ok := knownNames[n]; !ok {
		return fmt.Errorf("unknown queue name: %q", string(n))
	}
	return nil
}

func (n Name) String() string { return string(n) }

// Producer sends tasks to a queue backend. A nil error means the task was
// durably accepted; callers must not report a job as submitted otherwise.
type Producer interface {
	Enqueue(ctx context.Context, task Task) error
}

// Delivery is one received task plus the acknowledgement hook. Ack removes
// the task from the queue; an unacknowledged task becomes redeliverable.
type Delivery struct {
	Task         Task
	ReceiveCount int
	ack          func(ctx context.Context) error
}

// Ack acknowledges the delivery. Safe to call on deliveries from backends
// without acknowledgement semantics.
func (d Delivery) Ack(ctx context.Context) error {
	if d.ack == nil {
		return nil
	}
	return d.ack(ctx)
}

// Consumer receives tasks from a queue backend. Dequeue blocks until a task
// is available or ctx is done.
type Consumer interface {
	Dequeue(ctx context.Context) (Delivery, error)
}
