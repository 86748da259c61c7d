package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store defines persistence for jobs. Update is an atomic
// read-modify-write: concurrent progress updates for the same job are
// serialized and none is silently dropped. Updates on terminal jobs return
// ErrTerminal without applying the mutator.
type Store interface {
	Create(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (Job, error)
	Update(ctx context.Context, id string, mutate func(*Job) error) (Job, error)

	// ListStalled returns non-terminal jobs whose last update is older
	// than staleFor. This covers both processing jobs whose worker went
	// quiet and queued jobs whose task was lost before pickup. Used by
	// the liveness monitor.
	ListStalled(ctx context.Context, staleFor time.Duration) ([]Job, error)

	// Reap removes jobs older than the retention window and reports how
	// many were removed.
	Reap(ctx context.Context, olderThan time.Duration) (int, error)
}

// MarkProcessing transitions a queued job to processing. The transition
// happens exactly once per attempt; a job already claimed by another worker
// is left alone.
func MarkProcessing() func(*Job) error {
	return func(j *Job) error {
		if j.Status != StatusQueued {
			return fmt.Errorf("cannot start job in state %s", j.Status)
		}
		j.Status = StatusProcessing
		j.Message = "Processing started"
		return nil
	}
}

// SetProgress records a progress callback from the pipeline. Progress is
// monotonic: a stale callback with a lower percentage keeps the current value.
func SetProgress(percent int, message string) func(*Job) error {
	return func(j *Job) error {
		if j.Status != StatusProcessing {
			return fmt.Errorf("progress update on job in state %s", j.Status)
		}
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		if percent > j.Progress {
			j.Progress = percent
		}
		if message != "" {
			j.Message = message
		}
		return nil
	}
}

// MarkSucceeded sets the terminal success state with the result payload.
func MarkSucceeded(result json.RawMessage) func(*Job) error {
	return func(j *Job) error {
		j.Status = StatusSucceeded
		j.Progress = 100
		j.Message = "Processing completed"
		j.Result = result
		j.Error = nil
		return nil
	}
}

// MarkFailed sets the terminal failure state with a structured error.
func MarkFailed(kind, message string) func(*Job) error {
	return func(j *Job) error {
		j.Status = StatusFailed
		j.Message = "Processing failed"
		j.Result = nil
		j.Error = &JobError{Kind: kind, Message: message}
		return nil
	}
}
