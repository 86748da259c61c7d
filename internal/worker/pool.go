// Package worker runs the pool of executors that consume document tasks,
// drive the extraction pipeline, and persist completion.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"finsight-backend/internal/jobs"
	"finsight-backend/internal/pipeline"
	"finsight-backend/internal/queue"
	"finsight-backend/internal/results"
	"finsight-backend/internal/shared/metrics"
	"finsight-backend/internal/shared/storage/object"
	"finsight-backend/internal/shared/telemetry"
)

const defaultConcurrency = 4

// Pool pulls tasks from the queue and executes them with bounded
// concurrency. One task occupies one slot for its full duration.
type Pool struct {
	Consumer    queue.Consumer
	Jobs        jobs.Store
	Cache       results.Cache
	Docs        object.ObjectStore
	Runner      pipeline.Runner
	Concurrency int
}

// Run dequeues and processes tasks until ctx is cancelled, then drains
// in-flight work before returning.
func (p *Pool) Run(ctx context.Context) {
	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	telemetry.Info("worker.pool.started", map[string]any{
		"queue":       queue.DocumentProcessing.String(),
		"concurrency": concurrency,
	})

	for {
		delivery, err := p.Consumer.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			telemetry.Error("worker.dequeue_failed", map[string]any{"error": err.Error()})
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			// Shutting down; the unprocessed delivery stays
			// unacknowledged and becomes redeliverable.
			goto drain
		}

		metrics.IncJobsReceived()
		wg.Add(1)
		go func(d queue.Delivery) {
			defer wg.Done()
			defer func() { <-sem }()
			p.process(ctx, d)
		}(delivery)
	}

drain:
	wg.Wait()
	telemetry.Info("worker.pool.stopped", nil)
}

// process executes one delivery. Pipeline failures and panics are always
// recorded as the job's terminal failed state; they never escape as a
// process-level fault.
func (p *Pool) process(ctx context.Context, d queue.Delivery) {
	task := d.Task
	fields := map[string]any{
		"job_id":        task.JobID,
		"fingerprint":   task.Fingerprint,
		"attempt":       task.Attempt,
		"receive_count": d.ReceiveCount,
	}

	job, err := p.Jobs.Get(ctx, task.JobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			// Job reaped or never created: nothing to record.
			telemetry.Error("worker.job_missing", fields)
			p.ack(ctx, d, fields)
			return
		}
		// Store unavailable; leave the task redeliverable.
		fields["error"] = err.Error()
		telemetry.Error("worker.job_lookup_failed", fields)
		return
	}

	// Idempotence guard: redelivery of a finished job is a no-op.
	if job.Status.Terminal() {
		telemetry.Info("worker.task_discarded_terminal", fields)
		metrics.IncJobsDiscarded()
		p.ack(ctx, d, fields)
		return
	}

	if _, err := p.Jobs.Update(ctx, task.JobID, jobs.MarkProcessing()); err != nil {
		if errors.Is(err, jobs.ErrTerminal) {
			p.ack(ctx, d, fields)
			return
		}
		// Either another worker claimed it or the store is down. Do
		// not ack; redelivery hits the guard above.
		fields["error"] = err.Error()
		telemetry.Error("worker.claim_failed", fields)
		return
	}
	telemetry.Info("worker.job_started", fields)
	metrics.IncJobsStarted()
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			p.fail(ctx, task.JobID, jobs.ErrKindPanic, fmt.Sprintf("worker panic: %v", r), fields)
			p.ack(ctx, d, fields)
		}
	}()

	content, err := object.ReadAll(ctx, p.Docs, task.StorageKey)
	if err != nil {
		p.fail(ctx, task.JobID, jobs.ErrKindInfrastructure, fmt.Sprintf("fetch document: %v", err), fields)
		p.ack(ctx, d, fields)
		return
	}

	doc := pipeline.Document{
		FileName: task.FileName,
		Content:  content,
		Type:     task.DocumentType,
	}
	result, err := p.Runner.Run(ctx, doc, p.progressFunc(ctx, task.JobID, fields))
	if err != nil {
		kind := jobs.ErrKindPipeline
		var perr *pipeline.Error
		if errors.As(err, &perr) {
			kind = perr.Kind
		}
		p.fail(ctx, task.JobID, kind, err.Error(), fields)
		p.ack(ctx, d, fields)
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		p.fail(ctx, task.JobID, jobs.ErrKindPipeline, fmt.Sprintf("encode result: %v", err), fields)
		p.ack(ctx, d, fields)
		return
	}

	if _, err := p.Jobs.Update(ctx, task.JobID, jobs.MarkSucceeded(payload)); err != nil {
		if errors.Is(err, jobs.ErrTerminal) {
			// Lost a race with the liveness monitor; the recorded
			// outcome stands.
			telemetry.Info("worker.task_discarded_terminal", fields)
			p.ack(ctx, d, fields)
			return
		}
		// Completion not persisted; keep the task redeliverable.
		fields["error"] = err.Error()
		telemetry.Error("worker.complete_failed", fields)
		return
	}

	// Write-through to the result cache. A cache failure is logged and
	// swallowed: the job result is already durable.
	if err := p.Cache.Put(ctx, task.Fingerprint, payload); err != nil {
		fields["error"] = err.Error()
		telemetry.Error("worker.cache_put_failed", fields)
	} else {
		metrics.IncCacheWrites()
	}

	telemetry.Info("worker.job_completed", fields)
	metrics.IncJobsCompleted()
	metrics.ObserveJobDurationMs(float64(time.Since(started).Milliseconds()))
	p.ack(ctx, d, fields)
}

// progressFunc translates pipeline callbacks into job store updates. The
// worker is the only writer of job progress.
func (p *Pool) progressFunc(ctx context.Context, jobID string, fields map[string]any) pipeline.ProgressFunc {
	return func(percent int, message string) {
		if _, err := p.Jobs.Update(ctx, jobID, jobs.SetProgress(percent, message)); err != nil {
			if errors.Is(err, jobs.ErrTerminal) {
				return
			}
			f := map[string]any{"job_id": jobID, "percent": percent, "error": err.Error()}
			telemetry.Error("worker.progress_update_failed", f)
		}
	}
}

func (p *Pool) fail(ctx context.Context, jobID, kind, message string, fields map[string]any) {
	if _, err := p.Jobs.Update(ctx, jobID, jobs.MarkFailed(kind, message)); err != nil && !errors.Is(err, jobs.ErrTerminal) {
		f := map[string]any{"job_id": jobID, "error": err.Error()}
		telemetry.Error("worker.fail_record_failed", f)
	}
	fields["error_kind"] = kind
	fields["error"] = message
	telemetry.Error("worker.job_failed", fields)
	metrics.IncJobsFailed()
}

func (p *Pool) ack(ctx context.Context, d queue.Delivery, fields map[string]any) {
	if err := d.Ack(ctx); err != nil {
		fields["error"] = err.Error()
		telemetry.Error("worker.ack_failed", fields)
	}
}
