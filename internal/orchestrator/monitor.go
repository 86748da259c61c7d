package orchestrator

import (
	"context"
	"time"

	"finsight-backend/internal/jobs"
	"finsight-backend/internal/shared/telemetry"
)

const (
	defaultLivenessWindow  = 20 * time.Minute
	defaultMonitorInterval = time.Minute
	defaultRetention       = 7 * 24 * time.Hour
)

// Monitor sweeps the job store for jobs that stopped making progress and
// reaps records past retention. Processing jobs whose workers went quiet
// and queued jobs whose task was lost before pickup are both failed as
// abandoned, so pollers never face a silent hang. It is the safety net
// for at-most-once queue backends and crashed workers.
type Monitor struct {
	Jobs jobs.Store

	LivenessWindow time.Duration
	Interval       time.Duration
	Retention      time.Duration
}

// Run sweeps on a ticker until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	interval := m.Interval
	if interval <= 0 {
		interval = defaultMonitorInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	telemetry.Info("monitor.started", map[string]any{
		"interval_s": interval.Seconds(),
	})
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep performs one pass: fail abandoned jobs, then reap expired ones.
func (m *Monitor) Sweep(ctx context.Context) {
	window := m.LivenessWindow
	if window <= 0 {
		window = defaultLivenessWindow
	}

	stalled, err := m.Jobs.ListStalled(ctx, window)
	if err != nil {
		telemetry.Error("monitor.list_stalled_failed", map[string]any{"error": err.Error()})
	}
	for _, job := range stalled {
		message := "worker stopped reporting progress"
		if job.Status == jobs.StatusQueued {
			message = "task was lost before a worker picked it up"
		}
		if _, err := m.Jobs.Update(ctx, job.ID, jobs.MarkFailed(jobs.ErrKindAbandoned, message)); err != nil {
			// The worker may have finished between the list and the
			// update; ErrTerminal is the expected benign race.
			continue
		}
		telemetry.Error("monitor.job_abandoned", map[string]any{
			"job_id":      job.ID,
			"last_status": string(job.Status),
			"updated_at":  job.UpdatedAt,
		})
	}

	retention := m.Retention
	if retention <= 0 {
		retention = defaultRetention
	}
	reaped, err := m.Jobs.Reap(ctx, retention)
	if err != nil {
		telemetry.Error("monitor.reap_failed", map[string]any{"error": err.Error()})
		return
	}
	if reaped > 0 {
		telemetry.Info("monitor.jobs_reaped", map[string]any{"count": reaped})
	}
}
