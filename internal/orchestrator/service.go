// Package orchestrator ties submission, job tracking, and result retrieval
// together. It owns the cache-first submit path and the liveness monitor;
// workers own everything between dequeue and terminal state.
package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"finsight-backend/internal/doctype"
	"finsight-backend/internal/jobs"
	"finsight-backend/internal/queue"
	"finsight-backend/internal/results"
	"finsight-backend/internal/shared/metrics"
	"finsight-backend/internal/shared/storage/object"
	"finsight-backend/internal/shared/telemetry"
	"finsight-backend/internal/shared/util"
)

// ErrInvalidInput marks submissions rejected before a job is created.
var ErrInvalidInput = errors.New("invalid input")

// Service coordinates the submit/status/result lifecycle.
type Service struct {
	Jobs  jobs.Store
	Cache results.Cache
	Queue queue.Producer
	Docs  object.ObjectStore

	// NewID overrides job ID generation in tests.
	NewID func() string
}

// Submission is a document handed to Submit.
type Submission struct {
	FileName     string
	DocumentType string
	ContentType  string
	Content      []byte
}

// SubmitOutcome is either a cache hit carrying the finished result, or a
// freshly created queued job.
type SubmitOutcome struct {
	CacheHit    bool
	Fingerprint string
	Result      json.RawMessage
	Job         jobs.Job
}

// Submit fingerprints the document, serves identical prior work from the
// cache, and otherwise persists the payload, records a queued job, and
// enqueues a processing task.
func (s *Service) Submit(ctx context.Context, sub Submission) (SubmitOutcome, error) {
	if sub.FileName == "" {
		return SubmitOutcome{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if len(sub.Content) == 0 {
		return SubmitOutcome{}, fmt.Errorf("%w: document is empty", ErrInvalidInput)
	}
	dt, err := doctype.Parse(sub.DocumentType)
	if err != nil {
		return SubmitOutcome{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fp := util.Fingerprint(sub.Content, dt.String())

	// A cache lookup failure is a miss, never a submit failure.
	entry, ok, err := s.Cache.Get(ctx, fp)
	if err != nil {
		telemetry.Error("orchestrator.cache_lookup_failed", map[string]any{
			"fingerprint": fp,
			"error":       err.Error(),
		})
	}
	if ok {
		metrics.IncCacheHits()
		telemetry.Info("orchestrator.cache_hit", map[string]any{"fingerprint": fp})
		return SubmitOutcome{CacheHit: true, Fingerprint: fp, Result: entry.Result}, nil
	}
	metrics.IncCacheMisses()

	key, err := object.DocumentKey(fp, sub.FileName)
	if err != nil {
		return SubmitOutcome{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := s.Docs.Save(ctx, key, sub.ContentType, bytes.NewReader(sub.Content)); err != nil {
		return SubmitOutcome{}, fmt.Errorf("store document: %w", err)
	}

	job := jobs.New(s.newID(), fp, dt, sub.FileName, key)
	if err := s.Jobs.Create(ctx, job); err != nil {
		s.discardDocument(ctx, key)
		return SubmitOutcome{}, fmt.Errorf("create job: %w", err)
	}

	task := queue.NewTask(job.ID, fp, dt, sub.FileName, key, job.Attempt)
	if err := s.Queue.Enqueue(ctx, task); err != nil {
		// Do not leave a queued job nothing will ever pick up, and do
		// not keep a payload no worker will ever read.
		msg := fmt.Sprintf("enqueue task: %v", err)
		if _, ferr := s.Jobs.Update(ctx, job.ID, jobs.MarkFailed(jobs.ErrKindInfrastructure, msg)); ferr != nil {
			telemetry.Error("orchestrator.enqueue_fail_record_failed", map[string]any{
				"job_id": job.ID,
				"error":  ferr.Error(),
			})
		}
		s.discardDocument(ctx, key)
		return SubmitOutcome{}, fmt.Errorf("enqueue task: %w", err)
	}

	metrics.IncSubmissions()
	telemetry.Info("orchestrator.job_submitted", map[string]any{
		"job_id":        job.ID,
		"fingerprint":   fp,
		"document_type": dt.String(),
	})
	return SubmitOutcome{Fingerprint: fp, Job: job}, nil
}

// Status returns the current snapshot of a job.
func (s *Service) Status(ctx context.Context, jobID string) (jobs.Job, error) {
	return s.Jobs.Get(ctx, jobID)
}

// Result returns the job snapshot for result retrieval. Callers branch on
// Status: succeeded jobs carry Result, failed jobs carry Error, anything
// else is still pending.
func (s *Service) Result(ctx context.Context, jobID string) (jobs.Job, error) {
	return s.Jobs.Get(ctx, jobID)
}

// discardDocument removes a payload left behind by a failed submit. Best
// effort: the submit error already in flight is the one the caller sees.
func (s *Service) discardDocument(ctx context.Context, key string) {
	if err := s.Docs.Delete(ctx, key); err != nil {
		telemetry.Error("orchestrator.document_discard_failed", map[string]any{
			"storage_key": key,
			"error":       err.Error(),
		})
	}
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}
