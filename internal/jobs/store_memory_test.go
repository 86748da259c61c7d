package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"finsight-backend/internal/doctype"
)

func newTestJob(id string) Job {
	return New(id, "fp-"+id, doctype.Invoice, "invoice.pdf", "documents/fp-"+id+"/invoice.pdf")
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	job := newTestJob("j1")
	if err := store.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, job); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	got, err := store.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusQueued || got.Progress != 0 {
		t.Fatalf("unexpected initial state: %+v", got)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreStateMachine(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Create(ctx, newTestJob("j1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	// queued -> processing
	job, err := store.Update(ctx, "j1", MarkProcessing())
	if err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	if job.Status != StatusProcessing {
		t.Fatalf("expected processing, got %s", job.Status)
	}

	// second claim must be rejected
	if _, err := store.Update(ctx, "j1", MarkProcessing()); err == nil {
		t.Fatal("expected error on double processing transition")
	}

	// monotonic progress
	if _, err := store.Update(ctx, "j1", SetProgress(40, "Extracting structured data...")); err != nil {
		t.Fatalf("set progress: %v", err)
	}
	job, err = store.Update(ctx, "j1", SetProgress(10, "stale callback"))
	if err != nil {
		t.Fatalf("set progress stale: %v", err)
	}
	if job.Progress != 40 {
		t.Fatalf("progress regressed to %d", job.Progress)
	}

	// terminal transition and immutability
	result := json.RawMessage(`{"document_type":"invoice"}`)
	job, err = store.Update(ctx, "j1", MarkSucceeded(result))
	if err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}
	if job.Status != StatusSucceeded || job.Progress != 100 {
		t.Fatalf("unexpected terminal state: %+v", job)
	}

	if _, err := store.Update(ctx, "j1", MarkFailed(ErrKindPipeline, "late failure")); !errors.Is(err, ErrTerminal) {
		t.Fatalf("expected ErrTerminal, got %v", err)
	}
	got, _ := store.Get(ctx, "j1")
	if got.Status != StatusSucceeded || got.Error != nil {
		t.Fatalf("terminal job mutated: %+v", got)
	}
	if string(got.Result) != string(result) {
		t.Fatalf("result mutated: %s", got.Result)
	}
}

func TestMemoryStoreConcurrentProgress(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Create(ctx, newTestJob("j1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Update(ctx, "j1", MarkProcessing()); err != nil {
		t.Fatalf("mark processing: %v", err)
	}

	var wg sync.WaitGroup
	for p := 1; p <= 100; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			if _, err := store.Update(ctx, "j1", SetProgress(p, "")); err != nil {
				t.Errorf("progress %d: %v", p, err)
			}
		}(p)
	}
	wg.Wait()

	job, err := store.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Progress != 100 {
		t.Fatalf("expected progress 100 after all updates, got %d", job.Progress)
	}
}

func TestMemoryStoreStalledAndReap(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	past := time.Now().UTC().Add(-2 * time.Hour)

	stale := newTestJob("stale")
	stale.Status = StatusProcessing
	stale.CreatedAt = past
	stale.UpdatedAt = past
	if err := store.Create(ctx, stale); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Still queued with a stale clock: its task was lost before pickup.
	lost := newTestJob("lost")
	lost.CreatedAt = past
	lost.UpdatedAt = past
	if err := store.Create(ctx, lost); err != nil {
		t.Fatalf("create: %v", err)
	}
	finished := newTestJob("finished")
	finished.Status = StatusSucceeded
	finished.CreatedAt = past
	finished.UpdatedAt = past
	if err := store.Create(ctx, finished); err != nil {
		t.Fatalf("create: %v", err)
	}
	fresh := newTestJob("fresh")
	if err := store.Create(ctx, fresh); err != nil {
		t.Fatalf("create: %v", err)
	}

	stalled, err := store.ListStalled(ctx, 30*time.Minute)
	if err != nil {
		t.Fatalf("list stalled: %v", err)
	}
	got := map[string]bool{}
	for _, job := range stalled {
		got[job.ID] = true
	}
	if len(got) != 2 || !got["stale"] || !got["lost"] {
		t.Fatalf("expected the stale and lost jobs, got %+v", stalled)
	}

	removed, err := store.Reap(ctx, time.Hour)
	if err != nil {
		t.Fatalf("reap: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 reaped jobs, got %d", removed)
	}
	if _, err := store.Get(ctx, "stale"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("reaped job still present: %v", err)
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Fatalf("fresh job should survive reap: %v", err)
	}
}
