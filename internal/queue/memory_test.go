package queue

import (
	"context"
	"testing"
	"time"

	"finsight-backend/internal/doctype"
)

func TestMemoryQueueFIFO(t *testing.T) {
	ctx := context.Background()
	q, err := NewMemoryQueue(DocumentProcessing, 8)
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}

	for _, id := range []string{"a", "b", "c"} {
		task := NewTask(id, "fp-"+id, doctype.Invoice, id+".pdf", "", 1)
		if err := q.Enqueue(ctx, task); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}

	for _, want := range []string{"a", "b", "c"} {
		d, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("dequeue: %v", err)
		}
		if d.Task.JobID != want {
			t.Fatalf("expected %s, got %s", want, d.Task.JobID)
		}
		if err := d.Ack(ctx); err != nil {
			t.Fatalf("ack: %v", err)
		}
	}
}

func TestMemoryQueueDequeueBlocksUntilCancel(t *testing.T) {
	q, err := NewMemoryQueue(DocumentProcessing, 1)
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := q.Dequeue(ctx); err == nil {
		t.Fatal("expected context error on empty queue")
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Fatal("dequeue returned before context deadline")
	}
}

func TestMemoryQueueFullFailsFast(t *testing.T) {
	ctx := context.Background()
	q, err := NewMemoryQueue(DocumentProcessing, 1)
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}

	if err := q.Enqueue(ctx, NewTask("a", "fp", doctype.Invoice, "a.pdf", "", 1)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, NewTask("b", "fp", doctype.Invoice, "b.pdf", "", 1)); err == nil {
		t.Fatal("expected error when queue buffer is full")
	}
}

func TestMemoryQueueRejectsUnknownName(t *testing.T) {
	if _, err := NewMemoryQueue(Name("nobody_consumes_this"), 1); err == nil {
		t.Fatal("expected constructor to reject unknown queue name")
	}
}
