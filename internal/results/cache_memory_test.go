package results

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestMemoryCacheHitAndMiss(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(time.Hour, 10)

	if _, ok, err := cache.Get(ctx, "fp1"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	payload := json.RawMessage(`{"document_type":"invoice"}`)
	if err := cache.Put(ctx, "fp1", payload); err != nil {
		t.Fatalf("put: %v", err)
	}

	entry, ok, err := cache.Get(ctx, "fp1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(entry.Result) != string(payload) {
		t.Fatalf("unexpected payload: %s", entry.Result)
	}
	if entry.CachedAt.IsZero() {
		t.Fatal("cachedAt not recorded")
	}
}

func TestMemoryCacheOverwrite(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(time.Hour, 10)

	if err := cache.Put(ctx, "fp1", json.RawMessage(`{"v":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := cache.Put(ctx, "fp1", json.RawMessage(`{"v":2}`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	entry, ok, _ := cache.Get(ctx, "fp1")
	if !ok || string(entry.Result) != `{"v":2}` {
		t.Fatalf("later write should win, got %s", entry.Result)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(time.Minute, 10)

	current := time.Now().UTC()
	cache.now = func() time.Time { return current }

	if err := cache.Put(ctx, "fp1", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	current = current.Add(2 * time.Minute)
	if _, ok, err := cache.Get(ctx, "fp1"); err != nil || ok {
		t.Fatalf("expected expired entry to miss, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryCacheCapacityEviction(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(time.Hour, 2)

	_ = cache.Put(ctx, "a", json.RawMessage(`{}`))
	_ = cache.Put(ctx, "b", json.RawMessage(`{}`))

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok, _ := cache.Get(ctx, "a"); !ok {
		t.Fatal("expected hit for a")
	}

	_ = cache.Put(ctx, "c", json.RawMessage(`{}`))

	if _, ok, _ := cache.Get(ctx, "b"); ok {
		t.Fatal("expected least recently used entry to be evicted")
	}
	if _, ok, _ := cache.Get(ctx, "a"); !ok {
		t.Fatal("recently used entry should survive eviction")
	}
	if _, ok, _ := cache.Get(ctx, "c"); !ok {
		t.Fatal("new entry should be present")
	}
}
