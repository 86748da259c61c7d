// Package results holds the fingerprint-keyed cache of completed extraction
// results. A cache write only happens after a job reaches terminal success;
// failures are never stored.
package results

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is a cached result payload with bookkeeping for eviction.
type Entry struct {
	Result   json.RawMessage `json:"result"`
	CachedAt time.Time       `json:"cachedAt"`
}

// Cache maps a document fingerprint to a previously computed result.
// Get returns ok=false on a miss; backends translate their own failures
// into errors so callers can degrade to a miss. Put overwrites any existing
// entry unconditionally.
type Cache interface {
	Get(ctx context.Context, fingerprint string) (Entry, bool, error)
	Put(ctx context.Context, fingerprint string, result json.RawMessage) error
}
