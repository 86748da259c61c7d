package object

import (
	"context"
	"fmt"
	"io"
	"path"

	"finsight-backend/internal/shared/util"
)

// ObjectStore persists document payloads under caller-chosen keys. The
// queue only carries storage keys; workers fetch document bytes from here.
// Delete is idempotent: removing a missing key is not an error.
type ObjectStore interface {
	Save(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// DocumentKey builds the canonical storage key for a submitted document:
// documents/<fingerprint>/<sanitized file name>.
func DocumentKey(fingerprint, fileName string) (string, error) {
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join("documents", fingerprint, sanitized), nil
}

// ReadAll fetches a stored object fully into memory.
func ReadAll(ctx context.Context, store ObjectStore, storageKey string) ([]byte, error) {
	rc, err := store.Open(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
