package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"finsight-backend/internal/doctype"
)

// PGStore implements Store using Postgres.
type PGStore struct {
	DB *sql.DB
}

const jobColumns = `id, fingerprint, document_type, file_name, storage_key, status, progress, message, result, error_kind, error_message, attempt, created_at, updated_at`

// Create inserts a new job row.
func (s *PGStore) Create(ctx context.Context, job Job) error {
	const query = `
INSERT INTO jobs (` + jobColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := s.DB.ExecContext(
		ctx,
		query,
		job.ID,
		job.Fingerprint,
		string(job.DocumentType),
		job.FileName,
		nullString(job.StorageKey),
		string(job.Status),
		job.Progress,
		job.Message,
		nullBytes(job.Result),
		errKind(job.Error),
		errMessage(job.Error),
		job.Attempt,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return ErrDuplicateID
	}
	return err
}

// Get returns a job by id.
func (s *PGStore) Get(ctx context.Context, id string) (Job, error) {
	const query = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	return scanJob(s.DB.QueryRowContext(ctx, query, id))
}

// Update applies the mutator inside a transaction with a row lock, so two
// concurrent progress updates cannot race.
func (s *PGStore) Update(ctx context.Context, id string, mutate func(*Job) error) (Job, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Job{}, fmt.Errorf("begin update tx: %w", err)
	}
	defer tx.Rollback()

	const selectQuery = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 FOR UPDATE`
	job, err := scanJob(tx.QueryRowContext(ctx, selectQuery, id))
	if err != nil {
		return Job{}, err
	}
	if job.Status.Terminal() {
		return job, ErrTerminal
	}
	if err := mutate(&job); err != nil {
		return job, err
	}
	job.UpdatedAt = time.Now().UTC()

	const updateQuery = `
UPDATE jobs
SET status = $2, progress = $3, message = $4, result = $5,
    error_kind = $6, error_message = $7, attempt = $8, updated_at = $9
WHERE id = $1`
	if _, err := tx.ExecContext(
		ctx,
		updateQuery,
		job.ID,
		string(job.Status),
		job.Progress,
		job.Message,
		nullBytes(job.Result),
		errKind(job.Error),
		errMessage(job.Error),
		job.Attempt,
		job.UpdatedAt,
	); err != nil {
		return Job{}, fmt.Errorf("update job %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return Job{}, fmt.Errorf("commit update: %w", err)
	}
	return job, nil
}

// ListStalled returns queued and processing jobs whose updated_at is older
// than staleFor.
func (s *PGStore) ListStalled(ctx context.Context, staleFor time.Duration) ([]Job, error) {
	const query = `
SELECT ` + jobColumns + `
FROM jobs
WHERE status IN ($1, $2) AND updated_at < $3
ORDER BY updated_at ASC`
	cutoff := time.Now().UTC().Add(-staleFor)
	rows, err := s.DB.QueryContext(ctx, query, string(StatusQueued), string(StatusProcessing), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stalled []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		stalled = append(stalled, job)
	}
	return stalled, rows.Err()
}

// Reap deletes jobs created before the retention cutoff.
func (s *PGStore) Reap(ctx context.Context, olderThan time.Duration) (int, error) {
	const query = `DELETE FROM jobs WHERE created_at < $1`
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := s.DB.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var job Job
	var docType, status string
	var storageKey, kind, message sql.NullString
	var result []byte
	err := row.Scan(
		&job.ID,
		&job.Fingerprint,
		&docType,
		&job.FileName,
		&storageKey,
		&status,
		&job.Progress,
		&job.Message,
		&result,
		&kind,
		&message,
		&job.Attempt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	job.DocumentType = doctype.Type(docType)
	job.Status = Status(status)
	job.StorageKey = storageKey.String
	if len(result) > 0 {
		job.Result = result
	}
	if kind.Valid || message.Valid {
		job.Error = &JobError{Kind: kind.String, Message: message.String}
	}
	return job, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func errKind(e *JobError) sql.NullString {
	if e == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: e.Kind, Valid: true}
}

func errMessage(e *JobError) sql.NullString {
	if e == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: e.Message, Valid: true}
}

var _ Store = (*PGStore)(nil)
