package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"finsight-backend/internal/doctype"
)

func jobRows(job Job) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "fingerprint", "document_type", "file_name", "storage_key",
		"status", "progress", "message", "result", "error_kind",
		"error_message", "attempt", "created_at", "updated_at",
	})
	var result []byte
	if len(job.Result) > 0 {
		result = job.Result
	}
	var kind, message any
	if job.Error != nil {
		kind = job.Error.Kind
		message = job.Error.Message
	}
	rows.AddRow(
		job.ID, job.Fingerprint, string(job.DocumentType), job.FileName,
		job.StorageKey, string(job.Status), job.Progress, job.Message,
		result, kind, message, job.Attempt, job.CreatedAt, job.UpdatedAt,
	)
	return rows
}

func TestPGStoreCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	job := New("job-1", "fp-1", doctype.BankStatement, "statement.pdf", "documents/fp-1/statement.pdf")

	mock.ExpectExec("INSERT INTO jobs").
		WithArgs(
			job.ID,
			job.Fingerprint,
			string(job.DocumentType),
			job.FileName,
			sqlmock.AnyArg(), // storage_key
			string(StatusQueued),
			0,
			job.Message,
			nil,              // result
			sqlmock.AnyArg(), // error_kind
			sqlmock.AnyArg(), // error_message
			1,
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	mock.ExpectQuery("SELECT (.+) FROM jobs WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "fingerprint", "document_type", "file_name", "storage_key",
			"status", "progress", "message", "result", "error_kind",
			"error_message", "attempt", "created_at", "updated_at",
		}))

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreUpdateTerminalGuard(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}

	done := New("job-1", "fp-1", doctype.Invoice, "invoice.pdf", "")
	done.Status = StatusSucceeded
	done.Progress = 100

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM jobs WHERE id (.+) FOR UPDATE").
		WithArgs("job-1").
		WillReturnRows(jobRows(done))
	mock.ExpectRollback()

	_, err = store.Update(context.Background(), "job-1", MarkFailed(ErrKindPipeline, "late"))
	if !errors.Is(err, ErrTerminal) {
		t.Fatalf("expected ErrTerminal, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreUpdateAppliesMutator(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}

	current := New("job-1", "fp-1", doctype.Invoice, "invoice.pdf", "")
	current.Status = StatusProcessing
	current.Progress = 40

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM jobs WHERE id (.+) FOR UPDATE").
		WithArgs("job-1").
		WillReturnRows(jobRows(current))
	mock.ExpectExec("UPDATE jobs").
		WithArgs(
			"job-1",
			string(StatusProcessing),
			70,
			"Generating reports...",
			nil,
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			1,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	job, err := store.Update(context.Background(), "job-1", SetProgress(70, "Generating reports..."))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if job.Progress != 70 {
		t.Fatalf("expected progress 70, got %d", job.Progress)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreReap(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	mock.ExpectExec("DELETE FROM jobs WHERE created_at").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := store.Reap(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("Reap: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 reaped, got %d", removed)
	}
}
