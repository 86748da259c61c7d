package jobs

import (
	"encoding/json"
	"time"

	"finsight-backend/internal/doctype"
)

// Status is the observable state of a job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transitions are permitted from s.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// Error kinds recorded on failed jobs.
const (
	ErrKindPipeline       = "pipeline"
	ErrKindValidation     = "validation"
	ErrKindPanic          = "panic"
	ErrKindAbandoned      = "abandoned"
	ErrKindInfrastructure = "infrastructure"
)

// JobError is the structured failure description stored on a failed job.
// It is data, never a raw stack trace.
type JobError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Job is a tracked unit of asynchronous document processing.
type Job struct {
	ID           string          `json:"id"`
	Fingerprint  string          `json:"fingerprint"`
	DocumentType doctype.Type    `json:"documentType"`
	FileName     string          `json:"fileName"`
	StorageKey   string          `json:"storageKey"`
	Status       Status          `json:"status"`
	Progress     int             `json:"progress"`
	Message      string          `json:"message"`
	Result       json.RawMessage `json:"result,omitempty"`
	Error        *JobError       `json:"error,omitempty"`
	Attempt      int             `json:"attempt"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// New returns a job in the initial queued state.
func New(id, fingerprint string, documentType doctype.Type, fileName, storageKey string) Job {
	now := time.Now().UTC()
	return Job{
		ID:           id,
		Fingerprint:  fingerprint,
		DocumentType: documentType,
		FileName:     fileName,
		StorageKey:   storageKey,
		Status:       StatusQueued,
		Progress:     0,
		Message:      "Waiting for a worker",
		Attempt:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
