package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"finsight-backend/internal/doctype"
)

// taskVersion guards against consuming payloads produced by an
// incompatible deploy.
const taskVersion = 1

// Task is the immutable message placed on the queue. It carries the job id
// and the storage key the worker uses to fetch the document bytes; the
// document body itself never travels through the broker.
type Task struct {
	JobID        string       `json:"jobId"`
	Fingerprint  string       `json:"fingerprint"`
	DocumentType doctype.Type `json:"documentType"`
	FileName     string       `json:"fileName"`
	StorageKey   string       `json:"storageKey"`
	Attempt      int          `json:"attempt"`
	EnqueuedAt   time.Time    `json:"enqueuedAt"`
	Version      int          `json:"version"`
}

// NewTask builds a task for a job, stamping version and enqueue time.
func NewTask(jobID, fingerprint string, documentType doctype.Type, fileName, storageKey string, attempt int) Task {
	return Task{
		JobID:        jobID,
		Fingerprint:  fingerprint,
		DocumentType: documentType,
		FileName:     fileName,
		StorageKey:   storageKey,
		Attempt:      attempt,
		EnqueuedAt:   time.Now().UTC(),
		Version:      taskVersion,
	}
}

// EncodeTask returns the JSON wire form of a task.
func EncodeTask(task Task) ([]byte, error) {
	return json.Marshal(task)
}

// DecodeTask parses and validates a task payload.
func DecodeTask(payload []byte) (Task, error) {
	var task Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return Task{}, fmt.Errorf("decode task: %w", err)
	}
	if strings.TrimSpace(task.JobID) == "" {
		return Task{}, fmt.Errorf("decode task: missing job id")
	}
	if strings.TrimSpace(task.Fingerprint) == "" {
		return Task{}, fmt.Errorf("decode task: missing fingerprint")
	}
	return task, nil
}
