package orchestrator

import (
	"encoding/json"
	"time"

	"finsight-backend/internal/jobs"
)

type submitResponse struct {
	JobID        string `json:"jobId"`
	Cached       bool   `json:"cached"`
	Fingerprint  string `json:"fingerprint"`
	Status       string `json:"status"`
	DocumentType string `json:"documentType"`
}

type cachedSubmitResponse struct {
	Cached      bool            `json:"cached"`
	Fingerprint string          `json:"fingerprint"`
	Result      json.RawMessage `json:"result"`
}

type statusResponse struct {
	JobID     string         `json:"jobId"`
	Status    string         `json:"status"`
	Progress  int            `json:"progress"`
	Message   string         `json:"message"`
	Error     *jobs.JobError `json:"error,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type resultResponse struct {
	JobID  string          `json:"jobId"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
}

type failedResponse struct {
	JobID  string         `json:"jobId"`
	Status string         `json:"status"`
	Error  *jobs.JobError `json:"error,omitempty"`
}

func toSubmitResponse(outcome SubmitOutcome) submitResponse {
	return submitResponse{
		JobID:        outcome.Job.ID,
		Cached:       false,
		Fingerprint:  outcome.Fingerprint,
		Status:       string(outcome.Job.Status),
		DocumentType: outcome.Job.DocumentType.String(),
	}
}

func cachedResponse(outcome SubmitOutcome) cachedSubmitResponse {
	return cachedSubmitResponse{
		Cached:      true,
		Fingerprint: outcome.Fingerprint,
		Result:      outcome.Result,
	}
}

func toStatusResponse(job jobs.Job) statusResponse {
	return statusResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		Progress:  job.Progress,
		Message:   job.Message,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}

func toResultResponse(job jobs.Job) resultResponse {
	return resultResponse{
		JobID:  job.ID,
		Status: string(job.Status),
		Result: job.Result,
	}
}

func toFailedResponse(job jobs.Job) failedResponse {
	return failedResponse{
		JobID:  job.ID,
		Status: string(job.Status),
		Error:  job.Error,
	}
}
