// Package pipeline implements the document extraction pipeline invoked by
// workers: text extraction, optional classification, structured extraction
// per document type, and summary report generation.
package pipeline

import (
	"context"
	"encoding/json"

	"finsight-backend/internal/doctype"
)

// ProgressFunc receives progress callbacks while a document is processed.
// Implementations must be cheap; the pipeline may call it any number of
// times before returning.
type ProgressFunc func(percent int, message string)

// Document is the input to a pipeline run.
type Document struct {
	FileName string
	Content  []byte
	Type     doctype.Type
}

// Reports holds the per-type summary generated alongside extracted data.
type Reports struct {
	Summary string             `json:"summary"`
	Totals  map[string]float64 `json:"totals,omitempty"`
}

// Result is the payload stored on a succeeded job and in the result cache.
type Result struct {
	DocumentType  doctype.Type    `json:"document_type"`
	FileName      string          `json:"filename"`
	ExtractedData json.RawMessage `json:"extracted_data"`
	Reports       Reports         `json:"reports"`
}

// Runner runs the extraction pipeline for one document.
type Runner interface {
	Run(ctx context.Context, doc Document, progress ProgressFunc) (Result, error)
}

// Error kinds reported by the pipeline.
const (
	KindExtraction  = "extraction"
	KindUnsupported = "unsupported"
)

// Error is a structured pipeline failure. Workers record Kind and Message
// on the failed job instead of a raw error chain.
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string { return e.Kind + ": " + e.Message }

func extractionError(msg string) *Error {
	return &Error{Kind: KindExtraction, Message: msg}
}
