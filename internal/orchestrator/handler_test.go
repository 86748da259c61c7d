package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"finsight-backend/internal/jobs"
	"finsight-backend/internal/pipeline"
	"finsight-backend/internal/queue"
	"finsight-backend/internal/results"
	localstore "finsight-backend/internal/shared/storage/object/local"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	q, err := queue.NewMemoryQueue(queue.DocumentProcessing, 16)
	if err != nil {
		t.Fatalf("NewMemoryQueue: %v", err)
	}
	svc := &Service{
		Jobs:  jobs.NewMemoryStore(),
		Cache: results.NewMemoryCache(time.Hour, 16),
		Queue: q,
		Docs:  localstore.New(t.TempDir()),
		NewID: func() string { return "job-1" },
	}

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r, svc
}

func multipartBody(t *testing.T, fileName, documentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if documentType != "" {
		if err := w.WriteField("documentType", documentType); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestProcessAcceptsDocument(t *testing.T) {
	r, _ := newTestRouter(t)

	body, contentType := multipartBody(t, "statement.txt", "bank_statement", "01/02/2025 Salary 50,000.00")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}
	var out map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["jobId"] != "job-1" {
		t.Fatalf("unexpected jobId %v", out["jobId"])
	}
	if out["cached"] != false {
		t.Fatalf("expected cached=false, got %v", out["cached"])
	}
	if out["status"] != "queued" {
		t.Fatalf("expected queued, got %v", out["status"])
	}
}

func TestProcessRejectsUnknownType(t *testing.T) {
	r, _ := newTestRouter(t)

	body, contentType := multipartBody(t, "doc.txt", "tax_haiku", "text")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestProcessMissingFile(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestStatusUnknownJob(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/ghost/status", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestResultPendingAndSucceeded(t *testing.T) {
	r, svc := newTestRouter(t)
	ctx := context.Background()

	job := jobs.New("job-1", "fp", "bank_statement", "statement.txt", "k")
	if err := svc.Jobs.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-1/result", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 while pending, got %d", resp.Code)
	}

	result := pipeline.Result{
		DocumentType:  "bank_statement",
		FileName:      "statement.txt",
		ExtractedData: json.RawMessage(`{"transactions":[],"total_credits":0,"total_debits":0}`),
	}
	payload, _ := json.Marshal(result)
	if _, err := svc.Jobs.Update(ctx, "job-1", jobs.MarkProcessing()); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if _, err := svc.Jobs.Update(ctx, "job-1", jobs.MarkSucceeded(payload)); err != nil {
		t.Fatalf("MarkSucceeded: %v", err)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-1/result", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 when succeeded, got %d", resp.Code)
	}
	var out resultResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out.Status != "succeeded" || len(out.Result) == 0 {
		t.Fatalf("unexpected result response %+v", out)
	}
}

func TestResultFailedJobReturnsError(t *testing.T) {
	r, svc := newTestRouter(t)
	ctx := context.Background()

	job := jobs.New("job-1", "fp", "invoice", "a.txt", "k")
	if err := svc.Jobs.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Jobs.Update(ctx, "job-1", jobs.MarkProcessing()); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if _, err := svc.Jobs.Update(ctx, "job-1", jobs.MarkFailed(jobs.ErrKindPipeline, "no text extracted")); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-1/result", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out failedResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != "failed" || out.Error == nil || out.Error.Kind != jobs.ErrKindPipeline {
		t.Fatalf("unexpected failed response %+v", out)
	}
}

func TestExportRequiresSucceededJob(t *testing.T) {
	r, svc := newTestRouter(t)
	ctx := context.Background()

	job := jobs.New("job-1", "fp", "invoice", "a.txt", "k")
	if err := svc.Jobs.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, path := range []string{
		"/api/v1/jobs/job-1/export/tally",
		"/api/v1/jobs/job-1/export/excel",
	} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusConflict {
			t.Fatalf("%s: expected 409 for queued job, got %d", path, resp.Code)
		}
	}
}

func TestExportTallyAttachment(t *testing.T) {
	r, svc := newTestRouter(t)
	ctx := context.Background()

	extracted, _ := json.Marshal(pipeline.InvoiceData{
		InvoiceNumber: "INV-1",
		InvoiceDate:   "01/02/2025",
		VendorName:    "Sunrise Traders",
		Total:         1180,
		TaxAmount:     180,
	})
	payload, _ := json.Marshal(pipeline.Result{
		DocumentType:  "invoice",
		FileName:      "invoice.txt",
		ExtractedData: extracted,
	})

	job := jobs.New("job-1", "fp", "invoice", "invoice.txt", "k")
	if err := svc.Jobs.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Jobs.Update(ctx, "job-1", jobs.MarkProcessing()); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if _, err := svc.Jobs.Update(ctx, "job-1", jobs.MarkSucceeded(payload)); err != nil {
		t.Fatalf("MarkSucceeded: %v", err)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-1/export/tally?company=Acme", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("Content-Disposition"); !strings.Contains(got, "job-1-tally.xml") {
		t.Fatalf("unexpected disposition %q", got)
	}
	body := resp.Body.String()
	for _, want := range []string{"<ENVELOPE>", "<VOUCHERTYPENAME>Sales</VOUCHERTYPENAME>", "Acme", "Sunrise Traders"} {
		if !strings.Contains(body, want) {
			t.Fatalf("export missing %q:\n%s", want, body)
		}
	}
}
