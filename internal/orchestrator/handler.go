package orchestrator

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"finsight-backend/internal/export"
	"finsight-backend/internal/jobs"
	"finsight-backend/internal/shared/server/respond"
	"finsight-backend/internal/tally"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches processing routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/process", h.process)
	rg.GET("/jobs/:id/status", h.status)
	rg.GET("/jobs/:id/result", h.result)
	rg.GET("/jobs/:id/export/tally", h.exportTally)
	rg.GET("/jobs/:id/export/excel", h.exportExcel)
}

func (h *Handler) process(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	outcome, err := h.Svc.Submit(c.Request.Context(), Submission{
		FileName:     fileHeader.Filename,
		DocumentType: c.PostForm("documentType"),
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Content:      content,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "submit_failed", "failed to submit document", err.Error())
		return
	}

	if outcome.CacheHit {
		respond.OK(c, cachedResponse(outcome))
		return
	}
	c.Set("jobId", outcome.Job.ID)
	c.Set("statusTransition", "->queued")
	respond.Accepted(c, toSubmitResponse(outcome))
}

func (h *Handler) status(c *gin.Context) {
	job, ok := h.lookup(c)
	if !ok {
		return
	}
	respond.OK(c, toStatusResponse(job))
}

func (h *Handler) result(c *gin.Context) {
	job, ok := h.lookup(c)
	if !ok {
		return
	}
	switch job.Status {
	case jobs.StatusSucceeded:
		respond.OK(c, toResultResponse(job))
	case jobs.StatusFailed, jobs.StatusCancelled:
		respond.OK(c, toFailedResponse(job))
	default:
		respond.Accepted(c, toStatusResponse(job))
	}
}

func (h *Handler) exportTally(c *gin.Context) {
	job, ok := h.lookupSucceeded(c)
	if !ok {
		return
	}
	payload, err := tally.BuildVouchers(job.Result, c.Query("company"))
	if err != nil {
		if errors.Is(err, tally.ErrUnsupported) {
			respond.Error(c, http.StatusUnprocessableEntity, "unsupported_export", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "export_failed", "failed to build Tally export", err.Error())
		return
	}
	attach(c, job.ID+"-tally.xml", "application/xml", payload)
}

func (h *Handler) exportExcel(c *gin.Context) {
	job, ok := h.lookupSucceeded(c)
	if !ok {
		return
	}
	payload, err := export.WorkbookXLSX(job.Result)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "export_failed", "failed to build workbook", err.Error())
		return
	}
	attach(c, job.ID+".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", payload)
}

func (h *Handler) lookup(c *gin.Context) (jobs.Job, bool) {
	id := c.Param("id")
	c.Set("jobId", id)
	job, err := h.Svc.Status(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
			return jobs.Job{}, false
		}
		respond.Error(c, http.StatusInternalServerError, "lookup_failed", "failed to load job", err.Error())
		return jobs.Job{}, false
	}
	return job, true
}

func (h *Handler) lookupSucceeded(c *gin.Context) (jobs.Job, bool) {
	job, ok := h.lookup(c)
	if !ok {
		return jobs.Job{}, false
	}
	if job.Status != jobs.StatusSucceeded {
		respond.Error(c, http.StatusConflict, "not_ready",
			fmt.Sprintf("job is %s; exports require a succeeded job", job.Status), nil)
		return jobs.Job{}, false
	}
	return job, true
}

func attach(c *gin.Context, fileName, contentType string, payload []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, contentType, payload)
}
