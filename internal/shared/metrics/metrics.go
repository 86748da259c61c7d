package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	submissionsTotal   atomic.Uint64
	jobsReceivedTotal  atomic.Uint64
	jobsStartedTotal   atomic.Uint64
	jobsCompletedTotal atomic.Uint64
	jobsFailedTotal    atomic.Uint64
	jobsDiscardedTotal atomic.Uint64
	cacheHitsTotal     atomic.Uint64
	cacheMissesTotal   atomic.Uint64
	cacheWritesTotal   atomic.Uint64

	jobDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncSubmissions increments the document submission counter.
func IncSubmissions() {
	submissionsTotal.Add(1)
}

// IncJobsReceived increments the counter of tasks taken off the queue.
func IncJobsReceived() {
	jobsReceivedTotal.Add(1)
}

// IncJobsStarted increments the counter of jobs claimed for processing.
func IncJobsStarted() {
	jobsStartedTotal.Add(1)
}

// IncJobsCompleted increments the completed counter.
func IncJobsCompleted() {
	jobsCompletedTotal.Add(1)
}

// IncJobsFailed increments the failed counter.
func IncJobsFailed() {
	jobsFailedTotal.Add(1)
}

// IncJobsDiscarded increments the counter of redeliveries dropped because
// the job already reached a terminal state.
func IncJobsDiscarded() {
	jobsDiscardedTotal.Add(1)
}

// IncCacheHits increments the result cache hit counter.
func IncCacheHits() {
	cacheHitsTotal.Add(1)
}

// IncCacheMisses increments the result cache miss counter.
func IncCacheMisses() {
	cacheMissesTotal.Add(1)
}

// IncCacheWrites increments the result cache write counter.
func IncCacheWrites() {
	cacheWritesTotal.Add(1)
}

// ObserveJobDurationMs records an end-to-end job processing duration in milliseconds.
func ObserveJobDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	jobDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "submissions_total", "Total documents submitted for processing", submissionsTotal.Load())
	writeCounter(&buf, "jobs_received_total", "Total tasks dequeued by workers", jobsReceivedTotal.Load())
	writeCounter(&buf, "jobs_started_total", "Total jobs claimed for processing", jobsStartedTotal.Load())
	writeCounter(&buf, "jobs_completed_total", "Total jobs completed", jobsCompletedTotal.Load())
	writeCounter(&buf, "jobs_failed_total", "Total jobs failed", jobsFailedTotal.Load())
	writeCounter(&buf, "jobs_discarded_total", "Total redeliveries discarded for terminal jobs", jobsDiscardedTotal.Load())
	writeCounter(&buf, "cache_hits_total", "Total result cache hits", cacheHitsTotal.Load())
	writeCounter(&buf, "cache_misses_total", "Total result cache misses", cacheMissesTotal.Load())
	writeCounter(&buf, "cache_writes_total", "Total result cache writes", cacheWritesTotal.Load())
	writeHistogram(&buf, "job_duration_ms", "Job processing duration in milliseconds", jobDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
