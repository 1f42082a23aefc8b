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
	uploadSucceededTotal atomic.Uint64
	uploadRejectedTotal  atomic.Uint64
	uploadFailedTotal    atomic.Uint64
	downloadTotal        atomic.Uint64
	downloadFailedTotal  atomic.Uint64
	deleteTotal          atomic.Uint64
	deleteFailedTotal    atomic.Uint64

	uploadSize = newHistogram([]float64{1 << 10, 16 << 10, 128 << 10, 1 << 20, 4 << 20, 10 << 20})
)

// IncUploadSucceeded increments the successful-upload counter.
func IncUploadSucceeded() {
	uploadSucceededTotal.Add(1)
}

// IncUploadRejected increments the counter for uploads refused by policy
// (validation, quota, duplicate).
func IncUploadRejected() {
	uploadRejectedTotal.Add(1)
}

// IncUploadFailed increments the counter for uploads lost to infrastructure.
func IncUploadFailed() {
	uploadFailedTotal.Add(1)
}

// IncDownload increments the download counter.
func IncDownload() {
	downloadTotal.Add(1)
}

// IncDownloadFailed increments the failed-download counter.
func IncDownloadFailed() {
	downloadFailedTotal.Add(1)
}

// IncDelete increments the delete counter.
func IncDelete() {
	deleteTotal.Add(1)
}

// IncDeleteFailed increments the failed-delete counter.
func IncDeleteFailed() {
	deleteFailedTotal.Add(1)
}

// ObserveUploadSize records an accepted upload's size in bytes.
func ObserveUploadSize(value float64) {
	if value < 0 {
		value = 0
	}
	uploadSize.Observe(value)
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
	writeCounter(&buf, "upload_succeeded_total", "Total uploads stored", uploadSucceededTotal.Load())
	writeCounter(&buf, "upload_rejected_total", "Total uploads refused by policy", uploadRejectedTotal.Load())
	writeCounter(&buf, "upload_failed_total", "Total uploads lost to infrastructure", uploadFailedTotal.Load())
	writeCounter(&buf, "download_total", "Total downloads served", downloadTotal.Load())
	writeCounter(&buf, "download_failed_total", "Total failed downloads", downloadFailedTotal.Load())
	writeCounter(&buf, "delete_total", "Total deletes completed", deleteTotal.Load())
	writeCounter(&buf, "delete_failed_total", "Total failed deletes", deleteFailedTotal.Load())
	writeHistogram(&buf, "upload_size_bytes", "Accepted upload size in bytes", uploadSize.Snapshot())
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
