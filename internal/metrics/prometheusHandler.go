package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_jobs_in_queue",
	Help: "Number of jobs in queue",
})

var dispatcherSignalCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

// WriteHeader keeps the status for the request counter.
func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush passes through so streamed responses (mcp) are not buffered.
func (r *HttpStatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *HttpStatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}
func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "process_request_duration_seconds",
	Help:    "Total time spent in ProcessRequest.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	//dependencyLatency.WithLabelValues(label).Observe(time.Since(timeElapsed).Seconds())
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureJobMetrics(label string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

var ingestionChunks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ingestion_chunks_total",
	Help: "Chunks seen by ingestion, labelled by outcome",
}, []string{"outcome"})

var ingestionBatchFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ingestion_batch_failures_total",
	Help: "Embedding or index batches skipped during ingestion",
})

var documentsByOutcome = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "documents_processed_total",
	Help: "Documents that finished ingestion, labelled by final status",
}, []string{"status"})

var intentsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "intents_classified_total",
	Help: "Classified questions, labelled by intent and whether the classifier fell back to QA",
}, []string{"intent", "defaulted"})

var retrievalFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "retrieval_fallback_total",
	Help: "Vector searches that used the fallback threshold or returned the no information sentinel",
}, []string{"kind"})

var cleanupActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cleanup_actions_total",
	Help: "Documents touched by the recurring cleanup",
}, []string{"action"})

func CaptureIngestedChunks(indexed int, skipped int) {
	ingestionChunks.WithLabelValues("indexed").Add(float64(indexed))
	ingestionChunks.WithLabelValues("skipped").Add(float64(skipped))
}

func IncrementBatchFailure() {
	ingestionBatchFailures.Inc()
}

func IncrementDocumentOutcome(status string) {
	documentsByOutcome.WithLabelValues(status).Inc()
}

func IncrementIntent(intent string, defaulted bool) {
	d := "false"
	if defaulted {
		d = "true"
	}
	intentsClassified.WithLabelValues(intent, d).Inc()
}

func IncrementRetrievalFallback(kind string) {
	retrievalFallbacks.WithLabelValues(kind).Inc()
}

func IncrementCleanupAction(action string, n int) {
	cleanupActions.WithLabelValues(action).Add(float64(n))
}
