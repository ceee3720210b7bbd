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

var pipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pipeline_runs_total",
	Help: "Pipeline runs labelled by kind and outcome",
}, []string{"kind", "outcome"})

var chunksEmbeddedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "chunks_embedded_total",
	Help: "Number of text chunks submitted for embedding",
})

var embeddingFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "embedding_failures_total",
	Help: "Number of chunk embedding calls that failed",
})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) CaptureWriteHeaderMetrics(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func RecordPipelineRun(kind string, outcome string) {
	pipelineRunsTotal.WithLabelValues(kind, outcome).Inc()
}

func AddChunksEmbedded(n int) {
	chunksEmbeddedTotal.Add(float64(n))
}

func IncrementEmbeddingFailures() {
	embeddingFailuresTotal.Inc()
}

var pipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "pipeline_duration_seconds",
	Help:    "Total time spent running a document pipeline.",
	Buckets: []float64{.5, 1, 2, 5, 10, 30, 60, 120},
}, []string{"kind"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CapturePipelineMetrics(kind string, timeElapsed time.Duration) {
	pipelineDuration.WithLabelValues(kind).Observe(timeElapsed.Seconds())
}
