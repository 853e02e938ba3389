package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Server metrics - using explicit registration
var (
	// HTTP request counter
	RequestsTotal *prometheus.CounterVec

	// HTTP request duration histogram
	RequestDuration *prometheus.HistogramVec

	// Indexed chunk counter
	ChunksIndexedTotal *prometheus.CounterVec

	// Query counter by outcome
	QueriesTotal *prometheus.CounterVec

	// External provider latency (embeddings, chat completion, vector store)
	ExternalProviderLatency *prometheus.HistogramVec
)

func init() {
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docuchat",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docuchat",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	ChunksIndexedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docuchat",
			Subsystem: "index",
			Name:      "chunks_indexed_total",
			Help:      "Total number of chunks indexed per document type",
		},
		[]string{"extension"},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docuchat",
			Subsystem: "rag",
			Name:      "queries_total",
			Help:      "Total RAG queries by outcome",
		},
		[]string{"outcome"},
	)

	ExternalProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docuchat",
			Subsystem: "rag",
			Name:      "external_provider_latency_seconds",
			Help:      "External provider response time in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ChunksIndexedTotal)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(ExternalProviderLatency)
}

// RecordRequest records an HTTP request outcome.
func RecordRequest(method, path, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, path, status).Inc()
	RequestDuration.WithLabelValues(method, path).Observe(durationSec)
}

// RecordChunks records indexed chunks for a document extension.
func RecordChunks(extension string, count int) {
	if extension == "" {
		extension = "unknown"
	}
	ChunksIndexedTotal.WithLabelValues(extension).Add(float64(count))
}

// RecordQuery records a query outcome ("answered", "no_context", "error").
func RecordQuery(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	QueriesTotal.WithLabelValues(outcome).Inc()
}

// RecordProviderLatency records an external provider call duration.
func RecordProviderLatency(provider string, durationSec float64) {
	ExternalProviderLatency.WithLabelValues(provider).Observe(durationSec)
}
