// Package metrics provides centralized Prometheus metrics for the pipeline
// and the query API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track the query API's request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Pipeline metrics track the staged ingestion and encoding flow
var (
	// ArticlesStagedTotal counts staged writes per source and stage
	// (stage: metadata, content)
	ArticlesStagedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_staged_total",
			Help: "Total number of staged article writes",
		},
		[]string{"source", "stage"},
	)

	// SourceFetchErrorsTotal counts failed source ingestion attempts
	SourceFetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_errors_total",
			Help: "Total number of failed source fetches",
		},
		[]string{"source"},
	)

	// VectorsEncodedTotal counts encoded vectors per vocabulary snapshot
	VectorsEncodedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vectors_encoded_total",
			Help: "Total number of article vectors encoded",
		},
		[]string{"snapshot_version"},
	)

	// SimilarityArticlesRecomputedTotal counts articles whose neighbor sets
	// were rebuilt
	SimilarityArticlesRecomputedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "similarity_articles_recomputed_total",
			Help: "Total number of articles whose similarity edges were rebuilt",
		},
	)

	// PipelineStageDuration measures wall time per pipeline stage
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Time taken by each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"stage"},
	)

	// VocabularySize tracks the live vocabulary term count
	VocabularySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vocabulary_size",
			Help: "Number of terms in the live vocabulary",
		},
	)

	// VocabularySnapshotVersion tracks the current frozen snapshot version
	VocabularySnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vocabulary_snapshot_version",
			Help: "Version of the current frozen vocabulary snapshot",
		},
	)

	// StaleVectors tracks vectors awaiting re-encoding
	StaleVectors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stale_vectors",
			Help: "Number of vectors that are stale or pinned to an old snapshot",
		},
	)
)

// Database metrics track storage-layer health
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordDBQuery records the duration of a database query operation.
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
