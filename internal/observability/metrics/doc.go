// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - Pipeline metrics (staged articles, encoded vectors, similarity rebuilds)
//   - Vocabulary metrics (size, snapshot version, stale vectors)
//   - HTTP request metrics for the query API
//   - Database query metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "interlocutor/internal/observability/metrics"
//
//	func encodeBatch() {
//	    start := time.Now()
//	    // ... encode pending articles ...
//	    metrics.RecordVectorsEncoded(count, version)
//	    metrics.ObservePipelineStage("encode", time.Since(start))
//	}
package metrics
