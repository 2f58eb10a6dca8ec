// Package observability provides observability infrastructure for the
// pipeline worker and the query API, including structured logging and
// Prometheus metrics.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus metrics registry and recorders
//
// Example usage:
//
//	import (
//	    "interlocutor/internal/observability/logging"
//	    "interlocutor/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("worker started")
//
//	    metrics.RecordArticleStaged("guardian", "metadata")
//	}
package observability
