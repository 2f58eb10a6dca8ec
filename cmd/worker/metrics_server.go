package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	hhttp "interlocutor/internal/handler/http"
	"interlocutor/internal/repository"
)

// startMetricsServer starts the worker's observability HTTP server. It is a
// side port, not a public surface: Prometheus scrapes /metrics, the
// orchestrator probes /livez and /readyz, and /healthz gives an operator the
// full component report.
//
// Environment variables:
//   - METRICS_PORT: port to listen on (default: 9090)
//
// When ctx is canceled the server shuts down gracefully within 5 seconds.
func startMetricsServer(ctx context.Context, logger *slog.Logger, database *sql.DB, vocab repository.VocabularyRepository) *http.Server {
	port := getMetricsPort()

	mux := http.NewServeMux()
	mux.Handle("/metrics", hhttp.MetricsHandler())
	mux.Handle("/healthz", &hhttp.HealthHandler{
		DB:      database,
		Version: getVersion(),
		Vocab:   vocab,
	})
	mux.Handle("/readyz", &hhttp.ReadyHandler{DB: database})
	mux.Handle("/livez", &hhttp.LiveHandler{})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info("metrics server shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		} else {
			logger.Info("metrics server stopped")
		}
	}()

	return server
}

// getMetricsPort reads METRICS_PORT, defaulting to 9090 on absence or any
// invalid value.
func getMetricsPort() int {
	portStr := os.Getenv("METRICS_PORT")
	if portStr == "" {
		return 9090
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return 9090
	}
	return port
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}
