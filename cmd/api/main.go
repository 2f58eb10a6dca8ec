package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	hhttp "interlocutor/internal/handler/http"
	harticle "interlocutor/internal/handler/http/article"
	"interlocutor/internal/handler/http/requestid"
	pgRepo "interlocutor/internal/infra/adapter/persistence/postgres"
	"interlocutor/internal/infra/db"
	"interlocutor/internal/observability/logging"
	"interlocutor/internal/pkg/config"
	"interlocutor/internal/resilience/circuitbreaker"
	"interlocutor/internal/usecase/similarity"
	"interlocutor/internal/usecase/vocabulary"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	database := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()
	waitForMigrations(logger, database)

	version := getVersion()
	handler := setupServer(logger, database, version)

	runServer(logger, handler, version)
}

// waitForMigrations blocks until the worker has created the schema. The API
// never migrates; running two migrators concurrently is a race.
func waitForMigrations(logger *slog.Logger, database *sql.DB) {
	const probe = "SELECT 1 FROM article_metadata LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := database.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// setupServer wires the query surface: the similar-articles and
// processing-state endpoints plus health probes and metrics, wrapped in the
// middleware chain.
func setupServer(logger *slog.Logger, database *sql.DB, version string) http.Handler {
	// Repositories go through the breaker; the health endpoints keep the
	// bare pool so probes report an outage instead of an open circuit.
	guarded := circuitbreaker.NewDBCircuitBreaker(database)
	articles := pgRepo.NewArticleRepo(guarded)
	vectors := pgRepo.NewVectorRepo(guarded)
	edges := pgRepo.NewEdgeRepo(guarded)
	vocabRepo := pgRepo.NewVocabularyRepo(guarded)

	cfg, warnings := config.LoadPipelineConfig(config.NewConfigMetrics("api"))
	for _, w := range warnings {
		logger.Warn("configuration fallback applied", slog.String("detail", w))
	}

	// The API reads edges the worker computed; it only needs the query-side
	// options so ad hoc recomputes behave like scheduled ones.
	simSvc := &similarity.Service{
		Articles: articles,
		Vectors:  vectors,
		Edges:    edges,
		Vocab:    vocabulary.NewManager(vocabRepo),
		Opts: similarity.Options{
			MinScore:          cfg.MinScore,
			TopK:              cfg.TopK,
			ExcludeSameSource: cfg.ExcludeSameSource,
		},
		Logger: logger,
	}

	mux := http.NewServeMux()
	harticle.Register(mux, simSvc)

	mux.Handle("/healthz", &hhttp.HealthHandler{DB: database, Version: version, Vocab: vocabRepo})
	mux.Handle("/readyz", &hhttp.ReadyHandler{DB: database})
	mux.Handle("/livez", &hhttp.LiveHandler{})
	mux.Handle("/metrics", hhttp.MetricsHandler())

	return applyMiddleware(logger, mux)
}

// applyMiddleware wraps the handler with the middleware chain, innermost
// first: metrics, body limit, logging, recovery, request ID.
func applyMiddleware(logger *slog.Logger, handler http.Handler) http.Handler {
	chain := handler
	chain = hhttp.MetricsMiddleware(chain)
	chain = hhttp.LimitRequestBody(1 << 20)(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = hhttp.Recover(logger)(chain)
	chain = requestid.Middleware(chain)
	return chain
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, handler http.Handler, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := getListenAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}

// getListenAddr reads API_ADDR, defaulting to :8080.
func getListenAddr() string {
	if addr := os.Getenv("API_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}
