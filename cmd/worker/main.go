package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"interlocutor/internal/handler/http/respond"
	pgRepo "interlocutor/internal/infra/adapter/persistence/postgres"
	"interlocutor/internal/infra/db"
	"interlocutor/internal/infra/source"
	"interlocutor/internal/normalizer"
	"interlocutor/internal/observability/logging"
	"interlocutor/internal/observability/metrics"
	"interlocutor/internal/pkg/config"
	"interlocutor/internal/repository"
	"interlocutor/internal/resilience/circuitbreaker"
	"interlocutor/internal/usecase/encode"
	"interlocutor/internal/usecase/ingest"
	"interlocutor/internal/usecase/pipeline"
	"interlocutor/internal/usecase/similarity"
	"interlocutor/internal/usecase/vocabulary"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := loadConfig(logger)

	adapters := buildSourceAdapters(logger)
	if len(adapters) == 0 {
		logger.Error("no sources configured, set SOURCE_FEEDS to a comma separated list of name=feed-url pairs")
		os.Exit(1)
	}

	// Repositories go through the breaker so a database outage fails the
	// run fast instead of stalling every statement.
	guarded := circuitbreaker.NewDBCircuitBreaker(database)
	vectors := pgRepo.NewVectorRepo(guarded)
	vocabRepo := pgRepo.NewVocabularyRepo(guarded)
	svc := buildPipeline(guarded, vectors, vocabRepo, adapters, cfg, logger)

	startMetricsServer(ctx, logger, database, vocabRepo)

	startCronWorker(logger, svc, cfg, vectors, vocabRepo)
}

// initDatabase opens the database connection and runs migrations. The worker
// owns the schema; the API assumes it is already in place.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// loadConfig loads the pipeline configuration with fail-open fallbacks and
// logs every value that fell back to a default.
func loadConfig(logger *slog.Logger) config.PipelineConfig {
	cfg, warnings := config.LoadPipelineConfig(config.NewConfigMetrics("worker"))
	for _, w := range warnings {
		logger.Warn("configuration fallback applied", slog.String("detail", w))
	}
	logger.Info("pipeline configuration loaded",
		slog.String("cron_schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Duration("run_timeout", cfg.RunTimeout),
		slog.Float64("drift_threshold", cfg.DriftThreshold),
		slog.Int("top_k", cfg.TopK),
		slog.Float64("min_score", cfg.MinScore),
		slog.Bool("exclude_same_source", cfg.ExcludeSameSource),
		slog.Int("source_parallelism", cfg.SourceParallelism),
		slog.String("normalizer_rules", cfg.NormalizerRules.Name))
	return cfg
}

// buildSourceAdapters creates one RSS adapter per entry in SOURCE_FEEDS.
// The format is "name=feed-url" pairs separated by commas; the name keys the
// per-source ingestion checkpoint, so renaming a source restarts its
// ingestion from scratch.
func buildSourceAdapters(logger *slog.Logger) []pipeline.SourceAdapter {
	raw := os.Getenv("SOURCE_FEEDS")
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	fetchCfg := source.DefaultFetchConfig()
	var adapters []pipeline.SourceAdapter
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, feedURL, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		feedURL = strings.TrimSpace(feedURL)
		if !ok || name == "" || feedURL == "" {
			logger.Warn("skipping malformed SOURCE_FEEDS entry", slog.String("entry", entry))
			continue
		}
		adapters = append(adapters, source.NewRSSSource(name, feedURL, fetchCfg, logger))
		logger.Info("source adapter registered",
			slog.String("source", name),
			slog.String("feed_url", feedURL))
	}
	return adapters
}

// buildPipeline wires the repositories and pipeline stages together.
func buildPipeline(
	database pgRepo.DB,
	vectors repository.VectorRepository,
	vocabRepo repository.VocabularyRepository,
	adapters []pipeline.SourceAdapter,
	cfg config.PipelineConfig,
	logger *slog.Logger,
) *pipeline.Service {
	articles := pgRepo.NewArticleRepo(database)
	edges := pgRepo.NewEdgeRepo(database)
	vocab := vocabulary.NewManager(vocabRepo)

	ingestSvc := &ingest.Service{
		Articles: articles,
		Vectors:  vectors,
		Logger:   logger,
	}
	encoder := &encode.Service{
		Articles: articles,
		Vectors:  vectors,
		Vocab:    vocab,
		Logger:   logger,
	}
	simSvc := &similarity.Service{
		Articles: articles,
		Vectors:  vectors,
		Edges:    edges,
		Vocab:    vocab,
		Opts: similarity.Options{
			MinScore:          cfg.MinScore,
			TopK:              cfg.TopK,
			ExcludeSameSource: cfg.ExcludeSameSource,
		},
		Logger: logger,
	}

	return &pipeline.Service{
		Adapters:   adapters,
		Ingest:     ingestSvc,
		Articles:   articles,
		Vectors:    vectors,
		Normalizer: normalizer.New(cfg.NormalizerRules),
		Vocab:      vocab,
		Encoder:    encoder,
		Similarity: simSvc,
		Opts: pipeline.Options{
			DriftThreshold:    cfg.DriftThreshold,
			SourceParallelism: cfg.SourceParallelism,
		},
		Logger: logger,
	}
}

// startCronWorker schedules pipeline runs and blocks forever.
func startCronWorker(
	logger *slog.Logger,
	svc *pipeline.Service,
	cfg config.PipelineConfig,
	vectors repository.VectorRepository,
	vocabRepo repository.VocabularyRepository,
) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC",
			slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	job := func() { runPipelineJob(logger, svc, cfg, vectors, vocabRepo) }
	if _, err := c.AddFunc(cfg.CronSchedule, job); err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	// An immediate run on startup is useful on fresh deployments, where
	// waiting for the next scheduled slot would leave the index empty.
	if os.Getenv("RUN_ON_START") == "true" {
		go job()
	}

	logger.Info("worker started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone))
	select {}
}

// runPipelineJob executes one full pipeline run under the configured timeout.
func runPipelineJob(
	logger *slog.Logger,
	svc *pipeline.Service,
	cfg config.PipelineConfig,
	vectors repository.VectorRepository,
	vocabRepo repository.VocabularyRepository,
) {
	started := time.Now()
	logger.Info("pipeline run starting")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
	defer cancel()

	if err := svc.Run(ctx); err != nil {
		logger.Error("pipeline run failed",
			slog.String("error", respond.SanitizeError(err)),
			slog.Duration("elapsed", time.Since(started)))
		return
	}

	refreshStaleGauge(ctx, logger, vectors, vocabRepo)
	logger.Info("pipeline run finished", slog.Duration("elapsed", time.Since(started)))
}

// refreshStaleGauge republishes the stale vector gauge after a run so the
// dashboard reflects what the run left behind.
func refreshStaleGauge(
	ctx context.Context,
	logger *slog.Logger,
	vectors repository.VectorRepository,
	vocabRepo repository.VocabularyRepository,
) {
	stats, err := vocabRepo.GetStats(ctx)
	if err != nil {
		logger.Warn("failed to read vocabulary stats", slog.Any("error", err))
		return
	}
	if stats == nil || stats.SnapshotVersion == 0 {
		return
	}
	stale, err := vectors.CountStale(ctx, stats.SnapshotVersion)
	if err != nil {
		logger.Warn("failed to count stale vectors", slog.Any("error", err))
		return
	}
	metrics.SetStaleVectors(stale)
}
