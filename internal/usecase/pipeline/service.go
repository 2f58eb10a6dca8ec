// Package pipeline orchestrates one end-to-end run: fetch from sources,
// stage articles, normalize, grow the vocabulary, encode, and rebuild the
// similarity index.
//
// Every stage is idempotent, so a run that dies partway is simply re-run;
// completed work drops out of each stage's pending set.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"interlocutor/internal/domain/entity"
	"interlocutor/internal/normalizer"
	"interlocutor/internal/observability/metrics"
	"interlocutor/internal/repository"
	"interlocutor/internal/usecase/encode"
	"interlocutor/internal/usecase/ingest"
	"interlocutor/internal/usecase/similarity"
	"interlocutor/internal/usecase/vocabulary"
)

// SourceAdapter is the contract a publication integration implements.
// Adapters live under internal/infra/source; the pipeline only consumes
// this interface.
type SourceAdapter interface {
	// Name identifies the publication. It becomes the source field of every
	// article the adapter yields, and keys the per-source checkpoint.
	Name() string

	// FetchMetadata lists article metadata published after the checkpoint.
	// A nil checkpoint means the source has never been ingested.
	FetchMetadata(ctx context.Context, since *time.Time) ([]ingest.MetadataInput, error)

	// FetchContent retrieves the body text for one article. An empty string
	// with a nil error is a valid result (paywalled or removed articles).
	FetchContent(ctx context.Context, meta *entity.ArticleMetadata) (string, error)
}

// Options tune a pipeline run.
type Options struct {
	// DriftThreshold is the corpus-growth fraction past which the vocabulary
	// snapshot is refrozen and every vector re-encoded. Zero means the
	// default of 0.2.
	DriftThreshold float64

	// SourceParallelism bounds concurrent source adapters. Zero means all
	// adapters run concurrently.
	SourceParallelism int
}

const defaultDriftThreshold = 0.2

func (o Options) driftThreshold() float64 {
	if o.DriftThreshold > 0 {
		return o.DriftThreshold
	}
	return defaultDriftThreshold
}

// Service wires the pipeline stages together.
type Service struct {
	Adapters   []SourceAdapter
	Ingest     *ingest.Service
	Articles   repository.ArticleRepository
	Vectors    repository.VectorRepository
	Normalizer normalizer.Normalizer
	Vocab      *vocabulary.Manager
	Encoder    *encode.Service
	Similarity *similarity.Service
	Opts       Options
	Logger     *slog.Logger
}

// Run executes one full pipeline pass. A failing source adapter is logged
// and skipped so one broken publication never starves the others; failures
// in the shared stages (normalize, encode, similarity) abort the run.
func (s *Service) Run(ctx context.Context) error {
	started := time.Now()

	if err := s.ingestSources(ctx); err != nil {
		return err
	}
	if err := s.preprocess(ctx); err != nil {
		return fmt.Errorf("preprocess stage: %w", err)
	}
	if err := s.refreshSnapshot(ctx); err != nil {
		return fmt.Errorf("snapshot stage: %w", err)
	}

	if _, err := s.Encoder.EncodePending(ctx); err != nil {
		if errors.Is(err, entity.ErrEmptyVocabulary) {
			// Nothing ingested yet anywhere. Legitimate on a fresh database.
			s.logger().Info("skipping encode and similarity, vocabulary is empty")
			return nil
		}
		return fmt.Errorf("encode stage: %w", err)
	}
	if _, err := s.Similarity.RecomputeAll(ctx); err != nil {
		return fmt.Errorf("similarity stage: %w", err)
	}

	s.logger().Info("pipeline run complete",
		slog.Duration("elapsed", time.Since(started)))
	return nil
}

// ingestSources fans out across adapters, staging metadata then content for
// each new article. The per-source checkpoint is the latest published
// timestamp already stored, so re-runs only ask sources for what is new.
func (s *Service) ingestSources(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	if s.Opts.SourceParallelism > 0 {
		g.SetLimit(s.Opts.SourceParallelism)
	}

	for _, adapter := range s.Adapters {
		g.Go(func() error {
			if err := s.ingestSource(gctx, adapter); err != nil {
				// Cancellation must still stop the whole fan-out.
				if gctx.Err() != nil {
					return gctx.Err()
				}
				metrics.RecordSourceFetchError(adapter.Name())
				s.logger().Error("source ingestion failed, continuing with others",
					slog.String("source", adapter.Name()),
					slog.String("error", err.Error()))
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) ingestSource(ctx context.Context, adapter SourceAdapter) error {
	started := time.Now()

	since, err := s.Articles.LatestPublishedAt(ctx, adapter.Name())
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}

	inputs, err := adapter.FetchMetadata(ctx, since)
	if err != nil {
		return fmt.Errorf("fetch metadata: %w", err)
	}

	staged := 0
	for _, in := range inputs {
		id, err := s.Ingest.UpsertMetadata(ctx, in)
		if err != nil {
			if errors.Is(err, entity.ErrIdentityCollision) {
				// Skip the colliding record, keep the batch going.
				s.logger().Error("identity collision, record skipped",
					slog.String("source", in.Source),
					slog.String("natural_key", in.NaturalKey))
				continue
			}
			return fmt.Errorf("stage metadata %q: %w", in.NaturalKey, err)
		}

		meta, err := s.Articles.GetMetadata(ctx, id)
		if err != nil {
			return fmt.Errorf("reload metadata %q: %w", id, err)
		}
		body, err := adapter.FetchContent(ctx, meta)
		if err != nil {
			return fmt.Errorf("fetch content %q: %w", id, err)
		}
		if err := s.Ingest.UpsertContent(ctx, id, body, time.Now().UTC()); err != nil {
			return fmt.Errorf("stage content %q: %w", id, err)
		}
		staged++
	}

	metrics.ObservePipelineStage("ingest_"+adapter.Name(), time.Since(started))
	s.logger().Info("source ingested",
		slog.String("source", adapter.Name()),
		slog.Int("articles", staged))
	return nil
}

// preprocess normalizes articles with content but no tokens yet, plus
// articles whose vectors were flagged stale by a re-scrape. Only first-time
// documents extend the vocabulary; re-normalizing a document that already
// counted toward document frequency must not count it twice.
func (s *Service) preprocess(ctx context.Context) error {
	started := time.Now()

	missing, err := s.Articles.ListContentMissingPreprocessed(ctx)
	if err != nil {
		return fmt.Errorf("list unpreprocessed content: %w", err)
	}

	newDocs := make([][]string, 0, len(missing))
	for _, content := range missing {
		if err := ctx.Err(); err != nil {
			return err
		}
		tokens := s.Normalizer.Normalize(content.Body)
		if err := s.Ingest.UpsertPreprocessed(ctx, content.ID, tokens); err != nil {
			return err
		}
		newDocs = append(newDocs, tokens)
	}

	staleIDs, err := s.Vectors.ListStale(ctx)
	if err != nil {
		return fmt.Errorf("list stale vectors: %w", err)
	}
	for _, id := range staleIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		content, err := s.Articles.GetContent(ctx, id)
		if err != nil {
			return fmt.Errorf("get content %q: %w", id, err)
		}
		if content == nil {
			continue
		}
		if err := s.Ingest.UpsertPreprocessed(ctx, id, s.Normalizer.Normalize(content.Body)); err != nil {
			return err
		}
	}

	if len(newDocs) > 0 {
		added, err := s.Vocab.Extend(ctx, newDocs)
		if err != nil {
			return fmt.Errorf("extend vocabulary: %w", err)
		}
		s.logger().Info("vocabulary extended",
			slog.Int("documents", len(newDocs)),
			slog.Int("new_terms", added))
	}
	size, err := s.Vocab.Size(ctx)
	if err != nil {
		return err
	}
	metrics.SetVocabularySize(size)
	metrics.ObservePipelineStage("preprocess", time.Since(started))
	return nil
}

// refreshSnapshot freezes a new vocabulary snapshot when none exists yet or
// when corpus drift exceeds the threshold. The version bump implicitly
// schedules a full re-encode: every stored vector stops being current.
func (s *Service) refreshSnapshot(ctx context.Context) error {
	size, err := s.Vocab.Size(ctx)
	if err != nil {
		return err
	}
	if size == 0 {
		return nil
	}

	needs, err := s.Vocab.NeedsFreeze(ctx, s.Opts.driftThreshold())
	if err != nil {
		return err
	}
	if !needs {
		return nil
	}

	snap, err := s.Vocab.Freeze(ctx)
	if err != nil {
		return err
	}
	metrics.SetSnapshotVersion(snap.Version())
	s.logger().Info("vocabulary snapshot frozen",
		slog.Int64("version", snap.Version()),
		slog.Int64("documents", snap.DocCount()),
		slog.Int("terms", snap.Size()))
	return nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
