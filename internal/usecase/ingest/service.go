// Package ingest implements the staged, idempotent upsert pipeline for
// articles: metadata first, then raw content, then preprocessed content.
//
// Each stage is safe to re-run with the same input, and later stages only
// ever reference articles already present in earlier ones. Partial states
// (metadata without content, content without preprocessing) are legitimate
// and queryable, which is what makes the pipeline resumable after a crash
// between stage writes.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"interlocutor/internal/domain/entity"
	"interlocutor/internal/observability/metrics"
	"interlocutor/internal/repository"
)

// MetadataInput carries the fields a source adapter provides for the first
// ingestion stage.
type MetadataInput struct {
	Source      string
	NaturalKey  string
	Section     string
	Title       string
	PublishedAt time.Time
	WebURL      string
	APIURL      string
}

// Service provides the staged upsert operations. Identity derivation happens
// here: callers never supply identities for new articles, only natural keys.
type Service struct {
	Articles repository.ArticleRepository
	Vectors  repository.VectorRepository
	Logger   *slog.Logger
}

// UpsertMetadata writes or overwrites the metadata record for the article
// identified by the input's natural key, and returns the derived identity.
//
// Returns entity.ErrIdentityCollision if an existing record carries the same
// identity but a different natural key: that means two keys hashed to one
// identity, which must halt ingestion of the record loudly instead of
// silently merging two articles.
func (s *Service) UpsertMetadata(ctx context.Context, in MetadataInput) (entity.ArticleID, error) {
	if in.NaturalKey == "" {
		return "", &entity.ValidationError{Field: "naturalKey", Message: "is required"}
	}
	if in.Source == "" {
		return "", &entity.ValidationError{Field: "source", Message: "is required"}
	}
	if in.Title == "" {
		return "", &entity.ValidationError{Field: "title", Message: "is required"}
	}

	id := entity.NewArticleID(in.NaturalKey)

	existing, err := s.Articles.GetMetadata(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get metadata %q: %w", id, err)
	}
	if existing != nil && existing.NaturalKey != in.NaturalKey {
		return "", fmt.Errorf("upsert metadata %q: key %q vs stored %q: %w",
			id, in.NaturalKey, existing.NaturalKey, entity.ErrIdentityCollision)
	}

	now := time.Now().UTC()
	meta := &entity.ArticleMetadata{
		ID:          id,
		Source:      in.Source,
		NaturalKey:  in.NaturalKey,
		Section:     in.Section,
		Title:       in.Title,
		PublishedAt: in.PublishedAt,
		WebURL:      in.WebURL,
		APIURL:      in.APIURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if existing != nil {
		meta.CreatedAt = existing.CreatedAt
	}
	if err := meta.Validate(); err != nil {
		return "", fmt.Errorf("validate metadata %q: %w", id, err)
	}

	if err := s.Articles.UpsertMetadata(ctx, meta); err != nil {
		return "", fmt.Errorf("upsert metadata %q: %w", id, err)
	}

	metrics.RecordArticleStaged(in.Source, "metadata")
	return id, nil
}

// UpsertContent writes or overwrites the raw content for an identity.
//
// Returns entity.ErrOrphanContent if no metadata exists for the identity:
// the caller must ingest the metadata stage first. A re-scrape (overwrite of
// prior content) marks the article's encoded vector stale rather than
// deleting it; recomputation is a separate, schedulable step.
func (s *Service) UpsertContent(ctx context.Context, id entity.ArticleID, body string, retrievedAt time.Time) error {
	meta, err := s.Articles.GetMetadata(ctx, id)
	if err != nil {
		return fmt.Errorf("get metadata %q: %w", id, err)
	}
	if meta == nil {
		return fmt.Errorf("upsert content %q: %w", id, entity.ErrOrphanContent)
	}

	prior, err := s.Articles.GetContent(ctx, id)
	if err != nil {
		return fmt.Errorf("get content %q: %w", id, err)
	}

	content := &entity.ArticleContent{ID: id, Body: body, RetrievedAt: retrievedAt}
	if err := content.Validate(); err != nil {
		return fmt.Errorf("validate content %q: %w", id, err)
	}
	if err := s.Articles.UpsertContent(ctx, content); err != nil {
		return fmt.Errorf("upsert content %q: %w", id, err)
	}

	if prior != nil && prior.Body != body {
		if err := s.Vectors.MarkStale(ctx, id); err != nil {
			return fmt.Errorf("mark vector stale %q: %w", id, err)
		}
		s.logger().Debug("content re-ingested, downstream vector marked stale",
			slog.String("article_id", string(id)),
			slog.String("source", meta.Source))
	}

	metrics.RecordArticleStaged(meta.Source, "content")
	return nil
}

// UpsertPreprocessed writes or overwrites the normalized token sequence for
// an identity.
//
// Returns entity.ErrOrphanPreprocessed if no content exists for the
// identity.
func (s *Service) UpsertPreprocessed(ctx context.Context, id entity.ArticleID, tokens []string) error {
	content, err := s.Articles.GetContent(ctx, id)
	if err != nil {
		return fmt.Errorf("get content %q: %w", id, err)
	}
	if content == nil {
		return fmt.Errorf("upsert preprocessed %q: %w", id, entity.ErrOrphanPreprocessed)
	}

	pre := &entity.PreprocessedContent{ID: id, Tokens: tokens}
	if err := pre.Validate(); err != nil {
		return fmt.Errorf("validate preprocessed %q: %w", id, err)
	}
	if err := s.Articles.UpsertPreprocessed(ctx, pre); err != nil {
		return fmt.Errorf("upsert preprocessed %q: %w", id, err)
	}

	return nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
