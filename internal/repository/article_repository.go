// Package repository defines the persistence interfaces consumed by the
// pipeline. Each stage of the pipeline owns the writes to its own records;
// later stages only read earlier ones. Implementations are expected to make
// upserts atomic per identity and to surface failures cleanly; transient
// retry and circuit breaking live below these interfaces, not in the
// pipeline logic.
package repository

import (
	"context"
	"time"

	"interlocutor/internal/domain/entity"
)

// ArticleRepository persists the three staged article records: metadata, raw
// content, and preprocessed content.
//
// Lookup methods return (nil, nil) when the record does not exist; a missing
// later-stage record is a legitimate pipeline state, not an error.
type ArticleRepository interface {
	// UpsertMetadata writes or overwrites a metadata record keyed by
	// identity. Last-writer-wins per identity.
	UpsertMetadata(ctx context.Context, meta *entity.ArticleMetadata) error

	// GetMetadata retrieves the metadata record for an identity.
	GetMetadata(ctx context.Context, id entity.ArticleID) (*entity.ArticleMetadata, error)

	// ListMetadata retrieves all metadata records ordered by identity.
	ListMetadata(ctx context.Context) ([]*entity.ArticleMetadata, error)

	// LatestPublishedAt returns the most recent publication timestamp already
	// ingested for a source, or nil if the source has no articles yet.
	// Source adapters use this as their incremental checkpoint.
	LatestPublishedAt(ctx context.Context, source string) (*time.Time, error)

	// UpsertContent writes or overwrites the raw content for an identity.
	// The caller is responsible for the orphan check; the repository only
	// persists.
	UpsertContent(ctx context.Context, content *entity.ArticleContent) error

	// GetContent retrieves the raw content for an identity.
	GetContent(ctx context.Context, id entity.ArticleID) (*entity.ArticleContent, error)

	// ListContentMissingPreprocessed returns content records that have no
	// preprocessed counterpart yet, ordered by identity.
	ListContentMissingPreprocessed(ctx context.Context) ([]*entity.ArticleContent, error)

	// UpsertPreprocessed writes or overwrites the normalized token sequence
	// for an identity.
	UpsertPreprocessed(ctx context.Context, pre *entity.PreprocessedContent) error

	// GetPreprocessed retrieves the preprocessed record for an identity.
	GetPreprocessed(ctx context.Context, id entity.ArticleID) (*entity.PreprocessedContent, error)

	// ListPreprocessed retrieves all preprocessed records ordered by identity.
	ListPreprocessed(ctx context.Context) ([]*entity.PreprocessedContent, error)
}
