package repository

import (
	"context"

	"interlocutor/internal/domain/entity"
)

// VectorRepository persists encoded TF-IDF vectors, one per article, pinned
// to the vocabulary snapshot version they were computed against.
type VectorRepository interface {
	// Upsert writes or overwrites the vector for an identity, clearing any
	// stale flag.
	Upsert(ctx context.Context, vector *entity.ArticleVector) error

	// Get retrieves the vector for an identity. Returns (nil, nil) if the
	// article has not been encoded.
	Get(ctx context.Context, id entity.ArticleID) (*entity.ArticleVector, error)

	// ListByVersion retrieves all non-stale vectors encoded against the
	// given snapshot version, ordered by identity.
	ListByVersion(ctx context.Context, version int64) ([]*entity.ArticleVector, error)

	// ListNeedingEncode returns identities that have preprocessed content
	// but no usable vector at the given snapshot version: never encoded,
	// flagged stale, or encoded against an older snapshot. Ordered by
	// identity ascending so re-encode batches are resumable: identities
	// already re-encoded at this version drop out of the list.
	ListNeedingEncode(ctx context.Context, version int64) ([]entity.ArticleID, error)

	// MarkStale flags the vector for an identity as stale, if one exists.
	// Content re-ingestion uses this instead of deleting: recomputation is a
	// separate schedulable step.
	MarkStale(ctx context.Context, id entity.ArticleID) error

	// ListStale returns identities whose vectors are explicitly flagged
	// stale (content re-ingested after encoding), ordered by identity.
	// Re-normalization precedes re-encoding for these articles.
	ListStale(ctx context.Context) ([]entity.ArticleID, error)

	// CountStale returns the number of vectors currently flagged stale or
	// pinned to a version other than the given one.
	CountStale(ctx context.Context, version int64) (int64, error)
}
