package fixtures

import (
	"time"

	"interlocutor/internal/domain/entity"
)

// VectorOption customizes a generated article vector.
type VectorOption func(*entity.ArticleVector)

// WithWeights replaces the sparse weights.
func WithWeights(w entity.SparseVector) VectorOption {
	return func(v *entity.ArticleVector) { v.Weights = w }
}

// WithSnapshotVersion pins the vector to a snapshot version.
func WithSnapshotVersion(version int64) VectorOption {
	return func(v *entity.ArticleVector) { v.SnapshotVersion = version }
}

// WithStale marks the vector stale, as re-ingested content would.
func WithStale() VectorOption {
	return func(v *entity.ArticleVector) { v.Stale = true }
}

// WithEncodedAt sets the encoding timestamp.
func WithEncodedAt(t time.Time) VectorOption {
	return func(v *entity.ArticleVector) { v.EncodedAt = t }
}

// NewTestVector builds a valid vector for the article identified by
// naturalKey: snapshot version 1, a small deterministic weight set, not
// stale. Options override the defaults.
func NewTestVector(naturalKey string, opts ...VectorOption) *entity.ArticleVector {
	v := &entity.ArticleVector{
		ID:              entity.NewArticleID(naturalKey),
		Weights:         GenerateWeights(int64(len(naturalKey)), 4),
		SnapshotVersion: 1,
		EncodedAt:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// GenerateWeights returns a deterministic sparse vector with n terms. The
// seed shifts which vocabulary indices carry weight, so different seeds give
// partially overlapping vectors.
func GenerateWeights(seed int64, n int) entity.SparseVector {
	if n <= 0 {
		n = 4
	}
	w := make(entity.SparseVector, n)
	for i := int64(0); i < int64(n); i++ {
		idx := (seed + i) % 64
		w[idx] = 1.0 + float64(i)*0.5
	}
	return w
}
