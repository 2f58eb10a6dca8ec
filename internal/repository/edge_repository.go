package repository

import (
	"context"

	"interlocutor/internal/domain/entity"
)

// ScoredArticle is one neighbor in a similarity query result.
type ScoredArticle struct {
	ArticleID entity.ArticleID
	Score     float64
}

// EdgeRepository persists similarity edges: undirected pairs stored once
// with A < B. Edges are derived data; any inconsistency is resolvable by
// recomputation from the encoded vectors.
type EdgeRepository interface {
	// ReplaceForArticle atomically sets the complete edge set touching the
	// given identity to exactly the provided set. All-or-nothing: readers
	// never observe a partially overwritten neighbor list. The caller
	// decides which edges survive; the repository only swaps them in.
	ReplaceForArticle(ctx context.Context, id entity.ArticleID, edges []entity.SimilarityEdge) error

	// ReplaceAll atomically swaps the entire edge table for the provided
	// set. Used for full index rebuilds, where the new table is derived
	// from every current vector in one pass.
	ReplaceAll(ctx context.Context, edges []entity.SimilarityEdge) error

	// ListForArticle retrieves up to k neighbors of the identity, ordered by
	// score descending with ties broken by neighbor identity ascending.
	// k <= 0 returns every stored neighbor.
	ListForArticle(ctx context.Context, id entity.ArticleID, k int) ([]ScoredArticle, error)
}
