package postgres

import (
	"context"
	"fmt"

	"interlocutor/internal/domain/entity"
	"interlocutor/internal/repository"
)

type EdgeRepo struct {
	db DB
}

func NewEdgeRepo(db DB) repository.EdgeRepository {
	return &EdgeRepo{db: db}
}

// ReplaceForArticle swaps the full edge set of one article inside a single
// transaction, so a concurrent reader sees either the old neighbor list or
// the new one, never a mixture.
func (repo *EdgeRepo) ReplaceForArticle(ctx context.Context, id entity.ArticleID, edges []entity.SimilarityEdge) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ReplaceForArticle: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const del = `DELETE FROM similar_articles WHERE article_a = $1 OR article_b = $1`
	if _, err := tx.ExecContext(ctx, del, string(id)); err != nil {
		return fmt.Errorf("ReplaceForArticle: delete: %w", err)
	}

	const ins = `
INSERT INTO similar_articles (article_a, article_b, score)
VALUES ($1, $2, $3)
ON CONFLICT (article_a, article_b) DO UPDATE SET
       score = EXCLUDED.score`
	for _, edge := range edges {
		if _, err := tx.ExecContext(ctx, ins, string(edge.A), string(edge.B), edge.Score); err != nil {
			return fmt.Errorf("ReplaceForArticle: insert %s~%s: %w", edge.A, edge.B, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ReplaceForArticle: commit: %w", err)
	}
	return nil
}

// ReplaceAll swaps the entire edge table for the given set in a single
// transaction. Full rebuilds go through here so the end state never depends
// on the order individual articles were processed in.
func (repo *EdgeRepo) ReplaceAll(ctx context.Context, edges []entity.SimilarityEdge) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ReplaceAll: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM similar_articles`); err != nil {
		return fmt.Errorf("ReplaceAll: delete: %w", err)
	}

	const ins = `
INSERT INTO similar_articles (article_a, article_b, score)
VALUES ($1, $2, $3)`
	stmt, err := tx.PrepareContext(ctx, ins)
	if err != nil {
		return fmt.Errorf("ReplaceAll: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for _, edge := range edges {
		if _, err := stmt.ExecContext(ctx, string(edge.A), string(edge.B), edge.Score); err != nil {
			return fmt.Errorf("ReplaceAll: insert %s~%s: %w", edge.A, edge.B, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ReplaceAll: commit: %w", err)
	}
	return nil
}

func (repo *EdgeRepo) ListForArticle(ctx context.Context, id entity.ArticleID, k int) ([]repository.ScoredArticle, error) {
	query := `
SELECT CASE WHEN article_a = $1 THEN article_b ELSE article_a END AS neighbor, score
FROM similar_articles
WHERE article_a = $1 OR article_b = $1
ORDER BY score DESC, neighbor ASC`
	args := []any{string(id)}
	if k > 0 {
		query += `
LIMIT $2`
		args = append(args, k)
	}
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListForArticle: %w", err)
	}
	defer func() { _ = rows.Close() }()

	neighbors := make([]repository.ScoredArticle, 0, max(k, 0))
	for rows.Next() {
		var scored repository.ScoredArticle
		if err := rows.Scan(&scored.ArticleID, &scored.Score); err != nil {
			return nil, fmt.Errorf("ListForArticle: Scan: %w", err)
		}
		neighbors = append(neighbors, scored)
	}
	return neighbors, rows.Err()
}
