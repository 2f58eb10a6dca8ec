package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"interlocutor/internal/domain/entity"
	"interlocutor/internal/repository"
)

type VectorRepo struct {
	db DB
}

func NewVectorRepo(db DB) repository.VectorRepository {
	return &VectorRepo{db: db}
}

func (repo *VectorRepo) Upsert(ctx context.Context, vector *entity.ArticleVector) error {
	weights, err := json.Marshal(vector.Weights)
	if err != nil {
		return fmt.Errorf("Upsert: marshal weights: %w", err)
	}

	const query = `
INSERT INTO article_vectors (article_id, weights, snapshot_version, stale, encoded_at)
VALUES ($1, $2, $3, FALSE, $4)
ON CONFLICT (article_id) DO UPDATE SET
       weights          = EXCLUDED.weights,
       snapshot_version = EXCLUDED.snapshot_version,
       stale            = FALSE,
       encoded_at       = EXCLUDED.encoded_at`
	if _, err := repo.db.ExecContext(ctx, query,
		string(vector.ID), weights, vector.SnapshotVersion, vector.EncodedAt); err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

func (repo *VectorRepo) Get(ctx context.Context, id entity.ArticleID) (*entity.ArticleVector, error) {
	const query = `
SELECT article_id, weights, snapshot_version, stale, encoded_at
FROM article_vectors
WHERE article_id = $1
LIMIT 1`
	vector, err := scanVector(repo.db.QueryRowContext(ctx, query, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return vector, nil
}

func (repo *VectorRepo) ListByVersion(ctx context.Context, version int64) ([]*entity.ArticleVector, error) {
	const query = `
SELECT article_id, weights, snapshot_version, stale, encoded_at
FROM article_vectors
WHERE snapshot_version = $1 AND NOT stale
ORDER BY article_id`
	rows, err := repo.db.QueryContext(ctx, query, version)
	if err != nil {
		return nil, fmt.Errorf("ListByVersion: %w", err)
	}
	defer func() { _ = rows.Close() }()

	vectors := make([]*entity.ArticleVector, 0, 100)
	for rows.Next() {
		vector, err := scanVector(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByVersion: Scan: %w", err)
		}
		vectors = append(vectors, vector)
	}
	return vectors, rows.Err()
}

func (repo *VectorRepo) ListNeedingEncode(ctx context.Context, version int64) ([]entity.ArticleID, error) {
	const query = `
SELECT p.article_id
FROM article_content_preprocessed p
LEFT JOIN article_vectors v ON v.article_id = p.article_id
WHERE v.article_id IS NULL
   OR v.stale
   OR v.snapshot_version <> $1
ORDER BY p.article_id`
	rows, err := repo.db.QueryContext(ctx, query, version)
	if err != nil {
		return nil, fmt.Errorf("ListNeedingEncode: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanIDs(rows, "ListNeedingEncode")
}

func (repo *VectorRepo) MarkStale(ctx context.Context, id entity.ArticleID) error {
	const query = `UPDATE article_vectors SET stale = TRUE WHERE article_id = $1`
	// Zero rows affected is fine: the article was simply never encoded.
	if _, err := repo.db.ExecContext(ctx, query, string(id)); err != nil {
		return fmt.Errorf("MarkStale: %w", err)
	}
	return nil
}

func (repo *VectorRepo) ListStale(ctx context.Context) ([]entity.ArticleID, error) {
	const query = `
SELECT article_id
FROM article_vectors
WHERE stale
ORDER BY article_id`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListStale: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanIDs(rows, "ListStale")
}

func (repo *VectorRepo) CountStale(ctx context.Context, version int64) (int64, error) {
	const query = `
SELECT COUNT(*)
FROM article_vectors
WHERE stale OR snapshot_version <> $1`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query, version).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountStale: %w", err)
	}
	return count, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanVector(row rowScanner) (*entity.ArticleVector, error) {
	var vector entity.ArticleVector
	var weights []byte
	if err := row.Scan(&vector.ID, &weights, &vector.SnapshotVersion,
		&vector.Stale, &vector.EncodedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(weights, &vector.Weights); err != nil {
		return nil, fmt.Errorf("unmarshal weights: %w", err)
	}
	return &vector, nil
}

func scanIDs(rows *sql.Rows, op string) ([]entity.ArticleID, error) {
	ids := make([]entity.ArticleID, 0, 100)
	for rows.Next() {
		var id entity.ArticleID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
