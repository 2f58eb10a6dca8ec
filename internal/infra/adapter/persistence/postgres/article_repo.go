// Package postgres implements the repository interfaces on PostgreSQL via
// database/sql. Lookups translate sql.ErrNoRows into (nil, nil); callers
// distinguish absence from failure without matching on driver errors.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"interlocutor/internal/domain/entity"
	"interlocutor/internal/repository"
)

type ArticleRepo struct {
	db DB
}

func NewArticleRepo(db DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

func (repo *ArticleRepo) UpsertMetadata(ctx context.Context, meta *entity.ArticleMetadata) error {
	const query = `
INSERT INTO article_metadata
       (id, source, natural_key, section, title, published_at, web_url, api_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
       source       = EXCLUDED.source,
       natural_key  = EXCLUDED.natural_key,
       section      = EXCLUDED.section,
       title        = EXCLUDED.title,
       published_at = EXCLUDED.published_at,
       web_url      = EXCLUDED.web_url,
       api_url      = EXCLUDED.api_url,
       updated_at   = EXCLUDED.updated_at`
	_, err := repo.db.ExecContext(ctx, query,
		string(meta.ID), meta.Source, meta.NaturalKey, meta.Section, meta.Title,
		meta.PublishedAt, meta.WebURL, meta.APIURL, meta.CreatedAt, meta.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("UpsertMetadata: %w", err)
	}
	return nil
}

func (repo *ArticleRepo) GetMetadata(ctx context.Context, id entity.ArticleID) (*entity.ArticleMetadata, error) {
	const query = `
SELECT id, source, natural_key, section, title, published_at, web_url, api_url, created_at, updated_at
FROM article_metadata
WHERE id = $1
LIMIT 1`
	var meta entity.ArticleMetadata
	err := repo.db.QueryRowContext(ctx, query, string(id)).
		Scan(&meta.ID, &meta.Source, &meta.NaturalKey, &meta.Section, &meta.Title,
			&meta.PublishedAt, &meta.WebURL, &meta.APIURL, &meta.CreatedAt, &meta.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetMetadata: %w", err)
	}
	return &meta, nil
}

func (repo *ArticleRepo) ListMetadata(ctx context.Context) ([]*entity.ArticleMetadata, error) {
	const query = `
SELECT id, source, natural_key, section, title, published_at, web_url, api_url, created_at, updated_at
FROM article_metadata
ORDER BY id`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListMetadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.ArticleMetadata, 0, 100)
	for rows.Next() {
		var meta entity.ArticleMetadata
		if err := rows.Scan(&meta.ID, &meta.Source, &meta.NaturalKey, &meta.Section,
			&meta.Title, &meta.PublishedAt, &meta.WebURL, &meta.APIURL,
			&meta.CreatedAt, &meta.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ListMetadata: Scan: %w", err)
		}
		articles = append(articles, &meta)
	}
	return articles, rows.Err()
}

func (repo *ArticleRepo) LatestPublishedAt(ctx context.Context, source string) (*time.Time, error) {
	const query = `SELECT MAX(published_at) FROM article_metadata WHERE source = $1`
	var latest sql.NullTime
	if err := repo.db.QueryRowContext(ctx, query, source).Scan(&latest); err != nil {
		return nil, fmt.Errorf("LatestPublishedAt: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

func (repo *ArticleRepo) UpsertContent(ctx context.Context, content *entity.ArticleContent) error {
	const query = `
INSERT INTO article_content (article_id, body, retrieved_at)
VALUES ($1, $2, $3)
ON CONFLICT (article_id) DO UPDATE SET
       body         = EXCLUDED.body,
       retrieved_at = EXCLUDED.retrieved_at`
	_, err := repo.db.ExecContext(ctx, query, string(content.ID), content.Body, content.RetrievedAt)
	if err != nil {
		return fmt.Errorf("UpsertContent: %w", err)
	}
	return nil
}

func (repo *ArticleRepo) GetContent(ctx context.Context, id entity.ArticleID) (*entity.ArticleContent, error) {
	const query = `
SELECT article_id, body, retrieved_at
FROM article_content
WHERE article_id = $1
LIMIT 1`
	var content entity.ArticleContent
	err := repo.db.QueryRowContext(ctx, query, string(id)).
		Scan(&content.ID, &content.Body, &content.RetrievedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetContent: %w", err)
	}
	return &content, nil
}

func (repo *ArticleRepo) ListContentMissingPreprocessed(ctx context.Context) ([]*entity.ArticleContent, error) {
	const query = `
SELECT c.article_id, c.body, c.retrieved_at
FROM article_content c
LEFT JOIN article_content_preprocessed p ON p.article_id = c.article_id
WHERE p.article_id IS NULL
ORDER BY c.article_id`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListContentMissingPreprocessed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	contents := make([]*entity.ArticleContent, 0, 100)
	for rows.Next() {
		var content entity.ArticleContent
		if err := rows.Scan(&content.ID, &content.Body, &content.RetrievedAt); err != nil {
			return nil, fmt.Errorf("ListContentMissingPreprocessed: Scan: %w", err)
		}
		contents = append(contents, &content)
	}
	return contents, rows.Err()
}

func (repo *ArticleRepo) UpsertPreprocessed(ctx context.Context, pre *entity.PreprocessedContent) error {
	tokens, err := json.Marshal(pre.Tokens)
	if err != nil {
		return fmt.Errorf("UpsertPreprocessed: marshal tokens: %w", err)
	}

	const query = `
INSERT INTO article_content_preprocessed (article_id, tokens)
VALUES ($1, $2)
ON CONFLICT (article_id) DO UPDATE SET
       tokens = EXCLUDED.tokens`
	if _, err := repo.db.ExecContext(ctx, query, string(pre.ID), tokens); err != nil {
		return fmt.Errorf("UpsertPreprocessed: %w", err)
	}
	return nil
}

func (repo *ArticleRepo) GetPreprocessed(ctx context.Context, id entity.ArticleID) (*entity.PreprocessedContent, error) {
	const query = `
SELECT article_id, tokens
FROM article_content_preprocessed
WHERE article_id = $1
LIMIT 1`
	var pre entity.PreprocessedContent
	var tokens []byte
	err := repo.db.QueryRowContext(ctx, query, string(id)).Scan(&pre.ID, &tokens)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetPreprocessed: %w", err)
	}
	if err := json.Unmarshal(tokens, &pre.Tokens); err != nil {
		return nil, fmt.Errorf("GetPreprocessed: unmarshal tokens: %w", err)
	}
	return &pre, nil
}

func (repo *ArticleRepo) ListPreprocessed(ctx context.Context) ([]*entity.PreprocessedContent, error) {
	const query = `
SELECT article_id, tokens
FROM article_content_preprocessed
ORDER BY article_id`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListPreprocessed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*entity.PreprocessedContent, 0, 100)
	for rows.Next() {
		var pre entity.PreprocessedContent
		var tokens []byte
		if err := rows.Scan(&pre.ID, &tokens); err != nil {
			return nil, fmt.Errorf("ListPreprocessed: Scan: %w", err)
		}
		if err := json.Unmarshal(tokens, &pre.Tokens); err != nil {
			return nil, fmt.Errorf("ListPreprocessed: unmarshal tokens: %w", err)
		}
		out = append(out, &pre)
	}
	return out, rows.Err()
}
