package db

import (
	"database/sql"
)

// MigrateUp creates the pipeline schema. Every statement is idempotent, so
// running it on an already migrated database is safe.
//
// Article identities are 32-char hex strings derived from the natural key;
// the staged tables reference article_metadata so content can never exist
// for an article that was not ingested first.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS article_metadata (
    id           CHAR(32) PRIMARY KEY,
    source       TEXT NOT NULL,
    natural_key  TEXT NOT NULL UNIQUE,
    section      TEXT NOT NULL DEFAULT '',
    title        TEXT NOT NULL,
    published_at TIMESTAMPTZ NOT NULL,
    web_url      TEXT NOT NULL DEFAULT '',
    api_url      TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS article_content (
    article_id   CHAR(32) PRIMARY KEY REFERENCES article_metadata(id) ON DELETE CASCADE,
    body         TEXT NOT NULL,
    retrieved_at TIMESTAMPTZ NOT NULL
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS article_content_preprocessed (
    article_id CHAR(32) PRIMARY KEY REFERENCES article_content(article_id) ON DELETE CASCADE,
    tokens     JSONB NOT NULL
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS vocabulary_terms (
    term          TEXT PRIMARY KEY,
    feature_index BIGINT NOT NULL UNIQUE,
    df_live       BIGINT NOT NULL DEFAULT 0,
    df_snapshot   BIGINT NOT NULL DEFAULT 0
)`); err != nil {
		return err
	}

	// Singleton row: the CHECK pins id to 1.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS vocabulary_stats (
    id                 INT PRIMARY KEY CHECK (id = 1),
    live_doc_count     BIGINT NOT NULL DEFAULT 0,
    snapshot_version   BIGINT NOT NULL DEFAULT 0,
    snapshot_doc_count BIGINT NOT NULL DEFAULT 0,
    next_index         BIGINT NOT NULL DEFAULT 0
)`); err != nil {
		return err
	}

	// A vector can only exist for content that reached the preprocessed
	// stage; deleting the preprocessed row cascades to the vector.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS article_vectors (
    article_id       CHAR(32) PRIMARY KEY REFERENCES article_content_preprocessed(article_id) ON DELETE CASCADE,
    weights          JSONB NOT NULL,
    snapshot_version BIGINT NOT NULL,
    stale            BOOLEAN NOT NULL DEFAULT FALSE,
    encoded_at       TIMESTAMPTZ NOT NULL
)`); err != nil {
		return err
	}

	// Undirected edges stored once: the CHECK enforces the canonical order.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS similar_articles (
    article_a CHAR(32) NOT NULL REFERENCES article_metadata(id) ON DELETE CASCADE,
    article_b CHAR(32) NOT NULL REFERENCES article_metadata(id) ON DELETE CASCADE,
    score     DOUBLE PRECISION NOT NULL CHECK (score >= 0 AND score <= 1),
    PRIMARY KEY (article_a, article_b),
    CHECK (article_a < article_b)
)`); err != nil {
		return err
	}

	indexes := []string{
		// Per-source checkpoint lookup (MAX(published_at) WHERE source = ?).
		`CREATE INDEX IF NOT EXISTS idx_article_metadata_source_published
		    ON article_metadata(source, published_at DESC)`,
		// Pending-encode scan filters on staleness and version.
		`CREATE INDEX IF NOT EXISTS idx_article_vectors_stale
		    ON article_vectors(stale) WHERE stale`,
		`CREATE INDEX IF NOT EXISTS idx_article_vectors_version
		    ON article_vectors(snapshot_version)`,
		// Neighbor queries hit either endpoint of an edge.
		`CREATE INDEX IF NOT EXISTS idx_similar_articles_b
		    ON similar_articles(article_b)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops the pipeline schema in reverse dependency order.
// Use with caution: this deletes all pipeline data.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS similar_articles`,
		`DROP TABLE IF EXISTS article_vectors`,
		`DROP TABLE IF EXISTS vocabulary_stats`,
		`DROP TABLE IF EXISTS vocabulary_terms`,
		`DROP TABLE IF EXISTS article_content_preprocessed`,
		`DROP TABLE IF EXISTS article_content`,
		`DROP TABLE IF EXISTS article_metadata`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ResetDerivedData clears the rebuildable tables (vectors and edges) while
// keeping the staged articles and vocabulary. A following pipeline run
// re-encodes and re-links everything from the preserved stages.
func ResetDerivedData(db *sql.DB) error {
	statements := []string{
		`DELETE FROM similar_articles`,
		`DELETE FROM article_vectors`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
