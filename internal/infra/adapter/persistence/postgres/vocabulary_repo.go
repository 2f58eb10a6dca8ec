package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"interlocutor/internal/domain/entity"
	"interlocutor/internal/repository"
)

// statsRowID pins the vocabulary_stats singleton row.
const statsRowID = 1

type VocabularyRepo struct {
	db DB
}

func NewVocabularyRepo(db DB) repository.VocabularyRepository {
	return &VocabularyRepo{db: db}
}

func (repo *VocabularyRepo) GetStats(ctx context.Context) (*repository.VocabularyStats, error) {
	const query = `
SELECT live_doc_count, snapshot_version, snapshot_doc_count, next_index
FROM vocabulary_stats
WHERE id = $1
LIMIT 1`
	var stats repository.VocabularyStats
	err := repo.db.QueryRowContext(ctx, query, statsRowID).
		Scan(&stats.LiveDocCount, &stats.SnapshotVersion, &stats.SnapshotDocCount, &stats.NextIndex)
	if errors.Is(err, sql.ErrNoRows) {
		// Fresh database: zero stats, not an error.
		return &repository.VocabularyStats{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetStats: %w", err)
	}
	return &stats, nil
}

func (repo *VocabularyRepo) SaveStats(ctx context.Context, stats *repository.VocabularyStats) error {
	if err := saveStats(ctx, repo.db, stats); err != nil {
		return fmt.Errorf("SaveStats: %w", err)
	}
	return nil
}

func (repo *VocabularyRepo) ListTerms(ctx context.Context) ([]*entity.VocabularyTerm, error) {
	const query = `
SELECT term, feature_index, df_live, df_snapshot
FROM vocabulary_terms
ORDER BY feature_index`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListTerms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	terms := make([]*entity.VocabularyTerm, 0, 1000)
	for rows.Next() {
		var term entity.VocabularyTerm
		if err := rows.Scan(&term.Term, &term.Index, &term.DFLive, &term.DFSnapshot); err != nil {
			return nil, fmt.Errorf("ListTerms: Scan: %w", err)
		}
		terms = append(terms, &term)
	}
	return terms, rows.Err()
}

func (repo *VocabularyRepo) UpsertTerms(ctx context.Context, terms []*entity.VocabularyTerm) error {
	if len(terms) == 0 {
		return nil
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("UpsertTerms: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
INSERT INTO vocabulary_terms (term, feature_index, df_live, df_snapshot)
VALUES ($1, $2, $3, $4)
ON CONFLICT (term) DO UPDATE SET
       df_live     = EXCLUDED.df_live,
       df_snapshot = EXCLUDED.df_snapshot`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("UpsertTerms: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, term := range terms {
		if _, err := stmt.ExecContext(ctx, term.Term, term.Index, term.DFLive, term.DFSnapshot); err != nil {
			return fmt.Errorf("UpsertTerms: term %q: %w", term.Term, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("UpsertTerms: commit: %w", err)
	}
	return nil
}

// FreezeSnapshot copies every term's live document frequency into its frozen
// one and persists the new stats, in a single transaction. A crash between
// the two statements can never leave terms frozen at one version and stats
// at another.
func (repo *VocabularyRepo) FreezeSnapshot(ctx context.Context, stats *repository.VocabularyStats) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("FreezeSnapshot: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const freeze = `UPDATE vocabulary_terms SET df_snapshot = df_live`
	if _, err := tx.ExecContext(ctx, freeze); err != nil {
		return fmt.Errorf("FreezeSnapshot: %w", err)
	}
	if err := saveStats(ctx, tx, stats); err != nil {
		return fmt.Errorf("FreezeSnapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("FreezeSnapshot: commit: %w", err)
	}
	return nil
}

// execer covers DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveStats(ctx context.Context, db execer, stats *repository.VocabularyStats) error {
	const query = `
INSERT INTO vocabulary_stats (id, live_doc_count, snapshot_version, snapshot_doc_count, next_index)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
       live_doc_count     = EXCLUDED.live_doc_count,
       snapshot_version   = EXCLUDED.snapshot_version,
       snapshot_doc_count = EXCLUDED.snapshot_doc_count,
       next_index         = EXCLUDED.next_index`
	_, err := db.ExecContext(ctx, query, statsRowID,
		stats.LiveDocCount, stats.SnapshotVersion, stats.SnapshotDocCount, stats.NextIndex)
	return err
}
