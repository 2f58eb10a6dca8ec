package repository

import (
	"context"

	"interlocutor/internal/domain/entity"
)

// VocabularyStats is the singleton bookkeeping row for the corpus
// vocabulary: live document count, the version and document count of the
// retained frozen snapshot, and the next unassigned term index.
type VocabularyStats struct {
	LiveDocCount     int64
	SnapshotVersion  int64 // 0 until the first freeze
	SnapshotDocCount int64
	NextIndex        int64
}

// VocabularyRepository persists the corpus-wide term-to-index mapping, its
// document-frequency statistics, and the single retained snapshot.
//
// Index assignment is decided by the vocabulary manager, which serializes
// extension; the repository just stores what it is given.
type VocabularyRepository interface {
	// GetStats retrieves the bookkeeping row. Returns zero-valued stats (not
	// an error) for an empty vocabulary.
	GetStats(ctx context.Context) (*VocabularyStats, error)

	// SaveStats writes the bookkeeping row.
	SaveStats(ctx context.Context, stats *VocabularyStats) error

	// ListTerms retrieves all vocabulary terms ordered by index.
	ListTerms(ctx context.Context) ([]*entity.VocabularyTerm, error)

	// UpsertTerms writes or overwrites the given terms in a single batch.
	UpsertTerms(ctx context.Context, terms []*entity.VocabularyTerm) error

	// FreezeSnapshot atomically copies every term's live document frequency
	// into its snapshot document frequency and saves the updated stats.
	// This establishes the snapshot all subsequent encoding runs against.
	FreezeSnapshot(ctx context.Context, stats *VocabularyStats) error
}
