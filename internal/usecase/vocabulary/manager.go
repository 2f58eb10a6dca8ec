// Package vocabulary maintains the corpus-wide term-to-index mapping and its
// document-frequency statistics.
//
// The vocabulary is the one globally shared mutable resource in the
// pipeline, so it is modeled as a single owned resource behind a
// mutex-guarded manager rather than ambient state: extension from concurrent
// ingestion batches serializes on the manager, and consumers obtain explicit
// immutable snapshots for encoding.
package vocabulary

import (
	"context"
	"fmt"
	"math"
	"sync"

	"interlocutor/internal/domain/entity"
	"interlocutor/internal/repository"
)

// Manager owns the live vocabulary and the single retained frozen snapshot.
// All methods are safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	repo   repository.VocabularyRepository
	loaded bool

	stats    repository.VocabularyStats
	terms    map[string]*entity.VocabularyTerm
	snapshot *Snapshot // nil until the first freeze
}

// NewManager creates a Manager backed by the given repository. State is
// loaded lazily on first use.
func NewManager(repo repository.VocabularyRepository) *Manager {
	return &Manager{
		repo:  repo,
		terms: make(map[string]*entity.VocabularyTerm),
	}
}

// Load reads the persisted vocabulary into memory. Calling it more than once
// is a no-op; every public method loads on demand.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLoaded(ctx)
}

func (m *Manager) ensureLoaded(ctx context.Context) error {
	if m.loaded {
		return nil
	}

	stats, err := m.repo.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("load vocabulary stats: %w", err)
	}
	terms, err := m.repo.ListTerms(ctx)
	if err != nil {
		return fmt.Errorf("load vocabulary terms: %w", err)
	}

	m.stats = *stats
	m.terms = make(map[string]*entity.VocabularyTerm, len(terms))
	for _, term := range terms {
		copied := *term
		m.terms[term.Term] = &copied
	}

	if m.stats.SnapshotVersion > 0 {
		m.snapshot = m.buildSnapshotLocked()
	}

	m.loaded = true
	return nil
}

// Extend incorporates a batch of preprocessed documents into the live
// vocabulary. Each distinct term not yet present is assigned the next unused
// index; the index counter is monotonic and indices are never reused or
// renumbered. Document frequency is incremented once per document a term
// appears in, not per occurrence. Documents left empty by normalization are
// ignored entirely: they neither add terms nor count toward the live
// document total.
//
// Returns the number of newly added terms. Extension is serialized by the
// manager's lock, preserving deterministic index assignment under
// concurrent ingestion batches.
func (m *Manager) Extend(ctx context.Context, docs [][]string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	changed := make(map[string]*entity.VocabularyTerm)
	added := 0
	counted := int64(0)

	for _, tokens := range docs {
		seen := make(map[string]struct{}, len(tokens))
		for _, token := range tokens {
			if token == "" {
				continue
			}
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}

			term, ok := m.terms[token]
			if !ok {
				term = &entity.VocabularyTerm{
					Term:  token,
					Index: m.stats.NextIndex,
				}
				m.stats.NextIndex++
				m.terms[token] = term
				added++
			}
			term.DFLive++
			changed[token] = term
		}
		// A document empty after normalization contributes no term
		// frequencies, so it does not count toward the document total
		// either; N covers exactly the documents that carry terms.
		if len(seen) > 0 {
			counted++
		}
	}
	m.stats.LiveDocCount += counted

	batch := make([]*entity.VocabularyTerm, 0, len(changed))
	for _, term := range changed {
		batch = append(batch, term)
	}
	if err := m.repo.UpsertTerms(ctx, batch); err != nil {
		return 0, fmt.Errorf("persist vocabulary terms: %w", err)
	}
	if err := m.repo.SaveStats(ctx, &m.stats); err != nil {
		return 0, fmt.Errorf("persist vocabulary stats: %w", err)
	}

	return added, nil
}

// Snapshot returns the current frozen snapshot. Returns
// entity.ErrEmptyVocabulary before the first freeze: similarity and
// encoding are simply not ready yet.
func (m *Manager) Snapshot(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if m.snapshot == nil {
		return nil, entity.ErrEmptyVocabulary
	}
	return m.snapshot, nil
}

// Freeze establishes a new snapshot from the live statistics: the snapshot
// version is bumped, every term's live document frequency becomes its frozen
// one, and the result is persisted atomically. All vectors encoded against
// earlier versions become stale by version mismatch.
func (m *Manager) Freeze(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if len(m.terms) == 0 || m.stats.LiveDocCount == 0 {
		return nil, entity.ErrEmptyVocabulary
	}

	stats := m.stats
	stats.SnapshotVersion++
	stats.SnapshotDocCount = stats.LiveDocCount

	if err := m.repo.FreezeSnapshot(ctx, &stats); err != nil {
		return nil, fmt.Errorf("freeze vocabulary snapshot: %w", err)
	}

	m.stats = stats
	for _, term := range m.terms {
		term.DFSnapshot = term.DFLive
	}
	m.snapshot = m.buildSnapshotLocked()

	return m.snapshot, nil
}

// Drift reports how far the live document count has moved from the frozen
// snapshot, as a fraction of the snapshot's document count. Returns +Inf if
// no snapshot exists yet.
func (m *Manager) Drift(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	if m.stats.SnapshotDocCount == 0 {
		return math.Inf(1), nil
	}
	delta := float64(m.stats.LiveDocCount - m.stats.SnapshotDocCount)
	return delta / float64(m.stats.SnapshotDocCount), nil
}

// NeedsFreeze reports whether the drift from the current snapshot exceeds
// the given threshold (or no snapshot exists while documents do).
func (m *Manager) NeedsFreeze(ctx context.Context, threshold float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(ctx); err != nil {
		return false, err
	}
	if m.stats.LiveDocCount == 0 {
		return false, nil
	}
	if m.stats.SnapshotDocCount == 0 {
		return true, nil
	}
	delta := float64(m.stats.LiveDocCount - m.stats.SnapshotDocCount)
	return delta/float64(m.stats.SnapshotDocCount) > threshold, nil
}

// Size returns the number of terms in the live vocabulary.
func (m *Manager) Size(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	return len(m.terms), nil
}

// buildSnapshotLocked materializes an immutable snapshot from the in-memory
// frozen statistics. Caller must hold the lock.
func (m *Manager) buildSnapshotLocked() *Snapshot {
	index := make(map[string]int64)
	df := make(map[int64]int64)
	for _, term := range m.terms {
		if term.DFSnapshot == 0 {
			continue // added after the freeze, not part of the snapshot
		}
		index[term.Term] = term.Index
		df[term.Index] = term.DFSnapshot
	}
	return &Snapshot{
		version:  m.stats.SnapshotVersion,
		docCount: m.stats.SnapshotDocCount,
		index:    index,
		df:       df,
	}
}
