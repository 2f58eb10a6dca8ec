// Package encode computes TF-IDF vectors for preprocessed articles against a
// frozen vocabulary snapshot.
package encode

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"interlocutor/internal/domain/entity"
	"interlocutor/internal/observability/metrics"
	"interlocutor/internal/repository"
	"interlocutor/internal/usecase/vocabulary"
)

// Encode computes the sparse TF-IDF vector for a token sequence against a
// vocabulary snapshot.
//
// Term frequency is the raw count of the term in the document. Inverse
// document frequency uses the smoothed formula ln((1+N)/(1+df)) + 1, with N
// and df taken from the snapshot so that every vector of the same snapshot
// version is computed against identical statistics. Tokens absent from the
// snapshot are skipped: vocabulary extension is an explicit pipeline step,
// never a side effect of encoding. Weights are stored raw (unnormalized);
// cosine similarity normalizes on demand.
func Encode(tokens []string, snap *vocabulary.Snapshot) entity.SparseVector {
	counts := make(map[string]int, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		counts[token]++
	}

	weights := make(entity.SparseVector, len(counts))
	n := float64(snap.DocCount())
	for term, tf := range counts {
		index, df, ok := snap.Lookup(term)
		if !ok {
			continue
		}
		idf := math.Log((1+n)/(1+float64(df))) + 1
		weights[index] = float64(tf) * idf
	}
	return weights
}

// Service encodes preprocessed articles that do not yet have a usable vector
// at the current snapshot version.
type Service struct {
	Articles repository.ArticleRepository
	Vectors  repository.VectorRepository
	Vocab    *vocabulary.Manager
	Logger   *slog.Logger
}

// EncodePending encodes every article that has preprocessed content but no
// current-version vector. The batch is cancellable and resumable: each
// vector write is durable, and identities already encoded at this version
// drop out of the pending list, so a restart continues where the previous
// run stopped.
//
// Returns the number of vectors written. Returns entity.ErrEmptyVocabulary
// if no snapshot has been frozen yet.
func (s *Service) EncodePending(ctx context.Context) (int, error) {
	snap, err := s.Vocab.Snapshot(ctx)
	if err != nil {
		return 0, err
	}

	pending, err := s.Vectors.ListNeedingEncode(ctx, snap.Version())
	if err != nil {
		return 0, fmt.Errorf("list articles needing encode: %w", err)
	}

	encoded := 0
	for _, id := range pending {
		if err := ctx.Err(); err != nil {
			return encoded, err
		}
		if err := s.encodeOne(ctx, id, snap); err != nil {
			return encoded, err
		}
		encoded++
	}

	if encoded > 0 {
		metrics.RecordVectorsEncoded(encoded, snap.Version())
		s.logger().Info("encoded pending articles",
			slog.Int("count", encoded),
			slog.Int64("snapshot_version", snap.Version()))
	}
	return encoded, nil
}

// EncodeArticle re-encodes a single article against the current snapshot.
// Used to heal a stale vector before similarity needs it.
func (s *Service) EncodeArticle(ctx context.Context, id entity.ArticleID) (*entity.ArticleVector, error) {
	snap, err := s.Vocab.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.encodeOne(ctx, id, snap); err != nil {
		return nil, err
	}
	vector, err := s.Vectors.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get encoded vector %q: %w", id, err)
	}
	return vector, nil
}

func (s *Service) encodeOne(ctx context.Context, id entity.ArticleID, snap *vocabulary.Snapshot) error {
	pre, err := s.Articles.GetPreprocessed(ctx, id)
	if err != nil {
		return fmt.Errorf("get preprocessed content %q: %w", id, err)
	}
	if pre == nil {
		return fmt.Errorf("encode %q: preprocessed content: %w", id, entity.ErrNotFound)
	}

	vector := &entity.ArticleVector{
		ID:              id,
		Weights:         Encode(pre.Tokens, snap),
		SnapshotVersion: snap.Version(),
		EncodedAt:       time.Now().UTC(),
	}
	if err := s.Vectors.Upsert(ctx, vector); err != nil {
		return fmt.Errorf("upsert vector %q: %w", id, err)
	}
	return nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
