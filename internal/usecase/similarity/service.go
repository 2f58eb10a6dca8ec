// Package similarity maintains the cross-publication recommendation index:
// undirected cosine-similarity edges between encoded articles, stored once
// per unordered pair and queried top-K per article.
package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"interlocutor/internal/domain/entity"
	"interlocutor/internal/observability/metrics"
	"interlocutor/internal/repository"
	"interlocutor/internal/usecase/vocabulary"
)

// Options tune neighbor selection. The zero value gives sensible defaults
// via the accessors below.
type Options struct {
	// MinScore is the floor below which a candidate never becomes an edge,
	// regardless of rank. Near-zero cosine scores are noise, not signal.
	MinScore float64

	// TopK is the number of neighbors retained per article on recompute.
	TopK int

	// ExcludeSameSource drops candidates from the article's own publication,
	// keeping the index cross-publication.
	ExcludeSameSource bool

	// Parallelism bounds concurrent per-article recomputes in RecomputeAll.
	// Zero means GOMAXPROCS.
	Parallelism int
}

const (
	defaultMinScore = 0.05
	defaultTopK     = 10
)

func (o Options) minScore() float64 {
	if o.MinScore > 0 {
		return o.MinScore
	}
	return defaultMinScore
}

func (o Options) topK() int {
	if o.TopK > 0 {
		return o.TopK
	}
	return defaultTopK
}

func (o Options) parallelism() int {
	if o.Parallelism > 0 {
		return o.Parallelism
	}
	return runtime.GOMAXPROCS(0)
}

// Service recomputes and serves similarity edges.
type Service struct {
	Articles repository.ArticleRepository
	Vectors  repository.VectorRepository
	Edges    repository.EdgeRepository
	Vocab    *vocabulary.Manager
	Opts     Options
	Logger   *slog.Logger
}

// RecomputeNeighbors refreshes the edges touching one article from its
// current top-K selection and returns that selection.
//
// An edge exists as long as either endpoint selects the other, so a stored
// edge that this article no longer selects survives if the neighbor's own
// top-K still includes it. Recomputing one article therefore never discards
// another article's selections, whatever order articles are processed in.
//
// Only vectors pinned to the current snapshot version participate: scores
// across snapshot versions are not comparable. Returns entity.ErrStaleVector
// if the article itself has no usable current-version vector, and
// entity.ErrEmptyVocabulary if no snapshot has been frozen.
func (s *Service) RecomputeNeighbors(ctx context.Context, id entity.ArticleID) ([]repository.ScoredArticle, error) {
	snap, err := s.Vocab.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	target, err := s.Vectors.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get vector %q: %w", id, err)
	}
	if target == nil || !target.Current(snap.Version()) {
		return nil, fmt.Errorf("recompute neighbors %q: %w", id, entity.ErrStaleVector)
	}

	candidates, err := s.Vectors.ListByVersion(ctx, snap.Version())
	if err != nil {
		return nil, fmt.Errorf("list vectors at version %d: %w", snap.Version(), err)
	}
	sources, err := s.sourceIndex(ctx)
	if err != nil {
		return nil, err
	}

	selected := s.selectNeighbors(target, candidates, sources)
	final, err := s.mergeEdges(ctx, id, selected, candidates, sources)
	if err != nil {
		return nil, err
	}
	if err := s.Edges.ReplaceForArticle(ctx, id, final); err != nil {
		return nil, fmt.Errorf("replace edges %q: %w", id, err)
	}
	return selected, nil
}

// RecomputeAll rebuilds the whole edge table in one pass: the top-K of every
// article encoded at the current snapshot version is computed
// bounded-parallel, the selections are merged into one undirected set, and
// the table is swapped atomically. The end state is independent of
// processing order, and a cancelled run leaves the previous table intact.
func (s *Service) RecomputeAll(ctx context.Context) (int, error) {
	snap, err := s.Vocab.Snapshot(ctx)
	if err != nil {
		return 0, err
	}

	vectors, err := s.Vectors.ListByVersion(ctx, snap.Version())
	if err != nil {
		return 0, fmt.Errorf("list vectors at version %d: %w", snap.Version(), err)
	}
	if len(vectors) == 0 {
		return 0, nil
	}
	sources, err := s.sourceIndex(ctx)
	if err != nil {
		return 0, err
	}

	selections := make([][]repository.ScoredArticle, len(vectors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Opts.parallelism())
	for i, target := range vectors {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			selections[i] = s.selectNeighbors(target, vectors, sources)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	// Merge the per-article selections: each unordered pair appears once,
	// and both endpoints compute the same symmetric score.
	union := make(map[[2]entity.ArticleID]entity.SimilarityEdge)
	for i, selected := range selections {
		id := vectors[i].ID
		for _, n := range selected {
			edge, err := entity.NewSimilarityEdge(id, n.ArticleID, n.Score)
			if err != nil {
				return 0, fmt.Errorf("build edge %q~%q: %w", id, n.ArticleID, err)
			}
			union[[2]entity.ArticleID{edge.A, edge.B}] = edge
		}
	}
	edges := make([]entity.SimilarityEdge, 0, len(union))
	for _, edge := range union {
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
	if err := s.Edges.ReplaceAll(ctx, edges); err != nil {
		return 0, fmt.Errorf("replace all edges: %w", err)
	}

	metrics.RecordSimilarityRecomputed(len(vectors))
	s.logger().Info("similarity index rebuilt",
		slog.Int("articles", len(vectors)),
		slog.Int64("snapshot_version", snap.Version()))
	return len(vectors), nil
}

// GetSimilar returns up to k stored neighbors for an article, best first.
// Returns entity.ErrNotFound if the article was never ingested. An ingested
// article with no edges yet returns an empty slice, not an error.
func (s *Service) GetSimilar(ctx context.Context, id entity.ArticleID, k int) ([]repository.ScoredArticle, error) {
	meta, err := s.Articles.GetMetadata(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get metadata %q: %w", id, err)
	}
	if meta == nil {
		return nil, fmt.Errorf("get similar %q: %w", id, entity.ErrNotFound)
	}
	if k <= 0 {
		k = s.Opts.topK()
	}

	scored, err := s.Edges.ListForArticle(ctx, id, k)
	if err != nil {
		return nil, fmt.Errorf("list edges %q: %w", id, err)
	}
	if scored == nil {
		scored = []repository.ScoredArticle{}
	}
	return scored, nil
}

// ProcessingState reports how far through the pipeline one article has
// progressed. Returns entity.ErrNotFound if the article was never ingested.
func (s *Service) ProcessingState(ctx context.Context, id entity.ArticleID) (*entity.ProcessingState, error) {
	meta, err := s.Articles.GetMetadata(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get metadata %q: %w", id, err)
	}
	if meta == nil {
		return nil, fmt.Errorf("processing state %q: %w", id, entity.ErrNotFound)
	}

	state := &entity.ProcessingState{HasMetadata: true}

	content, err := s.Articles.GetContent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get content %q: %w", id, err)
	}
	state.HasContent = content != nil

	pre, err := s.Articles.GetPreprocessed(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get preprocessed %q: %w", id, err)
	}
	state.HasPreprocessed = pre != nil

	vector, err := s.Vectors.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get vector %q: %w", id, err)
	}
	if vector != nil {
		state.HasVector = true
		state.VectorIsStale = vector.Stale
	}
	return state, nil
}

// selectNeighbors scores target against every candidate and keeps the top-K
// above the score floor. Ties break on ascending neighbor identity so the
// result is deterministic across runs.
func (s *Service) selectNeighbors(target *entity.ArticleVector, candidates []*entity.ArticleVector, sources map[entity.ArticleID]string) []repository.ScoredArticle {
	minScore := s.Opts.minScore()
	targetSource := sources[target.ID]

	scored := make([]repository.ScoredArticle, 0, len(candidates))
	for _, cand := range candidates {
		if cand.ID == target.ID {
			continue
		}
		if s.Opts.ExcludeSameSource && targetSource != "" && sources[cand.ID] == targetSource {
			continue
		}
		score := target.Weights.Cosine(cand.Weights)
		if score < minScore {
			continue
		}
		// Rounding can push identical vectors a hair past 1.
		if score > 1 {
			score = 1
		}
		scored = append(scored, repository.ScoredArticle{ArticleID: cand.ID, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ArticleID < scored[j].ArticleID
	})
	if k := s.Opts.topK(); len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// mergeEdges builds the full edge set touching id: the article's own
// selections, plus stored edges whose other endpoint still selects this
// article in its own top-K.
func (s *Service) mergeEdges(ctx context.Context, id entity.ArticleID, selected []repository.ScoredArticle, candidates []*entity.ArticleVector, sources map[entity.ArticleID]string) ([]entity.SimilarityEdge, error) {
	edges := make([]entity.SimilarityEdge, 0, len(selected))
	kept := make(map[entity.ArticleID]struct{}, len(selected))
	for _, n := range selected {
		edge, err := entity.NewSimilarityEdge(id, n.ArticleID, n.Score)
		if err != nil {
			return nil, fmt.Errorf("build edge %q~%q: %w", id, n.ArticleID, err)
		}
		edges = append(edges, edge)
		kept[n.ArticleID] = struct{}{}
	}

	stored, err := s.Edges.ListForArticle(ctx, id, 0)
	if err != nil {
		return nil, fmt.Errorf("list edges %q: %w", id, err)
	}
	if len(stored) == 0 {
		return edges, nil
	}

	byID := make(map[entity.ArticleID]*entity.ArticleVector, len(candidates))
	for _, cand := range candidates {
		byID[cand.ID] = cand
	}
	for _, st := range stored {
		if _, ok := kept[st.ArticleID]; ok {
			continue
		}
		neighbor := byID[st.ArticleID]
		if neighbor == nil {
			// The neighbor has no current-version vector; its edges lapse.
			continue
		}
		score, ok := s.reverseSelection(neighbor, id, candidates, sources)
		if !ok {
			continue
		}
		edge, err := entity.NewSimilarityEdge(id, st.ArticleID, score)
		if err != nil {
			return nil, fmt.Errorf("build edge %q~%q: %w", id, st.ArticleID, err)
		}
		edges = append(edges, edge)
		kept[st.ArticleID] = struct{}{}
	}
	return edges, nil
}

// reverseSelection reports whether the neighbor's own top-K currently
// includes the given article, and at what score.
func (s *Service) reverseSelection(neighbor *entity.ArticleVector, id entity.ArticleID, candidates []*entity.ArticleVector, sources map[entity.ArticleID]string) (float64, bool) {
	for _, n := range s.selectNeighbors(neighbor, candidates, sources) {
		if n.ArticleID == id {
			return n.Score, true
		}
	}
	return 0, false
}

func (s *Service) sourceIndex(ctx context.Context) (map[entity.ArticleID]string, error) {
	if !s.Opts.ExcludeSameSource {
		return nil, nil
	}
	all, err := s.Articles.ListMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	sources := make(map[entity.ArticleID]string, len(all))
	for _, m := range all {
		sources[m.ID] = m.Source
	}
	return sources, nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
