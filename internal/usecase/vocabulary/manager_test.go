package vocabulary_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"interlocutor/internal/domain/entity"
	"interlocutor/internal/repository"
	"interlocutor/internal/usecase/vocabulary"
)

// in-memory VocabularyRepository stub
type stubVocabRepo struct {
	mu    sync.Mutex
	stats repository.VocabularyStats
	terms map[string]*entity.VocabularyTerm
	err   error // forced error injection
}

func newStubVocabRepo() *stubVocabRepo {
	return &stubVocabRepo{terms: map[string]*entity.VocabularyTerm{}}
}

func (s *stubVocabRepo) GetStats(_ context.Context) (*repository.VocabularyStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	stats := s.stats
	return &stats, nil
}

func (s *stubVocabRepo) SaveStats(_ context.Context, stats *repository.VocabularyStats) error {
	if s.err != nil {
		return s.err
	}
	s.stats = *stats
	return nil
}

func (s *stubVocabRepo) ListTerms(_ context.Context) ([]*entity.VocabularyTerm, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*entity.VocabularyTerm, 0, len(s.terms))
	for _, t := range s.terms {
		copied := *t
		out = append(out, &copied)
	}
	return out, nil
}

func (s *stubVocabRepo) UpsertTerms(_ context.Context, terms []*entity.VocabularyTerm) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range terms {
		copied := *t
		s.terms[t.Term] = &copied
	}
	return nil
}

func (s *stubVocabRepo) FreezeSnapshot(_ context.Context, stats *repository.VocabularyStats) error {
	if s.err != nil {
		return s.err
	}
	for _, t := range s.terms {
		t.DFSnapshot = t.DFLive
	}
	s.stats = *stats
	return nil
}

func TestManager_Extend_IndicesAreStable(t *testing.T) {
	ctx := context.Background()
	m := vocabulary.NewManager(newStubVocabRepo())

	if _, err := m.Extend(ctx, [][]string{{"a", "b"}}); err != nil {
		t.Fatalf("Extend err=%v", err)
	}
	if _, err := m.Extend(ctx, [][]string{{"b", "c"}}); err != nil {
		t.Fatalf("Extend err=%v", err)
	}

	snap, err := m.Freeze(ctx)
	if err != nil {
		t.Fatalf("Freeze err=%v", err)
	}

	wantIndex := map[string]int64{"a": 0, "b": 1, "c": 2}
	for term, want := range wantIndex {
		idx, _, ok := snap.Lookup(term)
		if !ok {
			t.Fatalf("term %q missing from snapshot", term)
		}
		if idx != want {
			t.Fatalf("index(%q)=%d, want %d", term, idx, want)
		}
	}
}

func TestManager_Extend_DFOncePerDocument(t *testing.T) {
	ctx := context.Background()
	m := vocabulary.NewManager(newStubVocabRepo())

	// "news" appears three times in one document and once in another:
	// document frequency must be 2, not 4.
	docs := [][]string{
		{"news", "news", "news", "politics"},
		{"news", "weather"},
	}
	if _, err := m.Extend(ctx, docs); err != nil {
		t.Fatalf("Extend err=%v", err)
	}

	snap, err := m.Freeze(ctx)
	if err != nil {
		t.Fatalf("Freeze err=%v", err)
	}

	_, df, ok := snap.Lookup("news")
	if !ok || df != 2 {
		t.Fatalf("df(news)=%d ok=%v, want 2 true", df, ok)
	}
	if snap.DocCount() != 2 {
		t.Fatalf("DocCount()=%d, want 2", snap.DocCount())
	}
}

func TestManager_Extend_EmptyDocumentsDoNotCount(t *testing.T) {
	ctx := context.Background()
	m := vocabulary.NewManager(newStubVocabRepo())

	// Two of the four documents carry no tokens after normalization. They
	// must not inflate the document total, or every IDF weight would sag.
	docs := [][]string{
		{"news", "politics"},
		{},
		{""},
		{"news"},
	}
	if _, err := m.Extend(ctx, docs); err != nil {
		t.Fatalf("Extend err=%v", err)
	}

	snap, err := m.Freeze(ctx)
	if err != nil {
		t.Fatalf("Freeze err=%v", err)
	}
	if snap.DocCount() != 2 {
		t.Fatalf("DocCount()=%d, want 2", snap.DocCount())
	}
	_, df, ok := snap.Lookup("news")
	if !ok || df != 2 {
		t.Fatalf("df(news)=%d ok=%v, want 2 true", df, ok)
	}
}

func TestManager_Snapshot_EmptyVocabulary(t *testing.T) {
	ctx := context.Background()
	m := vocabulary.NewManager(newStubVocabRepo())

	_, err := m.Snapshot(ctx)
	if !errors.Is(err, entity.ErrEmptyVocabulary) {
		t.Fatalf("want ErrEmptyVocabulary, got %v", err)
	}
}

func TestManager_Freeze_EmptyVocabulary(t *testing.T) {
	ctx := context.Background()
	m := vocabulary.NewManager(newStubVocabRepo())

	_, err := m.Freeze(ctx)
	if !errors.Is(err, entity.ErrEmptyVocabulary) {
		t.Fatalf("want ErrEmptyVocabulary, got %v", err)
	}
}

func TestManager_SnapshotExcludesPostFreezeTerms(t *testing.T) {
	ctx := context.Background()
	m := vocabulary.NewManager(newStubVocabRepo())

	if _, err := m.Extend(ctx, [][]string{{"cat", "dog"}}); err != nil {
		t.Fatalf("Extend err=%v", err)
	}
	snap, err := m.Freeze(ctx)
	if err != nil {
		t.Fatalf("Freeze err=%v", err)
	}

	// Terms arriving after the freeze must not leak into the held snapshot.
	if _, err := m.Extend(ctx, [][]string{{"car", "bus"}}); err != nil {
		t.Fatalf("Extend err=%v", err)
	}
	if _, _, ok := snap.Lookup("car"); ok {
		t.Fatalf("post-freeze term visible in old snapshot")
	}

	// A later term still gets an index after the already assigned ones.
	snap2, err := m.Freeze(ctx)
	if err != nil {
		t.Fatalf("Freeze err=%v", err)
	}
	idx, _, ok := snap2.Lookup("car")
	if !ok || idx < 2 {
		t.Fatalf("index(car)=%d ok=%v, want >= 2", idx, ok)
	}
	if snap2.Version() != snap.Version()+1 {
		t.Fatalf("version=%d, want %d", snap2.Version(), snap.Version()+1)
	}
}

func TestManager_Drift(t *testing.T) {
	ctx := context.Background()
	m := vocabulary.NewManager(newStubVocabRepo())

	drift, err := m.Drift(ctx)
	if err != nil {
		t.Fatalf("Drift err=%v", err)
	}
	if !math.IsInf(drift, 1) {
		t.Fatalf("drift before first freeze = %v, want +Inf", drift)
	}

	docs := make([][]string, 10)
	for i := range docs {
		docs[i] = []string{"term"}
	}
	if _, err := m.Extend(ctx, docs); err != nil {
		t.Fatalf("Extend err=%v", err)
	}
	if _, err := m.Freeze(ctx); err != nil {
		t.Fatalf("Freeze err=%v", err)
	}

	// 5 new documents on a 10-document snapshot: drift = 0.5.
	if _, err := m.Extend(ctx, docs[:5]); err != nil {
		t.Fatalf("Extend err=%v", err)
	}
	drift, err = m.Drift(ctx)
	if err != nil {
		t.Fatalf("Drift err=%v", err)
	}
	if math.Abs(drift-0.5) > 1e-9 {
		t.Fatalf("drift=%v, want 0.5", drift)
	}

	needs, err := m.NeedsFreeze(ctx, 0.2)
	if err != nil || !needs {
		t.Fatalf("NeedsFreeze(0.2)=%v err=%v, want true", needs, err)
	}
	needs, err = m.NeedsFreeze(ctx, 0.9)
	if err != nil || needs {
		t.Fatalf("NeedsFreeze(0.9)=%v err=%v, want false", needs, err)
	}
}

func TestManager_ConcurrentExtend_NoIndexReuse(t *testing.T) {
	ctx := context.Background()
	m := vocabulary.NewManager(newStubVocabRepo())

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			docs := [][]string{{
				"shared",
				"only-" + string(rune('a'+g)),
			}}
			if _, err := m.Extend(ctx, docs); err != nil {
				t.Errorf("Extend err=%v", err)
			}
		}(g)
	}
	wg.Wait()

	snap, err := m.Freeze(ctx)
	if err != nil {
		t.Fatalf("Freeze err=%v", err)
	}

	// 9 distinct terms, indices 0..8 with no gaps or duplicates.
	if snap.Size() != 9 {
		t.Fatalf("Size()=%d, want 9", snap.Size())
	}
	seen := map[int64]bool{}
	for _, term := range []string{
		"shared", "only-a", "only-b", "only-c", "only-d",
		"only-e", "only-f", "only-g", "only-h",
	} {
		idx, _, ok := snap.Lookup(term)
		if !ok {
			t.Fatalf("term %q missing", term)
		}
		if seen[idx] {
			t.Fatalf("index %d assigned twice", idx)
		}
		if idx < 0 || idx > 8 {
			t.Fatalf("index %d out of range", idx)
		}
		seen[idx] = true
	}
}

func TestManager_Load_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	repo := newStubVocabRepo()

	m1 := vocabulary.NewManager(repo)
	if _, err := m1.Extend(ctx, [][]string{{"a", "b"}}); err != nil {
		t.Fatalf("Extend err=%v", err)
	}
	if _, err := m1.Freeze(ctx); err != nil {
		t.Fatalf("Freeze err=%v", err)
	}

	// A fresh manager over the same repository sees identical assignments.
	m2 := vocabulary.NewManager(repo)
	snap, err := m2.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot err=%v", err)
	}
	idxA, _, _ := snap.Lookup("a")
	idxB, _, _ := snap.Lookup("b")
	if idxA == idxB {
		t.Fatalf("indices collided after reload")
	}

	if _, err := m2.Extend(ctx, [][]string{{"c"}}); err != nil {
		t.Fatalf("Extend err=%v", err)
	}
	snap2, err := m2.Freeze(ctx)
	if err != nil {
		t.Fatalf("Freeze err=%v", err)
	}
	idxC, _, ok := snap2.Lookup("c")
	if !ok || idxC != 2 {
		t.Fatalf("index(c)=%d ok=%v, want 2 true", idxC, ok)
	}
}
