package article_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"interlocutor/internal/domain/entity"
	"interlocutor/internal/handler/http/article"
	"interlocutor/internal/repository"
	simUC "interlocutor/internal/usecase/similarity"
)

type stubArticleRepo struct {
	meta map[entity.ArticleID]*entity.ArticleMetadata
	body map[entity.ArticleID]*entity.ArticleContent
	pre  map[entity.ArticleID]*entity.PreprocessedContent
}

func newStubArticleRepo() *stubArticleRepo {
	return &stubArticleRepo{
		meta: map[entity.ArticleID]*entity.ArticleMetadata{},
		body: map[entity.ArticleID]*entity.ArticleContent{},
		pre:  map[entity.ArticleID]*entity.PreprocessedContent{},
	}
}

func (s *stubArticleRepo) UpsertMetadata(_ context.Context, m *entity.ArticleMetadata) error {
	s.meta[m.ID] = m
	return nil
}

func (s *stubArticleRepo) GetMetadata(_ context.Context, id entity.ArticleID) (*entity.ArticleMetadata, error) {
	return s.meta[id], nil
}

func (s *stubArticleRepo) ListMetadata(_ context.Context) ([]*entity.ArticleMetadata, error) {
	out := make([]*entity.ArticleMetadata, 0, len(s.meta))
	for _, m := range s.meta {
		out = append(out, m)
	}
	return out, nil
}

func (s *stubArticleRepo) LatestPublishedAt(_ context.Context, _ string) (*time.Time, error) {
	return nil, nil
}

func (s *stubArticleRepo) UpsertContent(_ context.Context, c *entity.ArticleContent) error {
	s.body[c.ID] = c
	return nil
}

func (s *stubArticleRepo) GetContent(_ context.Context, id entity.ArticleID) (*entity.ArticleContent, error) {
	return s.body[id], nil
}

func (s *stubArticleRepo) ListContentMissingPreprocessed(_ context.Context) ([]*entity.ArticleContent, error) {
	return nil, nil
}

func (s *stubArticleRepo) UpsertPreprocessed(_ context.Context, p *entity.PreprocessedContent) error {
	s.pre[p.ID] = p
	return nil
}

func (s *stubArticleRepo) GetPreprocessed(_ context.Context, id entity.ArticleID) (*entity.PreprocessedContent, error) {
	return s.pre[id], nil
}

func (s *stubArticleRepo) ListPreprocessed(_ context.Context) ([]*entity.PreprocessedContent, error) {
	return nil, nil
}

type stubVectorRepo struct {
	vectors map[entity.ArticleID]*entity.ArticleVector
}

func newStubVectorRepo() *stubVectorRepo {
	return &stubVectorRepo{vectors: map[entity.ArticleID]*entity.ArticleVector{}}
}

func (s *stubVectorRepo) Upsert(_ context.Context, v *entity.ArticleVector) error {
	s.vectors[v.ID] = v
	return nil
}

func (s *stubVectorRepo) Get(_ context.Context, id entity.ArticleID) (*entity.ArticleVector, error) {
	return s.vectors[id], nil
}

func (s *stubVectorRepo) ListByVersion(_ context.Context, _ int64) ([]*entity.ArticleVector, error) {
	return nil, nil
}

func (s *stubVectorRepo) ListNeedingEncode(_ context.Context, _ int64) ([]entity.ArticleID, error) {
	return nil, nil
}

func (s *stubVectorRepo) MarkStale(_ context.Context, _ entity.ArticleID) error { return nil }

func (s *stubVectorRepo) ListStale(_ context.Context) ([]entity.ArticleID, error) { return nil, nil }

func (s *stubVectorRepo) CountStale(_ context.Context, _ int64) (int64, error) { return 0, nil }

type stubEdgeRepo struct {
	neighbors map[entity.ArticleID][]repository.ScoredArticle
}

func newStubEdgeRepo() *stubEdgeRepo {
	return &stubEdgeRepo{neighbors: map[entity.ArticleID][]repository.ScoredArticle{}}
}

func (s *stubEdgeRepo) ReplaceForArticle(_ context.Context, _ entity.ArticleID, _ []entity.SimilarityEdge) error {
	return nil
}

func (s *stubEdgeRepo) ReplaceAll(_ context.Context, _ []entity.SimilarityEdge) error { return nil }

func (s *stubEdgeRepo) ListForArticle(_ context.Context, id entity.ArticleID, k int) ([]repository.ScoredArticle, error) {
	scored := s.neighbors[id]
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

type fixture struct {
	articles *stubArticleRepo
	vectors  *stubVectorRepo
	edges    *stubEdgeRepo
	mux      *http.ServeMux
}

func newFixture() *fixture {
	f := &fixture{
		articles: newStubArticleRepo(),
		vectors:  newStubVectorRepo(),
		edges:    newStubEdgeRepo(),
	}
	svc := &simUC.Service{
		Articles: f.articles,
		Vectors:  f.vectors,
		Edges:    f.edges,
	}
	f.mux = http.NewServeMux()
	article.Register(f.mux, svc)
	return f
}

func (f *fixture) addArticle(naturalKey string) entity.ArticleID {
	id := entity.NewArticleID(naturalKey)
	f.articles.meta[id] = &entity.ArticleMetadata{
		ID:         id,
		Source:     "guardian",
		NaturalKey: naturalKey,
		Title:      "t",
	}
	return id
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func TestSimilarHandler_ReturnsNeighborsBestFirst(t *testing.T) {
	f := newFixture()
	id := f.addArticle("guardian/world/a")
	n1 := f.addArticle("guardian/world/b")
	n2 := f.addArticle("nytimes/world/c")
	f.edges.neighbors[id] = []repository.ScoredArticle{
		{ArticleID: n1, Score: 0.91},
		{ArticleID: n2, Score: 0.42},
	}

	rec := f.get(t, "/articles/"+string(id)+"/similar")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	var out struct {
		ArticleID string `json:"article_id"`
		Neighbors []struct {
			ArticleID string  `json:"article_id"`
			Score     float64 `json:"score"`
		} `json:"neighbors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.ArticleID != string(id) {
		t.Errorf("article_id = %q, want %q", out.ArticleID, id)
	}
	if len(out.Neighbors) != 2 {
		t.Fatalf("neighbors = %d, want 2", len(out.Neighbors))
	}
	if out.Neighbors[0].ArticleID != string(n1) || out.Neighbors[0].Score != 0.91 {
		t.Errorf("first neighbor = %+v, want %s @ 0.91", out.Neighbors[0], n1)
	}
}

func TestSimilarHandler_KQueryParamLimitsResults(t *testing.T) {
	f := newFixture()
	id := f.addArticle("guardian/world/a")
	n1 := f.addArticle("guardian/world/b")
	n2 := f.addArticle("nytimes/world/c")
	f.edges.neighbors[id] = []repository.ScoredArticle{
		{ArticleID: n1, Score: 0.91},
		{ArticleID: n2, Score: 0.42},
	}

	rec := f.get(t, "/articles/"+string(id)+"/similar?k=1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out struct {
		Neighbors []json.RawMessage `json:"neighbors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Neighbors) != 1 {
		t.Errorf("neighbors = %d, want 1", len(out.Neighbors))
	}
}

func TestSimilarHandler_InvalidK(t *testing.T) {
	f := newFixture()
	id := f.addArticle("guardian/world/a")

	for _, k := range []string{"0", "-3", "abc"} {
		rec := f.get(t, "/articles/"+string(id)+"/similar?k="+k)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("k=%s: status = %d, want 400", k, rec.Code)
		}
	}
}

func TestSimilarHandler_UnknownArticle(t *testing.T) {
	f := newFixture()
	ghost := entity.NewArticleID("never/ingested")

	rec := f.get(t, "/articles/"+string(ghost)+"/similar")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSimilarHandler_MalformedID(t *testing.T) {
	f := newFixture()

	tests := []string{
		"/articles/1234/similar",
		"/articles/" + strings.ToUpper(strings.Repeat("ab", 16)) + "/similar",
		"/articles/" + strings.Repeat("zz", 16) + "/similar",
	}
	for _, path := range tests {
		rec := f.get(t, path)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestSimilarHandler_NoEdgesIsEmptyList(t *testing.T) {
	f := newFixture()
	id := f.addArticle("guardian/world/a")

	rec := f.get(t, "/articles/"+string(id)+"/similar")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	// The neighbors field must be an empty array, not null.
	if !strings.Contains(rec.Body.String(), `"neighbors":[]`) {
		t.Errorf("body = %s, want empty neighbors array", rec.Body.String())
	}
}
