package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"interlocutor/internal/domain/entity"
	"interlocutor/internal/infra/adapter/persistence/postgres"
)

func TestVectorRepo_UpsertClearsStale(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	id := entity.NewArticleID("guardian/world/1")
	at := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO article_vectors`)).
		WithArgs(string(id), []byte(`{"0":1.5,"3":0.25}`), int64(2), at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewVectorRepo(db)
	err := repo.Upsert(context.Background(), &entity.ArticleVector{
		ID:              id,
		Weights:         entity.SparseVector{0: 1.5, 3: 0.25},
		SnapshotVersion: 2,
		EncodedAt:       at,
	})
	if err != nil {
		t.Fatalf("Upsert err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestVectorRepo_GetRoundTripsWeights(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	id := entity.NewArticleID("guardian/world/1")
	at := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM article_vectors`).
		WithArgs(string(id)).
		WillReturnRows(sqlmock.NewRows([]string{
			"article_id", "weights", "snapshot_version", "stale", "encoded_at",
		}).AddRow(string(id), []byte(`{"0":1.5,"3":0.25}`), int64(2), false, at))

	repo := postgres.NewVectorRepo(db)
	got, err := repo.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	want := entity.SparseVector{0: 1.5, 3: 0.25}
	if diff := cmp.Diff(want, got.Weights); diff != "" {
		t.Fatalf("weights mismatch (-want +got):\n%s", diff)
	}
	if got.SnapshotVersion != 2 || got.Stale {
		t.Fatalf("got=%+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestVectorRepo_Get_Absent(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM article_vectors`).
		WithArgs("00000000000000000000000000000000").
		WillReturnRows(sqlmock.NewRows([]string{
			"article_id", "weights", "snapshot_version", "stale", "encoded_at",
		}))

	repo := postgres.NewVectorRepo(db)
	got, err := repo.Get(context.Background(), "00000000000000000000000000000000")
	if err != nil || got != nil {
		t.Fatalf("absent row: got=%v err=%v, want nil nil", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestVectorRepo_ListNeedingEncode(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	a := entity.NewArticleID("a")
	b := entity.NewArticleID("b")
	mock.ExpectQuery(`LEFT JOIN article_vectors`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"article_id"}).
			AddRow(string(a)).AddRow(string(b)))

	repo := postgres.NewVectorRepo(db)
	got, err := repo.ListNeedingEncode(context.Background(), 3)
	if err != nil || len(got) != 2 {
		t.Fatalf("ListNeedingEncode got=%v err=%v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestVectorRepo_MarkStale_NoVectorIsNoop(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	id := entity.NewArticleID("never-encoded")
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE article_vectors SET stale = TRUE`)).
		WithArgs(string(id)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := postgres.NewVectorRepo(db)
	if err := repo.MarkStale(context.Background(), id); err != nil {
		t.Fatalf("MarkStale err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestVectorRepo_CountStale(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*)`)).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))

	repo := postgres.NewVectorRepo(db)
	got, err := repo.CountStale(context.Background(), 2)
	if err != nil || got != 4 {
		t.Fatalf("CountStale got=%d err=%v, want 4", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
