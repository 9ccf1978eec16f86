package bunindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	repository "github.com/goliatone/go-repository-bun"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap/zaptest"

	"github.com/goliatone/go-search-cache/searchindex"
)

type filmRow struct {
	bun.BaseModel `bun:"table:films" json:"-"`

	ID         string  `bun:"id,pk" json:"id"`
	Title      string  `bun:"title" json:"title"`
	IMDbRating float64 `bun:"imdb_rating" json:"imdb_rating"`
	GenresID   string  `bun:"genres_id" json:"genres_id"`
}

func (f filmRow) GetID() string { return f.ID }

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if _, err := db.NewCreateTable().Model((*filmRow)(nil)).Exec(ctx); err != nil {
		t.Fatalf("create table: %v", err)
	}

	rows := make([]filmRow, 0, 26)
	for i := 1; i <= 23; i++ {
		rows = append(rows, filmRow{
			ID:         fmt.Sprintf("bat-%02d", i),
			Title:      fmt.Sprintf("Batman %02d", i),
			IMDbRating: float64(i) / 10,
			GenresID:   "action",
		})
	}
	rows = append(rows,
		filmRow{ID: "heat", Title: "Heat", IMDbRating: 8.3, GenresID: "crime"},
		filmRow{ID: "alien", Title: "Alien", IMDbRating: 8.5, GenresID: "horror"},
		filmRow{ID: "bat-crime", Title: "The Batman", IMDbRating: 7.8, GenresID: "crime"},
	)
	if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx := New(WithLogger(zaptest.NewLogger(t)))
	Register[filmRow](idx, "movies", NewTableRepository[filmRow](newTestDB(t)))
	return idx
}

func TestIndex_SearchPaging(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	res, err := idx.Search(ctx, "movies", []string{"id", "title"}, searchindex.Query{
		Text: "batman",
		Sort: []searchindex.Sort{{Field: "imdb_rating", Order: searchindex.Desc}},
		From: 20,
		Size: 10,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if res.Total != 24 {
		t.Errorf("expected 24 matches, got %d", res.Total)
	}
	if len(res.Hits) != 4 {
		t.Fatalf("expected 4 hits on the last page, got %d", len(res.Hits))
	}

	var last map[string]any
	if err := json.Unmarshal(res.Hits[3].Source, &last); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if last["title"] != "Batman 01" {
		t.Errorf("expected lowest rating last, got %v", last["title"])
	}
	if _, ok := last["imdb_rating"]; ok {
		t.Error("fields outside the source list should be dropped")
	}
}

func TestIndex_SearchFilters(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	res, err := idx.Search(ctx, "movies", nil, searchindex.Query{
		Text:       "batman",
		TextFields: []string{"title^3"},
		Filters:    []searchindex.Filter{{Path: "genres", Field: "genres.id", Value: "crime"}},
		Size:       10,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.Total != 1 || len(res.Hits) != 1 || res.Hits[0].ID != "bat-crime" {
		t.Errorf("unexpected result total=%d hits=%+v", res.Total, res.Hits)
	}

	res, err = idx.Search(ctx, "movies", nil, searchindex.Query{Text: "zzz", Size: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.Total != 0 || len(res.Hits) != 0 {
		t.Errorf("expected no matches, got %d", res.Total)
	}
}

func TestIndex_Get(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	doc, err := idx.Get(ctx, "movies", "heat")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	row, err := searchindex.Decode[filmRow](*doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if row.Title != "Heat" || row.IMDbRating != 8.3 {
		t.Errorf("unexpected row %+v", row)
	}

	if _, err := idx.Get(ctx, "movies", "missing"); !errors.Is(err, searchindex.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIndex_UnknownCollection(t *testing.T) {
	idx := New()
	ctx := context.Background()

	if _, err := idx.Search(ctx, "movies", nil, searchindex.Query{}); !errors.Is(err, searchindex.ErrNotFound) {
		t.Errorf("Search: expected ErrNotFound, got %v", err)
	}
	if _, err := idx.Get(ctx, "movies", "1"); !errors.Is(err, searchindex.ErrNotFound) {
		t.Errorf("Get: expected ErrNotFound, got %v", err)
	}
}

type failingRepo struct{ err error }

func (r failingRepo) List(context.Context, ...repository.SelectCriteria) ([]filmRow, int, error) {
	return nil, 0, r.err
}

func (r failingRepo) GetByID(context.Context, string, ...repository.SelectCriteria) (filmRow, error) {
	return filmRow{}, r.err
}

func TestIndex_RepositoryErrors(t *testing.T) {
	ctx := context.Background()
	gone := errors.New("record gone")
	down := errors.New("database is locked")

	idx := New(WithNotFound(func(err error) bool { return errors.Is(err, gone) }))
	Register[filmRow](idx, "gone", failingRepo{err: gone})
	Register[filmRow](idx, "down", failingRepo{err: down})

	if _, err := idx.Get(ctx, "gone", "1"); !errors.Is(err, searchindex.ErrNotFound) {
		t.Errorf("custom not-found matcher ignored: %v", err)
	}
	if _, err := idx.Get(ctx, "down", "1"); !errors.Is(err, down) || errors.Is(err, searchindex.ErrNotFound) {
		t.Errorf("expected wrapped repository error, got %v", err)
	}
	if _, err := idx.Search(ctx, "down", nil, searchindex.Query{}); !errors.Is(err, down) {
		t.Errorf("expected wrapped repository error, got %v", err)
	}
}

func TestColumn(t *testing.T) {
	tests := map[string]string{
		"title":       "title",
		"title^3":     "title",
		"genres.id":   "genres_id",
		"imdbRating":  "imdb_rating",
		"full_name^2": "full_name",
		"HTTPServer":  "http_server",
		"film2Genre":  "film2_genre",
		"genres..id":  "genres_id",
		"_id":         "id",
		"actors.name": "actors_name",
		"":            "",
	}
	for in, want := range tests {
		if got := column(in); got != want {
			t.Errorf("column(%q) = %q, want %q", in, got, want)
		}
	}
}
