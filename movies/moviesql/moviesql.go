// Package moviesql keeps the movie collections in sqlite tables and serves
// them through bunindex, for running without Elasticsearch.
//
// Films are filtered on their primary genre: the genres_id column holds the
// id of the first genre, while the full list is stored as JSON.
package moviesql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	"github.com/goliatone/go-search-cache/movies"
	"github.com/goliatone/go-search-cache/searchindex/bunindex"
)

// FilmRow is the films table.
type FilmRow struct {
	bun.BaseModel `bun:"table:films" json:"-"`

	ID          string       `bun:"id,pk" json:"id"`
	Title       string       `bun:"title,notnull" json:"title"`
	IMDbRating  float64      `bun:"imdb_rating" json:"imdb_rating"`
	Description string       `bun:"description" json:"description,omitempty"`
	GenresID    string       `bun:"genres_id" json:"-"`
	Genres      []movies.Ref `bun:"genres" json:"genres"`
	Actors      []movies.Ref `bun:"actors" json:"actors"`
	Writers     []movies.Ref `bun:"writers" json:"writers"`
	Directors   []movies.Ref `bun:"directors" json:"directors"`
}

func (r FilmRow) GetID() string { return r.ID }

// GenreRow is the genres table.
type GenreRow struct {
	bun.BaseModel `bun:"table:genres" json:"-"`

	ID          string `bun:"id,pk" json:"id"`
	Name        string `bun:"name,notnull" json:"name"`
	Description string `bun:"description" json:"description,omitempty"`
}

func (r GenreRow) GetID() string { return r.ID }

// PersonRow is the persons table.
type PersonRow struct {
	bun.BaseModel `bun:"table:persons" json:"-"`

	ID       string   `bun:"id,pk" json:"id"`
	FullName string   `bun:"full_name,notnull" json:"full_name"`
	Roles    []string `bun:"roles" json:"roles"`
	FilmIDs  []string `bun:"film_ids" json:"film_ids"`
}

func (r PersonRow) GetID() string { return r.ID }

// FilmRowFrom converts f into its table row.
func FilmRowFrom(f movies.Film) FilmRow {
	row := FilmRow{
		ID:          f.ID,
		Title:       f.Title,
		IMDbRating:  f.IMDbRating,
		Description: f.Description,
		Genres:      f.Genres,
		Actors:      f.Actors,
		Writers:     f.Writers,
		Directors:   f.Directors,
	}
	if len(f.Genres) > 0 {
		row.GenresID = f.Genres[0].ID
	}
	return row
}

// GenreRowFrom converts g into its table row.
func GenreRowFrom(g movies.Genre) GenreRow {
	return GenreRow{ID: g.ID, Name: g.Name, Description: g.Description}
}

// PersonRowFrom converts p into its table row.
func PersonRowFrom(p movies.Person) PersonRow {
	return PersonRow{ID: p.ID, FullName: p.FullName, Roles: p.Roles, FilmIDs: p.FilmIDs}
}

// Open opens the sqlite database at dsn and creates missing tables. sqlite
// allows one writer, so the pool is capped at a single connection.
func Open(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("moviesql: open %s: %w", dsn, err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := CreateSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// CreateSchema creates the three tables when they do not exist.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	models := []any{(*FilmRow)(nil), (*GenreRow)(nil), (*PersonRow)(nil)}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("moviesql: create table %T: %w", model, err)
		}
	}
	return nil
}

// Register exposes the tables on idx under the movie collection names.
func Register(idx *bunindex.Index, db bun.IDB) {
	bunindex.Register[FilmRow](idx, movies.FilmsCollection, bunindex.NewTableRepository[FilmRow](db))
	bunindex.Register[GenreRow](idx, movies.GenresCollection, bunindex.NewTableRepository[GenreRow](db))
	bunindex.Register[PersonRow](idx, movies.PersonsCollection, bunindex.NewTableRepository[PersonRow](db))
}

// NewIndex opens dsn and returns an index serving the movie collections. The
// caller closes the returned db.
func NewIndex(ctx context.Context, dsn string, logger *zap.Logger) (*bunindex.Index, *bun.DB, error) {
	db, err := Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	idx := bunindex.New(bunindex.WithLogger(logger))
	Register(idx, db)
	return idx, db, nil
}
