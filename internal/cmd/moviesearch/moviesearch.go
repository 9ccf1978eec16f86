// Package moviesearch implements the moviesearch command: one search or id
// lookup against a collection, printed as JSON.
package moviesearch

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/goliatone/go-search-cache/lookup"
	"github.com/goliatone/go-search-cache/movies"
	"github.com/goliatone/go-search-cache/pkg/di"
)

// Config holds the parsed command line.
type Config struct {
	EnvFile    string
	Collection string
	ID         string
	Params     lookup.QueryParams
	Invalidate bool
}

// ParseConfig parses args into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.StringVar(&cfg.EnvFile, "env", ".env", "dotenv file loaded before the environment is read")
	fs.StringVar(&cfg.Collection, "collection", movies.FilmsCollection, "collection to query (movies, genres, persons)")
	fs.StringVar(&cfg.ID, "id", "", "fetch a single record by id instead of searching")
	fs.StringVar(&cfg.Params.Query, "q", "", "free text query")
	fs.StringVar(&cfg.Params.Genre, "genre", "", "genre id filter (movies only)")
	fs.StringVar(&cfg.Params.Sort, "sort", "", "sort field, prefix with - for descending")
	fs.IntVar(&cfg.Params.Page, "page", 1, "page number, starting at 1")
	fs.IntVar(&cfg.Params.PageSize, "size", 50, "page size")
	fs.BoolVar(&cfg.Invalidate, "invalidate", false, "drop the cached search pages of the collection first")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	switch cfg.Collection {
	case movies.FilmsCollection, movies.GenresCollection, movies.PersonsCollection:
	default:
		return Config{}, fmt.Errorf("unknown collection %q", cfg.Collection)
	}
	if cfg.ID == "" {
		if err := cfg.Params.Validate(); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// Run executes the lookup described by cfg and writes the result to out.
// A not-found result is written as {"detail": "..."} and returned as
// lookup.ErrNotFound.
func Run(ctx context.Context, cfg Config, c *di.Container, out io.Writer) error {
	var (
		result any
		err    error
	)
	switch cfg.Collection {
	case movies.GenresCollection:
		result, err = run(ctx, cfg, c.Genres())
	case movies.PersonsCollection:
		result, err = run(ctx, cfg, c.Persons())
	default:
		result, err = run(ctx, cfg, c.Films())
	}

	if errors.Is(err, lookup.ErrNotFound) {
		result = map[string]string{"detail": notFoundDetail(cfg)}
	} else if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(result); encErr != nil {
		return encErr
	}
	return err
}

func run[S, D lookup.Entity](ctx context.Context, cfg Config, svc *lookup.Service[S, D]) (any, error) {
	if cfg.Invalidate {
		if err := svc.Invalidate(ctx); err != nil {
			return nil, err
		}
	}
	if cfg.ID != "" {
		return svc.GetByID(ctx, cfg.ID)
	}
	return svc.Search(ctx, cfg.Params)
}

func notFoundDetail(cfg Config) string {
	if cfg.ID != "" {
		return fmt.Sprintf("%s %s not found", cfg.Collection, cfg.ID)
	}
	return cfg.Collection + " not found"
}
