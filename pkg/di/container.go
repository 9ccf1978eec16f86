package di

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/goliatone/go-search-cache/cache"
	"github.com/goliatone/go-search-cache/internal/cacheinfra"
	"github.com/goliatone/go-search-cache/internal/config"
	"github.com/goliatone/go-search-cache/lookup"
	"github.com/goliatone/go-search-cache/movies"
	"github.com/goliatone/go-search-cache/movies/moviesql"
	"github.com/goliatone/go-search-cache/searchindex"
	"github.com/goliatone/go-search-cache/searchindex/elastic"
)

// Container wires one cache store and one search index into the lookup
// services for films, genres and persons. All services share the store, the
// index, the key deriver and the metrics.
type Container struct {
	cfg      config.Config
	logger   *zap.Logger
	store    cache.Store
	index    searchindex.Index
	keys     cache.KeyDeriver
	metrics  *lookup.Metrics
	closers  []func() error
	films    *lookup.Service[movies.FilmSummary, movies.Film]
	genres   *lookup.Service[movies.Genre, movies.Genre]
	persons  *lookup.Service[movies.PersonSummary, movies.Person]
	registry prometheus.Registerer
}

// Option customises a Container.
type Option func(*Container)

// WithLogger sets the logger shared by every component.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStore replaces the store the configuration would build.
func WithStore(store cache.Store) Option {
	return func(c *Container) {
		c.store = store
	}
}

// WithIndex replaces the index the configuration would build.
func WithIndex(index searchindex.Index) Option {
	return func(c *Container) {
		c.index = index
	}
}

// WithRegisterer registers the lookup metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Container) {
		c.registry = reg
	}
}

// NewContainer builds the store and index described by cfg, unless supplied
// through options, and one lookup service per collection.
func NewContainer(cfg config.Config, opts ...Option) (*Container, error) {
	c := &Container{
		cfg:    cfg,
		logger: zap.NewNop(),
		keys:   cache.NewDefaultKeyDeriver(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry != nil {
		c.metrics = lookup.NewMetrics(c.registry)
	}

	if c.store == nil {
		store, err := c.newStore()
		if err != nil {
			return nil, err
		}
		c.store = store
	}

	if c.index == nil {
		index, err := c.newIndex()
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.index = index
	}

	if err := c.buildServices(); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.logger.Info("container ready",
		zap.String("project", cfg.ProjectName),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("index_backend", cfg.Index.Backend),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
	)
	return c, nil
}

func (c *Container) buildServices() error {
	var err error
	if c.films, err = NewService(c, movies.Films()); err != nil {
		return err
	}
	if c.genres, err = NewService(c, movies.Genres()); err != nil {
		return err
	}
	c.persons, err = NewService(c, movies.Persons())
	return err
}

func (c *Container) newIndex() (searchindex.Index, error) {
	switch c.cfg.Index.Backend {
	case config.IndexSQL:
		index, db, err := moviesql.NewIndex(context.Background(), c.cfg.Index.DSN, c.logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, db.Close)
		return index, nil
	case config.IndexElastic, "":
		return elastic.New(elastic.Config{
			Addresses: []string{c.cfg.Elastic.Address()},
			Username:  c.cfg.Elastic.Username,
			Password:  c.cfg.Elastic.Password,
		}, c.logger)
	default:
		return nil, fmt.Errorf("di: unknown index backend %q", c.cfg.Index.Backend)
	}
}

func (c *Container) newStore() (cache.Store, error) {
	switch c.cfg.Cache.Backend {
	case config.BackendMemory:
		memCfg := cache.DefaultConfig()
		memCfg.TTL = c.cfg.Cache.TTL
		if c.cfg.Cache.Capacity > 0 {
			memCfg.Capacity = c.cfg.Cache.Capacity
		}
		return cache.NewMemoryStore(memCfg)
	case config.BackendRedis:
		store := cacheinfra.NewRedisStore(cacheinfra.RedisConfig{
			Addr:     c.cfg.Redis.Addr(),
			DB:       c.cfg.Redis.DB,
			Password: c.cfg.Redis.Password,
		}, c.logger)
		c.closers = append(c.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("di: unknown cache backend %q", c.cfg.Cache.Backend)
	}
}

// NewService creates a lookup service for coll that shares the container's
// store, index, key deriver, metrics and TTL.
//
// Go methods cannot have type parameters, so this is a package-level function.
// Example: NewService(container, movies.Films())
func NewService[S, D lookup.Entity](c *Container, coll lookup.Collection[S, D]) (*lookup.Service[S, D], error) {
	opts := []lookup.Option{
		lookup.WithKeyDeriver(c.keys),
		lookup.WithLogger(c.logger.Named("lookup")),
		lookup.WithMetrics(c.metrics),
	}
	if c.cfg.Cache.TTL > 0 {
		opts = append(opts, lookup.WithTTL(c.cfg.Cache.TTL))
	}
	return lookup.New(coll, c.index, c.store, opts...)
}

// Films returns the films service.
func (c *Container) Films() *lookup.Service[movies.FilmSummary, movies.Film] {
	return c.films
}

// Genres returns the genres service.
func (c *Container) Genres() *lookup.Service[movies.Genre, movies.Genre] {
	return c.genres
}

// Persons returns the persons service.
func (c *Container) Persons() *lookup.Service[movies.PersonSummary, movies.Person] {
	return c.persons
}

// Store returns the shared cache store.
func (c *Container) Store() cache.Store {
	return c.store
}

// Index returns the shared search index.
func (c *Container) Index() searchindex.Index {
	return c.index
}

// KeyDeriver returns the shared key deriver.
func (c *Container) KeyDeriver() cache.KeyDeriver {
	return c.keys
}

// Metrics returns the lookup metrics, nil unless a registerer was given.
func (c *Container) Metrics() *lookup.Metrics {
	return c.metrics
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() config.Config {
	return c.cfg
}

// Ping checks the store when it supports it.
func (c *Container) Ping(ctx context.Context) error {
	if p, ok := c.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// InvalidateAll drops the cached search pages of every collection.
func (c *Container) InvalidateAll(ctx context.Context) error {
	return errors.Join(
		c.films.Invalidate(ctx),
		c.genres.Invalidate(ctx),
		c.persons.Invalidate(ctx),
	)
}

// Close releases the connections the container opened itself.
func (c *Container) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		errs = append(errs, closeFn())
	}
	c.closers = nil
	return errors.Join(errs...)
}
