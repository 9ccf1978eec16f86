package lookup

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/goliatone/go-search-cache/cache"
	"github.com/goliatone/go-search-cache/searchindex"
)

// Entity is implemented by every cached record type.
type Entity interface {
	GetID() string
}

// Collection describes how one entity kind is read from the index.
type Collection[S, D Entity] struct {
	// Name is the index collection and the cache key namespace.
	Name string
	// SourceFields limits the fields fetched for search hits.
	SourceFields []string
	// BuildQuery maps params to an index query. Defaults to DefaultQuery.
	BuildQuery func(QueryParams) searchindex.Query
	// DecodeSummary turns a search hit into a list item.
	DecodeSummary func(searchindex.Document) (S, error)
	// DecodeDetail turns a fetched document into a full record.
	DecodeDetail func(searchindex.Document) (D, error)
}

// Service answers searches and id lookups for one collection, cache first.
//
// The service keeps the total of the last search that reached the index. That
// total is folded into search keys, so once the index reports a different total
// new searches land in a fresh key space and old pages age out through the TTL.
type Service[S, D Entity] struct {
	coll        Collection[S, D]
	index       searchindex.Index
	store       cache.Store
	keys        cache.KeyDeriver
	pageCodec   cache.Codec[[]S]
	recordCodec cache.Codec[D]
	ttl         time.Duration
	total       atomic.Int64
	logger      *zap.Logger
	metrics     *Metrics
	tracer      trace.Tracer
}

// New creates a Service for coll backed by index and store.
func New[S, D Entity](coll Collection[S, D], index searchindex.Index, store cache.Store, opts ...Option) (*Service[S, D], error) {
	if coll.Name == "" {
		return nil, errors.New("lookup: collection name is required")
	}
	if coll.DecodeSummary == nil || coll.DecodeDetail == nil {
		return nil, fmt.Errorf("lookup: collection %s: decoders are required", coll.Name)
	}
	if index == nil || store == nil {
		return nil, fmt.Errorf("lookup: collection %s: index and store are required", coll.Name)
	}
	if coll.BuildQuery == nil {
		coll.BuildQuery = DefaultQuery
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.ttl <= 0 {
		return nil, fmt.Errorf("lookup: collection %s: ttl must be greater than 0", coll.Name)
	}

	s := &Service[S, D]{
		coll:        coll,
		index:       index,
		store:       store,
		keys:        o.keys,
		pageCodec:   cache.NewMsgpackCodec[[]S](),
		recordCodec: cache.NewMsgpackCodec[D](),
		ttl:         o.ttl,
		logger:      o.logger.With(zap.String("collection", coll.Name)),
		metrics:     o.metrics,
		tracer:      o.tracer,
	}
	if o.jsonCodec {
		s.pageCodec = cache.NewJSONCodec[[]S]()
		s.recordCodec = cache.NewJSONCodec[D]()
	}
	return s, nil
}

// Name returns the collection name.
func (s *Service[S, D]) Name() string {
	return s.coll.Name
}

// Total returns the total observed by the last search that reached the index.
func (s *Service[S, D]) Total() int64 {
	return s.total.Load()
}

// Search returns one page of results. A search that matches nothing returns
// ErrNotFound; a page past the end of a non-empty result set returns an empty
// page with the full metadata.
func (s *Service[S, D]) Search(ctx context.Context, params QueryParams) (page *Page[S], err error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "lookup.Search", trace.WithAttributes(
		attribute.String("collection", s.coll.Name),
		attribute.Int("page", params.Page),
		attribute.Int("page_size", params.PageSize),
	))
	defer func() { endSpan(span, err) }()

	snapshot := s.total.Load()
	key := s.searchKey(snapshot, params)

	items, outcome, err := cache.Read(ctx, s.store, s.pageCodec, key)
	if err != nil {
		return nil, err
	}
	s.metrics.observeCache(s.coll.Name, opSearch, outcome)
	span.SetAttributes(attribute.String("cache.outcome", string(outcome)))

	switch outcome {
	case cache.OutcomeHit:
		s.logger.Debug("search served from cache", zap.String("key", key), zap.Int64("total", snapshot))
		return Paginate(items, snapshot, params.Page, params.PageSize), nil
	case cache.OutcomeCorrupt:
		s.logger.Warn("discarding undecodable search page", zap.String("key", key))
	}

	res, err := s.index.Search(ctx, s.coll.Name, s.coll.SourceFields, s.coll.BuildQuery(params))
	s.metrics.observeIndex(s.coll.Name, opSearch, err)
	if errors.Is(err, searchindex.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.coll.Name, err)
	}
	if res == nil || res.Total == 0 {
		return nil, ErrNotFound
	}

	items = make([]S, 0, len(res.Hits))
	for _, doc := range res.Hits {
		item, err := s.coll.DecodeSummary(doc)
		if err != nil {
			return nil, fmt.Errorf("search %s: decode document %q: %w", s.coll.Name, doc.ID, err)
		}
		items = append(items, item)
	}

	// write under the freshly observed total, then publish it
	if err := cache.Put(ctx, s.store, s.pageCodec, s.searchKey(res.Total, params), items, s.ttl); err != nil {
		return nil, err
	}
	s.total.Store(res.Total)

	s.logger.Debug("search served from index",
		zap.Int64("total", res.Total),
		zap.Int64("previous_total", snapshot),
		zap.Int("hits", len(items)),
	)
	return Paginate(items, res.Total, params.Page, params.PageSize), nil
}

// GetByID returns the full record for id, cached under the id itself.
func (s *Service[S, D]) GetByID(ctx context.Context, id string) (record D, err error) {
	var zero D
	if id == "" {
		return zero, fmt.Errorf("%w: empty id", ErrInvalidParams)
	}

	ctx, span := s.tracer.Start(ctx, "lookup.GetByID", trace.WithAttributes(
		attribute.String("collection", s.coll.Name),
		attribute.String("id", id),
	))
	defer func() { endSpan(span, err) }()

	record, outcome, err := cache.GetOrFetch(ctx, s.store, s.recordCodec, id, s.ttl, func(ctx context.Context) (D, error) {
		doc, err := s.index.Get(ctx, s.coll.Name, id)
		s.metrics.observeIndex(s.coll.Name, opGet, err)
		if err != nil {
			return zero, err
		}
		if doc == nil {
			return zero, searchindex.ErrNotFound
		}
		return s.coll.DecodeDetail(*doc)
	})
	s.metrics.observeCache(s.coll.Name, opGet, outcome)
	if outcome == cache.OutcomeCorrupt {
		s.logger.Warn("discarded undecodable record", zap.String("id", id))
	}

	if errors.Is(err, searchindex.ErrNotFound) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("get %s/%s: %w", s.coll.Name, id, err)
	}
	return record, nil
}

// Invalidate drops every cached search page of the collection and resets the
// observed total. Records cached by id are left to expire.
func (s *Service[S, D]) Invalidate(ctx context.Context) error {
	if err := s.store.DeleteByPrefix(ctx, s.coll.Name+cache.KeySeparator); err != nil {
		return fmt.Errorf("invalidate %s: %w", s.coll.Name, err)
	}
	s.total.Store(0)
	s.logger.Info("search cache invalidated")
	return nil
}

func (s *Service[S, D]) searchKey(total int64, p QueryParams) string {
	return s.keys.DeriveKey(s.coll.Name, total, p.Page, p.PageSize, p.Query, p.Genre, p.Sort)
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
