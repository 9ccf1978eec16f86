// Package bunindex implements searchindex.Index over SQL tables read through
// go-repository-bun repositories. It is meant for small deployments and local
// development where running Elasticsearch is not worth it: full-text matching
// is a LIKE over the text columns.
package bunindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/goliatone/go-search-cache/searchindex"
)

var _ searchindex.Index = (*Index)(nil)

// defaultTextColumn is matched when a query carries no text fields.
const defaultTextColumn = "title"

// Record is implemented by row types exposed through the index.
type Record interface {
	GetID() string
}

// Repository is the read subset of repository.Repository[T] the index uses.
type Repository[T any] interface {
	List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error)
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error)
}

type table interface {
	search(ctx context.Context, sourceFields []string, q searchindex.Query) (*searchindex.Result, error)
	get(ctx context.Context, id string) (*searchindex.Document, error)
}

// Index routes collections to registered repositories.
type Index struct {
	mu         sync.RWMutex
	tables     map[string]table
	isNotFound func(error) bool
	logger     *zap.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(i *Index) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithNotFound overrides how repository errors are recognised as missing rows.
// The default matches sql.ErrNoRows.
func WithNotFound(fn func(error) bool) Option {
	return func(i *Index) {
		if fn != nil {
			i.isNotFound = fn
		}
	}
}

// New creates an empty Index.
func New(opts ...Option) *Index {
	idx := &Index{
		tables: make(map[string]table),
		isNotFound: func(err error) bool {
			return errors.Is(err, sql.ErrNoRows)
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.logger = idx.logger.Named("bunindex")
	return idx
}

// Register exposes repo as collection. Registering the same collection twice
// replaces the previous repository.
func Register[T Record](idx *Index, collection string, repo Repository[T]) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.tables[collection] = &repoTable[T]{repo: repo, isNotFound: idx.isNotFound}
}

func (i *Index) table(collection string) (table, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	t, ok := i.tables[collection]
	return t, ok
}

// Search implements searchindex.Index.
func (i *Index) Search(ctx context.Context, collection string, sourceFields []string, q searchindex.Query) (*searchindex.Result, error) {
	t, ok := i.table(collection)
	if !ok {
		return nil, searchindex.ErrNotFound
	}
	res, err := t.search(ctx, sourceFields, q)
	if err != nil {
		return nil, fmt.Errorf("bunindex search %s: %w", collection, err)
	}
	i.logger.Debug("search",
		zap.String("collection", collection),
		zap.Int64("total", res.Total),
		zap.Int("hits", len(res.Hits)),
	)
	return res, nil
}

// Get implements searchindex.Index.
func (i *Index) Get(ctx context.Context, collection, id string) (*searchindex.Document, error) {
	t, ok := i.table(collection)
	if !ok {
		return nil, searchindex.ErrNotFound
	}
	doc, err := t.get(ctx, id)
	if errors.Is(err, searchindex.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("bunindex get %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

type repoTable[T Record] struct {
	repo       Repository[T]
	isNotFound func(error) bool
}

func (t *repoTable[T]) search(ctx context.Context, sourceFields []string, q searchindex.Query) (*searchindex.Result, error) {
	rows, total, err := t.repo.List(ctx, Criteria(q)...)
	if err != nil {
		return nil, err
	}

	res := &searchindex.Result{
		Total: int64(total),
		Hits:  make([]searchindex.Document, 0, len(rows)),
	}
	for _, row := range rows {
		doc, err := toDocument(row, sourceFields)
		if err != nil {
			return nil, err
		}
		res.Hits = append(res.Hits, doc)
	}
	return res, nil
}

func (t *repoTable[T]) get(ctx context.Context, id string) (*searchindex.Document, error) {
	row, err := t.repo.GetByID(ctx, id)
	if err != nil {
		if t.isNotFound(err) {
			return nil, searchindex.ErrNotFound
		}
		return nil, err
	}
	doc, err := toDocument(row, nil)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Criteria translates q into select criteria: text match, equality filters,
// ordering and limit/offset.
func Criteria(q searchindex.Query) []repository.SelectCriteria {
	var criteria []repository.SelectCriteria

	if q.Text != "" {
		fields := q.TextFields
		if len(fields) == 0 {
			fields = []string{defaultTextColumn}
		}
		pattern := "%" + q.Text + "%"
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.WhereGroup(" AND ", func(g *bun.SelectQuery) *bun.SelectQuery {
				for _, f := range fields {
					g = g.WhereOr("? LIKE ?", bun.Ident(column(f)), pattern)
				}
				return g
			})
		})
	}

	for _, f := range q.Filters {
		col, value := column(f.Field), f.Value
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("? = ?", bun.Ident(col), value)
		})
	}

	for _, s := range q.Sort {
		col, dir := column(s.Field), "ASC"
		if s.Order == searchindex.Desc {
			dir = "DESC"
		}
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.OrderExpr("? "+dir, bun.Ident(col))
		})
	}

	if q.Size > 0 {
		limit, offset := q.Size, q.From
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Limit(limit).Offset(offset)
		})
	}

	return criteria
}

// toDocument renders row as JSON, keeping only sourceFields when given.
func toDocument[T Record](row T, sourceFields []string) (searchindex.Document, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return searchindex.Document{}, err
	}

	if len(sourceFields) > 0 {
		var all map[string]json.RawMessage
		if err := json.Unmarshal(data, &all); err != nil {
			return searchindex.Document{}, err
		}
		picked := make(map[string]json.RawMessage, len(sourceFields))
		for _, f := range sourceFields {
			if v, ok := all[f]; ok {
				picked[f] = v
			}
		}
		if data, err = json.Marshal(picked); err != nil {
			return searchindex.Document{}, err
		}
	}

	return searchindex.Document{ID: row.GetID(), Source: data}, nil
}
