// Package elastic implements searchindex.Index on top of the official
// Elasticsearch client.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/goliatone/go-search-cache/searchindex"
)

var _ searchindex.Index = (*Index)(nil)

// Config holds the connection settings for an Elasticsearch cluster.
type Config struct {
	Addresses []string
	Username  string
	Password  string
}

// Index talks to Elasticsearch through any esapi.Transport.
type Index struct {
	transport esapi.Transport
	logger    *zap.Logger
}

// New builds an elasticsearch client from cfg and wraps it.
func New(cfg Config, logger *zap.Logger) (*Index, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elastic client: %w", err)
	}
	return NewWithTransport(client, logger), nil
}

// NewWithTransport wraps an existing transport, typically *elasticsearch.Client.
func NewWithTransport(transport esapi.Transport, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{transport: transport, logger: logger.Named("elastic")}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type getResponse struct {
	ID     string          `json:"_id"`
	Found  bool            `json:"found"`
	Source json.RawMessage `json:"_source"`
}

// Search implements searchindex.Index.
func (i *Index) Search(ctx context.Context, collection string, sourceFields []string, q searchindex.Query) (*searchindex.Result, error) {
	body, err := json.Marshal(BuildBody(sourceFields, q))
	if err != nil {
		return nil, fmt.Errorf("elastic search %s: encode body: %w", collection, err)
	}

	req := esapi.SearchRequest{
		Index: []string{collection},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.transport)
	if err != nil {
		return nil, fmt.Errorf("elastic search %s: %w", collection, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, searchindex.ErrNotFound
	}
	if res.IsError() {
		return nil, responseError("search", collection, res)
	}

	var payload searchResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("elastic search %s: decode response: %w", collection, err)
	}

	result := &searchindex.Result{
		Total: payload.Hits.Total.Value,
		Hits:  make([]searchindex.Document, 0, len(payload.Hits.Hits)),
	}
	for _, hit := range payload.Hits.Hits {
		result.Hits = append(result.Hits, searchindex.Document{ID: hit.ID, Source: hit.Source})
	}

	i.logger.Debug("search",
		zap.String("collection", collection),
		zap.Int64("total", result.Total),
		zap.Int("hits", len(result.Hits)),
	)
	return result, nil
}

// Get implements searchindex.Index.
func (i *Index) Get(ctx context.Context, collection, id string) (*searchindex.Document, error) {
	req := esapi.GetRequest{
		Index:      collection,
		DocumentID: id,
	}
	res, err := req.Do(ctx, i.transport)
	if err != nil {
		return nil, fmt.Errorf("elastic get %s/%s: %w", collection, id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, searchindex.ErrNotFound
	}
	if res.IsError() {
		return nil, responseError("get", collection, res)
	}

	var payload getResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("elastic get %s/%s: decode response: %w", collection, id, err)
	}
	if !payload.Found {
		return nil, searchindex.ErrNotFound
	}
	return &searchindex.Document{ID: payload.ID, Source: payload.Source}, nil
}

func responseError(op, collection string, res *esapi.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("elastic %s %s: status %d: %s", op, collection, res.StatusCode, bytes.TrimSpace(msg))
}

// BuildBody renders q as an Elasticsearch search body.
func BuildBody(sourceFields []string, q searchindex.Query) map[string]any {
	body := map[string]any{
		"from":             q.From,
		"size":             q.Size,
		"track_total_hits": true,
		"query":            buildQuery(q),
	}
	if len(sourceFields) > 0 {
		body["_source"] = sourceFields
	}
	if len(q.Sort) > 0 {
		sorts := make([]any, 0, len(q.Sort))
		for _, s := range q.Sort {
			sorts = append(sorts, map[string]any{
				s.Field: map[string]any{"order": string(s.Order)},
			})
		}
		body["sort"] = sorts
	}
	return body
}

func buildQuery(q searchindex.Query) map[string]any {
	var must, filter []any

	if q.Text != "" {
		match := map[string]any{
			"query":     q.Text,
			"fuzziness": "auto",
		}
		if len(q.TextFields) > 0 {
			match["fields"] = q.TextFields
		}
		must = append(must, map[string]any{"multi_match": match})
	}

	for _, f := range q.Filters {
		term := map[string]any{"term": map[string]any{f.Field: f.Value}}
		if f.Path != "" {
			term = map[string]any{"nested": map[string]any{
				"path":  f.Path,
				"query": term,
			}}
		}
		filter = append(filter, term)
	}

	if len(must) == 0 && len(filter) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}

	boolQuery := map[string]any{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	return map[string]any{"bool": boolQuery}
}
