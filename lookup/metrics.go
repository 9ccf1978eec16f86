package lookup

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goliatone/go-search-cache/cache"
	"github.com/goliatone/go-search-cache/searchindex"
)

const (
	opSearch = "search"
	opGet    = "get"
)

// Metrics counts cache outcomes and index calls per collection.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	cacheResults  *prometheus.CounterVec
	indexRequests *prometheus.CounterVec
}

// NewMetrics registers the lookup collectors with reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cacheResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "search_cache",
			Name:      "cache_results_total",
			Help:      "Cache reads by collection, operation and outcome (hit, miss, corrupt).",
		}, []string{"collection", "operation", "outcome"}),
		indexRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "search_cache",
			Name:      "index_requests_total",
			Help:      "Search index calls by collection, operation and status.",
		}, []string{"collection", "operation", "status"}),
	}
}

func (m *Metrics) observeCache(collection, op string, outcome cache.Outcome) {
	if m == nil {
		return
	}
	m.cacheResults.WithLabelValues(collection, op, string(outcome)).Inc()
}

func (m *Metrics) observeIndex(collection, op string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	switch {
	case errors.Is(err, searchindex.ErrNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	m.indexRequests.WithLabelValues(collection, op, status).Inc()
}
