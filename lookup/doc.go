// Package lookup provides cache-aside query services in front of a search index.
//
// # Overview
//
// A Service answers two reads for one collection:
//
//   - Search: one page of lightweight items plus pagination metadata
//   - GetByID: the full record for an identifier
//
// Both consult the cache.Store first and only reach the searchindex.Index on a
// miss, writing the fresh payload back with a fixed TTL.
//
// # Basic Usage
//
//	films, err := lookup.New(movies.Films(), index, store,
//		lookup.WithLogger(logger),
//		lookup.WithMetrics(lookup.NewMetrics(prometheus.DefaultRegisterer)),
//	)
//
//	page, err := films.Search(ctx, lookup.QueryParams{Query: "batman", Page: 1, PageSize: 10})
//	if errors.Is(err, lookup.ErrNotFound) {
//		// nothing matched
//	}
//
// # Search Keys
//
// Search keys are derived from the collection name, the last total observed
// from the index, page, page size, query text, genre filter and sort:
//
//	key(movies, total=23, page=1, size=10, "batman", -, -)
//
// A lookup snapshots the total before probing. On a hit, the page is returned
// with that snapshot as its total, which is the total the entry was written
// with. On a miss, the index is queried, the page is written under a key built
// from the fresh total, and the fresh total becomes the new snapshot. A change
// in the index total therefore moves all searches to a new key generation
// without explicit deletes.
//
// The snapshot lives in memory only and starts at zero. After a restart the
// first searches miss until the total is learned again.
//
// # Concurrency
//
// Services are safe for concurrent use. The total is an atomic value; two
// concurrent misses may publish their totals in either order, which costs at
// most an extra miss. Identical concurrent misses are not coalesced.
//
// # Not Found
//
// ErrNotFound covers an id the index does not hold, and a search whose result
// set is empty. A page requested past the end of a non-empty result set is not
// an error: it has no items and the usual metadata.
//
// # Corrupt Entries
//
// Cached bytes that fail to decode are treated as a miss: the index is queried
// and the entry overwritten. The event is logged at warn level and counted
// under the "corrupt" outcome.
package lookup
