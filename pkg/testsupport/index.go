package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-search-cache/searchindex"
)

// fixtureNamespace seeds deterministic fixture ids.
var fixtureNamespace = uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")

// FixtureID returns a stable uuid for name.
func FixtureID(name string) string {
	return uuid.NewSHA1(fixtureNamespace, []byte(name)).String()
}

// FilmDocs builds n film documents titled "<prefix> <i>" with ratings that
// decrease with i. Every document belongs to genre.
func FilmDocs(n int, prefix string, genre string) []map[string]any {
	docs := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		title := fmt.Sprintf("%s %d", prefix, i)
		docs = append(docs, map[string]any{
			"id":          FixtureID(title),
			"title":       title,
			"imdb_rating": float64(100-i) / 10,
			"description": "fixture film " + title,
			"genres": []any{
				map[string]any{"id": FixtureID("genre:" + genre), "name": genre},
			},
		})
	}
	return docs
}

// MemoryIndex is an in-memory searchindex.Index that counts calls.
type MemoryIndex struct {
	mu          sync.Mutex
	collections map[string][]map[string]any
	searches    int
	gets        int
	lastQuery   searchindex.Query
	err         error
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{collections: make(map[string][]map[string]any)}
}

// Add appends documents to collection. Each document needs a string "id".
func (m *MemoryIndex) Add(collection string, docs ...map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collection] = append(m.collections[collection], docs...)
}

// Remove drops the document with id from collection.
func (m *MemoryIndex) Remove(collection, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := m.collections[collection][:0]
	for _, d := range m.collections[collection] {
		if d["id"] != id {
			docs = append(docs, d)
		}
	}
	m.collections[collection] = docs
}

// FailWith makes every call return err until reset with nil.
func (m *MemoryIndex) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Searches returns the number of Search calls.
func (m *MemoryIndex) Searches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searches
}

// Gets returns the number of Get calls.
func (m *MemoryIndex) Gets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets
}

// LastQuery returns the query of the most recent Search call.
func (m *MemoryIndex) LastQuery() searchindex.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuery
}

// Search implements searchindex.Index.
func (m *MemoryIndex) Search(_ context.Context, collection string, sourceFields []string, q searchindex.Query) (*searchindex.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches++
	m.lastQuery = q
	if m.err != nil {
		return nil, m.err
	}

	all, ok := m.collections[collection]
	if !ok {
		return nil, searchindex.ErrNotFound
	}

	var matched []map[string]any
	for _, doc := range all {
		if matchText(doc, q) && matchFilters(doc, q.Filters) {
			matched = append(matched, doc)
		}
	}
	sortDocs(matched, q.Sort)

	res := &searchindex.Result{Total: int64(len(matched))}
	start, end := q.From, q.From+q.Size
	if q.Size == 0 {
		end = len(matched)
	}
	for i := start; i < end && i < len(matched); i++ {
		doc, err := toDocument(matched[i], sourceFields)
		if err != nil {
			return nil, err
		}
		res.Hits = append(res.Hits, doc)
	}
	return res, nil
}

// Get implements searchindex.Index.
func (m *MemoryIndex) Get(_ context.Context, collection, id string) (*searchindex.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	for _, doc := range m.collections[collection] {
		if doc["id"] == id {
			d, err := toDocument(doc, nil)
			if err != nil {
				return nil, err
			}
			return &d, nil
		}
	}
	return nil, searchindex.ErrNotFound
}

func matchText(doc map[string]any, q searchindex.Query) bool {
	if q.Text == "" {
		return true
	}
	fields := q.TextFields
	if len(fields) == 0 {
		fields = []string{"title"}
	}
	needle := strings.ToLower(q.Text)
	for _, f := range fields {
		f, _, _ = strings.Cut(f, "^")
		if s, ok := doc[f].(string); ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

func matchFilters(doc map[string]any, filters []searchindex.Filter) bool {
	for _, f := range filters {
		if f.Path == "" {
			if fmt.Sprint(doc[f.Field]) != f.Value {
				return false
			}
			continue
		}
		leaf := strings.TrimPrefix(f.Field, f.Path+".")
		nested, _ := doc[f.Path].([]any)
		found := false
		for _, n := range nested {
			if obj, ok := n.(map[string]any); ok && fmt.Sprint(obj[leaf]) == f.Value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortDocs(docs []map[string]any, sorts []searchindex.Sort) {
	if len(sorts) == 0 {
		return
	}
	s := sorts[0]
	sort.SliceStable(docs, func(i, j int) bool {
		less := compare(docs[i][s.Field], docs[j][s.Field])
		if s.Order == searchindex.Desc {
			return less > 0
		}
		return less < 0
	})
}

func compare(a, b any) int {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toDocument(doc map[string]any, sourceFields []string) (searchindex.Document, error) {
	source := doc
	if len(sourceFields) > 0 {
		source = make(map[string]any, len(sourceFields))
		for _, f := range sourceFields {
			if v, ok := doc[f]; ok {
				source[f] = v
			}
		}
	}
	data, err := json.Marshal(source)
	if err != nil {
		return searchindex.Document{}, err
	}
	id, _ := doc["id"].(string)
	return searchindex.Document{ID: id, Source: data}, nil
}
