// Package searchindex defines the boundary between the lookup services and a
// search index: a structured query, the raw documents it returns, and the
// Index contract the backends implement.
package searchindex

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNotFound reports a missing collection or document.
var ErrNotFound = errors.New("searchindex: not found")

// Order is the sort direction sent to the index.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Sort is an explicit sort directive.
type Sort struct {
	Field string
	Order Order
}

// ParseSort translates a "-field" or "field" string into a Sort.
// An empty string yields ok=false.
func ParseSort(raw string) (Sort, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return Sort{}, false
	}
	if strings.HasPrefix(raw, "-") {
		return Sort{Field: strings.TrimPrefix(raw, "-"), Order: Desc}, true
	}
	return Sort{Field: raw, Order: Asc}, true
}

// String renders the sort as "field:order".
func (s Sort) String() string {
	return s.Field + ":" + string(s.Order)
}

// Filter restricts results to documents whose Field equals Value. Path names
// the nested object holding Field, if any.
type Filter struct {
	Path  string
	Field string
	Value string
}

// Query is the backend-neutral shape of a search request.
type Query struct {
	Text       string
	TextFields []string
	Filters    []Filter
	Sort       []Sort
	From       int
	Size       int
}

// Document is one raw hit.
type Document struct {
	ID     string
	Source json.RawMessage
}

// Result is a page of hits plus the total number of matching documents.
type Result struct {
	Hits  []Document
	Total int64
}

// Index is implemented by search backends.
type Index interface {
	// Search runs q against collection, returning only sourceFields when set.
	Search(ctx context.Context, collection string, sourceFields []string, q Query) (*Result, error)
	// Get fetches a single document. Missing documents return ErrNotFound.
	Get(ctx context.Context, collection, id string) (*Document, error)
}

// Decode unmarshals a raw document source into T.
func Decode[T any](doc Document) (T, error) {
	var v T
	if err := json.Unmarshal(doc.Source, &v); err != nil {
		return v, err
	}
	return v, nil
}
