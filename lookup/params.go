package lookup

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-search-cache/searchindex"
)

// QueryParams selects one page of a search. Empty strings mean "not set".
type QueryParams struct {
	Query    string `json:"query,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Sort     string `json:"sort,omitempty"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// Validate checks the paging contract.
func (p QueryParams) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Page, validation.Required, validation.Min(1)),
		validation.Field(&p.PageSize, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

// Offset is the index of the first hit of the page.
func (p QueryParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// DefaultQuery maps params to an index query without filters: free text, sort
// and the page window.
func DefaultQuery(p QueryParams) searchindex.Query {
	q := searchindex.Query{
		Text: p.Query,
		From: p.Offset(),
		Size: p.PageSize,
	}
	if s, ok := searchindex.ParseSort(p.Sort); ok {
		q.Sort = []searchindex.Sort{s}
	}
	return q
}
