package lookup

import "fmt"

// Page is the envelope returned by Search.
type Page[S any] struct {
	Items      []S   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
}

// Paginate wraps one page of items. Pages past the end are not clamped: they
// carry an empty item list and the same total metadata.
func Paginate[S any](items []S, total int64, page, pageSize int) *Page[S] {
	if pageSize <= 0 {
		panic(fmt.Sprintf("lookup: page size must be positive, got %d", pageSize))
	}
	if items == nil {
		items = []S{}
	}
	if total < 0 {
		total = 0
	}

	size := int64(pageSize)
	return &Page[S]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + size - 1) / size,
	}
}
