package lookup

import "errors"

var (
	// ErrNotFound is returned when the index has no matching document for an id,
	// or a search matches nothing at all. Callers decide how to surface it.
	ErrNotFound = errors.New("lookup: not found")

	// ErrInvalidParams is returned for query parameters that break the paging
	// contract (page or page size below 1, empty id).
	ErrInvalidParams = errors.New("lookup: invalid params")
)
