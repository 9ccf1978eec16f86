package bunindex

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// TableRepository reads rows of T straight from a bun model table. It covers
// the read side of repository.Repository[T] for tables that have no richer
// repository of their own.
type TableRepository[T Record] struct {
	db      bun.IDB
	idField string
}

// NewTableRepository creates a repository over the table mapped by T. Rows are
// looked up by the "id" column.
func NewTableRepository[T Record](db bun.IDB) *TableRepository[T] {
	return &TableRepository[T]{db: db, idField: "id"}
}

// List applies criteria and returns the selected rows with the total count of
// matching rows, ignoring limit and offset.
func (r *TableRepository[T]) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error) {
	var rows []T
	q := r.db.NewSelect().Model(&rows)
	for _, c := range criteria {
		q = c(q)
	}
	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// GetByID returns the row whose id column equals id. Missing rows surface as
// sql.ErrNoRows.
func (r *TableRepository[T]) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error) {
	var row T
	q := r.db.NewSelect().Model(&row).Where("? = ?", bun.Ident(r.idField), id)
	for _, c := range criteria {
		q = c(q)
	}
	if err := q.Scan(ctx); err != nil {
		var zero T
		return zero, err
	}
	return row, nil
}
