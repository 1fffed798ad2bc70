package embedded

import (
	"context"
	"database/sql"

	"github.com/quilldb/dblite/pkg/dblite"
)

// rowIterator adapts *sql.Rows to dblite.RowIterator, running each cell
// through the type registry's converter for its declared column type
// before the caller sees it.
type rowIterator struct {
	rows    *sql.Rows
	table   string
	colType *columnTypeCache
	cols    []string
	scanBuf []any
	current dblite.Row
	err     error
}

// newRowIterator wraps rows. The caller must have already called
// colType.ensureLoaded(ctx, q, table) before running the query that
// produced rows, since Next must not issue its own queries.
func newRowIterator(rows *sql.Rows, table string, colType *columnTypeCache) (*rowIterator, error) {
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}
	return &rowIterator{rows: rows, table: table, colType: colType, cols: cols, scanBuf: make([]any, len(cols))}, nil
}

func (it *rowIterator) Next(ctx context.Context) bool {
	if it.err != nil || !it.rows.Next() {
		return false
	}
	ptrs := make([]any, len(it.cols))
	for i := range ptrs {
		ptrs[i] = &it.scanBuf[i]
	}
	if err := it.rows.Scan(ptrs...); err != nil {
		it.err = err
		return false
	}
	values := make([]any, len(it.cols))
	for i, col := range it.cols {
		v := it.scanBuf[i]
		if tag, ok := it.colType.declaredType(it.table, col); ok {
			converted, cerr := dblite.ConvertCell(tag, v)
			if cerr == nil {
				v = converted
			}
		}
		values[i] = v
	}
	it.current = dblite.Row{Columns: append([]string{}, it.cols...), Values: values}
	return true
}

func (it *rowIterator) Row() dblite.Row { return it.current }

func (it *rowIterator) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Err()
}

func (it *rowIterator) Close() error { return it.rows.Close() }
