package networked

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/quilldb/dblite/pkg/dblite"
)

// rowIterator adapts pgx.Rows to dblite.RowIterator, converting JSON/JSONB
// cells via the type registry using the schema cache's declared type.
type rowIterator struct {
	rows    pgx.Rows
	table   string
	schema  *schemaCache
	cols    []string
	started bool
	current dblite.Row
	err     error
}

func newRowIterator(rows pgx.Rows, table string, schema *schemaCache) *rowIterator {
	return &rowIterator{rows: rows, table: table, schema: schema}
}

func (it *rowIterator) Next(ctx context.Context) bool {
	if it.err != nil || !it.rows.Next() {
		return false
	}
	if !it.started {
		for _, fd := range it.rows.FieldDescriptions() {
			it.cols = append(it.cols, string(fd.Name))
		}
		it.started = true
	}
	values, err := it.rows.Values()
	if err != nil {
		it.err = err
		return false
	}
	for i, col := range it.cols {
		if tag, ok := it.schema.declaredType(it.table, col); ok {
			if converted, cerr := dblite.ConvertCell(tag, values[i]); cerr == nil {
				values[i] = converted
			}
		}
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

func (it *rowIterator) Close() error {
	it.rows.Close()
	return nil
}

// lazyIterator fetches rows in batches from a server-side cursor declared
// with DECLARE ... CURSOR, per §4.6's networked lazy mode. Each Next call
// that drains the current batch issues another FETCH FORWARD.
type lazyIterator struct {
	tx        pgx.Tx
	name      string
	table     string
	schema    *schemaCache
	batchSize int

	cols    []string
	current dblite.Row
	err     error
	done    bool

	batch []dblite.Row
	pos   int
}

func newLazyIterator(tx pgx.Tx, name, table string, schema *schemaCache, batchSize int) *lazyIterator {
	return &lazyIterator{tx: tx, name: name, table: table, schema: schema, batchSize: batchSize}
}

func (it *lazyIterator) Next(ctx context.Context) bool {
	if it.err != nil || it.done {
		return false
	}
	if it.pos < len(it.batch) {
		it.current = it.batch[it.pos]
		it.pos++
		return true
	}
	if err := it.fetchBatch(ctx); err != nil {
		it.err = err
		return false
	}
	if len(it.batch) == 0 {
		it.done = true
		return false
	}
	it.current = it.batch[0]
	it.pos = 1
	return true
}

func (it *lazyIterator) fetchBatch(ctx context.Context) error {
	rows, err := it.tx.Query(ctx, fmt.Sprintf("FETCH FORWARD %d FROM %s", it.batchSize, it.name))
	if err != nil {
		return err
	}
	defer rows.Close()

	if it.cols == nil {
		for _, fd := range rows.FieldDescriptions() {
			it.cols = append(it.cols, string(fd.Name))
		}
	}

	it.batch = it.batch[:0]
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return err
		}
		for i, col := range it.cols {
			if tag, ok := it.schema.declaredType(it.table, col); ok {
				if converted, cerr := dblite.ConvertCell(tag, values[i]); cerr == nil {
					values[i] = converted
				}
			}
		}
		it.batch = append(it.batch, dblite.Row{Columns: append([]string{}, it.cols...), Values: values})
	}
	it.pos = 0
	return rows.Err()
}

func (it *lazyIterator) Row() dblite.Row { return it.current }

func (it *lazyIterator) Err() error { return it.err }

func (it *lazyIterator) Close() error {
	_, err := it.tx.Exec(context.Background(), "CLOSE "+it.name)
	return err
}
