package embedded

import (
	"context"
	"database/sql"
	"strings"

	"github.com/quilldb/dblite/internal/assemble"
	"github.com/quilldb/dblite/pkg/dblite"
)

// execer is satisfied by both *sql.DB and *sql.Tx, letting core implement
// the Queryable surface once and have Database and Transaction each supply
// their own connection/transaction handle.
type execer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// core implements dblite.Queryable against an execer. Database and
// Transaction each embed one, pointed at their own *sql.DB / *sql.Tx, and
// layer open/close/scope semantics on top.
type core struct {
	exec     execer
	colTypes *columnTypeCache
	isOpen   func() bool
}

func (c *core) checkOpen() error {
	if c.isOpen != nil && !c.isOpen() {
		return dblite.ErrNotOpen
	}
	return nil
}

func (c *core) Quote(name string) string {
	return quote(name)
}

func (c *core) quotePredicate(name string) bool { return needsQuoting(name) }

func (c *core) Select(ctx context.Context, target any, opts ...dblite.QueryOption) (dblite.RowIterator, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	table, args, err := dblite.Resolve(target, nil, opts, nil, c.quotePredicate, nil)
	if err != nil {
		return nil, err
	}
	sqlText, params, err := assemble.Assemble(assemble.Select, dialect, args)
	if err != nil {
		return nil, err
	}
	if err := c.colTypes.ensureLoaded(ctx, c.exec, table); err != nil {
		return nil, dblite.WrapDriverFailure(sqlText, params, err)
	}
	rows, err := c.exec.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, dblite.WrapDriverFailure(sqlText, params, err)
	}
	return newRowIterator(rows, table, c.colTypes)
}

func (c *core) FetchAll(ctx context.Context, target any, dest any, opts ...dblite.QueryOption) error {
	it, err := c.Select(ctx, target, opts...)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Next(ctx) {
		if err := dblite.AppendRow(dest, it.Row()); err != nil {
			return err
		}
	}
	return it.Err()
}

func (c *core) FetchOne(ctx context.Context, target any, dest any, opts ...dblite.QueryOption) (bool, error) {
	opts = append(opts, dblite.WithLimit(1))
	it, err := c.Select(ctx, target, opts...)
	if err != nil {
		return false, err
	}
	defer it.Close()
	if !it.Next(ctx) {
		return false, it.Err()
	}
	row := it.Row()
	return true, dblite.Row{Columns: row.Columns, Values: row.Values}.Bind(dest)
}

func (c *core) Insert(ctx context.Context, target any, values any, opts ...dblite.ValueOption) (any, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	table, args, err := dblite.Resolve(target, nil, nil, nil, c.quotePredicate, nil)
	if err != nil {
		return nil, err
	}
	kvs, err := dblite.ResolveInsertValues(values, opts, table, nil)
	if err != nil {
		return nil, err
	}
	args.Values = kvs
	adapted, err := adaptValues(args.Values)
	if err != nil {
		return nil, err
	}
	args.Values = adapted

	sqlText, params, err := assemble.Assemble(assemble.Insert, dialect, args)
	if err != nil {
		return nil, err
	}
	res, err := c.exec.ExecContext(ctx, sqlText, params...)
	if err != nil {
		return nil, wrapExecErr(sqlText, params, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, dblite.WrapDriverFailure(sqlText, params, err)
	}
	return id, nil
}

func (c *core) InsertMany(ctx context.Context, target any, valuesSlice []any) ([]any, error) {
	ids := make([]any, 0, len(valuesSlice))
	for _, v := range valuesSlice {
		id, err := c.Insert(ctx, target, v)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *core) Update(ctx context.Context, target any, values any, opts ...dblite.QueryOption) (int64, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	table, args, err := dblite.Resolve(target, values, opts, nil, c.quotePredicate, nil)
	if err != nil {
		return 0, err
	}
	_ = table
	adapted, err := adaptValues(args.Values)
	if err != nil {
		return 0, err
	}
	args.Values = adapted

	sqlText, params, err := assemble.Assemble(assemble.Update, dialect, args)
	if err != nil {
		return 0, err
	}
	res, err := c.exec.ExecContext(ctx, sqlText, params...)
	if err != nil {
		return 0, wrapExecErr(sqlText, params, err)
	}
	return res.RowsAffected()
}

func (c *core) Delete(ctx context.Context, target any, opts ...dblite.QueryOption) (int64, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	table, args, err := dblite.Resolve(target, nil, opts, nil, c.quotePredicate, nil)
	if err != nil {
		return 0, err
	}
	_ = table
	sqlText, params, err := assemble.Assemble(assemble.Delete, dialect, args)
	if err != nil {
		return 0, err
	}
	res, err := c.exec.ExecContext(ctx, sqlText, params...)
	if err != nil {
		return 0, wrapExecErr(sqlText, params, err)
	}
	return res.RowsAffected()
}

func (c *core) Execute(ctx context.Context, sqlText string, params any) (dblite.Result, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	args, err := toExecArgs(params)
	if err != nil {
		return nil, err
	}
	res, err := c.exec.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return nil, wrapExecErr(sqlText, args, err)
	}
	return sqlResult{res}, nil
}

func (c *core) ExecuteMany(ctx context.Context, sqlText string, paramsSlice []any) (dblite.Result, error) {
	var total int64
	for _, p := range paramsSlice {
		res, err := c.Execute(ctx, sqlText, p)
		if err != nil {
			return sqlResultTotal(total), err
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return sqlResultTotal(total), nil
}

func (c *core) ExecuteScript(ctx context.Context, sqlText string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	for _, stmt := range splitStatements(sqlText) {
		if _, err := c.exec.ExecContext(ctx, stmt); err != nil {
			return wrapExecErr(stmt, nil, err)
		}
	}
	c.colTypes.invalidate()
	return nil
}

func splitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func toExecArgs(params any) ([]any, error) {
	switch v := params.(type) {
	case nil:
		return nil, nil
	case []any:
		return adaptSlice(v)
	case map[string]any:
		out := make([]any, 0, len(v))
		for k, val := range v {
			adapted, err := dblite.AdaptParam(val)
			if err != nil {
				return nil, err
			}
			out = append(out, sql.Named(k, adapted))
		}
		return out, nil
	default:
		return adaptSlice([]any{v})
	}
}

func adaptSlice(in []any) ([]any, error) {
	out := make([]any, len(in))
	for i, v := range in {
		adapted, err := dblite.AdaptParam(v)
		if err != nil {
			return nil, err
		}
		out[i] = adapted
	}
	return out, nil
}

func adaptValues(kvs []assemble.KV) ([]assemble.KV, error) {
	out := make([]assemble.KV, len(kvs))
	for i, kv := range kvs {
		adapted, err := dblite.AdaptParam(kv.Value)
		if err != nil {
			return nil, err
		}
		out[i] = assemble.KV{Key: kv.Key, Value: adapted}
	}
	return out, nil
}

func wrapExecErr(sqlText string, params []any, err error) error {
	if isConstraintErr(err) {
		return dblite.WrapIntegrityFailure(sqlText, params, err)
	}
	return dblite.WrapDriverFailure(sqlText, params, err)
}

func isConstraintErr(err error) bool {
	return strings.Contains(strings.ToUpper(err.Error()), "CONSTRAINT")
}

type sqlResult struct{ res sql.Result }

func (r sqlResult) RowsAffected() (int64, error) { return r.res.RowsAffected() }
func (r sqlResult) LastInsertID() (any, error) {
	id, err := r.res.LastInsertId()
	if err != nil {
		return nil, nil
	}
	return id, nil
}

type sqlResultTotal int64

func (r sqlResultTotal) RowsAffected() (int64, error) { return int64(r), nil }
func (r sqlResultTotal) LastInsertID() (any, error)   { return nil, nil }
