package networked

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quilldb/dblite/internal/assemble"
	"github.com/quilldb/dblite/internal/binder"
	"github.com/quilldb/dblite/pkg/dblite"
)

// execer is satisfied by both *pgxpool.Pool and pgx.Tx, letting core
// implement the Queryable surface once and have Database and Transaction
// each supply their own connection/transaction handle.
type execer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// core implements dblite.Queryable against an execer, resolving column
// casing via the schema cache's matchName and emitting Postgres-dialect
// SQL ($N placeholders, RETURNING <pk> on INSERT).
type core struct {
	exec   execer
	schema *schemaCache
	isOpen func() bool
	schemaPrefix string
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

func (c *core) nameResolve(table, col string) string {
	return c.schema.matchName(table, col)
}

func (c *core) qualify(table string) string {
	if c.schemaPrefix == "" || strings.Contains(table, ".") {
		return table
	}
	return c.schemaPrefix + "." + table
}

func (c *core) castFor(table string) assemble.CastFunc {
	return func(col string) (string, bool) {
		t, ok := c.schema.declaredType(table, col)
		if !ok || !dblite.HasConverter(t) {
			return "", false
		}
		return t, true
	}
}

func (c *core) Select(ctx context.Context, target any, opts ...dblite.QueryOption) (dblite.RowIterator, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if err := c.schema.ensureLoaded(ctx, c.exec); err != nil {
		return nil, dblite.WrapDriverFailure("information_schema", nil, err)
	}
	table, args, err := dblite.Resolve(target, nil, opts, nil, c.quotePredicate, c.nameResolve)
	if err != nil {
		return nil, err
	}
	args.Table = c.qualify(args.Table)
	args.Cast = c.castFor(table)

	sqlText, params, err := assemble.Assemble(assemble.Select, dialect, args)
	if err != nil {
		return nil, err
	}
	rows, err := c.exec.Query(ctx, sqlText, params...)
	if err != nil {
		return nil, dblite.WrapDriverFailure(sqlText, params, err)
	}
	return newRowIterator(rows, table, c.schema), nil
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
	if err := c.schema.ensureLoaded(ctx, c.exec); err != nil {
		return nil, dblite.WrapDriverFailure("information_schema", nil, err)
	}
	table, args, err := dblite.Resolve(target, nil, nil, nil, c.quotePredicate, c.nameResolve)
	if err != nil {
		return nil, err
	}
	kvs, err := dblite.ResolveInsertValues(values, opts, table, c.nameResolve)
	if err != nil {
		return nil, err
	}
	adapted, err := adaptValues(kvs)
	if err != nil {
		return nil, err
	}
	args.Values = adapted
	args.Table = c.qualify(args.Table)
	args.Cast = c.castFor(table)
	if pk, ok := c.primaryKey(table); ok {
		args.ReturningPK = c.Quote(pk)
	}

	sqlText, params, err := assemble.Assemble(assemble.Insert, dialect, args)
	if err != nil {
		return nil, err
	}
	if args.ReturningPK != "" {
		rows, err := c.exec.Query(ctx, sqlText, params...)
		if err != nil {
			return nil, wrapExecErr(sqlText, params, err)
		}
		defer rows.Close()
		var id any
		if rows.Next() {
			vals, err := rows.Values()
			if err != nil {
				return nil, dblite.WrapDriverFailure(sqlText, params, err)
			}
			if len(vals) > 0 {
				id = vals[0]
			}
		}
		return id, rows.Err()
	}
	if _, err := c.exec.Exec(ctx, sqlText, params...); err != nil {
		return nil, wrapExecErr(sqlText, params, err)
	}
	return nil, nil
}

func (c *core) primaryKey(table string) (string, bool) {
	table = strings.Trim(table, `"`)
	c.schema.mu.RLock()
	defer c.schema.mu.RUnlock()
	t, ok := c.schema.tables[table]
	if !ok || t.PKName == "" {
		return "", false
	}
	return t.PKName, true
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
	if err := c.schema.ensureLoaded(ctx, c.exec); err != nil {
		return 0, dblite.WrapDriverFailure("information_schema", nil, err)
	}
	table, args, err := dblite.Resolve(target, values, opts, nil, c.quotePredicate, c.nameResolve)
	if err != nil {
		return 0, err
	}
	adapted, err := adaptValues(args.Values)
	if err != nil {
		return 0, err
	}
	args.Values = adapted
	args.Table = c.qualify(args.Table)
	args.Cast = c.castFor(table)

	sqlText, params, err := assemble.Assemble(assemble.Update, dialect, args)
	if err != nil {
		return 0, err
	}
	tag, err := c.exec.Exec(ctx, sqlText, params...)
	if err != nil {
		return 0, wrapExecErr(sqlText, params, err)
	}
	return tag.RowsAffected(), nil
}

func (c *core) Delete(ctx context.Context, target any, opts ...dblite.QueryOption) (int64, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	if err := c.schema.ensureLoaded(ctx, c.exec); err != nil {
		return 0, dblite.WrapDriverFailure("information_schema", nil, err)
	}
	table, args, err := dblite.Resolve(target, nil, opts, nil, c.quotePredicate, c.nameResolve)
	if err != nil {
		return 0, err
	}
	args.Table = c.qualify(args.Table)
	args.Cast = c.castFor(table)

	sqlText, params, err := assemble.Assemble(assemble.Delete, dialect, args)
	if err != nil {
		return 0, err
	}
	tag, err := c.exec.Exec(ctx, sqlText, params...)
	if err != nil {
		return 0, wrapExecErr(sqlText, params, err)
	}
	return tag.RowsAffected(), nil
}

func (c *core) Execute(ctx context.Context, sqlText string, params any) (dblite.Result, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	args, err := toExecArgs(params)
	if err != nil {
		return nil, err
	}
	tag, err := c.exec.Exec(ctx, sqlText, args...)
	if err != nil {
		return nil, wrapExecErr(sqlText, args, err)
	}
	return cmdTagResult{tag}, nil
}

func (c *core) ExecuteMany(ctx context.Context, sqlText string, paramsSlice []any) (dblite.Result, error) {
	var total int64
	for _, p := range paramsSlice {
		res, err := c.Execute(ctx, sqlText, p)
		if err != nil {
			return cmdTagTotal(total), err
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return cmdTagTotal(total), nil
}

func (c *core) ExecuteScript(ctx context.Context, sqlText string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if _, err := c.exec.Exec(ctx, sqlText); err != nil {
		return wrapExecErr(sqlText, nil, err)
	}
	c.schema.invalidate()
	return nil
}

func toExecArgs(params any) ([]any, error) {
	switch v := params.(type) {
	case nil:
		return nil, nil
	case []any:
		return adaptSlice(v)
	case map[string]any:
		kvs := make([]assemble.KV, 0, len(v))
		for k, val := range v {
			kvs = append(kvs, assemble.KV{Key: k, Value: val})
		}
		adapted, err := adaptValues(kvs)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(adapted))
		for i, kv := range adapted {
			out[i] = kv.Value
		}
		return out, nil
	default:
		kvs, err := binder.KeyValues(v)
		if err == nil {
			adapted, err := adaptValues(toAssembleKVs(kvs))
			if err != nil {
				return nil, err
			}
			out := make([]any, len(adapted))
			for i, kv := range adapted {
				out[i] = kv.Value
			}
			return out, nil
		}
		return adaptSlice([]any{v})
	}
}

func toAssembleKVs(kvs []binder.KV) []assemble.KV {
	out := make([]assemble.KV, len(kvs))
	for i, kv := range kvs {
		out[i] = assemble.KV{Key: kv.Key, Value: kv.Value}
	}
	return out
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
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	return strings.Contains(strings.ToUpper(err.Error()), "CONSTRAINT")
}

type cmdTagResult struct{ tag pgconn.CommandTag }

func (r cmdTagResult) RowsAffected() (int64, error) { return r.tag.RowsAffected(), nil }
func (r cmdTagResult) LastInsertID() (any, error)   { return nil, nil }

type cmdTagTotal int64

func (r cmdTagTotal) RowsAffected() (int64, error) { return int64(r), nil }
func (r cmdTagTotal) LastInsertID() (any, error)   { return nil, nil }
