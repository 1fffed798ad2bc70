package dblite

import (
	"github.com/quilldb/dblite/internal/assemble"
	"github.com/quilldb/dblite/internal/binder"
)

// QueryState accumulates the structured arguments of one Select/Update/
// Delete call before the Queryable boundary resolves record types and
// column descriptors and hands the result to internal/assemble. Driver
// adapter packages build one via Resolve, not by constructing it directly.
type QueryState struct {
	Cols  []string
	Where []Clause
	Group []string
	Order []OrderTerm
	Limit *int64
	Offset *int64
	kw    []KV
}

// QueryOption configures a QueryState. Passed to Select/FetchAll/FetchOne/
// Update/Delete.
type QueryOption func(*QueryState)

// WithCols restricts the result/target columns of a SELECT.
func WithCols(cols ...string) QueryOption {
	return func(s *QueryState) { s.Cols = append(s.Cols, cols...) }
}

// WithWhere adds WHERE clauses, ANDed with any already present.
func WithWhere(clauses ...Clause) QueryOption {
	return func(s *QueryState) { s.Where = append(s.Where, clauses...) }
}

// WithGroup adds GROUP BY columns.
func WithGroup(cols ...string) QueryOption {
	return func(s *QueryState) { s.Group = append(s.Group, cols...) }
}

// WithOrder adds ORDER BY terms, in the order given.
func WithOrder(terms ...OrderTerm) QueryOption {
	return func(s *QueryState) { s.Order = append(s.Order, terms...) }
}

// WithLimit sets LIMIT. A negative n omits the clause.
func WithLimit(n int64) QueryOption {
	return func(s *QueryState) { s.Limit = &n }
}

// WithOffset sets OFFSET. A negative n omits the clause.
func WithOffset(n int64) QueryOption {
	return func(s *QueryState) { s.Offset = &n }
}

// WithKV merges an equality clause into WHERE for Select, FetchAll,
// FetchOne, Update and Delete, matching the original's kwargs-folding
// behavior. Insert takes WithValue instead.
func WithKV(key string, value any) QueryOption {
	return func(s *QueryState) { s.kw = append(s.kw, KV{Key: key, Value: value}) }
}

func newQueryState(opts []QueryOption) *QueryState {
	s := &QueryState{}
	for _, opt := range opts {
		opt(s)
	}
	for _, kv := range s.kw {
		s.Where = append(s.Where, Eq(kv.Key, kv.Value))
	}
	return s
}

// ValueOption configures an Insert/InsertMany call's VALUES.
type ValueOption func(*[]KV)

// WithValue appends a single column/value pair to VALUES, in addition to
// whatever the Insert call's primary values argument already supplied.
func WithValue(key string, value any) ValueOption {
	return func(kvs *[]KV) { *kvs = append(*kvs, KV{Key: key, Value: value}) }
}

// Resolve normalizes target/values/opts into assemble-ready arguments. cast
// is consulted for networked-style parameter casts; pass nil for engines
// that do not support them. nameResolve resolves a bare column name against
// the engine's casing rules (identity function for the embedded engine).
func Resolve(target any, values any, opts []QueryOption, cast assemble.CastFunc, quote func(string) bool, nameResolve func(table, col string) string) (table string, args assemble.Args, err error) {
	table, quoteTable, err := resolveTarget(target)
	if err != nil {
		return "", assemble.Args{}, err
	}
	if quoteTable && quote != nil && quote(table) {
		table = quoteIdent(table)
	}

	state := newQueryState(opts)

	cols, err := resolveColumns(target, state.Cols, table, nameResolve, quote)
	if err != nil {
		return "", assemble.Args{}, err
	}

	kvs, err := resolveValues(values, table, nameResolve)
	if err != nil {
		return "", assemble.Args{}, err
	}

	where, err := resolveWhere(state.Where, table, nameResolve)
	if err != nil {
		return "", assemble.Args{}, err
	}

	group := make([]string, len(state.Group))
	for i, g := range state.Group {
		group[i] = nameResolveOr(nameResolve, table, g)
	}

	order := make([]assemble.OrderTerm, len(state.Order))
	for i, o := range state.Order {
		order[i] = assemble.OrderTerm{Column: nameResolveOr(nameResolve, table, o.Column), Desc: o.Desc}
	}

	args = assemble.Args{
		Table:  table,
		Cols:   cols,
		Values: kvs,
		Where:  where,
		Group:  group,
		Order:  order,
		Limit:  assemble.Limit{Count: state.Limit, Offset: state.Offset},
		Cast:   cast,
	}
	return table, args, nil
}

func nameResolveOr(fn func(table, col string) string, table, col string) string {
	if fn == nil {
		return col
	}
	return fn(table, col)
}

func resolveTarget(target any) (table string, needsQuoteCheck bool, err error) {
	switch v := target.(type) {
	case string:
		return v, false, nil
	case nil:
		return "", false, newBadArgument("target must not be nil")
	default:
		name, ok := binder.TableOf(v)
		if !ok {
			return "", false, newBadArgument("target %T is not a table name, record, or record type", target)
		}
		return name, true, nil
	}
}

func resolveColumns(target any, explicit []string, table string, nameResolve func(string, string) string, quote func(string) bool) ([]string, error) {
	if len(explicit) > 0 {
		out := make([]string, len(explicit))
		for i, c := range explicit {
			out[i] = nameResolveOr(nameResolve, table, c)
		}
		return out, nil
	}
	if _, ok := target.(string); ok {
		return nil, nil
	}
	cols, ok := binder.Columns(target)
	if !ok {
		return nil, nil
	}
	out := make([]string, len(cols))
	for i, c := range cols {
		name := nameResolveOr(nameResolve, table, c)
		if quote != nil && quote(name) {
			name = quoteIdent(name)
		}
		out[i] = name
	}
	return out, nil
}

func resolveValues(values any, table string, nameResolve func(string, string) string) ([]assemble.KV, error) {
	if values == nil {
		return nil, nil
	}
	switch v := values.(type) {
	case []KV:
		out := make([]assemble.KV, len(v))
		for i, kv := range v {
			out[i] = assemble.KV{Key: nameResolveOr(nameResolve, table, kv.Key), Value: kv.Value}
		}
		return out, nil
	case map[string]any:
		out := make([]assemble.KV, 0, len(v))
		for k, val := range v {
			out = append(out, assemble.KV{Key: nameResolveOr(nameResolve, table, k), Value: val})
		}
		return out, nil
	default:
		kvs, err := binder.KeyValues(v)
		if err != nil {
			return nil, newBadArgument("%v", err)
		}
		out := make([]assemble.KV, len(kvs))
		for i, kv := range kvs {
			out[i] = assemble.KV{Key: nameResolveOr(nameResolve, table, kv.Key), Value: kv.Value}
		}
		return out, nil
	}
}

func resolveWhere(clauses []Clause, table string, nameResolve func(string, string) string) ([]assemble.Where, error) {
	out := make([]assemble.Where, 0, len(clauses))
	for _, c := range clauses {
		switch c.kind {
		case clauseCompare:
			out = append(out, assemble.Where{
				Kind: assemble.ClauseCompare, Column: nameResolveOr(nameResolve, table, c.column),
				Operator: c.operator, Value: c.value,
			})
		case clauseIn:
			out = append(out, assemble.Where{
				Kind: assemble.ClauseIn, Column: nameResolveOr(nameResolve, table, c.column),
				Negate: c.negate, Value: c.value,
			})
		case clauseExpr:
			out = append(out, assemble.Where{Kind: assemble.ClauseExpr, Raw: c.raw, RawArgs: c.rawArgs})
		case clauseRaw:
			out = append(out, assemble.Where{Kind: assemble.ClauseRaw, Raw: c.raw, RawArgs: c.rawArgs})
		default:
			return nil, newBadArgument("unknown clause kind %v", c.kind)
		}
	}
	return out, nil
}

// ResolveInsertValues normalizes an Insert/InsertMany values argument plus
// WithValue options into assemble-ready key/value pairs.
func ResolveInsertValues(values any, opts []ValueOption, table string, nameResolve func(string, string) string) ([]assemble.KV, error) {
	kvs, err := resolveValues(values, table, nameResolve)
	if err != nil {
		return nil, err
	}
	if len(opts) == 0 {
		return kvs, nil
	}
	var extra []KV
	for _, opt := range opts {
		opt(&extra)
	}
	for _, kv := range extra {
		kvs = append(kvs, assemble.KV{Key: nameResolveOr(nameResolve, table, kv.Key), Value: kv.Value})
	}
	return kvs, nil
}

func quoteIdent(name string) string {
	if len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"' {
		return name
	}
	return `"` + name + `"`
}
