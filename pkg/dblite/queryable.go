// Package dblite is the public contract of the query facade: the Queryable/
// Database/Transaction surface, the closed error taxonomy, clause/option
// builders, and the process-wide type and engine registries. It imports
// only the dependency-free internal/assemble and internal/binder packages;
// concrete engines (internal/embedded, internal/networked) import this
// package, never the reverse, so driver adapters can construct the shared
// error and option types without an import cycle.
package dblite

import "context"

// Result reports the outcome of a statement that is not a SELECT.
type Result interface {
	// RowsAffected returns the number of rows changed, inserted, or deleted.
	RowsAffected() (int64, error)
	// LastInsertID returns the engine-reported primary key of an INSERT, or
	// nil if the statement was not an INSERT or the engine does not report one.
	LastInsertID() (any, error)
}

// Row is one materialized result row: parallel Columns/Values slices
// preserving driver column order, already passed through the type registry.
type Row struct {
	Columns []string
	Values  []any
}

// Map returns the row as a column-name-keyed mapping.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i]
	}
	return m
}

// Bind materializes the row into dest, a pointer to a record struct or a
// map[string]any, using the object binder's construction fallback chain.
func (r Row) Bind(dest any) error {
	return bindRow(r, dest)
}

// RowIterator is a lazy cursor over SELECT results. Next must be called
// before the first Row; it returns false at end of results or on error
// (distinguish via Err). Close releases the underlying driver cursor and
// must be called even after Next returns false.
type RowIterator interface {
	Next(ctx context.Context) bool
	Row() Row
	Err() error
	Close() error
}

// Queryable is the operation surface shared by Database and Transaction.
// ctx is the first parameter on every blocking operation, per Go idiom.
type Queryable interface {
	// Select returns a lazy iterator over target filtered/ordered/limited by opts.
	Select(ctx context.Context, target any, opts ...QueryOption) (RowIterator, error)
	// FetchAll materializes every matching row into dest, a pointer to a
	// slice of record structs, a pointer to []Row, or a pointer to
	// []map[string]any.
	FetchAll(ctx context.Context, target any, dest any, opts ...QueryOption) error
	// FetchOne materializes the first matching row into dest and reports
	// whether a row was found.
	FetchOne(ctx context.Context, target any, dest any, opts ...QueryOption) (bool, error)
	// Insert writes one row and returns its primary key, if the engine
	// reports one.
	Insert(ctx context.Context, target any, values any, opts ...ValueOption) (any, error)
	// InsertMany writes each element of valuesSlice as an independent row,
	// returning each reported primary key in order.
	InsertMany(ctx context.Context, target any, valuesSlice []any) ([]any, error)
	// Update applies values to every row target matches under opts' WHERE
	// clauses, returning the number of rows affected.
	Update(ctx context.Context, target any, values any, opts ...QueryOption) (int64, error)
	// Delete removes every row target matches under opts' WHERE clauses,
	// returning the number of rows affected.
	Delete(ctx context.Context, target any, opts ...QueryOption) (int64, error)
	// Execute runs sql verbatim with positional or named (map[string]any) params.
	Execute(ctx context.Context, sql string, params any) (Result, error)
	// ExecuteMany runs sql once per element of paramsSlice.
	ExecuteMany(ctx context.Context, sql string, paramsSlice []any) (Result, error)
	// ExecuteScript runs one or more ";"-delimited statements with no
	// parameter binding. On the networked engine this invalidates the
	// schema cache.
	ExecuteScript(ctx context.Context, sqlText string) error
	// Quote returns name in the dialect's quoted form, idempotently.
	Quote(name string) string
}

// Database is a Queryable that owns a connection or connection pool,
// caches schema metadata, and mints Transactions.
type Database interface {
	Queryable
	// Transaction begins a new scope. Resolve TxOptions to configure
	// exclusivity (embedded), laziness (networked), schema prefix, and
	// auto-commit-on-clean-exit behavior.
	Transaction(ctx context.Context, opts ...TxOption) (Transaction, error)
	// Closed reports whether Close has been called.
	Closed() bool
	// Close releases the connection or pool and rolls back any open
	// Transactions minted from it.
	Close() error
}

// Transaction is a scoped Queryable bound to a single driver-level
// transaction. States: Open -> Committed | RolledBack | Closed (see
// TxState).
type Transaction interface {
	Queryable
	// Commit flushes the current driver transaction and immediately begins
	// another; the scope remains usable afterward.
	Commit(ctx context.Context) error
	// Rollback discards the current driver transaction and immediately
	// begins another; the scope remains usable afterward.
	Rollback(ctx context.Context) error
	// Close performs the scope's final commit (if configured and no error
	// escaped its governing closure) or rollback, and releases the
	// borrowed/exclusive connection. Idempotent.
	Close() error
	// State reports the transaction's current lifecycle state.
	State() TxState
}

// TxState is one state in the Transaction lifecycle.
type TxState int

const (
	TxOpen TxState = iota
	TxCommitted
	TxRolledBack
	TxClosed
)

func (s TxState) String() string {
	switch s {
	case TxOpen:
		return "open"
	case TxCommitted:
		return "committed"
	case TxRolledBack:
		return "rolled back"
	case TxClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// TxOptions accumulates Transaction-scope configuration.
type TxOptions struct {
	Exclusive  *bool // default true on embedded, false on networked
	Lazy       bool  // networked only
	ItErSize   int   // networked lazy fetch batch size, default 2000
	Schema     string
	AutoCommit bool // default true: Close() commits on clean exit
}

// TxOption configures a Transaction at creation time.
type TxOption func(*TxOptions)

// Exclusive toggles mutual exclusivity between scopes on one Database
// (embedded default true, read-only scopes may opt out; networked default
// false, opted into with true).
func Exclusive(v bool) TxOption { return func(o *TxOptions) { o.Exclusive = &v } }

// Lazy requests a networked server-side-cursor scope permitting exactly one
// Select.
func Lazy(v bool) TxOption { return func(o *TxOptions) { o.Lazy = v } }

// ItErSize sets the lazy-scope fetch batch size (networked, default 2000).
func ItErSize(n int) TxOption { return func(o *TxOptions) { o.ItErSize = n } }

// Schema prefixes unqualified table names with "<name>." for the scope's
// duration.
func Schema(name string) TxOption { return func(o *TxOptions) { o.Schema = name } }

// Commit controls whether Close() commits (true, the default) or rolls
// back (false) on a clean exit with no escaped error.
func Commit(v bool) TxOption { return func(o *TxOptions) { o.AutoCommit = v } }

// NewTxOptions applies opts over the documented defaults. Driver adapter
// packages call this rather than constructing TxOptions directly.
func NewTxOptions(opts ...TxOption) TxOptions {
	o := TxOptions{ItErSize: 2000, AutoCommit: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ExclusiveOrDefault resolves the Exclusive option against the embedded
// engine's default of true.
func (o TxOptions) ExclusiveOrDefault() bool {
	if o.Exclusive == nil {
		return true
	}
	return *o.Exclusive
}
