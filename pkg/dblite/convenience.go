package dblite

import (
	"context"
	"errors"
)

// The functions below forward to the globally-first-opened Database,
// exactly as the original module-level dblite.fetchall/insert/update/...
// functions forward to a default-registered connection. They are
// additive convenience, not part of the Queryable contract itself.

// Select forwards to the default Database's Select.
func Select(ctx context.Context, target any, opts ...QueryOption) (RowIterator, error) {
	db, err := defaultDatabase()
	if err != nil {
		return nil, err
	}
	return db.Select(ctx, target, opts...)
}

// FetchAll forwards to the default Database's FetchAll.
func FetchAll(ctx context.Context, target any, dest any, opts ...QueryOption) error {
	db, err := defaultDatabase()
	if err != nil {
		return err
	}
	return db.FetchAll(ctx, target, dest, opts...)
}

// FetchOne forwards to the default Database's FetchOne.
func FetchOne(ctx context.Context, target any, dest any, opts ...QueryOption) (bool, error) {
	db, err := defaultDatabase()
	if err != nil {
		return false, err
	}
	return db.FetchOne(ctx, target, dest, opts...)
}

// Insert forwards to the default Database's Insert.
func Insert(ctx context.Context, target any, values any, opts ...ValueOption) (any, error) {
	db, err := defaultDatabase()
	if err != nil {
		return nil, err
	}
	return db.Insert(ctx, target, values, opts...)
}

// InsertMany forwards to the default Database's InsertMany.
func InsertMany(ctx context.Context, target any, valuesSlice []any) ([]any, error) {
	db, err := defaultDatabase()
	if err != nil {
		return nil, err
	}
	return db.InsertMany(ctx, target, valuesSlice)
}

// Update forwards to the default Database's Update.
func Update(ctx context.Context, target any, values any, opts ...QueryOption) (int64, error) {
	db, err := defaultDatabase()
	if err != nil {
		return 0, err
	}
	return db.Update(ctx, target, values, opts...)
}

// Delete forwards to the default Database's Delete.
func Delete(ctx context.Context, target any, opts ...QueryOption) (int64, error) {
	db, err := defaultDatabase()
	if err != nil {
		return 0, err
	}
	return db.Delete(ctx, target, opts...)
}

// Execute forwards to the default Database's Execute.
func Execute(ctx context.Context, sql string, params any) (Result, error) {
	db, err := defaultDatabase()
	if err != nil {
		return nil, err
	}
	return db.Execute(ctx, sql, params)
}

// ExecuteScript forwards to the default Database's ExecuteScript.
func ExecuteScript(ctx context.Context, sqlText string) error {
	db, err := defaultDatabase()
	if err != nil {
		return err
	}
	return db.ExecuteScript(ctx, sqlText)
}

// WithTransaction forwards to the default Database, opens a Transaction,
// invokes fn, and commits on a nil return or rolls back (suppressing
// ErrRollback) otherwise — the Go idiom for the original's
// `with dblite.transaction(): ...` context-manager pattern.
func WithTransaction(ctx context.Context, fn func(tx Transaction) error, opts ...TxOption) error {
	db, err := defaultDatabase()
	if err != nil {
		return err
	}
	tx, err := db.Transaction(ctx, opts...)
	if err != nil {
		return err
	}
	defer tx.Close()

	if err := fn(tx); err != nil {
		rerr := tx.Rollback(ctx)
		if errors.Is(err, ErrRollback) {
			return rerr
		}
		return err
	}
	return tx.Commit(ctx)
}
