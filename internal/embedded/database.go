package embedded

import (
	"context"
	"database/sql"
	"io"
	"io/fs"
	"os"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/quilldb/dblite/pkg/dblite"
)

// FSDescriptor opens an embedded database from a file within an fs.FS
// (e.g. an embed.FS of seed fixtures) rather than the host filesystem.
// modernc.org/sqlite needs a real path to open, so Open copies Name out
// of FS into a private temp file first; the copy is removed on Close.
type FSDescriptor struct {
	FS   fs.FS
	Name string
}

// Database implements dblite.Database against a single SQLite connection,
// grounded on the teacher's internal/sqlite/backend.go Backend: an
// sql.DB opened eagerly on Open, a sync.RWMutex guarding the open/closed
// flag, and Close being idempotent-safe to call once.
//
// The embedded driver is restricted to a single open connection
// (db.SetMaxOpenConns(1)) since SQLite serializes writers anyway and the
// column-type cache relies on no two queries being in flight on the
// connection at once (see schema.go).
type Database struct {
	core

	mu     sync.RWMutex
	closed bool
	db     *sql.DB

	// txLock enforces embedded exclusivity (§4.6): entering an exclusive
	// transaction scope blocks other scopes on this Database until exit.
	// A buffered channel of size 1 gives FIFO-ish fairness under Go's
	// runtime scheduler without requiring a custom wait queue.
	txLock chan struct{}

	// tempPath holds the path of a file extracted from an FSDescriptor so
	// Close can remove it; empty for string-descriptor opens.
	tempPath string
}

// Open opens descriptor as an embedded SQLite database and returns it
// wrapped as a dblite.Database. Satisfies dblite.EngineFactory for
// registration by pkg/embedded. descriptor is either a string (a
// filesystem path, or ":memory:") or an FSDescriptor naming a file inside
// an fs.FS.
func Open(ctx context.Context, descriptor any, opts ...dblite.OpenOption) (dblite.Database, error) {
	path, tempPath, err := resolveDescriptorPath(descriptor)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		removeTemp(tempPath)
		return nil, dblite.WrapDriverFailure("open "+path, nil, err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		removeTemp(tempPath)
		return nil, dblite.WrapDriverFailure("open "+path, nil, err)
	}

	d := &Database{
		db:       sqlDB,
		txLock:   make(chan struct{}, 1),
		tempPath: tempPath,
	}
	d.core = core{exec: sqlDB, colTypes: newColumnTypeCache(), isOpen: d.isOpen}
	return d, nil
}

// resolveDescriptorPath normalizes descriptor into a path sql.Open can use
// directly. For an FSDescriptor, that means extracting FS.Name into a
// private temp file (sqlite's driver opens real paths, not fs.FS handles)
// and returning its path as tempPath so the caller can clean it up.
func resolveDescriptorPath(descriptor any) (path string, tempPath string, err error) {
	switch d := descriptor.(type) {
	case string:
		return d, "", nil
	case FSDescriptor:
		src, err := d.FS.Open(d.Name)
		if err != nil {
			return "", "", dblite.BadArgumentf("embedded: opening %q from fs.FS: %v", d.Name, err)
		}
		defer src.Close()

		tmp, err := os.CreateTemp("", "dblite-fs-*.db")
		if err != nil {
			return "", "", dblite.WrapDriverFailure("create temp db", nil, err)
		}
		defer tmp.Close()

		if _, err := io.Copy(tmp, src); err != nil {
			os.Remove(tmp.Name())
			return "", "", dblite.WrapDriverFailure("copy "+d.Name, nil, err)
		}
		return tmp.Name(), tmp.Name(), nil
	default:
		return "", "", dblite.BadArgumentf("embedded: descriptor must be a string path, \":memory:\", or FSDescriptor, got %T", descriptor)
	}
}

func removeTemp(path string) {
	if path != "" {
		os.Remove(path)
	}
}

func (d *Database) isOpen() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.closed
}

func (d *Database) Closed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}

func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	err := d.db.Close()
	removeTemp(d.tempPath)
	return err
}

// Transaction begins a new exclusive (by default) transaction scope. See
// transaction.go for the locking and Commit/Rollback semantics; the
// embedded engine has no lazy cursor mode.
func (d *Database) Transaction(ctx context.Context, opts ...dblite.TxOption) (dblite.Transaction, error) {
	if d.Closed() {
		return nil, dblite.ErrNotOpen
	}
	txOpts := dblite.NewTxOptions(opts...)
	if txOpts.ExclusiveOrDefault() {
		select {
		case d.txLock <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	sqlTx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		if txOpts.ExclusiveOrDefault() {
			<-d.txLock
		}
		return nil, dblite.WrapDriverFailure("BEGIN", nil, err)
	}

	tx := &Transaction{
		db:        d,
		sqlTx:     sqlTx,
		opts:      txOpts,
		exclusive: txOpts.ExclusiveOrDefault(),
		state:     dblite.TxOpen,
	}
	tx.core = core{exec: sqlTx, colTypes: d.colTypes, isOpen: tx.isOpen}
	return tx, nil
}
