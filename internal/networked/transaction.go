package networked

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/quilldb/dblite/internal/assemble"
	"github.com/quilldb/dblite/pkg/dblite"
)

// Transaction implements dblite.Transaction over a pgx.Tx. Non-exclusive
// by default (§4.6): the networked driver's connection pool lets multiple
// scopes run concurrently, unlike the embedded engine's single connection.
// Exclusive(true) opts into the same lock-based serialization the embedded
// engine applies by default.
type Transaction struct {
	core

	mu          sync.Mutex
	db          *Database
	pgxTx       pgx.Tx
	opts        dblite.TxOptions
	exclusive   bool
	state       dblite.TxState
	released    bool
	lazyUsed    bool
}

func (t *Transaction) isOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == dblite.TxOpen
}

func (t *Transaction) State() dblite.TxState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Select overrides core.Select when the scope is Lazy, opening a
// server-side cursor via DECLARE ... CURSOR instead of materializing the
// whole result set, per §4.6's networked lazy mode. One Select may be
// issued per driver transaction of a lazy scope; Commit and Rollback allow
// another. Other operations, FetchAll and FetchOne included, are not
// rejected: they run as ordinary statements without the cursor.
func (t *Transaction) Select(ctx context.Context, target any, opts ...dblite.QueryOption) (dblite.RowIterator, error) {
	if !t.opts.Lazy {
		return t.core.Select(ctx, target, opts...)
	}

	t.mu.Lock()
	if t.lazyUsed {
		t.mu.Unlock()
		return nil, dblite.BadArgumentf("networked: lazy transaction scope permits only one Select")
	}
	t.lazyUsed = true
	t.mu.Unlock()

	if err := t.core.checkOpen(); err != nil {
		return nil, err
	}
	if err := t.schema.ensureLoaded(ctx, t.exec); err != nil {
		return nil, dblite.WrapDriverFailure("information_schema", nil, err)
	}
	table, args, err := dblite.Resolve(target, nil, opts, nil, t.core.quotePredicate, t.core.nameResolve)
	if err != nil {
		return nil, err
	}
	args.Table = t.core.qualify(args.Table)
	args.Cast = t.core.castFor(table)

	sqlText, params, err := assemble.Assemble(assemble.Select, dialect, args)
	if err != nil {
		return nil, err
	}

	name := "dblite_cursor"
	declare := "DECLARE " + name + " CURSOR FOR " + sqlText
	if _, err := t.pgxTx.Exec(ctx, declare, params...); err != nil {
		return nil, dblite.WrapDriverFailure(declare, params, err)
	}

	itErSize := t.opts.ItErSize
	if itErSize <= 0 {
		itErSize = 2000
	}
	return newLazyIterator(t.pgxTx, name, table, t.schema, itErSize), nil
}

// Commit flushes the current driver transaction and begins another so the
// scope stays usable, per §4.6's reusability requirement.
func (t *Transaction) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != dblite.TxOpen {
		return dblite.BadArgumentf("networked: transaction is not open (%s)", t.state)
	}
	if err := t.pgxTx.Commit(ctx); err != nil {
		return dblite.WrapDriverFailure("COMMIT", nil, err)
	}
	return t.reopenLocked(ctx)
}

// Rollback discards the current driver transaction and begins another.
func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != dblite.TxOpen {
		return dblite.BadArgumentf("networked: transaction is not open (%s)", t.state)
	}
	if err := t.pgxTx.Rollback(ctx); err != nil {
		return dblite.WrapDriverFailure("ROLLBACK", nil, err)
	}
	return t.reopenLocked(ctx)
}

func (t *Transaction) reopenLocked(ctx context.Context) error {
	pgxTx, err := t.db.pool.Begin(ctx)
	if err != nil {
		t.state = dblite.TxClosed
		return dblite.WrapDriverFailure("BEGIN", nil, err)
	}
	t.pgxTx = pgxTx
	t.core.exec = pgxTx
	t.state = dblite.TxOpen
	t.lazyUsed = false
	return nil
}

// Close performs the scope's final commit (if AutoCommit, the default, and
// no error already closed the scope) or rollback, and releases the
// exclusivity lock if held. Idempotent.
func (t *Transaction) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	if t.state == dblite.TxOpen {
		if t.opts.AutoCommit {
			err = t.pgxTx.Commit(context.Background())
			t.state = dblite.TxCommitted
		} else {
			err = t.pgxTx.Rollback(context.Background())
			t.state = dblite.TxRolledBack
		}
	}

	if !t.released {
		t.released = true
		if t.exclusive {
			<-t.db.txLock
		}
	}

	if err != nil {
		return dblite.WrapDriverFailure("CLOSE", nil, err)
	}
	return nil
}
