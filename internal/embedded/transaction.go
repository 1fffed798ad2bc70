package embedded

import (
	"context"
	"database/sql"
	"sync"

	"github.com/quilldb/dblite/pkg/dblite"
)

// Transaction implements dblite.Transaction over a *sql.Tx. Entering an
// exclusive scope (the default) holds Database.txLock for the scope's
// entire lifetime, since the embedded driver shares transaction state per
// connection and only one *sql.Tx can be active on it at a time.
type Transaction struct {
	core

	mu        sync.Mutex
	db        *Database
	sqlTx     *sql.Tx
	opts      dblite.TxOptions
	exclusive bool
	state     dblite.TxState
	released  bool
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

// Commit flushes the current driver transaction and begins another so the
// scope stays usable, per §4.6's reusability requirement.
func (t *Transaction) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != dblite.TxOpen {
		return dblite.BadArgumentf("embedded: transaction is not open (%s)", t.state)
	}
	if err := t.sqlTx.Commit(); err != nil {
		return dblite.WrapDriverFailure("COMMIT", nil, err)
	}
	return t.reopenLocked(ctx)
}

// Rollback discards the current driver transaction and begins another.
func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != dblite.TxOpen {
		return dblite.BadArgumentf("embedded: transaction is not open (%s)", t.state)
	}
	if err := t.sqlTx.Rollback(); err != nil {
		return dblite.WrapDriverFailure("ROLLBACK", nil, err)
	}
	return t.reopenLocked(ctx)
}

func (t *Transaction) reopenLocked(ctx context.Context) error {
	sqlTx, err := t.db.db.BeginTx(ctx, nil)
	if err != nil {
		t.state = dblite.TxClosed
		return dblite.WrapDriverFailure("BEGIN", nil, err)
	}
	t.sqlTx = sqlTx
	t.core.exec = sqlTx
	t.state = dblite.TxOpen
	return nil
}

// Close performs the scope's final commit (if AutoCommit, the default, and
// no error already closed the scope) or rollback, and releases the
// exclusivity lock. Idempotent.
func (t *Transaction) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	if t.state == dblite.TxOpen {
		if t.opts.AutoCommit {
			err = t.sqlTx.Commit()
			t.state = dblite.TxCommitted
		} else {
			err = t.sqlTx.Rollback()
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
