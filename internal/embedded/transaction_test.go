package embedded

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quilldb/dblite/pkg/dblite"
)

func TestTransactionCommitPersists(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	tx, err := d.Transaction(ctx)
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}
	if _, err := tx.Insert(ctx, "widget", widget{Name: "bolt"}); err != nil {
		t.Fatalf("Insert in tx failed: %v", err)
	}
	if err := tx.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if tx.State() != dblite.TxCommitted {
		t.Fatalf("expected committed state, got %v", tx.State())
	}

	var out []widget
	if err := d.FetchAll(ctx, "widget", &out); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected committed row to be visible, got %d rows", len(out))
	}
}

// runScope replicates dblite.WithTransaction's commit/rollback logic
// directly against a *Database, since these tests open the engine via
// embedded.Open rather than through the process-wide dblite engine
// registry that WithTransaction forwards through.
func runScope(ctx context.Context, d *Database, fn func(tx dblite.Transaction) error) error {
	tx, err := d.Transaction(ctx)
	if err != nil {
		return err
	}
	defer tx.Close()

	if err := fn(tx); err != nil {
		rerr := tx.Rollback(ctx)
		if errors.Is(err, dblite.ErrRollback) {
			return rerr
		}
		return err
	}
	return tx.Commit(ctx)
}

func TestTransactionRollbackOnEscapedError(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := runScope(ctx, d, func(tx dblite.Transaction) error {
		if _, err := tx.Insert(ctx, "widget", widget{Name: "nut"}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error to propagate, got %v", err)
	}

	var out []widget
	if err := d.FetchAll(ctx, "widget", &out); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected rollback to discard insert, got %d rows", len(out))
	}
}

func TestTransactionRollbackSentinelSwallowed(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	err := runScope(ctx, d, func(tx dblite.Transaction) error {
		return dblite.ErrRollback
	})
	if err != nil {
		t.Fatalf("expected ErrRollback to be swallowed, got %v", err)
	}
}

func TestTransactionCommitAfterCloseFails(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	tx, err := d.Transaction(ctx)
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}
	if err := tx.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	var badArg *dblite.BadArgument
	if err := tx.Commit(ctx); !errors.As(err, &badArg) {
		t.Fatalf("expected BadArgument committing a closed scope, got %v", err)
	}
}

func TestTransactionExclusivitySerializesScopes(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	tx1, err := d.Transaction(ctx)
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}

	var wg sync.WaitGroup
	var released atomic.Bool
	started := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		close(started)
		tx2, err := d.Transaction(ctx)
		if err != nil {
			t.Errorf("second Transaction failed: %v", err)
			return
		}
		if !released.Load() {
			t.Errorf("second exclusive scope began before the first one closed")
		}
		tx2.Close()
	}()

	<-started
	time.Sleep(20 * time.Millisecond)
	released.Store(true)
	tx1.Close()
	wg.Wait()
}
