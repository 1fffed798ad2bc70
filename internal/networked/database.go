package networked

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quilldb/dblite/pkg/dblite"
)

// Database implements dblite.Database against a pgxpool.Pool, grounded on
// original_source's postgres.Database (a psycopg2 ThreadedConnectionPool
// wrapper) and generalized to pgx's native pool type, which already
// provides the min/max connection bounds original_source configured by
// hand via init_pool().
type Database struct {
	core

	mu     sync.RWMutex
	closed bool
	pool   *pgxpool.Pool

	// txLock enforces embedded-style exclusivity when a caller opts into
	// Exclusive(true) on the networked engine too; default is non-exclusive
	// (§4.6), so this is only ever contended when a caller asks for it.
	txLock chan struct{}
}

// Open parses descriptor (a URI string, a libpq keyword=value string, or a
// map[string]any of connection parameters) and opens a pool against it.
// Satisfies dblite.EngineFactory for registration by pkg/postgres.
func Open(ctx context.Context, descriptor any, opts ...dblite.OpenOption) (dblite.Database, error) {
	connString, err := connStringOf(descriptor)
	if err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, dblite.WrapDriverFailure("parse connection string", nil, err)
	}

	poolOpts := dblite.NewOpenOptions(opts...)
	cfg.MinConns = int32(poolOpts.MinConn)
	cfg.MaxConns = int32(poolOpts.MaxConn)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, dblite.WrapDriverFailure("open pool", nil, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, dblite.WrapDriverFailure("ping", nil, err)
	}

	d := &Database{pool: pool, txLock: make(chan struct{}, 1)}
	d.core = core{exec: pool, schema: newSchemaCache(), isOpen: d.isOpen}
	return d, nil
}

// connStringOf normalizes a Postgres connection descriptor (URI,
// keyword=value string, or parameter map) to a libpq connection string,
// mirroring original_source's make_db_url.
func connStringOf(descriptor any) (string, error) {
	switch v := descriptor.(type) {
	case string:
		return v, nil
	case map[string]any:
		parts := make([]string, 0, len(v))
		for k, val := range v {
			parts = append(parts, fmt.Sprintf("%s=%v", k, val))
		}
		out := ""
		for i, p := range parts {
			if i > 0 {
				out += " "
			}
			out += p
		}
		return out, nil
	default:
		return "", dblite.BadArgumentf("networked: descriptor must be a connection string or a parameter map, got %T", descriptor)
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
	d.pool.Close()
	return nil
}

// Transaction begins a new scope, non-exclusive by default (§4.6's
// networked default). With Lazy(true), Select opens a server-side cursor
// instead of materializing the whole result set.
func (d *Database) Transaction(ctx context.Context, opts ...dblite.TxOption) (dblite.Transaction, error) {
	if d.Closed() {
		return nil, dblite.ErrNotOpen
	}
	txOpts := dblite.NewTxOptions(opts...)
	exclusive := txOpts.Exclusive != nil && *txOpts.Exclusive
	if exclusive {
		select {
		case d.txLock <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	pgxTx, err := d.pool.Begin(ctx)
	if err != nil {
		if exclusive {
			<-d.txLock
		}
		return nil, dblite.WrapDriverFailure("BEGIN", nil, err)
	}

	tx := &Transaction{
		db:        d,
		pgxTx:     pgxTx,
		opts:      txOpts,
		exclusive: exclusive,
		state:     dblite.TxOpen,
	}
	tx.core = core{exec: pgxTx, schema: d.schema, isOpen: tx.isOpen, schemaPrefix: txOpts.Schema}
	return tx, nil
}
