package embedded

import (
	"context"
	"database/sql"
	"strings"
	"sync"
)

// columnTypeCache memoizes each table's declared column types, read via
// PRAGMA table_info, the embedded engine's equivalent of the networked
// engine's information_schema lookup (§4.3/§4.5). Used only to locate a
// DECLTYPE-style tag for the built-in JSON converter; invalidated by
// ExecuteScript exactly like the networked schema cache.
type columnTypeCache struct {
	mu     sync.RWMutex
	tables map[string]map[string]string // table -> column -> declared type
}

func newColumnTypeCache() *columnTypeCache {
	return &columnTypeCache{tables: map[string]map[string]string{}}
}

func (c *columnTypeCache) invalidate() {
	c.mu.Lock()
	c.tables = map[string]map[string]string{}
	c.mu.Unlock()
}

// ensureLoaded populates the cache for table, if not already cached. Must
// be called before a query begins iterating rows: it runs its own
// PRAGMA query and, with the embedded engine's single-connection pool,
// cannot be interleaved with an open *sql.Rows from the same connection.
func (c *columnTypeCache) ensureLoaded(ctx context.Context, q querier, table string) error {
	table = strings.Trim(table, `"`)
	c.mu.RLock()
	_, ok := c.tables[table]
	c.mu.RUnlock()
	if ok {
		return nil
	}
	loaded, err := loadColumnTypes(ctx, q, table)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.tables[table] = loaded
	c.mu.Unlock()
	return nil
}

// declaredType looks up an already-cached column type. Call ensureLoaded
// first; this never queries.
func (c *columnTypeCache) declaredType(table, column string) (string, bool) {
	table = strings.Trim(table, `"`)
	c.mu.RLock()
	cols, ok := c.tables[table]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	t, ok := cols[strings.Trim(column, `"`)]
	return t, ok
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadColumnTypes(ctx context.Context, q querier, table string) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, `PRAGMA table_info(`+quote(table)+`)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string]string{}
	for rows.Next() {
		var cid int
		var name, declType string
		var notNull int
		var dflt any
		var pk int
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		result[name] = strings.ToUpper(declType)
	}
	return result, rows.Err()
}
