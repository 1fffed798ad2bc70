package networked

import (
	"context"
	"strings"
	"sync"
)

// fieldInfo describes one column of a table or view, mirroring
// original_source's query_schema() per-column record (name/type/pk/fk).
type fieldInfo struct {
	Name string
	Type string
	PK   bool
}

type tableInfo struct {
	Fields map[string]fieldInfo
	Order  []string
	PKName string
}

// schemaCache memoizes database structure (table -> column -> declared
// type, primary key) loaded from information_schema, mirroring
// original_source's Queryable._load_schema()/query_schema(). Cleared by
// ExecuteScript, matching the original's executescript() reload-on-next-
// query behavior.
type schemaCache struct {
	mu     sync.RWMutex
	loaded bool
	tables map[string]*tableInfo
}

func newSchemaCache() *schemaCache {
	return &schemaCache{tables: map[string]*tableInfo{}}
}

func (c *schemaCache) invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.tables = map[string]*tableInfo{}
	c.mu.Unlock()
}

// ensureLoaded populates the cache from information_schema if not already
// loaded. Safe to call repeatedly; a no-op once loaded.
func (c *schemaCache) ensureLoaded(ctx context.Context, q execer) error {
	c.mu.RLock()
	ok := c.loaded
	c.mu.RUnlock()
	if ok {
		return nil
	}

	tables, err := loadSchema(ctx, q)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.tables = tables
	c.loaded = true
	c.mu.Unlock()
	return nil
}

func (c *schemaCache) declaredType(table, column string) (string, bool) {
	table = strings.Trim(table, `"`)
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[table]
	if !ok {
		return "", false
	}
	f, ok := t.Fields[strings.Trim(column, `"`)]
	if !ok {
		return "", false
	}
	return f.Type, true
}

// matchName resolves name against the cached column set of table (or the
// table-name set if table is ""), mirroring original_source's
// Queryable._match_name: exact match, then lowercase match, then (for an
// already-lowercase name) a unique case-insensitive variant, else
// unchanged.
func (c *schemaCache) matchName(table, name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var known []string
	if table == "" {
		known = make([]string, 0, len(c.tables))
		for t := range c.tables {
			known = append(known, t)
		}
	} else {
		t, ok := c.tables[strings.Trim(table, `"`)]
		if !ok {
			return name
		}
		known = t.Order
	}
	return matchNameIn(name, known)
}

func matchNameIn(name string, known []string) string {
	for _, k := range known {
		if k == name {
			return name
		}
	}
	lower := strings.ToLower(name)
	for _, k := range known {
		if k == lower {
			return lower
		}
	}
	if name == lower {
		var variants []string
		for _, k := range known {
			if strings.ToLower(k) == lower {
				variants = append(variants, k)
			}
		}
		if len(variants) == 1 {
			return variants[0]
		}
	}
	return name
}

func loadSchema(ctx context.Context, q execer) (map[string]*tableInfo, error) {
	result := map[string]*tableInfo{}

	colRows, err := q.Query(ctx, `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public'
		ORDER BY table_name, ordinal_position`)
	if err != nil {
		return nil, err
	}
	for colRows.Next() {
		var t, c, d string
		if err := colRows.Scan(&t, &c, &d); err != nil {
			colRows.Close()
			return nil, err
		}
		ti, ok := result[t]
		if !ok {
			ti = &tableInfo{Fields: map[string]fieldInfo{}}
			result[t] = ti
		}
		ti.Fields[c] = fieldInfo{Name: c, Type: strings.ToLower(d)}
		ti.Order = append(ti.Order, c)
	}
	if err := colRows.Err(); err != nil {
		colRows.Close()
		return nil, err
	}
	colRows.Close()

	pkRows, err := q.Query(ctx, `
		SELECT DISTINCT tc.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		WHERE tc.table_schema = 'public' AND tc.constraint_type = 'PRIMARY KEY'`)
	if err != nil {
		return result, nil
	}
	for pkRows.Next() {
		var t, c string
		if err := pkRows.Scan(&t, &c); err != nil {
			pkRows.Close()
			return result, nil
		}
		if ti, ok := result[t]; ok {
			f := ti.Fields[c]
			f.PK = true
			ti.Fields[c] = f
			ti.PKName = c
		}
	}
	pkRows.Close()

	return result, nil
}
