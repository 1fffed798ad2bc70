// Package postgres provides the public entry point for the networked
// Postgres-like query engine, keeping internal/networked's implementation
// details unexported. Importing this package registers the "postgres"
// engine with pkg/dblite via init(), mirroring the teacher's pkg/sqlite
// thin-wrapper pattern.
package postgres

import (
	"context"

	"github.com/quilldb/dblite/internal/networked"
	"github.com/quilldb/dblite/pkg/dblite"
)

func init() {
	dblite.RegisterEngine("postgres", networked.Open)
}

// Open parses descriptor (a connection URI, a libpq keyword=value string,
// or a map[string]any of connection parameters) and opens a pool against
// it.
//
// Example:
//
//	db, err := postgres.Open(ctx, "postgres://user@localhost/mydb", dblite.WithPoolSize(1, 8))
func Open(ctx context.Context, descriptor any, opts ...dblite.OpenOption) (dblite.Database, error) {
	return networked.Open(ctx, descriptor, opts...)
}
