// Package embedded provides the public entry point for the embedded
// SQLite query engine, keeping internal/embedded's implementation details
// unexported. Importing this package registers the "sqlite" engine with
// pkg/dblite via init(), mirroring the teacher's pkg/sqlite thin-wrapper
// pattern and database/sql's own driver-registration idiom.
package embedded

import (
	"context"

	"github.com/quilldb/dblite/internal/embedded"
	"github.com/quilldb/dblite/pkg/dblite"
)

func init() {
	dblite.RegisterEngine("sqlite", embedded.Open)
}

// Open opens path (a filesystem path, or ":memory:") as an embedded SQLite
// database.
//
// Example:
//
//	db, err := embedded.Open(ctx, ":memory:")
func Open(ctx context.Context, path string, opts ...dblite.OpenOption) (dblite.Database, error) {
	return embedded.Open(ctx, path, opts...)
}
