package main

import (
	"context"
	"fmt"
	"os"

	"github.com/quilldb/dblite/internal/paths"
	"github.com/quilldb/dblite/pkg/dblite"
)

// openProfile resolves the --profile flag against the loaded config and
// opens it. Each invocation of the CLI opens exactly one connection, so the
// engine-default registered by dblite.Open is unambiguous for subcommands
// (like transaction) that use dblite.WithTransaction against it.
//
// A sqlite profile with no explicit descriptor resolves to a stable
// per-profile file under the data directory (<data dir>/<profile>.db)
// rather than always falling back to an in-memory database, so a named
// local profile persists across CLI invocations.
func openProfile(ctx context.Context) (dblite.Database, error) {
	p, err := lookupProfile(cfg, flagProfile)
	if err != nil {
		return nil, err
	}

	descriptor := p.Descriptor
	if p.Engine == "sqlite" && descriptor == "" {
		dataDir, err := resolveDataDir()
		if err != nil {
			return nil, fmt.Errorf("resolving data directory: %w", err)
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		descriptor = paths.ProfileDatabasePath(dataDir, flagProfile)
	}

	db, err := dblite.Open(ctx, p.Engine, descriptor)
	if err != nil {
		return nil, fmt.Errorf("opening profile %q: %w", flagProfile, err)
	}
	return db, nil
}
