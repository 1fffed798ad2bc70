package dblite

import (
	"context"
	"fmt"
	"sync"
)

// EngineFactory opens a new Database for one engine (embedded or
// networked) given an opaque connection descriptor (path, DSN, URI, or
// keyword mapping — interpretation is engine-specific).
type EngineFactory func(ctx context.Context, descriptor any, opts ...OpenOption) (Database, error)

// OpenOptions carries engine-agnostic connection tuning. Engines ignore
// fields they do not support (e.g. embedded ignores MinConn/MaxConn).
type OpenOptions struct {
	MinConn int
	MaxConn int
}

// OpenOption configures OpenOptions.
type OpenOption func(*OpenOptions)

// WithPoolSize sets the networked engine's connection pool bounds.
func WithPoolSize(min, max int) OpenOption {
	return func(o *OpenOptions) { o.MinConn, o.MaxConn = min, max }
}

// NewOpenOptions applies opts over the documented defaults (1, 4).
func NewOpenOptions(opts ...OpenOption) OpenOptions {
	o := OpenOptions{MinConn: 1, MaxConn: 4}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type engineEntry struct {
	factory EngineFactory
}

var engines = struct {
	mu        sync.RWMutex
	factories map[string]engineEntry
	defaults  map[string]Database
	firstEver Database
}{
	factories: map[string]engineEntry{},
	defaults:  map[string]Database{},
}

// RegisterEngine registers factory under name ("sqlite", "postgres", …).
// Driver wrapper packages (pkg/embedded, pkg/postgres) call this from an
// init() func, mirroring database/sql's driver registration idiom.
func RegisterEngine(name string, factory EngineFactory) {
	engines.mu.Lock()
	defer engines.mu.Unlock()
	engines.factories[name] = engineEntry{factory: factory}
}

// InitOption configures Init/Open engine selection and registration as the
// default instance.
type InitOption struct {
	engine string
}

// WithEngine selects a registered engine by name for Init/Open.
func WithEngine(name string) InitOption { return InitOption{engine: name} }

// Open opens a new Database via the named engine's factory and registers
// it as that engine's default instance if none is registered yet, and as
// the global first-created instance if none exists yet. descriptor's shape
// is engine-specific (see §6 of the design notes: filesystem path/":memory:"
// for embedded, URI/keyword string/mapping for networked).
func Open(ctx context.Context, engineName string, descriptor any, opts ...OpenOption) (Database, error) {
	engines.mu.RLock()
	entry, ok := engines.factories[engineName]
	engines.mu.RUnlock()
	if !ok {
		return nil, newBadArgument("no engine registered under name %q", engineName)
	}
	db, err := entry.factory(ctx, descriptor, opts...)
	if err != nil {
		return nil, err
	}

	engines.mu.Lock()
	if _, exists := engines.defaults[engineName]; !exists {
		engines.defaults[engineName] = db
	}
	if engines.firstEver == nil {
		engines.firstEver = db
	}
	engines.mu.Unlock()
	return db, nil
}

// Init returns a previously Open-ed default Database: the named engine's
// default when WithEngine(name) is given, or the first Database ever
// opened (regardless of engine) when called with no options. Fails if no
// matching Database has been opened yet.
func Init(opts ...InitOption) (Database, error) {
	var o InitOption
	for _, opt := range opts {
		o = opt
	}
	engines.mu.RLock()
	defer engines.mu.RUnlock()
	if o.engine != "" {
		db, ok := engines.defaults[o.engine]
		if !ok {
			return nil, newBadArgument("no default Database registered for engine %q", o.engine)
		}
		return db, nil
	}
	if engines.firstEver == nil {
		return nil, newBadArgument("no Database has been opened yet")
	}
	return engines.firstEver, nil
}

func defaultDatabase() (Database, error) {
	db, err := Init()
	if err != nil {
		return nil, fmt.Errorf("dblite: %w", err)
	}
	return db, nil
}
