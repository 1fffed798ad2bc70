package dblite

import (
	"reflect"
	"sync"
)

// Adapter marshals a host value to an engine-acceptable value before it is
// bound as a query parameter.
type Adapter func(value any) (any, error)

// Converter unmarshals an engine result cell, identified by its declared
// column type tag, back to a host value.
type Converter func(value any) (any, error)

// RowFactory transforms a materialized row (ordered columns + values) into
// a caller-visible object. Returning (nil, nil) falls through to the
// built-in ordered-mapping representation.
type RowFactory func(columns []string, values []any) (any, error)

type registry struct {
	mu         sync.RWMutex
	adapters   map[reflect.Type]Adapter
	converters map[string]Converter
	rowFactory RowFactory
}

var reg = newRegistry()

func newRegistry() *registry {
	r := &registry{
		adapters:   map[reflect.Type]Adapter{},
		converters: map[string]Converter{},
	}
	registerBuiltinJSON(r)
	return r
}

// RegisterAdapter registers a marshalling function for every value whose
// type is identical to, or assignable to, the type of sample. Overwrites
// any adapter previously registered for that exact type.
func RegisterAdapter(sample any, fn Adapter) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.adapters[reflect.TypeOf(sample)] = fn
}

// RegisterConverter registers an unmarshalling function for result cells
// declared with the given engine type tag (case-insensitive, e.g. "JSON",
// "TIMESTAMP").
func RegisterConverter(typeTag string, fn Converter) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.converters[normalizeTag(typeTag)] = fn
}

// RegisterRowFactory installs a process-wide row factory, which RowFactoryFor
// reports for a Database that has none of its own. The FetchAll, FetchOne
// and Select paths of the bundled engines do not call a row factory.
func RegisterRowFactory(fn RowFactory) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.rowFactory = fn
}

// ResetRegistryForTest clears every registered adapter, converter, and row
// factory (re-installing the built-in JSON pair), and the engine-default
// instance cache. Exists so tests do not leak registrations into each other.
func ResetRegistryForTest() {
	reg.mu.Lock()
	reg.adapters = map[reflect.Type]Adapter{}
	reg.converters = map[string]Converter{}
	reg.rowFactory = nil
	registerBuiltinJSON(reg)
	reg.mu.Unlock()

	engines.mu.Lock()
	engines.defaults = map[string]Database{}
	engines.firstEver = nil
	engines.mu.Unlock()
}

// AdaptParam runs value through the adapter registered for its dynamic
// type or, failing that, for a type the value is assignable to; otherwise
// returns value unchanged.
func AdaptParam(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	t := reflect.TypeOf(value)
	reg.mu.RLock()
	fn, ok := reg.adapters[t]
	if !ok {
		for at, afn := range reg.adapters {
			if t.AssignableTo(at) {
				fn, ok = afn, true
				break
			}
		}
	}
	reg.mu.RUnlock()
	if !ok {
		return value, nil
	}
	return fn(value)
}

// ConvertCell runs value through the registered converter for typeTag, if
// one exists; otherwise returns value unchanged.
func ConvertCell(typeTag string, value any) (any, error) {
	if value == nil || typeTag == "" {
		return value, nil
	}
	reg.mu.RLock()
	fn, ok := reg.converters[normalizeTag(typeTag)]
	reg.mu.RUnlock()
	if !ok {
		return value, nil
	}
	return fn(value)
}

// HasConverter reports whether a converter is registered for typeTag,
// used by the networked engine to decide whether a parameter needs a
// "$N::type" cast.
func HasConverter(typeTag string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	_, ok := reg.converters[normalizeTag(typeTag)]
	return ok
}

// RowFactoryFor returns db's own row factory if set, else the process-wide
// one, else nil.
func RowFactoryFor(db Database) RowFactory {
	if withFactory, ok := db.(interface{ RowFactory() RowFactory }); ok {
		if fn := withFactory.RowFactory(); fn != nil {
			return fn
		}
	}
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rowFactory
}

func normalizeTag(tag string) string {
	out := make([]byte, len(tag))
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
