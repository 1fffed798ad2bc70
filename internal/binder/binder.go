// Package binder resolves Go struct values and types to table/column names
// and back, independent of any particular storage engine. It mirrors the
// construction and naming conventions of the original implementation's
// util.py (factory/keyvalues/nameify) while being reflection-based instead
// of dynamic-duck-typed.
package binder

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// TableNamer lets a record type declare its own table name, overriding the
// default (its snake_case, pluralization-free type name).
type TableNamer interface {
	TableName() string
}

// typeInfo is the cached reflection data for one record struct type.
type typeInfo struct {
	table   string
	columns []string          // in struct-field order
	fields  map[string]int    // column name -> struct field index
	pkField int               // index into columns/fields of the primary key, or -1
	pkName  string
}

var (
	cacheMu sync.RWMutex
	cache   = map[reflect.Type]*typeInfo{}
)

// ResetCache discards cached type metadata. Exists for test isolation; the
// public API never needs to call it in production use.
func ResetCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cache = map[reflect.Type]*typeInfo{}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	prevUpper := false
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !prevUpper {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			prevUpper = true
			continue
		}
		b.WriteRune(r)
		prevUpper = false
	}
	return b.String()
}

func columnName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("db")
	if tag == "-" {
		return "", false
	}
	if tag != "" {
		name := strings.Split(tag, ",")[0]
		if name != "" {
			return name, strings.Contains(tag, ",pk")
		}
	}
	if f.PkgPath != "" { // unexported
		return "", false
	}
	return toSnakeCase(f.Name), f.Name == "ID" || f.Name == "Id"
}

func describe(t reflect.Type) *typeInfo {
	cacheMu.RLock()
	if info, ok := cache[t]; ok {
		cacheMu.RUnlock()
		return info
	}
	cacheMu.RUnlock()

	info := &typeInfo{fields: map[string]int{}, pkField: -1}

	table := toSnakeCase(t.Name())
	if zero := reflect.New(t).Interface(); zero != nil {
		if tn, ok := zero.(TableNamer); ok {
			table = tn.TableName()
		}
	}
	info.table = table

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			continue
		}
		name, isPK := columnName(f)
		if name == "" {
			continue
		}
		info.columns = append(info.columns, name)
		info.fields[name] = i
		if isPK && info.pkField == -1 {
			info.pkField = i
			info.pkName = name
		}
	}

	cacheMu.Lock()
	cache[t] = info
	cacheMu.Unlock()
	return info
}

func structType(v any) (reflect.Type, reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return rv.Type().Elem(), reflect.Value{}, rv.Type().Elem().Kind() == reflect.Struct
		}
		rv = rv.Elem()
	}
	return rv.Type(), rv, rv.Kind() == reflect.Struct
}

// TableOf returns the table name associated with a record value, record
// pointer, or record type. Non-struct values return ("", false).
func TableOf(v any) (string, bool) {
	if t, ok := v.(reflect.Type); ok {
		if t.Kind() != reflect.Struct {
			return "", false
		}
		return describe(t).table, true
	}
	t, _, ok := structType(v)
	if !ok {
		return "", false
	}
	return describe(t).table, true
}

// PrimaryKeyOf returns the column name of v's declared primary key, if any.
func PrimaryKeyOf(v any) (string, bool) {
	t, _, ok := structType(v)
	if !ok {
		return "", false
	}
	info := describe(t)
	return info.pkName, info.pkField != -1
}

// KeyValues extracts (column, value) pairs from a record in declaration
// order, mirroring util.py's keyvalues(): structs report every mapped
// field, a map[string]any reports its entries, and anything else is an
// error.
func KeyValues(v any) ([]KV, error) {
	if m, ok := v.(map[string]any); ok {
		kvs := make([]KV, 0, len(m))
		for k, val := range m {
			kvs = append(kvs, KV{Key: k, Value: val})
		}
		return kvs, nil
	}
	t, rv, ok := structType(v)
	if !ok {
		return nil, fmt.Errorf("dblite: %T is not a record struct, mapping, or pointer to one", v)
	}
	info := describe(t)
	if !rv.IsValid() {
		return nil, fmt.Errorf("dblite: nil %s pointer has no values", t.Name())
	}
	kvs := make([]KV, 0, len(info.columns))
	for _, col := range info.columns {
		kvs = append(kvs, KV{Key: col, Value: rv.Field(info.fields[col]).Interface()})
	}
	return kvs, nil
}

// KV is an ordered column/value pair.
type KV struct {
	Key   string
	Value any
}

// Columns returns the declared column names for a record type, in struct order.
func Columns(v any) ([]string, bool) {
	t, _, ok := structType(v)
	if !ok {
		return nil, false
	}
	info := describe(t)
	cols := make([]string, len(info.columns))
	copy(cols, info.columns)
	return cols, true
}

// Populate fills the struct or map that out points to from a row of
// column/value pairs, following the fallback chain from util.py's factory():
// field-by-name first, then positional-by-declaration-order.
func Populate(out any, row []KV) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("dblite: Populate target must be a non-nil pointer, got %T", out)
	}
	elem := rv.Elem()
	if elem.Kind() == reflect.Map {
		if elem.IsNil() {
			elem.Set(reflect.MakeMap(elem.Type()))
		}
		for _, kv := range row {
			elem.SetMapIndex(reflect.ValueOf(kv.Key), reflect.ValueOf(kv.Value))
		}
		return nil
	}
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("dblite: Populate target must point to a struct or map, got %T", out)
	}

	info := describe(elem.Type())
	matched := 0
	for _, kv := range row {
		idx, ok := info.fields[kv.Key]
		if !ok {
			idx, ok = info.fields[Resolve(kv.Key, info.columns)]
		}
		if !ok {
			continue
		}
		if err := assign(elem.Field(idx), kv.Value); err != nil {
			return fmt.Errorf("dblite: column %q: %w", kv.Key, err)
		}
		matched++
	}
	if matched == 0 && len(row) > 0 && len(info.columns) == len(row) {
		// Positional fallback when no column name matched by name at all.
		for i, kv := range row {
			if err := assign(elem.Field(info.fields[info.columns[i]]), kv.Value); err != nil {
				return fmt.Errorf("dblite: positional column %d: %w", i, err)
			}
		}
	}
	return nil
}

func assign(field reflect.Value, value any) error {
	if value == nil {
		return nil
	}
	vv := reflect.ValueOf(value)
	if vv.Type().AssignableTo(field.Type()) {
		field.Set(vv)
		return nil
	}
	if vv.Type().ConvertibleTo(field.Type()) {
		field.Set(vv.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to field of type %s", value, field.Type())
}

// ColumnAt returns the column name mapped to the struct field at the given
// byte offset within t, supporting field-selector-based column descriptors.
func ColumnAt(t reflect.Type, offset uintptr) (string, bool) {
	info := describe(t)
	for name, idx := range info.fields {
		if t.Field(idx).Offset == offset {
			return name, true
		}
	}
	return "", false
}

// Resolve performs case-insensitive casing resolution of a name against a
// set of known names, mirroring the original's _match_name: exact match
// wins, then an all-lowercase match, then a single case-insensitive
// variant. Ambiguous or absent matches return name unchanged.
func Resolve(name string, known []string) string {
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
	if lower == name {
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
