package dblite

import (
	"fmt"
	"reflect"

	"github.com/quilldb/dblite/internal/binder"
)

func bindRow(row Row, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return newBadArgument("Bind destination must be a non-nil pointer, got %T", dest)
	}
	kvs := make([]binder.KV, len(row.Columns))
	for i, c := range row.Columns {
		kvs[i] = binder.KV{Key: c, Value: row.Values[i]}
	}
	if err := binder.Populate(dest, kvs); err != nil {
		return newBadArgument("%v", err)
	}
	return nil
}

// AppendRow materializes row into the slice pointed to by dest (a pointer
// to []Row, []map[string]any, or []T for a record type T), appending one
// element. Used by FetchAll implementations across engines so the
// destination-shape logic lives in exactly one place.
func AppendRow(dest any, row Row) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return newBadArgument("FetchAll destination must be a non-nil pointer, got %T", dest)
	}
	slice := rv.Elem()
	if slice.Kind() != reflect.Slice {
		return newBadArgument("FetchAll destination must point to a slice, got %T", dest)
	}

	elemType := slice.Type().Elem()
	switch {
	case elemType == reflect.TypeOf(Row{}):
		slice.Set(reflect.Append(slice, reflect.ValueOf(row)))
		return nil
	case elemType == reflect.TypeOf(map[string]any{}):
		slice.Set(reflect.Append(slice, reflect.ValueOf(row.Map())))
		return nil
	case elemType.Kind() == reflect.Struct:
		elemPtr := reflect.New(elemType)
		if err := bindRow(row, elemPtr.Interface()); err != nil {
			return err
		}
		slice.Set(reflect.Append(slice, elemPtr.Elem()))
		return nil
	default:
		return fmt.Errorf("dblite: unsupported FetchAll destination element type %s", elemType)
	}
}
