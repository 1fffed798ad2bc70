package dblite

import (
	"fmt"
	"reflect"

	"github.com/quilldb/dblite/internal/binder"
)

// Col resolves a column descriptor — a struct-field selector function — to
// its bound column name, the way a WHERE/ORDER/GROUP argument may reference
// a column without spelling its name as a string literal:
//
//	dblite.Col[User](func(u *User) any { return &u.Email })
//
// The selector is invoked once against a scratch zero value of T; the
// returned field's address is matched by offset against T's memoized column
// set (internal/binder). Panics if selector does not return the address of
// one of T's own fields — a programmer error, not a runtime data condition.
func Col[T any](selector func(*T) any) string {
	var zero T
	fieldPtr := selector(&zero)
	base := reflect.ValueOf(&zero).Pointer()
	target := reflect.ValueOf(fieldPtr)
	if target.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("dblite: Col selector for %T must return a field address", zero))
	}
	offset := target.Pointer() - base
	name, ok := binder.ColumnAt(reflect.TypeOf(zero), offset)
	if !ok {
		panic(fmt.Sprintf("dblite: %T has no bound column at the selected field", zero))
	}
	return name
}
