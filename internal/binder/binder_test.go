package binder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type User struct {
	ID     int64  `db:"id,pk"`
	Name   string `db:"name"`
	Active bool   `db:"active"`
}

type Widget struct {
	ID int64
}

func (Widget) TableName() string { return "widgets_v2" }

func TestTableOfDefaultSnakeCase(t *testing.T) {
	ResetCache()
	table, ok := TableOf(User{})
	require.True(t, ok)
	assert.Equal(t, "user", table)
}

func TestTableOfHonorsTableNamer(t *testing.T) {
	ResetCache()
	table, ok := TableOf(Widget{})
	require.True(t, ok)
	assert.Equal(t, "widgets_v2", table)
}

func TestTableOfPointer(t *testing.T) {
	ResetCache()
	table, ok := TableOf(&User{})
	require.True(t, ok)
	assert.Equal(t, "user", table)
}

func TestPrimaryKeyOf(t *testing.T) {
	ResetCache()
	pk, ok := PrimaryKeyOf(User{})
	require.True(t, ok)
	assert.Equal(t, "id", pk)
}

func TestKeyValuesStruct(t *testing.T) {
	ResetCache()
	kvs, err := KeyValues(User{ID: 1, Name: "ada", Active: true})
	require.NoError(t, err)
	require.Len(t, kvs, 3)
	assert.Equal(t, KV{Key: "id", Value: int64(1)}, kvs[0])
	assert.Equal(t, KV{Key: "name", Value: "ada"}, kvs[1])
	assert.Equal(t, KV{Key: "active", Value: true}, kvs[2])
}

func TestKeyValuesMap(t *testing.T) {
	kvs, err := KeyValues(map[string]any{"a": 1})
	require.NoError(t, err)
	require.Len(t, kvs, 1)
	assert.Equal(t, "a", kvs[0].Key)
}

func TestKeyValuesRejectsNonRecord(t *testing.T) {
	_, err := KeyValues(42)
	require.Error(t, err)
}

func TestPopulateByColumnName(t *testing.T) {
	ResetCache()
	var u User
	err := Populate(&u, []KV{{Key: "id", Value: int64(7)}, {Key: "name", Value: "grace"}, {Key: "active", Value: true}})
	require.NoError(t, err)
	assert.Equal(t, User{ID: 7, Name: "grace", Active: true}, u)
}

func TestPopulateCaseInsensitive(t *testing.T) {
	ResetCache()
	var u User
	err := Populate(&u, []KV{{Key: "ID", Value: int64(7)}, {Key: "NAME", Value: "grace"}})
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, "grace", u.Name)
}

func TestPopulateIntoMap(t *testing.T) {
	m := map[string]any{}
	err := Populate(&m, []KV{{Key: "a", Value: 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, m["a"])
}

func TestResolveExactMatch(t *testing.T) {
	assert.Equal(t, "UserId", Resolve("UserId", []string{"UserId", "userid"}))
}

func TestResolveLowercaseMatch(t *testing.T) {
	assert.Equal(t, "userid", Resolve("UserId", []string{"userid", "other"}))
}

func TestResolveUniqueCaseInsensitiveVariant(t *testing.T) {
	assert.Equal(t, "UserID", Resolve("userid", []string{"UserID", "other"}))
}

func TestResolveAmbiguousVariantsFallsBackUnchanged(t *testing.T) {
	assert.Equal(t, "userid", Resolve("userid", []string{"UserID", "UserId"}))
}

func TestResolveNoMatchUnchanged(t *testing.T) {
	assert.Equal(t, "ghost", Resolve("ghost", []string{"id", "name"}))
}
