package dblite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Account struct {
	ID    int64  `db:"id,pk"`
	Email string `db:"email"`
}

func TestColResolvesFieldSelector(t *testing.T) {
	name := Col[Account](func(a *Account) any { return &a.Email })
	assert.Equal(t, "email", name)
}

func TestResolveTargetString(t *testing.T) {
	table, args, err := Resolve("accounts", nil, nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "accounts", table)
	assert.Nil(t, args.Cols)
}

func TestResolveTargetRecordQuotesWhenNeeded(t *testing.T) {
	quote := func(name string) bool { return name == "account" }
	table, _, err := Resolve(Account{}, nil, nil, nil, quote, nil)
	require.NoError(t, err)
	assert.Equal(t, `"account"`, table)
}

func TestResolveWhereKV(t *testing.T) {
	_, args, err := Resolve("accounts", nil, []QueryOption{WithKV("email", "a@b.com")}, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, args.Where, 1)
	assert.Equal(t, "email", args.Where[0].Column)
	assert.Equal(t, "a@b.com", args.Where[0].Value)
}

func TestResolveValuesFromStruct(t *testing.T) {
	_, args, err := Resolve("accounts", Account{ID: 1, Email: "a@b.com"}, nil, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, args.Values, 2)
}

func TestResolveInsertValuesWithOption(t *testing.T) {
	kvs, err := ResolveInsertValues(map[string]any{"email": "a@b.com"}, []ValueOption{WithValue("active", true)}, "accounts", nil)
	require.NoError(t, err)
	require.Len(t, kvs, 2)
}

func TestRegistryAdapterRoundTrip(t *testing.T) {
	ResetRegistryForTest()
	type Celsius float64
	RegisterAdapter(Celsius(0), func(v any) (any, error) { return float64(v.(Celsius)) * 1.0, nil })
	out, err := AdaptParam(Celsius(20))
	require.NoError(t, err)
	assert.Equal(t, 20.0, out)
}

func TestRegistryConverterRoundTrip(t *testing.T) {
	ResetRegistryForTest()
	RegisterConverter("money", func(v any) (any, error) { return v, nil })
	assert.True(t, HasConverter("money"))
	assert.True(t, HasConverter("MONEY"))
}

func TestBuiltinJSONAdapterConverter(t *testing.T) {
	ResetRegistryForTest()
	encoded, err := AdaptParam(map[string]any{"a": 1})
	require.NoError(t, err)
	require.IsType(t, []byte(nil), encoded)

	decoded, err := ConvertCell("json", encoded)
	require.NoError(t, err)
	m, ok := decoded.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), m["a"])
}

func TestEngineRegistryOpenAndInit(t *testing.T) {
	ResetRegistryForTest()
	RegisterEngine("fake", func(ctx context.Context, descriptor any, opts ...OpenOption) (Database, error) {
		return &fakeDatabase{}, nil
	})
	db, err := Open(context.Background(), "fake", "anything")
	require.NoError(t, err)
	require.NotNil(t, db)

	got, err := Init()
	require.NoError(t, err)
	assert.Same(t, db, got)

	got2, err := Init(WithEngine("fake"))
	require.NoError(t, err)
	assert.Same(t, db, got2)
}

func TestInitFailsWithNoDatabase(t *testing.T) {
	ResetRegistryForTest()
	_, err := Init()
	require.Error(t, err)
}

func TestAppendRowIntoStructSlice(t *testing.T) {
	var out []Account
	err := AppendRow(&out, Row{Columns: []string{"id", "email"}, Values: []any{int64(1), "a@b.com"}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, Account{ID: 1, Email: "a@b.com"}, out[0])
}

func TestAppendRowIntoMapSlice(t *testing.T) {
	var out []map[string]any
	err := AppendRow(&out, Row{Columns: []string{"id"}, Values: []any{int64(1)}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0]["id"])
}

// fakeDatabase satisfies Database minimally for registry tests.
type fakeDatabase struct{}

func (f *fakeDatabase) Select(ctx context.Context, target any, opts ...QueryOption) (RowIterator, error) {
	return nil, nil
}
func (f *fakeDatabase) FetchAll(ctx context.Context, target any, dest any, opts ...QueryOption) error {
	return nil
}
func (f *fakeDatabase) FetchOne(ctx context.Context, target any, dest any, opts ...QueryOption) (bool, error) {
	return false, nil
}
func (f *fakeDatabase) Insert(ctx context.Context, target any, values any, opts ...ValueOption) (any, error) {
	return nil, nil
}
func (f *fakeDatabase) InsertMany(ctx context.Context, target any, valuesSlice []any) ([]any, error) {
	return nil, nil
}
func (f *fakeDatabase) Update(ctx context.Context, target any, values any, opts ...QueryOption) (int64, error) {
	return 0, nil
}
func (f *fakeDatabase) Delete(ctx context.Context, target any, opts ...QueryOption) (int64, error) {
	return 0, nil
}
func (f *fakeDatabase) Execute(ctx context.Context, sql string, params any) (Result, error) {
	return nil, nil
}
func (f *fakeDatabase) ExecuteMany(ctx context.Context, sql string, paramsSlice []any) (Result, error) {
	return nil, nil
}
func (f *fakeDatabase) ExecuteScript(ctx context.Context, sqlText string) error { return nil }
func (f *fakeDatabase) Quote(name string) string                              { return name }
func (f *fakeDatabase) Transaction(ctx context.Context, opts ...TxOption) (Transaction, error) {
	return nil, nil
}
func (f *fakeDatabase) Closed() bool { return false }
func (f *fakeDatabase) Close() error { return nil }
