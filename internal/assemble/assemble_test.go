package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sqliteDialect = Dialect{Name: "sqlite", Placeholder: Question}
var postgresDialect = Dialect{Name: "postgres", Placeholder: Dollar, SupportsCast: true}

func TestAssembleSelectBasic(t *testing.T) {
	sql, params, err := Assemble(Select, sqliteDialect, Args{
		Table: "users",
		Cols:  []string{"id", "name"},
		Where: []Where{
			{Kind: ClauseCompare, Column: "active", Value: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM users WHERE active = ?", sql)
	assert.Equal(t, []any{true}, params)
}

func TestAssembleSelectStarWhenNoCols(t *testing.T) {
	sql, _, err := Assemble(Select, sqliteDialect, Args{Table: "users"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users", sql)
}

func TestAssembleWhereOperatorForms(t *testing.T) {
	sql, params, err := Assemble(Select, sqliteDialect, Args{
		Table: "orders",
		Where: []Where{
			{Kind: ClauseCompare, Column: "total", Operator: ">=", Value: 100},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE total >= ?", sql)
	assert.Equal(t, []any{100}, params)
}

func TestAssembleWhereIsNull(t *testing.T) {
	sql, params, err := Assemble(Select, sqliteDialect, Args{
		Table: "orders",
		Where: []Where{{Kind: ClauseCompare, Column: "deleted_at", Value: nil}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE deleted_at IS NULL", sql)
	assert.Empty(t, params)
}

func TestAssembleWhereIsNotNull(t *testing.T) {
	sql, _, err := Assemble(Select, sqliteDialect, Args{
		Table: "orders",
		Where: []Where{{Kind: ClauseCompare, Column: "deleted_at", Operator: "!=", Value: nil}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE deleted_at IS NOT NULL", sql)
}

func TestAssembleWhereUnknownOperatorFails(t *testing.T) {
	_, _, err := Assemble(Select, sqliteDialect, Args{
		Table: "orders",
		Where: []Where{{Kind: ClauseCompare, Column: "total", Operator: "~=", Value: 1}},
	})
	require.Error(t, err)
	var bad *BadArgument
	require.ErrorAs(t, err, &bad)
}

func TestAssembleWhereIn(t *testing.T) {
	sql, params, err := Assemble(Select, sqliteDialect, Args{
		Table: "orders",
		Where: []Where{{Kind: ClauseIn, Column: "status", Value: []any{"open", "pending"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE status IN (?, ?)", sql)
	assert.Equal(t, []any{"open", "pending"}, params)
}

func TestAssembleWhereNotInEmpty(t *testing.T) {
	sql, params, err := Assemble(Select, sqliteDialect, Args{
		Table: "orders",
		Where: []Where{{Kind: ClauseIn, Negate: true, Column: "status", Value: []any{}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE status NOT IN (NULL)", sql)
	assert.Empty(t, params)
}

func TestAssembleWhereExpr(t *testing.T) {
	sql, params, err := Assemble(Select, sqliteDialect, Args{
		Table: "orders",
		Where: []Where{{Kind: ClauseExpr, Raw: "total > ? AND total < ?", RawArgs: []any{10, 20}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE (total > ? AND total < ?)", sql)
	assert.Equal(t, []any{10, 20}, params)
}

func TestAssembleWhereRawVerbatim(t *testing.T) {
	sql, params, err := Assemble(Select, sqliteDialect, Args{
		Table: "orders",
		Where: []Where{{Kind: ClauseRaw, Raw: "lower(name) = ?", RawArgs: []any{"acme"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE lower(name) = ?", sql)
	assert.Equal(t, []any{"acme"}, params)
}

func TestAssembleRawPlaceholderMismatchFails(t *testing.T) {
	_, _, err := Assemble(Select, sqliteDialect, Args{
		Table: "orders",
		Where: []Where{{Kind: ClauseRaw, Raw: "lower(name) = ?", RawArgs: []any{}}},
	})
	require.Error(t, err)
}

func TestAssembleMultipleClausesAnded(t *testing.T) {
	sql, params, err := Assemble(Select, sqliteDialect, Args{
		Table: "orders",
		Where: []Where{
			{Kind: ClauseCompare, Column: "active", Value: true},
			{Kind: ClauseCompare, Column: "total", Operator: ">", Value: 0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE active = ? AND total > ?", sql)
	assert.Equal(t, []any{true, 0}, params)
}

func TestAssembleOrderGroupLimit(t *testing.T) {
	limit := int64(10)
	offset := int64(5)
	sql, _, err := Assemble(Select, sqliteDialect, Args{
		Table: "orders",
		Group: []string{"customer_id"},
		Order: []OrderTerm{{Column: "created_at", Desc: true}, {Column: "id"}},
		Limit: Limit{Count: &limit, Offset: &offset},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders GROUP BY customer_id ORDER BY created_at DESC, id ASC LIMIT 10 OFFSET 5", sql)
}

func TestAssembleNegativeLimitOmitted(t *testing.T) {
	negative := int64(-1)
	sql, _, err := Assemble(Select, sqliteDialect, Args{Table: "orders", Limit: Limit{Count: &negative}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders", sql)
}

func TestAssembleOffsetWithoutLimitOnSqliteGetsSentinel(t *testing.T) {
	offset := int64(5)
	sql, _, err := Assemble(Select, sqliteDialect, Args{Table: "orders", Limit: Limit{Offset: &offset}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders LIMIT -1 OFFSET 5", sql)
}

func TestAssembleOffsetWithoutLimitOnPostgresIsBare(t *testing.T) {
	d := postgresDialect
	d.BareOffset = true
	offset := int64(5)
	sql, _, err := Assemble(Select, d, Args{Table: "orders", Limit: Limit{Offset: &offset}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders OFFSET 5", sql)
}

func TestAssembleInsert(t *testing.T) {
	sql, params, err := Assemble(Insert, sqliteDialect, Args{
		Table:  "users",
		Values: []KV{{Key: "name", Value: "ada"}, {Key: "active", Value: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (name, active) VALUES (?, ?)", sql)
	assert.Equal(t, []any{"ada", true}, params)
}

func TestAssembleInsertEmptyValuesFails(t *testing.T) {
	_, _, err := Assemble(Insert, sqliteDialect, Args{Table: "users"})
	require.Error(t, err)
}

func TestAssembleInsertReturningOnPostgres(t *testing.T) {
	sql, params, err := Assemble(Insert, postgresDialect, Args{
		Table:       "users",
		Values:      []KV{{Key: "name", Value: "ada"}},
		ReturningPK: "id",
	})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO users (name) VALUES ($1) RETURNING id`, sql)
	assert.Equal(t, []any{"ada"}, params)
}

func TestAssembleUpdate(t *testing.T) {
	sql, params, err := Assemble(Update, sqliteDialect, Args{
		Table:  "users",
		Values: []KV{{Key: "name", Value: "ada"}},
		Where:  []Where{{Kind: ClauseCompare, Column: "id", Value: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET name = ? WHERE id = ?", sql)
	assert.Equal(t, []any{"ada", 1}, params)
}

func TestAssembleDelete(t *testing.T) {
	sql, params, err := Assemble(Delete, sqliteDialect, Args{
		Table: "users",
		Where: []Where{{Kind: ClauseCompare, Column: "id", Value: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM users WHERE id = ?", sql)
	assert.Equal(t, []any{1}, params)
}

func TestAssemblePostgresPlaceholdersSequential(t *testing.T) {
	sql, params, err := Assemble(Select, postgresDialect, Args{
		Table: "orders",
		Where: []Where{
			{Kind: ClauseCompare, Column: "active", Value: true},
			{Kind: ClauseExpr, Raw: "total between ? and ?", RawArgs: []any{10, 20}},
			{Kind: ClauseIn, Column: "status", Value: []any{"open", "closed"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE active = $1 AND (total between $2 and $3) AND status IN ($4, $5)", sql)
	assert.Equal(t, []any{true, 10, 20, "open", "closed"}, params)
}

func TestAssemblePostgresCastOnEquality(t *testing.T) {
	cast := func(col string) (string, bool) {
		if col == "payload" {
			return "jsonb", true
		}
		return "", false
	}
	sql, _, err := Assemble(Update, postgresDialect, Args{
		Table:  "docs",
		Values: []KV{{Key: "payload", Value: `{"a":1}`}},
		Cast:   cast,
	})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE docs SET payload = $1::jsonb`, sql)
}

func TestAssembleDeterministic(t *testing.T) {
	args := Args{
		Table: "orders",
		Where: []Where{{Kind: ClauseCompare, Column: "active", Value: true}},
	}
	sql1, params1, err1 := Assemble(Select, sqliteDialect, args)
	sql2, params2, err2 := Assemble(Select, sqliteDialect, args)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, sql1, sql2)
	assert.Equal(t, params1, params2)
}
