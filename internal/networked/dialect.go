// Package networked implements the query facade's Database/Transaction
// contract (pkg/dblite) against a networked Postgres-like engine, via
// jackc/pgx/v5 and pgxpool. Grounded on original_source's
// src/dblite/engines/postgres.py (RESERVED_KEYWORDS, quote, _match_name,
// query_schema) translated into Go idiom, and on the teacher's
// internal/sqlite/backend.go connection-lifecycle shape (sync.RWMutex
// guarding open/closed state, eager Open, idempotent Close).
package networked

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/quilldb/dblite/internal/assemble"
)

var dialect = assemble.Dialect{
	Name:          "postgres",
	Placeholder:   assemble.Dollar,
	SupportsCast:  true,
	BareOffset:    true,
}

// reservedWords mirrors original_source's RESERVED_KEYWORDS list.
var reservedWords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(strings.Join([]string{
		"ALL ANALYSE ANALYZE AND ANY ASC ASYMMETRIC BOTH CASE CAST CHECK",
		"COLLATE COLUMN CONSTRAINT CURRENT_CATALOG CURRENT_DATE CURRENT_ROLE",
		"CURRENT_TIME CURRENT_TIMESTAMP CURRENT_USER DEFAULT DEFERRABLE DESC",
		"DISTINCT DO ELSE END FALSE FOREIGN IN INITIALLY LATERAL LEADING",
		"LOCALTIME LOCALTIMESTAMP NOT NULL ONLY OR PLACING PRIMARY REFERENCES",
		"SELECT SESSION_USER SOME SYMMETRIC TABLE THEN TRAILING TRUE UNIQUE",
		"USER USING VARIADIC WHEN AUTHORIZATION BINARY COLLATION CONCURRENTLY",
		"CROSS CURRENT_SCHEMA FREEZE FULL ILIKE INNER IS JOIN LEFT LIKE",
		"NATURAL OUTER RIGHT SIMILAR TABLESAMPLE VERBOSE ISNULL NOTNULL",
		"OVERLAPS ARRAY AS CREATE EXCEPT FETCH FOR FROM GRANT GROUP",
		"HAVING INTERSECT INTO LIMIT OFFSET ON ORDER RETURNING TO UNION",
		"WHERE WINDOW WITH",
	}, " ")) {
		reservedWords[w] = true
	}
}

var invalidIdentRe = regexp.MustCompile(`^[\W\d]|\W`)

// needsQuoting reports whether name must be double-quoted to appear
// verbatim in Postgres SQL text: mixed/upper case, a leading non-letter,
// an embedded non-alphanumeric character, or a reserved word.
func needsQuoting(name string) bool {
	if name == "" {
		return true
	}
	if name != strings.ToLower(name) {
		return true
	}
	if reservedWords[strings.ToUpper(name)] {
		return true
	}
	if unicode.IsDigit(rune(name[0])) {
		return true
	}
	return invalidIdentRe.MatchString(name)
}

func quote(name string) string {
	if strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
