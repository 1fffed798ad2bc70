// Package embedded implements the query facade's Database/Transaction
// contract (pkg/dblite) against the embedded file/memory SQLite engine,
// grounded on the teacher's internal/sqlite/backend.go connection-lifecycle
// idiom: sync.RWMutex-guarded state, sql.Open with modernc.org/sqlite (pure
// Go, no cgo), fmt.Errorf("...: %w", err) wrapping at call boundaries.
package embedded

import (
	"strings"
	"unicode"

	"github.com/quilldb/dblite/internal/assemble"
)

var dialect = assemble.Dialect{
	Name:        "sqlite",
	Placeholder: assemble.Question,
	BareOffset:  false,
}

// needsQuoting reports whether name must be wrapped in double quotes to be
// used verbatim in SQLite SQL text: non-alphanumeric/underscore characters,
// a leading digit, or a reserved word.
func needsQuoting(name string) bool {
	if name == "" {
		return true
	}
	if reservedWords[strings.ToUpper(name)] {
		return true
	}
	if unicode.IsDigit(rune(name[0])) {
		return true
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return true
		}
	}
	return false
}

// reservedWords is not exhaustive; it covers the SQL-92 core plus the
// SQLite-specific keywords most likely to collide with user column names.
var reservedWords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "INSERT": true, "UPDATE": true,
	"DELETE": true, "TABLE": true, "INDEX": true, "GROUP": true, "ORDER": true,
	"LIMIT": true, "OFFSET": true, "AND": true, "OR": true, "NOT": true,
	"NULL": true, "PRIMARY": true, "KEY": true, "DEFAULT": true, "VALUES": true,
	"INTO": true, "SET": true, "JOIN": true, "ON": true, "AS": true,
	"DISTINCT": true, "UNION": true, "ALL": true, "CHECK": true, "CONSTRAINT": true,
	"REFERENCES": true, "UNIQUE": true, "TRANSACTION": true, "BEGIN": true,
	"COMMIT": true, "ROLLBACK": true, "VIEW": true, "TRIGGER": true, "CASE": true,
	"WHEN": true, "THEN": true, "ELSE": true, "END": true, "IN": true,
}

func quote(name string) string {
	if strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
