package database

import (
	"strings"

	"github.com/doug-martin/goqu/v9"

	// NOTE: required to register the dialects for goqu.
	//
	// Without these imports goqu.Dialect(name) returns a copy of the default
	// dialect, which quotes and binds differently from the real engines.
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
)

// Dialect controls identifier quoting, placeholder style and type names.
type Dialect int

const (
	// DialectPostgres uses $1, $2, … placeholders and "double quotes".
	DialectPostgres Dialect = iota

	// DialectMySQL uses ? placeholders and `backticks`.
	DialectMySQL

	// DialectSQLite uses ? placeholders and "double quotes".
	DialectSQLite
)

func (d Dialect) String() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	case DialectSQLite:
		return "sqlite"
	default:
		return "postgres"
	}
}

// Builder returns a goqu statement builder for the dialect. Statements built
// from it are always prepared (values travel as args, never inline).
func (d Dialect) Builder() goqu.DialectWrapper {
	switch d {
	case DialectMySQL:
		return goqu.Dialect("mysql")
	case DialectSQLite:
		return goqu.Dialect("sqlite3")
	default:
		return goqu.Dialect("postgres")
	}
}

// QuoteIdent quotes a table or column identifier for the dialect.
// This safely handles reserved words such as "order" and mixed-case names.
func (d Dialect) QuoteIdent(name string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
