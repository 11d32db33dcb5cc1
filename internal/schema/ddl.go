package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/carlosatFroom/learning-system/internal/database"
)

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS for e. Unique columns
// that are also indexed get a unique index from CreateIndexSQL instead of an
// inline constraint.
func CreateTableSQL(e Entity, d database.Dialect) string {
	q := d.QuoteIdent

	defs := make([]string, 0, len(e.Columns)+1+len(e.ForeignKeys))
	for _, c := range e.Columns {
		defs = append(defs, columnDef(c, d))
	}
	defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", q(e.PrimaryKey().Name)))
	for _, fk := range e.ForeignKeys {
		defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			q(fk.Column), q(fk.RefTable), q(fk.RefColumn)))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", q(e.Table), strings.Join(defs, ",\n\t"))
}

// CreateIndexSQL renders one CREATE INDEX per indexed non-key column, named
// ix_<table>_<column>. The statements are not idempotent on every dialect;
// run them only right after the table was created.
func CreateIndexSQL(e Entity, d database.Dialect) []string {
	var stmts []string
	for _, c := range e.Columns {
		if !c.Indexed || c.PrimaryKey {
			continue
		}
		kind := "INDEX"
		if c.Unique {
			kind = "UNIQUE INDEX"
		}
		stmts = append(stmts, fmt.Sprintf("CREATE %s %s ON %s (%s)",
			kind, d.QuoteIdent(IndexName(e.Table, c.Name)), d.QuoteIdent(e.Table), d.QuoteIdent(c.Name)))
	}
	return stmts
}

// DropTableSQL renders DROP TABLE IF EXISTS for e.
func DropTableSQL(e Entity, d database.Dialect) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdent(e.Table)
}

// IndexName returns the index name used for table.column.
func IndexName(table, column string) string {
	return "ix_" + table + "_" + column
}

func columnDef(c Column, d database.Dialect) string {
	var b strings.Builder
	b.WriteString(d.QuoteIdent(c.Name))
	b.WriteByte(' ')
	b.WriteString(SQLType(c, d))

	if !c.Nullable || c.PrimaryKey {
		b.WriteString(" NOT NULL")
	}
	if c.Unique && !c.Indexed && !c.PrimaryKey {
		b.WriteString(" UNIQUE")
	}
	if c.Default != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(defaultLiteral(c.Default, d))
	}
	return b.String()
}

// SQLType maps the column's semantic type to the dialect's storage type.
func SQLType(c Column, d database.Dialect) string {
	switch c.Type {
	case Integer:
		if d == database.DialectMySQL {
			return "INT"
		}
		return "INTEGER"
	case String:
		return fmt.Sprintf("VARCHAR(%d)", c.Size)
	case Text:
		return "TEXT"
	case Boolean:
		if d == database.DialectMySQL {
			return "BOOL"
		}
		return "BOOLEAN"
	case DateTime:
		switch d {
		case database.DialectMySQL:
			return "DATETIME(6)"
		case database.DialectSQLite:
			return "DATETIME"
		default:
			return "TIMESTAMP"
		}
	case Float:
		switch d {
		case database.DialectMySQL:
			return "DOUBLE"
		case database.DialectSQLite:
			return "REAL"
		default:
			return "DOUBLE PRECISION"
		}
	}
	return "TEXT"
}

func defaultLiteral(v any, d database.Dialect) string {
	switch v := v.(type) {
	case Expr:
		if d == database.DialectMySQL {
			return "CURRENT_TIMESTAMP(6)"
		}
		return "CURRENT_TIMESTAMP"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(v), "'", "''") + "'"
	}
}
