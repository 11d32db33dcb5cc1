package schema

import (
	"fmt"
	"strings"
)

// ColumnType is the semantic type of a column. Each dialect maps it to its
// own storage type when rendering DDL.
type ColumnType int

const (
	Integer ColumnType = iota + 1
	String             // bounded text, requires Column.Size
	Text
	Boolean
	DateTime
	Float
)

func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "integer"
	case String:
		return "string"
	case Text:
		return "text"
	case Boolean:
		return "boolean"
	case DateTime:
		return "datetime"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// Expr is a default that the database evaluates at insert time.
type Expr string

// DefaultNow defaults a column to the current timestamp.
const DefaultNow Expr = "now"

// Column describes a single column of an entity.
type Column struct {
	Name       string
	Type       ColumnType
	Size       int // length of String columns
	PrimaryKey bool
	Nullable   bool
	Unique     bool
	Indexed    bool

	// Default is nil, a literal (bool, int, int64, float64, string) or an Expr.
	Default any
}

// ForeignKey links a column to the primary key of another entity's table.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

func (fk ForeignKey) String() string {
	return fmt.Sprintf("%s -> %s.%s", fk.Column, fk.RefTable, fk.RefColumn)
}

// Entity is the definition of one record type and its table.
type Entity struct {
	// Name identifies the entity in reports (e.g. "Course").
	Name string

	// Table is the table name (e.g. "courses").
	Table string

	Columns     []Column
	ForeignKeys []ForeignKey
}

// Column looks up a column by name.
func (e Entity) Column(name string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// PrimaryKey returns the primary key column. Entities accepted by New always
// have exactly one.
func (e Entity) PrimaryKey() Column {
	for _, c := range e.Columns {
		if c.PrimaryKey {
			return c
		}
	}
	return Column{}
}

// ColumnNames returns the column names in declaration order.
func (e Entity) ColumnNames() []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return names
}

// DependsOn returns the tables this entity references, excluding itself,
// without duplicates and in foreign key order.
func (e Entity) DependsOn() []string {
	var deps []string
	seen := map[string]bool{e.Table: true}
	for _, fk := range e.ForeignKeys {
		if !seen[fk.RefTable] {
			seen[fk.RefTable] = true
			deps = append(deps, fk.RefTable)
		}
	}
	return deps
}

func (e Entity) clone() Entity {
	out := e
	out.Columns = append([]Column(nil), e.Columns...)
	out.ForeignKeys = append([]ForeignKey(nil), e.ForeignKeys...)
	return out
}

func (e Entity) String() string {
	return fmt.Sprintf("%s(%s)", e.Name, strings.Join(e.ColumnNames(), ", "))
}
