// Package schema holds the entity definitions of a relational store and
// derives the prefixed remote schema, its dependency order and its DDL.
// Nothing in this package performs I/O.
package schema

import (
	"sort"
	"strings"

	"github.com/carlosatFroom/learning-system/internal/errs"
)

// Schema is a validated set of entities sorted in dependency order: every
// entity comes after all entities it references.
type Schema struct {
	prefix   string
	entities []Entity
	levels   [][]int
	byName   map[string]int
	byTable  map[string]int
}

// New validates the entities and sorts them topologically. Ties are broken by
// declaration order so the result is deterministic. Any structural problem
// (duplicate names, missing or composite primary key, dangling foreign key,
// cycle) is a configuration error.
func New(entities ...Entity) (*Schema, error) {
	decl := make(map[string]int, len(entities))
	names := make(map[string]bool, len(entities))
	for i, e := range entities {
		if err := validateEntity(e); err != nil {
			return nil, err
		}
		if _, dup := decl[e.Table]; dup {
			return nil, errs.Newf(errs.ErrKindConfig, "duplicate table %q", e.Table)
		}
		if names[e.Name] {
			return nil, errs.Newf(errs.ErrKindConfig, "duplicate entity %q", e.Name)
		}
		decl[e.Table] = i
		names[e.Name] = true
	}

	for _, e := range entities {
		for _, fk := range e.ForeignKeys {
			j, ok := decl[fk.RefTable]
			if !ok {
				return nil, errs.Newf(errs.ErrKindConfig, "%s: foreign key %s references unknown table", e.Table, fk)
			}
			if _, ok := entities[j].Column(fk.RefColumn); !ok {
				return nil, errs.Newf(errs.ErrKindConfig, "%s: foreign key %s references unknown column", e.Table, fk)
			}
		}
	}

	order, levels, err := sortLevels(entities, decl)
	if err != nil {
		return nil, err
	}

	s := &Schema{
		byName:  make(map[string]int, len(entities)),
		byTable: make(map[string]int, len(entities)),
	}
	pos := make(map[int]int, len(order))
	for i, idx := range order {
		e := entities[idx].clone()
		s.entities = append(s.entities, e)
		s.byName[e.Name] = i
		s.byTable[e.Table] = i
		pos[idx] = i
	}
	for _, lvl := range levels {
		mapped := make([]int, len(lvl))
		for i, idx := range lvl {
			mapped[i] = pos[idx]
		}
		s.levels = append(s.levels, mapped)
	}
	return s, nil
}

func validateEntity(e Entity) error {
	if e.Name == "" || e.Table == "" {
		return errs.Newf(errs.ErrKindConfig, "entity %q has no name or table", e.Name+e.Table)
	}
	if len(e.Columns) == 0 {
		return errs.Newf(errs.ErrKindConfig, "%s: no columns", e.Table)
	}

	seen := make(map[string]bool, len(e.Columns))
	pks := 0
	for _, c := range e.Columns {
		if c.Name == "" {
			return errs.Newf(errs.ErrKindConfig, "%s: column without name", e.Table)
		}
		if seen[c.Name] {
			return errs.Newf(errs.ErrKindConfig, "%s: duplicate column %q", e.Table, c.Name)
		}
		seen[c.Name] = true
		if c.Type < Integer || c.Type > Float {
			return errs.Newf(errs.ErrKindConfig, "%s.%s: unknown column type", e.Table, c.Name)
		}
		if c.Type == String && c.Size <= 0 {
			return errs.Newf(errs.ErrKindConfig, "%s.%s: string column needs a size", e.Table, c.Name)
		}
		if c.PrimaryKey {
			pks++
		}
	}
	if pks != 1 {
		return errs.Newf(errs.ErrKindConfig, "%s: expected exactly one primary key column, got %d", e.Table, pks)
	}

	for _, fk := range e.ForeignKeys {
		if !seen[fk.Column] {
			return errs.Newf(errs.ErrKindConfig, "%s: foreign key %s uses unknown column", e.Table, fk)
		}
	}
	return nil
}

// sortLevels runs Kahn's algorithm one frontier at a time. Each frontier is a
// level: its entities depend only on entities of earlier levels.
func sortLevels(entities []Entity, decl map[string]int) ([]int, [][]int, error) {
	indegree := make([]int, len(entities))
	dependents := make([][]int, len(entities))
	for i, e := range entities {
		for _, dep := range e.DependsOn() {
			j := decl[dep]
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	var frontier []int
	for i := range entities {
		if indegree[i] == 0 {
			frontier = append(frontier, i)
		}
	}

	var order []int
	var levels [][]int
	for len(frontier) > 0 {
		levels = append(levels, frontier)
		order = append(order, frontier...)

		var next []int
		for _, i := range frontier {
			for _, d := range dependents[i] {
				indegree[d]--
				if indegree[d] == 0 {
					next = append(next, d)
				}
			}
		}
		sort.Ints(next)
		frontier = next
	}

	if len(order) != len(entities) {
		var cyclic []string
		for i, n := range indegree {
			if n > 0 {
				cyclic = append(cyclic, entities[i].Table)
			}
		}
		return nil, nil, errs.Newf(errs.ErrKindConfig, "foreign key cycle between tables: %s", strings.Join(cyclic, ", "))
	}
	return order, levels, nil
}

// Mirror derives the remote schema: every table name and every foreign key
// target gets prefix prepended. Entity names and all column attributes are
// kept. s is not modified.
func (s *Schema) Mirror(prefix string) (*Schema, error) {
	if prefix == "" {
		return nil, errs.New(errs.ErrKindConfig, "mirror prefix must not be empty")
	}

	mirrored := make([]Entity, len(s.entities))
	for i, e := range s.entities {
		m := e.clone()
		m.Table = prefix + e.Table
		for j := range m.ForeignKeys {
			m.ForeignKeys[j].RefTable = prefix + m.ForeignKeys[j].RefTable
		}
		mirrored[i] = m
	}

	out, err := New(mirrored...)
	if err != nil {
		return nil, err
	}
	out.prefix = s.prefix + prefix
	return out, nil
}

// Prefix returns the prefix added by Mirror, or "" for a local schema.
func (s *Schema) Prefix() string {
	return s.prefix
}

// Len returns the number of entities.
func (s *Schema) Len() int {
	return len(s.entities)
}

// Entities returns the entities in forward dependency order.
func (s *Schema) Entities() []Entity {
	return append([]Entity(nil), s.entities...)
}

// Reversed returns the entities in reverse dependency order, the order in
// which tables can be dropped.
func (s *Schema) Reversed() []Entity {
	out := make([]Entity, len(s.entities))
	for i, e := range s.entities {
		out[len(out)-1-i] = e
	}
	return out
}

// Levels groups the entities by dependency depth. Entities within one level
// never reference each other and can be processed concurrently.
func (s *Schema) Levels() [][]Entity {
	out := make([][]Entity, len(s.levels))
	for i, lvl := range s.levels {
		out[i] = make([]Entity, len(lvl))
		for j, idx := range lvl {
			out[i][j] = s.entities[idx]
		}
	}
	return out
}

// Entity looks up an entity by name.
func (s *Schema) Entity(name string) (Entity, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Entity{}, false
	}
	return s.entities[i], true
}

// Table looks up an entity by table name.
func (s *Schema) Table(table string) (Entity, bool) {
	i, ok := s.byTable[table]
	if !ok {
		return Entity{}, false
	}
	return s.entities[i], true
}
