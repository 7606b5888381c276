// Package schema holds table column definitions read from a live database
// and a per-session cache that loads them lazily.
package schema

import (
	"context"
	"database/sql"
	"slices"
)

// Column describes one column of a table as reported by the database.
type Column struct {
	Name          string
	Type          string // native type name, e.g. "INTEGER", "varchar"
	PrimaryKey    bool
	AutoIncrement bool
	Nullable      bool
	Default       sql.NullString
}

// Schema is the ordered column metadata of one table.
type Schema struct {
	table   string
	columns []Column
	index   map[string]int
}

// New returns the schema of table with the given columns in table order.
func New(table string, columns []Column) *Schema {
	s := &Schema{
		table:   table,
		columns: slices.Clone(columns),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range s.columns {
		if _, ok := s.index[c.Name]; !ok {
			s.index[c.Name] = i
		}
	}
	return s
}

// TableName returns the table name.
func (s *Schema) TableName() string { return s.table }

// Columns returns a copy of the column definitions.
func (s *Schema) Columns() []Column { return slices.Clone(s.columns) }

// ColumnNames returns the column names in table order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKeys returns the names of the primary key columns.
func (s *Schema) PrimaryKeys() []string {
	var pks []string
	for _, c := range s.columns {
		if c.PrimaryKey {
			pks = append(pks, c.Name)
		}
	}
	return pks
}

// Column returns the named column.
func (s *Schema) Column(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// Exists reports whether the table has any columns. Backends report
// no columns for a table that does not exist.
func (s *Schema) Exists() bool { return len(s.columns) > 0 }

// Inspector reads column definitions from a database.
type Inspector interface {
	Columns(ctx context.Context, table string) ([]Column, error)
}

// InspectorFunc adapts a function to Inspector.
type InspectorFunc func(ctx context.Context, table string) ([]Column, error)

// Columns calls f(ctx, table).
func (f InspectorFunc) Columns(ctx context.Context, table string) ([]Column, error) {
	return f(ctx, table)
}
