// Package query builds parameterized PostgreSQL statements over a single
// aliased table.
package query

import "strings"

// ProjectionMap names the table a Builder reads and maps the field names
// used by handlers and filters onto alias-qualified columns.
type ProjectionMap struct {
	from    string
	alias   string
	byField map[string]string
	ordered []string
}

// NewProjectionMap starts a projection over schema.table under alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		from:    schema + "." + table + " " + alias,
		alias:   alias,
		byField: map[string]string{},
	}
}

// Project selects column and exposes it as field. Either name resolves
// to the column. Columns are selected in the order they are projected.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := p.alias + "." + column
	p.byField[field] = qualified
	p.byField[column] = qualified
	p.ordered = append(p.ordered, qualified)
	return p
}

func (p *ProjectionMap) Alias() string { return p.alias }

// From is the table reference for a FROM clause.
func (p *ProjectionMap) From() string { return p.from }

// Lookup reports the qualified column for field.
func (p *ProjectionMap) Lookup(field string) (string, bool) {
	col, ok := p.byField[field]
	return col, ok
}

// Column is Lookup for fields fixed in code. An unknown field is returned
// unchanged and must never come from a request.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.byField[field]; ok {
		return col
	}
	return field
}

func (p *ProjectionMap) Columns() string {
	return strings.Join(p.ordered, ", ")
}

func (p *ProjectionMap) ColumnList() []string {
	return p.ordered
}
