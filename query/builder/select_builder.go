// Package builder provides select builder functionality.
package builder

import (
	"github.com/satishbabariya/sqlkit/query/ast"
)

// Select replaces the selected columns. No columns means "*".
func (b *Builder) Select(columns ...interface{}) *Builder {
	b.plan.Columns = append([]interface{}(nil), columns...)
	return b
}

// AddSelect appends columns to the selection.
func (b *Builder) AddSelect(columns ...interface{}) *Builder {
	b.plan.Columns = append(b.plan.Columns, columns...)
	return b
}

// SelectRaw appends a literal SQL column expression.
func (b *Builder) SelectRaw(sql string) *Builder {
	return b.AddSelect(ast.Raw(sql))
}

// From sets the source table, optionally aliased.
func (b *Builder) From(table string, alias ...string) *Builder {
	if len(alias) > 0 && alias[0] != "" {
		table += " as " + alias[0]
	}
	b.plan.Table = table
	return b
}

// Table is an alias for From.
func (b *Builder) Table(table string, alias ...string) *Builder {
	return b.From(table, alias...)
}

// FromRaw sets a literal SQL source.
func (b *Builder) FromRaw(sql string) *Builder {
	b.plan.Table = ast.Raw(sql)
	return b
}
