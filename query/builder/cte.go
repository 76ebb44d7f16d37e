package builder

import (
	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
)

// With adds a common table expression. query is a *Builder or func(*Builder).
//
//	b.With("recent", func(q *Builder) { q.From("orders").Where("day", ">", d) }).From("recent")
func (b *Builder) With(name string, query interface{}, columns ...string) *Builder {
	return b.with(name, query, columns, false)
}

// WithRecursive adds a recursive common table expression. The query
// usually unions an anchor select with a select that reads from name.
func (b *Builder) WithRecursive(name string, query interface{}, columns ...string) *Builder {
	return b.with(name, query, columns, true)
}

func (b *Builder) with(name string, query interface{}, columns []string, recursive bool) *Builder {
	if name == "" {
		return b.fail("with", sqlgen.ErrInvalidValues, "empty cte name")
	}
	plan, ok := b.subquery("with", query)
	if !ok {
		return b
	}
	b.plan.CTEs = append(b.plan.CTEs, ast.CTE{
		Name:      name,
		Columns:   append([]string(nil), columns...),
		Query:     plan,
		Recursive: recursive,
	})
	return b
}
