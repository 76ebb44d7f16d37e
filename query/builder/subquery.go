// Package builder provides subquery building functionality
package builder

import (
	"fmt"

	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
)

// isSubquery reports whether v can be turned into a nested plan.
func isSubquery(v interface{}) bool {
	switch v.(type) {
	case *Builder, func(*Builder):
		return true
	}
	return false
}

// subquery resolves a *Builder or func(*Builder) into an independent plan.
// Scopes registered on the inner builder are applied.
func (b *Builder) subquery(component string, v interface{}) (*ast.Plan, bool) {
	var inner *Builder
	switch q := v.(type) {
	case *Builder:
		if q == nil {
			b.fail(component, sqlgen.ErrInvalidValues, "nil subquery")
			return nil, false
		}
		inner = q
	case func(*Builder):
		inner = b.newChild()
		q(inner)
	default:
		b.fail(component, sqlgen.ErrInvalidValues, fmt.Sprintf("%T is not a subquery", v))
		return nil, false
	}

	plan, err := inner.compiledPlan()
	if err != nil {
		b.absorb(err)
		return nil, false
	}
	return plan.Clone(), true
}

// WhereExists adds "exists (subquery)".
func (b *Builder) WhereExists(query interface{}) *Builder {
	return b.whereExists(ast.And, ast.WhereExists, query)
}

// OrWhereExists is WhereExists joined with or.
func (b *Builder) OrWhereExists(query interface{}) *Builder {
	return b.whereExists(ast.Or, ast.WhereExists, query)
}

// WhereNotExists adds "not exists (subquery)".
func (b *Builder) WhereNotExists(query interface{}) *Builder {
	return b.whereExists(ast.And, ast.WhereNotExists, query)
}

// OrWhereNotExists is WhereNotExists joined with or.
func (b *Builder) OrWhereNotExists(query interface{}) *Builder {
	return b.whereExists(ast.Or, ast.WhereNotExists, query)
}

func (b *Builder) whereExists(boolean string, kind ast.WhereKind, query interface{}) *Builder {
	plan, ok := b.subquery("whereExists", query)
	if !ok {
		return b
	}
	return b.addWhere(ast.Where{Kind: kind, Boolean: boolean, Query: plan})
}

// WhereSub compares column with the single value produced by a subquery.
func (b *Builder) WhereSub(column interface{}, operator string, query interface{}) *Builder {
	return b.whereSub(ast.And, column, operator, query)
}

// OrWhereSub is WhereSub joined with or.
func (b *Builder) OrWhereSub(column interface{}, operator string, query interface{}) *Builder {
	return b.whereSub(ast.Or, column, operator, query)
}

func (b *Builder) whereSub(boolean string, column interface{}, operator string, query interface{}) *Builder {
	if !b.validOperator(operator) {
		return b.fail("whereSub", sqlgen.ErrInvalidOperator, operator)
	}
	plan, ok := b.subquery("whereSub", query)
	if !ok {
		return b
	}
	return b.addWhere(ast.Where{Kind: ast.WhereSub, Boolean: boolean, Column: column, Operator: operator, Query: plan})
}
