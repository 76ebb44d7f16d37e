// Package builder provides nested WHERE groups.
package builder

import (
	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
)

// Condition is one (column, operator, value) triple for WhereConditions.
// An empty Operator means "=".
type Condition struct {
	Column   string
	Operator string
	Value    interface{}
}

// C is shorthand for building a Condition.
func C(column, operator string, value interface{}) Condition {
	return Condition{Column: column, Operator: operator, Value: value}
}

// forNested returns a child builder for a parenthesized group.
func (b *Builder) forNested() *Builder {
	c := b.newChild()
	c.plan.Table = b.plan.Table
	return c
}

// WhereNested adds a parenthesized group built by fn. Empty groups are dropped.
func (b *Builder) WhereNested(fn func(*Builder)) *Builder {
	return b.whereNested(ast.And, fn)
}

// OrWhereNested is WhereNested joined with or.
func (b *Builder) OrWhereNested(fn func(*Builder)) *Builder {
	return b.whereNested(ast.Or, fn)
}

func (b *Builder) whereNested(boolean string, fn func(*Builder)) *Builder {
	child := b.forNested()
	fn(child)
	if child.err != nil {
		b.absorb(child.err)
		return b
	}
	return b.addNested(boolean, child.plan)
}

func (b *Builder) addNested(boolean string, plan *ast.Plan) *Builder {
	if len(plan.Wheres) == 0 {
		return b
	}
	return b.addWhere(ast.Where{Kind: ast.WhereNested, Boolean: boolean, Query: plan})
}

// WhereConditions adds every condition as one parenthesized group joined by and.
// Either all conditions are added or, on the first invalid one, none are.
func (b *Builder) WhereConditions(conditions ...Condition) *Builder {
	return b.whereConditions(ast.And, conditions)
}

// OrWhereConditions is WhereConditions joined with or.
func (b *Builder) OrWhereConditions(conditions ...Condition) *Builder {
	return b.whereConditions(ast.Or, conditions)
}

func (b *Builder) whereConditions(boolean string, conditions []Condition) *Builder {
	child := b.forNested()
	for _, c := range conditions {
		if c.Column == "" {
			return b.fail("whereConditions", sqlgen.ErrInvalidValues, "empty column")
		}
		if c.Operator == "" {
			child.Where(c.Column, c.Value)
		} else {
			child.Where(c.Column, c.Operator, c.Value)
		}
	}
	if child.err != nil {
		b.absorb(child.err)
		return b
	}
	return b.addNested(boolean, child.plan)
}
