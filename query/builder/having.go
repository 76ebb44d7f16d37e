package builder

import (
	"fmt"

	"github.com/satishbabariya/sqlkit/internal/placeholder"
	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
)

func (b *Builder) addHaving(h ast.Where) *Builder {
	b.plan.Havings = append(b.plan.Havings, h)
	return b
}

// Having adds a post-aggregation predicate with the same argument forms as Where.
func (b *Builder) Having(column interface{}, args ...interface{}) *Builder {
	return b.having(ast.And, column, args)
}

// OrHaving is Having joined with or.
func (b *Builder) OrHaving(column interface{}, args ...interface{}) *Builder {
	return b.having(ast.Or, column, args)
}

func (b *Builder) having(boolean string, column interface{}, args []interface{}) *Builder {
	op, value, ok := b.operatorValue("having", args)
	if !ok {
		return b
	}
	return b.addHaving(ast.Where{Kind: ast.WhereBasic, Boolean: boolean, Column: column, Operator: op, Value: value})
}

// HavingRaw adds a literal HAVING fragment.
func (b *Builder) HavingRaw(sql string, bindings ...interface{}) *Builder {
	return b.havingRaw(ast.And, sql, bindings)
}

// OrHavingRaw is HavingRaw joined with or.
func (b *Builder) OrHavingRaw(sql string, bindings ...interface{}) *Builder {
	return b.havingRaw(ast.Or, sql, bindings)
}

func (b *Builder) havingRaw(boolean, sql string, bindings []interface{}) *Builder {
	if n := placeholder.Count(sql); n != len(bindings) {
		return b.fail("havingRaw", sqlgen.ErrBindingMismatch, fmt.Sprintf("%d placeholders, %d bindings", n, len(bindings)))
	}
	return b.addHaving(ast.Where{Kind: ast.WhereRaw, Boolean: boolean, SQL: sql, Bindings: bindings})
}

// HavingNull adds "column is null" to HAVING.
func (b *Builder) HavingNull(column interface{}) *Builder {
	return b.addHaving(ast.Where{Kind: ast.WhereNull, Boolean: ast.And, Column: column})
}

// HavingNotNull adds "column is not null" to HAVING.
func (b *Builder) HavingNotNull(column interface{}) *Builder {
	return b.addHaving(ast.Where{Kind: ast.WhereNotNull, Boolean: ast.And, Column: column})
}

// HavingBetween adds "column between low and high" to HAVING.
func (b *Builder) HavingBetween(column interface{}, low, high interface{}) *Builder {
	return b.addHaving(ast.Where{Kind: ast.WhereBetween, Boolean: ast.And, Column: column, Low: low, High: high})
}

// HavingNested adds a parenthesized HAVING group built by fn.
func (b *Builder) HavingNested(fn func(*Builder)) *Builder {
	child := b.forNested()
	fn(child)
	if child.err != nil {
		b.absorb(child.err)
		return b
	}
	if len(child.plan.Havings) == 0 {
		return b
	}
	return b.addHaving(ast.Where{Kind: ast.WhereNested, Boolean: ast.And, Query: child.plan})
}
