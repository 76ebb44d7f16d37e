// Package builder provides JOIN building functionality
package builder

import (
	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
)

// JoinClause collects the predicates of one join.
type JoinClause struct {
	join   *ast.Join
	parent *Builder
}

// On adds a column comparison joined with and.
func (j *JoinClause) On(first interface{}, operator string, second interface{}) *JoinClause {
	return j.on(ast.And, first, operator, second)
}

// OrOn adds a column comparison joined with or.
func (j *JoinClause) OrOn(first interface{}, operator string, second interface{}) *JoinClause {
	return j.on(ast.Or, first, operator, second)
}

func (j *JoinClause) on(boolean string, first interface{}, operator string, second interface{}) *JoinClause {
	if !j.parent.validOperator(operator) {
		j.parent.fail("join", sqlgen.ErrInvalidOperator, operator)
		return j
	}
	j.join.Wheres = append(j.join.Wheres, ast.Where{
		Kind:     ast.WhereColumn,
		Boolean:  boolean,
		First:    first,
		Operator: operator,
		Second:   second,
	})
	return j
}

// Where adds a parameterized predicate, with the same argument forms as Builder.Where.
func (j *JoinClause) Where(column interface{}, args ...interface{}) *JoinClause {
	return j.where(ast.And, column, args)
}

// OrWhere is Where joined with or.
func (j *JoinClause) OrWhere(column interface{}, args ...interface{}) *JoinClause {
	return j.where(ast.Or, column, args)
}

// where reuses the builder predicate logic on a scratch builder.
func (j *JoinClause) where(boolean string, column interface{}, args []interface{}) *JoinClause {
	scratch := j.parent.newChild()
	scratch.where(boolean, column, args)
	return j.take(scratch)
}

// WhereNull adds "column is null" to the join.
func (j *JoinClause) WhereNull(column interface{}) *JoinClause {
	j.join.Wheres = append(j.join.Wheres, ast.Where{Kind: ast.WhereNull, Boolean: ast.And, Column: column})
	return j
}

// WhereNotNull adds "column is not null" to the join.
func (j *JoinClause) WhereNotNull(column interface{}) *JoinClause {
	j.join.Wheres = append(j.join.Wheres, ast.Where{Kind: ast.WhereNotNull, Boolean: ast.And, Column: column})
	return j
}

// WhereIn adds "column in (...)" to the join.
func (j *JoinClause) WhereIn(column interface{}, values interface{}) *JoinClause {
	scratch := j.parent.newChild()
	scratch.WhereIn(column, values)
	return j.take(scratch)
}

func (j *JoinClause) take(scratch *Builder) *JoinClause {
	if scratch.err != nil {
		j.parent.absorb(scratch.err)
		return j
	}
	j.join.Wheres = append(j.join.Wheres, scratch.plan.Wheres...)
	return j
}

// Join adds an inner join on first operator second.
func (b *Builder) Join(table string, first interface{}, operator string, second interface{}) *Builder {
	return b.JoinOfType(ast.InnerJoin, table, first, operator, second)
}

// JoinWith adds an inner join whose predicates are added by fn.
func (b *Builder) JoinWith(table string, fn func(*JoinClause)) *Builder {
	return b.JoinOfTypeWith(ast.InnerJoin, table, fn)
}

// LeftJoin adds a left join.
func (b *Builder) LeftJoin(table string, first interface{}, operator string, second interface{}) *Builder {
	return b.JoinOfType(ast.LeftJoin, table, first, operator, second)
}

// LeftJoinWith adds a left join whose predicates are added by fn.
func (b *Builder) LeftJoinWith(table string, fn func(*JoinClause)) *Builder {
	return b.JoinOfTypeWith(ast.LeftJoin, table, fn)
}

// RightJoin adds a right join.
func (b *Builder) RightJoin(table string, first interface{}, operator string, second interface{}) *Builder {
	return b.JoinOfType(ast.RightJoin, table, first, operator, second)
}

// RightJoinWith adds a right join whose predicates are added by fn.
func (b *Builder) RightJoinWith(table string, fn func(*JoinClause)) *Builder {
	return b.JoinOfTypeWith(ast.RightJoin, table, fn)
}

// CrossJoin adds a cross join.
func (b *Builder) CrossJoin(table string) *Builder {
	b.newJoin(ast.CrossJoin, table)
	return b
}

// JoinOfType adds a join of the given type on first operator second.
func (b *Builder) JoinOfType(typ ast.JoinType, table string, first interface{}, operator string, second interface{}) *Builder {
	return b.JoinOfTypeWith(typ, table, func(j *JoinClause) {
		j.On(first, operator, second)
	})
}

// JoinOfTypeWith adds a join of the given type whose predicates are added by fn.
func (b *Builder) JoinOfTypeWith(typ ast.JoinType, table string, fn func(*JoinClause)) *Builder {
	j, ok := b.newJoin(typ, table)
	if !ok {
		return b
	}
	fn(j)
	return b
}

func (b *Builder) newJoin(typ ast.JoinType, table string) (*JoinClause, bool) {
	if !typ.Valid() {
		b.fail("join", sqlgen.ErrInvalidJoinType, string(typ))
		return nil, false
	}
	join := &ast.Join{Type: typ, Table: table}
	b.plan.Joins = append(b.plan.Joins, join)
	return &JoinClause{join: join, parent: b}, true
}
