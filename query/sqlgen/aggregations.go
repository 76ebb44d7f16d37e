// Package sqlgen provides aggregation query generation.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlkit/query/ast"
)

// compileAggregate renders "select fn(columns) as aggregate".
func (g *base) compileAggregate(st *state, p *ast.Plan) (string, error) {
	agg := p.Aggregate
	if agg == nil {
		return "", nil
	}
	if !agg.Function.Valid() {
		return "", g.errorf("aggregate", ErrInvalidAggregate, "%q", agg.Function)
	}

	columns := "*"
	if len(agg.Columns) > 0 {
		columns = g.columnize(st, agg.Columns)
	}

	if p.Distinct && columns != "*" {
		columns = "distinct " + columns
	}

	return fmt.Sprintf("select %s(%s) as aggregate", agg.Function, columns), nil
}

// compileUnionAggregate aggregates over the union as a derived table.
// The caller's plan is never mutated.
func (g *base) compileUnionAggregate(st *state, p *ast.Plan) (string, error) {
	agg, err := g.compileAggregate(st, p)
	if err != nil {
		return "", err
	}

	inner := p.Clone()
	inner.Aggregate = nil

	sql, err := g.compileSelect(st, inner)
	if err != nil {
		return "", err
	}
	return agg + " from (" + sql + ") as " + g.wrapValue("temp_table"), nil
}

var havingKinds = map[ast.WhereKind]bool{
	ast.WhereBasic:      true,
	ast.WhereRaw:        true,
	ast.WhereNull:       true,
	ast.WhereNotNull:    true,
	ast.WhereBetween:    true,
	ast.WhereNotBetween: true,
	ast.WhereNested:     true,
}

// compileHavings renders the HAVING clause. Only a subset of predicate
// kinds is meaningful after aggregation.
func (g *base) compileHavings(st *state, havings []ast.Where, keyword string) (string, error) {
	if len(havings) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(havings))
	for i := range havings {
		h := &havings[i]
		if !havingKinds[h.Kind] {
			return "", g.errorf("having", ErrUnsupportedPredicate, "%s", h.Kind)
		}

		var (
			sql string
			err error
		)
		if h.Kind == ast.WhereNested {
			sql, err = g.havingNested(st, h)
		} else {
			sql, err = whereCompilers[h.Kind](g, st, h)
		}
		if err != nil {
			return "", err
		}
		if sql != "" {
			parts = append(parts, connector(h.Boolean)+" "+sql)
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return keyword + " " + removeLeadingBoolean(strings.Join(parts, " ")), nil
}

func (g *base) havingNested(st *state, h *ast.Where) (string, error) {
	if h.Query == nil {
		return "", nil
	}
	sql, err := g.compileHavings(st, h.Query.Havings, "having")
	if err != nil || sql == "" {
		return "", err
	}
	return "(" + sql[len("having "):] + ")", nil
}
