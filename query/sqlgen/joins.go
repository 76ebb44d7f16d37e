// Package sqlgen provides JOIN clause generation.
package sqlgen

import (
	"strings"

	"github.com/satishbabariya/sqlkit/query/ast"
)

// compileJoins renders every join in declaration order.
func (g *base) compileJoins(st *state, joins []*ast.Join) (string, error) {
	if len(joins) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(joins))
	for _, j := range joins {
		if !j.Type.Valid() {
			return "", g.errorf("join", ErrInvalidJoinType, "%q", j.Type)
		}

		table := g.wrapTable(j.Table)
		on, err := g.compileWheres(st, j.Wheres, "on")
		if err != nil {
			return "", err
		}

		sql := string(j.Type) + " join " + table
		if on != "" {
			sql += " " + on
		}
		parts = append(parts, sql)
	}
	return strings.Join(parts, " "), nil
}
