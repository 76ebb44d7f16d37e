// Package sqlgen provides WHERE clause building logic.
package sqlgen

import (
	"strings"

	"github.com/satishbabariya/sqlkit/internal/placeholder"
	"github.com/satishbabariya/sqlkit/query/ast"
)

// compileWheres renders a predicate sequence behind keyword ("where" or "on").
// An empty sequence renders nothing.
func (g *base) compileWheres(st *state, wheres []ast.Where, keyword string) (string, error) {
	if len(wheres) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(wheres))
	for i := range wheres {
		w := &wheres[i]
		compile, err := g.whereCompiler(w.Kind)
		if err != nil {
			return "", err
		}
		sql, err := compile(g, st, w)
		if err != nil {
			return "", err
		}
		if sql == "" {
			continue
		}
		parts = append(parts, connector(w.Boolean)+" "+sql)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return keyword + " " + removeLeadingBoolean(strings.Join(parts, " ")), nil
}

func (g *base) whereCompiler(kind ast.WhereKind) (whereCompiler, error) {
	if !kind.Valid() || whereCompilers[kind] == nil {
		return nil, g.errorf("where", ErrUnsupportedPredicate, "%s (%d)", kind, int(kind))
	}
	return whereCompilers[kind], nil
}

func connector(boolean string) string {
	if strings.EqualFold(boolean, ast.Or) {
		return ast.Or
	}
	return ast.And
}

// removeLeadingBoolean strips one leading "and " or "or ".
func removeLeadingBoolean(sql string) string {
	lower := strings.ToLower(sql)
	switch {
	case strings.HasPrefix(lower, "and "):
		return sql[4:]
	case strings.HasPrefix(lower, "or "):
		return sql[3:]
	}
	return sql
}

// checkBindings verifies that a raw fragment has one binding per placeholder.
func (g *base) checkBindings(component, sql string, bindings []interface{}) error {
	if n := placeholder.Count(sql); n != len(bindings) {
		return g.errorf(component, ErrBindingMismatch, "%d placeholders, %d bindings", n, len(bindings))
	}
	return nil
}
