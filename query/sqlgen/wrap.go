package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlkit/query/ast"
)

// state is the per-call compilation context. Bindings are shared by every
// nested compile of one statement so they stay in placeholder order.
type state struct {
	bindings *[]interface{}
	aliases  map[string]struct{}
	joined   map[string]struct{}
}

func newState() *state {
	b := make([]interface{}, 0)
	return &state{
		bindings: &b,
		aliases:  map[string]struct{}{},
		joined:   map[string]struct{}{},
	}
}

// child returns a state for a subquery. It inherits the outer aliases so
// correlated references stay unprefixed.
func (st *state) child() *state {
	c := &state{
		bindings: st.bindings,
		aliases:  make(map[string]struct{}, len(st.aliases)),
		joined:   make(map[string]struct{}, len(st.joined)),
	}
	for k := range st.aliases {
		c.aliases[k] = struct{}{}
	}
	for k := range st.joined {
		c.joined[k] = struct{}{}
	}
	return c
}

func (st *state) bind(values ...interface{}) {
	*st.bindings = append(*st.bindings, values...)
}

func (st *state) args() []interface{} {
	return *st.bindings
}

// scan records the aliases and joined tables of p.
func (st *state) scan(p *ast.Plan) {
	if name, ok := p.Table.(string); ok {
		if _, alias, found := splitAlias(name); found {
			st.aliases[alias] = struct{}{}
		}
	}
	for _, j := range p.Joins {
		name, ok := j.Table.(string)
		if !ok {
			continue
		}
		table, alias, found := splitAlias(name)
		if found {
			st.aliases[alias] = struct{}{}
		}
		st.joined[table] = struct{}{}
	}
}

// splitAlias splits "name as alias" (case-insensitive "as").
func splitAlias(value string) (string, string, bool) {
	i := strings.Index(strings.ToLower(value), " as ")
	if i < 0 {
		return value, "", false
	}
	return strings.TrimSpace(value[:i]), strings.TrimSpace(value[i+4:]), true
}

// wrapValue quotes one identifier segment.
func (g *base) wrapValue(value string) string {
	if value == "*" {
		return value
	}
	return g.quote + strings.ReplaceAll(value, g.quote, g.quote+g.quote) + g.quote
}

func (g *base) wrapSegments(value string) string {
	segments := strings.Split(value, ".")
	for i, s := range segments {
		segments[i] = g.wrapValue(s)
	}
	return strings.Join(segments, ".")
}

// prefixed applies the table prefix to the last segment of a table reference.
func (g *base) prefixed(name string) string {
	if g.prefix == "" {
		return name
	}
	i := strings.LastIndex(name, ".")
	return name[:i+1] + g.prefix + name[i+1:]
}

func (g *base) wrapTable(table interface{}) string {
	if sql, ok := ast.ExpressionSQL(table); ok {
		return sql
	}
	name := fmt.Sprint(table)
	if base, alias, found := splitAlias(name); found {
		return g.wrapTable(base) + " as " + g.wrapValue(alias)
	}
	return g.wrapSegments(g.prefixed(name))
}

// wrap quotes a column reference in the context of st.
func (g *base) wrap(st *state, value interface{}) string {
	if sql, ok := ast.ExpressionSQL(value); ok {
		return sql
	}
	v := fmt.Sprint(value)

	if base, alias, found := splitAlias(v); found {
		return g.wrap(st, base) + " as " + g.wrapValue(alias)
	}

	if strings.Contains(v, "->") {
		field, path := splitJSONSelector(v)
		return g.d.wrapJSONSelector(g.wrap(st, field), path)
	}

	i := strings.LastIndex(v, ".")
	if i < 0 {
		return g.wrapValue(v)
	}
	table, column := v[:i], v[i+1:]

	switch {
	case st.isAlias(table):
		return g.wrapSegments(table) + "." + g.wrapValue(column)
	case !st.isJoined(table) && g.isPrefixedJoin(st, table):
		return g.wrapSegments(table) + "." + g.wrapValue(column)
	default:
		return g.wrapSegments(g.prefixed(table)) + "." + g.wrapValue(column)
	}
}

// isPrefixedJoin reports whether name is the prefixed form of a table the
// scan recorded as joined.
func (g *base) isPrefixedJoin(st *state, name string) bool {
	for joined := range st.joined {
		if g.prefixed(joined) == name {
			return true
		}
	}
	return false
}

func (st *state) isAlias(name string) bool {
	_, ok := st.aliases[name]
	return ok
}

func (st *state) isJoined(name string) bool {
	_, ok := st.joined[name]
	return ok
}

// splitJSONSelector splits "col->a->b" into "col" and ["a", "b"].
func splitJSONSelector(value string) (string, []string) {
	parts := strings.Split(value, "->")
	path := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		path = append(path, strings.Trim(p, `'"`))
	}
	return parts[0], path
}

// jsonPath renders a path as '$."a"."b"'; numeric segments become array indexes.
func jsonPath(path []string) string {
	var b strings.Builder
	b.WriteString("'$")
	for _, p := range path {
		if isIndex(p) {
			b.WriteString("[" + p + "]")
			continue
		}
		b.WriteString(`."` + strings.ReplaceAll(p, "'", "''") + `"`)
	}
	b.WriteString("'")
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (g *base) columnize(st *state, columns []interface{}) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = g.wrap(st, c)
	}
	return strings.Join(out, ", ")
}

// param returns the placeholder for v and records its binding.
func (g *base) param(st *state, v interface{}) string {
	if sql, ok := ast.ExpressionSQL(v); ok {
		return sql
	}
	st.bind(v)
	return "?"
}

func (g *base) params(st *state, values []interface{}) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = g.param(st, v)
	}
	return strings.Join(out, ", ")
}

// Wrap implements Grammar.
func (g *base) Wrap(value interface{}) string {
	return g.wrap(newState(), value)
}

// WrapTable implements Grammar.
func (g *base) WrapTable(table interface{}) string {
	return g.wrapTable(table)
}

// Parameter implements Grammar.
func (g *base) Parameter(value interface{}) string {
	if sql, ok := ast.ExpressionSQL(value); ok {
		return sql
	}
	return "?"
}

// Parameterize implements Grammar.
func (g *base) Parameterize(values []interface{}) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = g.Parameter(v)
	}
	return strings.Join(out, ", ")
}
