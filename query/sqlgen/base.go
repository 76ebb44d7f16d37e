package sqlgen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/satishbabariya/sqlkit/query/ast"
)

// dialect is the set of leaf-level hooks a grammar overrides.
// base provides defaults for all of them.
type dialect interface {
	compileOffset(limit *int, offset int) string
	compileLock(lock *ast.Lock) string
	wrapUnion(sql string) string
	wrapJSONSelector(field string, path []string) string

	compileJSONContains(st *state, w *ast.Where, not bool) (string, error)
	compileJSONLength(st *state, w *ast.Where) (string, error)
	compileFullText(st *state, w *ast.Where) (string, error)
	compileDatePart(st *state, w *ast.Where) (string, error)

	compileInsertEmpty(table string) string
	compileUpdateWithJoins(st *state, p *ast.Plan, values map[string]interface{}) (string, error)
	compileDeleteWithJoins(st *state, p *ast.Plan) (string, error)
	updateColumn(st *state, key string) string

	SupportsReturning() bool
}

var baseOperators = []string{
	"=", "<", ">", "<=", ">=", "<>", "!=",
	"like", "not like", "between", "ilike", "not ilike",
	"&", "|", "^", "<<", ">>", "&~",
	"is", "is not",
}

// base implements the structural compiler shared by every dialect.
type base struct {
	name       string
	quote      string
	prefix     string
	operators  []string
	serverVers *version.Version

	// callOperators are operators the dialect renders as fn(left, right).
	callOperators map[string]string

	// d is the outermost grammar so overridden hooks are dispatched.
	d dialect
}

func newBase(name, quote string, o *options, extraOperators ...string) base {
	ops := make([]string, 0, len(baseOperators)+len(extraOperators))
	ops = append(ops, baseOperators...)
	ops = append(ops, extraOperators...)
	return base{
		name:       name,
		quote:      quote,
		prefix:     o.prefix,
		operators:  ops,
		serverVers: o.serverVersion,
	}
}

// Name implements Grammar.
func (g *base) Name() string { return g.name }

// TablePrefix implements Grammar.
func (g *base) TablePrefix() string { return g.prefix }

// SetTablePrefix implements Grammar.
func (g *base) SetTablePrefix(prefix string) { g.prefix = prefix }

// Operators implements Grammar.
func (g *base) Operators() []string {
	out := make([]string, len(g.operators))
	copy(out, g.operators)
	return out
}

// SupportsSavepoints implements Grammar.
func (g *base) SupportsSavepoints() bool { return true }

// SupportsReturning implements Grammar.
func (g *base) SupportsReturning() bool { return false }

// DateFormat implements Grammar.
func (g *base) DateFormat() string { return "2006-01-02 15:04:05" }

// CompileRandom implements Grammar.
func (g *base) CompileRandom(seed string) string { return "RANDOM()" }

// CompileSavepoint implements Grammar.
func (g *base) CompileSavepoint(name string) string {
	return "SAVEPOINT " + name
}

// CompileSavepointRollBack implements Grammar.
func (g *base) CompileSavepointRollBack(name string) string {
	return "ROLLBACK TO SAVEPOINT " + name
}

func (g *base) validOperator(op string) bool {
	op = strings.ToLower(op)
	for _, o := range g.operators {
		if o == op {
			return true
		}
	}
	return false
}

// CompileSelect implements Grammar.
func (g *base) CompileSelect(p *ast.Plan) (*Query, error) {
	st := newState()
	sql, err := g.compileSelect(st, p)
	if err != nil {
		return nil, err
	}
	return &Query{SQL: sql, Args: st.args()}, nil
}

func (g *base) compileSelect(st *state, p *ast.Plan) (string, error) {
	if len(p.CTEs) > 0 {
		return g.compileWith(st, p)
	}
	st.scan(p)

	if p.HasUnions() && p.Aggregate != nil {
		return g.compileUnionAggregate(st, p)
	}

	var parts []string
	add := func(sql string, err error) error {
		if err != nil {
			return err
		}
		if sql != "" {
			parts = append(parts, sql)
		}
		return nil
	}

	components := []func() (string, error){
		func() (string, error) { return g.compileAggregate(st, p) },
		func() (string, error) { return g.compileColumns(st, p), nil },
		func() (string, error) { return g.compileFrom(p), nil },
		func() (string, error) { return g.compileJoins(st, p.Joins) },
		func() (string, error) { return g.compileWheres(st, p.Wheres, "where") },
		func() (string, error) { return g.compileGroups(st, p.Groups), nil },
		func() (string, error) { return g.compileHavings(st, p.Havings, "having") },
		func() (string, error) { return g.compileOrders(st, p.Orders) },
		func() (string, error) { return g.compileLimit(p.Limit), nil },
		func() (string, error) { return g.offsetClause(p.Limit, p.Offset), nil },
	}
	for _, c := range components {
		if err := add(c()); err != nil {
			return "", err
		}
	}

	sql := strings.Join(parts, " ")
	if p.HasUnions() {
		unions, err := g.compileUnions(st, p)
		if err != nil {
			return "", err
		}
		sql = g.d.wrapUnion(sql) + " " + unions
	}
	if lock := g.d.compileLock(p.Lock); lock != "" {
		sql += " " + lock
	}
	return strings.TrimSpace(sql), nil
}

// compileWith emits the WITH clause ahead of the select it prefixes.
func (g *base) compileWith(st *state, p *ast.Plan) (string, error) {
	recursive := false
	parts := make([]string, len(p.CTEs))
	for i, cte := range p.CTEs {
		if cte.Name == "" || cte.Query == nil {
			return "", g.errorf("with", ErrInvalidValues, "cte needs a name and a query")
		}
		recursive = recursive || cte.Recursive
		inner, err := g.compileSelect(st.child(), cte.Query)
		if err != nil {
			return "", err
		}
		name := g.wrapTable(cte.Name)
		if len(cte.Columns) > 0 {
			name += " (" + g.wrapColumns(cte.Columns) + ")"
		}
		parts[i] = name + " as (" + inner + ")"
	}

	main := *p
	main.CTEs = nil
	sql, err := g.compileSelect(st, &main)
	if err != nil {
		return "", err
	}
	keyword := "with "
	if recursive {
		keyword = "with recursive "
	}
	return keyword + strings.Join(parts, ", ") + " " + sql, nil
}

func (g *base) compileColumns(st *state, p *ast.Plan) string {
	if p.Aggregate != nil {
		return ""
	}
	sel := "select "
	if p.Distinct {
		sel = "select distinct "
	}
	if len(p.Columns) == 0 {
		return sel + "*"
	}
	return sel + g.columnize(st, p.Columns)
}

func (g *base) compileFrom(p *ast.Plan) string {
	if p.Table == nil {
		return ""
	}
	return "from " + g.wrapTable(p.Table)
}

func (g *base) compileGroups(st *state, groups []interface{}) string {
	if len(groups) == 0 {
		return ""
	}
	return "group by " + g.columnize(st, groups)
}

func (g *base) compileOrders(st *state, orders []ast.Order) (string, error) {
	if len(orders) == 0 {
		return "", nil
	}
	out := make([]string, len(orders))
	for i, o := range orders {
		if o.IsRaw() {
			if err := g.checkBindings("orderByRaw", o.SQL, o.Bindings); err != nil {
				return "", err
			}
			st.bind(o.Bindings...)
			out[i] = o.SQL
			continue
		}
		dir := strings.ToLower(o.Direction)
		if dir == "" {
			dir = "asc"
		}
		if dir != "asc" && dir != "desc" {
			return "", g.errorf("orderBy", ErrInvalidDirection, "%q", o.Direction)
		}
		out[i] = g.wrap(st, o.Column) + " " + dir
	}
	return "order by " + strings.Join(out, ", "), nil
}

func (g *base) compileLimit(limit *int) string {
	if limit == nil {
		return ""
	}
	return "limit " + strconv.Itoa(*limit)
}

func (g *base) offsetClause(limit, offset *int) string {
	if offset == nil {
		return ""
	}
	return g.d.compileOffset(limit, *offset)
}

func (g *base) compileUnions(st *state, p *ast.Plan) (string, error) {
	var parts []string
	for _, u := range p.Unions {
		sql, err := g.compileSelect(st.child(), u.Query)
		if err != nil {
			return "", err
		}
		kw := "union "
		if u.All {
			kw = "union all "
		}
		parts = append(parts, kw+g.d.wrapUnion(sql))
	}

	orders, err := g.compileOrders(st, p.UnionOrders)
	if err != nil {
		return "", err
	}
	for _, s := range []string{orders, g.compileLimit(p.UnionLimit), g.offsetClause(p.UnionLimit, p.UnionOffset)} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}

// CompileExists implements Grammar.
func (g *base) CompileExists(p *ast.Plan) (*Query, error) {
	st := newState()
	sql, err := g.compileSelect(st, p)
	if err != nil {
		return nil, err
	}
	return &Query{
		SQL:  fmt.Sprintf("select exists(%s) as %s", sql, g.wrapValue("exists")),
		Args: st.args(),
	}, nil
}

func (g *base) requireTable(component string, p *ast.Plan) (string, error) {
	if p == nil || p.Table == nil {
		return "", g.errorf(component, ErrMissingTable, "no table set")
	}
	return g.wrapTable(p.Table), nil
}

// insertColumns returns the sorted column set shared by every row.
func (g *base) insertColumns(component string, rows []map[string]interface{}) ([]string, error) {
	columns := sortedKeys(rows[0])
	for i, row := range rows[1:] {
		if len(row) != len(columns) {
			return nil, g.errorf(component, ErrInvalidValues, "row %d has a different column set", i+1)
		}
		for _, c := range columns {
			if _, ok := row[c]; !ok {
				return nil, g.errorf(component, ErrInvalidValues, "row %d is missing column %q", i+1, c)
			}
		}
	}
	return columns, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (g *base) wrapColumns(columns []string) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = g.wrapValue(c)
	}
	return strings.Join(out, ", ")
}

// CompileInsert implements Grammar.
func (g *base) CompileInsert(p *ast.Plan, rows []map[string]interface{}) (*Query, error) {
	table, err := g.requireTable("insert", p)
	if err != nil {
		return nil, err
	}
	st := newState()
	if len(rows) == 0 || (len(rows) == 1 && len(rows[0]) == 0) {
		return &Query{SQL: g.d.compileInsertEmpty(table), Args: st.args()}, nil
	}

	columns, err := g.insertColumns("insert", rows)
	if err != nil {
		return nil, err
	}

	values := make([]string, len(rows))
	for i, row := range rows {
		ordered := make([]interface{}, len(columns))
		for j, c := range columns {
			ordered[j] = row[c]
		}
		values[i] = "(" + g.params(st, ordered) + ")"
	}

	sql := fmt.Sprintf("insert into %s (%s) values %s", table, g.wrapColumns(columns), strings.Join(values, ", "))
	return &Query{SQL: sql, Args: st.args()}, nil
}

func (g *base) compileInsertEmpty(table string) string {
	return "insert into " + table + " default values"
}

// CompileInsertGetID implements Grammar.
func (g *base) CompileInsertGetID(p *ast.Plan, values map[string]interface{}, sequence string) (*Query, error) {
	q, err := g.CompileInsert(p, []map[string]interface{}{values})
	if err != nil {
		return nil, err
	}
	if g.d.SupportsReturning() {
		if sequence == "" {
			sequence = "id"
		}
		q.SQL += " returning " + g.wrapValue(sequence)
	}
	return q, nil
}

// CompileInsertOrIgnore implements Grammar.
func (g *base) CompileInsertOrIgnore(p *ast.Plan, rows []map[string]interface{}) (*Query, error) {
	return nil, g.errorf("insertOrIgnore", ErrUnsupportedFeature, "")
}

// CompileUpsert implements Grammar.
func (g *base) CompileUpsert(p *ast.Plan, rows []map[string]interface{}, uniqueBy, update []string) (*Query, error) {
	return nil, g.errorf("upsert", ErrUnsupportedFeature, "")
}

// compileOnConflictUpsert is the "on conflict ... do update" form shared by
// PostgreSQL and SQLite.
func (g *base) compileOnConflictUpsert(p *ast.Plan, rows []map[string]interface{}, uniqueBy, update []string) (*Query, error) {
	if len(uniqueBy) == 0 {
		return nil, g.errorf("upsert", ErrInvalidValues, "no conflict columns")
	}
	if len(update) == 0 {
		return nil, g.errorf("upsert", ErrInvalidValues, "no update columns")
	}
	q, err := g.CompileInsert(p, rows)
	if err != nil {
		return nil, err
	}
	sets := make([]string, len(update))
	for i, c := range update {
		sets[i] = g.wrapValue(c) + " = " + g.wrapValue("excluded") + "." + g.wrapValue(c)
	}
	q.SQL += fmt.Sprintf(" on conflict (%s) do update set %s", g.wrapColumns(uniqueBy), strings.Join(sets, ", "))
	return q, nil
}

// CompileInsertUsing implements Grammar.
func (g *base) CompileInsertUsing(p *ast.Plan, columns []string, source *ast.Plan) (*Query, error) {
	table, err := g.requireTable("insertUsing", p)
	if err != nil {
		return nil, err
	}
	st := newState()
	sel, err := g.compileSelect(st, source)
	if err != nil {
		return nil, err
	}
	sql := "insert into " + table
	if len(columns) > 0 {
		sql += " (" + g.wrapColumns(columns) + ")"
	}
	return &Query{SQL: sql + " " + sel, Args: st.args()}, nil
}

// CompileUpdate implements Grammar.
func (g *base) CompileUpdate(p *ast.Plan, values map[string]interface{}) (*Query, error) {
	table, err := g.requireTable("update", p)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, g.errorf("update", ErrInvalidValues, "no values")
	}

	st := newState()
	st.scan(p)

	if len(p.Joins) > 0 {
		sql, err := g.d.compileUpdateWithJoins(st, p, values)
		if err != nil {
			return nil, err
		}
		return &Query{SQL: sql, Args: st.args()}, nil
	}

	columns := g.compileUpdateColumns(st, values)
	where, err := g.compileWheres(st, p.Wheres, "where")
	if err != nil {
		return nil, err
	}
	sql := strings.TrimSpace(fmt.Sprintf("update %s set %s %s", table, columns, where))
	return &Query{SQL: sql, Args: st.args()}, nil
}

func (g *base) compileUpdateColumns(st *state, values map[string]interface{}) string {
	keys := sortedKeys(values)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = g.d.updateColumn(st, k) + " = " + g.param(st, values[k])
	}
	return strings.Join(out, ", ")
}

func (g *base) updateColumn(st *state, key string) string {
	return g.wrap(st, key)
}

// updateColumnUnqualified drops any table qualifier from key.
func (g *base) updateColumnUnqualified(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[i+1:]
	}
	return g.wrapValue(key)
}

func (g *base) compileUpdateWithJoins(st *state, p *ast.Plan, values map[string]interface{}) (string, error) {
	return "", g.errorf("update", ErrUnsupportedFeature, "joins are not supported")
}

// CompileDelete implements Grammar.
func (g *base) CompileDelete(p *ast.Plan) (*Query, error) {
	table, err := g.requireTable("delete", p)
	if err != nil {
		return nil, err
	}
	st := newState()
	st.scan(p)

	if len(p.Joins) > 0 {
		sql, err := g.d.compileDeleteWithJoins(st, p)
		if err != nil {
			return nil, err
		}
		return &Query{SQL: sql, Args: st.args()}, nil
	}

	where, err := g.compileWheres(st, p.Wheres, "where")
	if err != nil {
		return nil, err
	}
	sql := strings.TrimSpace("delete from " + table + " " + where)
	return &Query{SQL: sql, Args: st.args()}, nil
}

func (g *base) compileDeleteWithJoins(st *state, p *ast.Plan) (string, error) {
	return "", g.errorf("delete", ErrUnsupportedFeature, "joins are not supported")
}

// CompileTruncate implements Grammar.
func (g *base) CompileTruncate(p *ast.Plan) (map[string][]interface{}, error) {
	table, err := g.requireTable("truncate", p)
	if err != nil {
		return nil, err
	}
	return map[string][]interface{}{"truncate table " + table: {}}, nil
}

func (g *base) compileLock(lock *ast.Lock) string { return "" }

func (g *base) wrapUnion(sql string) string { return "(" + sql + ")" }

func (g *base) compileOffset(limit *int, offset int) string {
	return "offset " + strconv.Itoa(offset)
}

func (g *base) wrapJSONSelector(field string, path []string) string {
	return fmt.Sprintf("json_extract(%s, %s)", field, jsonPath(path))
}
