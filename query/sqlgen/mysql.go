package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/sqlkit/query/ast"
)

// MySQLGrammar compiles plans for MySQL and MariaDB.
type MySQLGrammar struct {
	base
}

func newMySQLGrammar(o *options) *MySQLGrammar {
	g := &MySQLGrammar{base: newBase("mysql", "`", o, "like binary", "rlike", "not rlike", "regexp", "not regexp", "sounds like", "<=>")}
	g.d = g
	return g
}

// CompileRandom implements Grammar.
func (g *MySQLGrammar) CompileRandom(seed string) string {
	return "RAND(" + seed + ")"
}

// mysqlMaxRows is the largest LIMIT MySQL accepts; it stands in for "no limit".
const mysqlMaxRows = "18446744073709551615"

func (g *MySQLGrammar) compileOffset(limit *int, offset int) string {
	if limit == nil {
		return "limit " + mysqlMaxRows + " offset " + strconv.Itoa(offset)
	}
	return "offset " + strconv.Itoa(offset)
}

func (g *MySQLGrammar) compileLock(lock *ast.Lock) string {
	if lock == nil {
		return ""
	}
	switch lock.Mode {
	case ast.LockForUpdate:
		return "for update"
	case ast.LockShared:
		return "lock in share mode"
	case ast.LockRaw:
		return lock.SQL
	}
	return ""
}

func (g *MySQLGrammar) wrapJSONSelector(field string, path []string) string {
	return fmt.Sprintf("json_unquote(json_extract(%s, %s))", field, jsonPath(path))
}

func (g *MySQLGrammar) compileJSONContains(st *state, w *ast.Where, not bool) (string, error) {
	doc, err := g.jsonBinding(w.Value)
	if err != nil {
		return "", err
	}
	field, path := g.wrapJSONField(st, w.Column)
	args := field + ", " + g.param(st, doc)
	if len(path) > 0 {
		args += ", " + jsonPath(path)
	}
	sql := "json_contains(" + args + ")"
	if not {
		sql = "not " + sql
	}
	return sql, nil
}

func (g *MySQLGrammar) compileJSONLength(st *state, w *ast.Where) (string, error) {
	field, path := g.wrapJSONField(st, w.Column)
	if len(path) > 0 {
		field += ", " + jsonPath(path)
	}
	return fmt.Sprintf("json_length(%s) %s %s", field, strings.ToLower(w.Operator), g.param(st, w.Value)), nil
}

func (g *MySQLGrammar) compileFullText(st *state, w *ast.Where) (string, error) {
	columns := make([]interface{}, len(w.Columns))
	for i, c := range w.Columns {
		columns[i] = c
	}

	mode := "in natural language mode"
	if fullTextOption(w, "mode", "") == "boolean" {
		mode = "in boolean mode"
	} else if expanded, _ := w.Options["expanded"].(bool); expanded {
		mode = "in natural language mode with query expansion"
	}

	return fmt.Sprintf("match (%s) against (%s %s)", g.columnize(st, columns), g.param(st, w.Value), mode), nil
}

func (g *MySQLGrammar) compileInsertEmpty(table string) string {
	return "insert into " + table + " () values ()"
}

// CompileInsertOrIgnore implements Grammar.
func (g *MySQLGrammar) CompileInsertOrIgnore(p *ast.Plan, rows []map[string]interface{}) (*Query, error) {
	q, err := g.CompileInsert(p, rows)
	if err != nil {
		return nil, err
	}
	q.SQL = "insert ignore" + strings.TrimPrefix(q.SQL, "insert")
	return q, nil
}

// CompileUpsert implements Grammar. uniqueBy is implied by the table's unique keys.
func (g *MySQLGrammar) CompileUpsert(p *ast.Plan, rows []map[string]interface{}, uniqueBy, update []string) (*Query, error) {
	if len(update) == 0 {
		return nil, g.errorf("upsert", ErrInvalidValues, "no update columns")
	}
	q, err := g.CompileInsert(p, rows)
	if err != nil {
		return nil, err
	}
	sets := make([]string, len(update))
	for i, c := range update {
		col := g.wrapValue(c)
		sets[i] = col + " = values(" + col + ")"
	}
	q.SQL += " on duplicate key update " + strings.Join(sets, ", ")
	return q, nil
}

// compileUpdateWithJoins renders "update t joins set ... where ...".
func (g *MySQLGrammar) compileUpdateWithJoins(st *state, p *ast.Plan, values map[string]interface{}) (string, error) {
	joins, err := g.compileJoins(st, p.Joins)
	if err != nil {
		return "", err
	}
	columns := g.compileUpdateColumns(st, values)
	where, err := g.compileWheres(st, p.Wheres, "where")
	if err != nil {
		return "", err
	}
	sql := fmt.Sprintf("update %s %s set %s %s", g.wrapTable(p.Table), joins, columns, where)
	return strings.TrimSpace(sql), nil
}

// compileDeleteWithJoins renders "delete alias from t joins where ...".
func (g *MySQLGrammar) compileDeleteWithJoins(st *state, p *ast.Plan) (string, error) {
	table := g.wrapTable(p.Table)
	target := table
	if name, ok := p.Table.(string); ok {
		if _, alias, found := splitAlias(name); found {
			target = g.wrapValue(alias)
		}
	}

	joins, err := g.compileJoins(st, p.Joins)
	if err != nil {
		return "", err
	}
	where, err := g.compileWheres(st, p.Wheres, "where")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(fmt.Sprintf("delete %s from %s %s %s", target, table, joins, where)), nil
}
