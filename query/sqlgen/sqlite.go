package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/satishbabariya/sqlkit/query/ast"
)

// sqliteReturning is the first SQLite release with RETURNING.
var sqliteReturning = version.Must(version.NewVersion("3.35.0"))

// SQLiteGrammar compiles plans for SQLite.
type SQLiteGrammar struct {
	base
}

func newSQLiteGrammar(o *options) *SQLiteGrammar {
	g := &SQLiteGrammar{base: newBase("sqlite", `"`, o, "glob", "not glob", "regexp", "not regexp")}
	g.d = g
	return g
}

// SupportsReturning implements Grammar. It requires a known server version.
func (g *SQLiteGrammar) SupportsReturning() bool {
	return g.serverVers != nil && g.serverVers.GreaterThanOrEqual(sqliteReturning)
}

func (g *SQLiteGrammar) compileOffset(limit *int, offset int) string {
	if limit == nil {
		return "limit -1 offset " + strconv.Itoa(offset)
	}
	return "offset " + strconv.Itoa(offset)
}

// SQLite has no row locks; lock clauses compile to nothing.
func (g *SQLiteGrammar) compileLock(lock *ast.Lock) string { return "" }

func (g *SQLiteGrammar) wrapUnion(sql string) string {
	return "select * from (" + sql + ")"
}

func (g *SQLiteGrammar) compileJSONLength(st *state, w *ast.Where) (string, error) {
	field, path := g.wrapJSONField(st, w.Column)
	if len(path) > 0 {
		field += ", " + jsonPath(path)
	}
	return fmt.Sprintf("json_array_length(%s) %s %s", field, strings.ToLower(w.Operator), g.param(st, w.Value)), nil
}

var sqliteDateFormats = map[ast.WhereKind]string{
	ast.WhereDate:  "%Y-%m-%d",
	ast.WhereTime:  "%H:%M:%S",
	ast.WhereDay:   "%d",
	ast.WhereMonth: "%m",
	ast.WhereYear:  "%Y",
}

func (g *SQLiteGrammar) compileDatePart(st *state, w *ast.Where) (string, error) {
	format := sqliteDateFormats[w.Kind]
	return fmt.Sprintf("strftime('%s', %s) %s cast(%s as text)", format, g.wrap(st, w.Column), strings.ToLower(w.Operator), g.param(st, w.Value)), nil
}

// CompileInsertOrIgnore implements Grammar.
func (g *SQLiteGrammar) CompileInsertOrIgnore(p *ast.Plan, rows []map[string]interface{}) (*Query, error) {
	q, err := g.CompileInsert(p, rows)
	if err != nil {
		return nil, err
	}
	q.SQL = "insert or ignore" + strings.TrimPrefix(q.SQL, "insert")
	return q, nil
}

// CompileUpsert implements Grammar.
func (g *SQLiteGrammar) CompileUpsert(p *ast.Plan, rows []map[string]interface{}, uniqueBy, update []string) (*Query, error) {
	return g.compileOnConflictUpsert(p, rows, uniqueBy, update)
}

func (g *SQLiteGrammar) updateColumn(st *state, key string) string {
	return g.updateColumnUnqualified(key)
}

// SQLiteSequenceReset is the truncate statement that resets a table's
// autoincrement counter. sqlite_sequence only exists once some table uses
// AUTOINCREMENT, so executors must skip it when the table is missing.
const SQLiteSequenceReset = "delete from sqlite_sequence where name = ?"

// CompileTruncate implements Grammar. SQLite has no TRUNCATE; the table is
// emptied and its autoincrement sequence reset.
func (g *SQLiteGrammar) CompileTruncate(p *ast.Plan) (map[string][]interface{}, error) {
	table, err := g.requireTable("truncate", p)
	if err != nil {
		return nil, err
	}
	name, _, _ := splitAlias(fmt.Sprint(p.Table))
	return map[string][]interface{}{
		SQLiteSequenceReset:    {g.prefixed(name)},
		"delete from " + table: {},
	}, nil
}
