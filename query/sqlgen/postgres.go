package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlkit/query/ast"
)

// PostgresGrammar compiles plans for PostgreSQL.
type PostgresGrammar struct {
	base
}

func newPostgresGrammar(o *options) *PostgresGrammar {
	g := &PostgresGrammar{base: newBase("postgres", `"`, o,
		"~", "~*", "!~", "!~*", "similar to", "not similar to",
		"@>", "<@", "?", "?|", "?&", "||", "-", "@?", "@@", "#-",
		"is distinct from", "is not distinct from",
	)}
	// ? would collide with the placeholder.
	g.callOperators = map[string]string{
		"?":  "jsonb_exists",
		"?|": "jsonb_exists_any",
		"?&": "jsonb_exists_all",
	}
	g.d = g
	return g
}

// SupportsReturning implements Grammar.
func (g *PostgresGrammar) SupportsReturning() bool { return true }

func (g *PostgresGrammar) compileLock(lock *ast.Lock) string {
	if lock == nil {
		return ""
	}
	switch lock.Mode {
	case ast.LockForUpdate:
		return "for update"
	case ast.LockShared:
		return "for share"
	case ast.LockRaw:
		return lock.SQL
	}
	return ""
}

// wrapJSONSelector renders col->'a'->>'b'; the last step extracts text.
func (g *PostgresGrammar) wrapJSONSelector(field string, path []string) string {
	var b strings.Builder
	b.WriteString(field)
	for i, p := range path {
		if i == len(path)-1 {
			b.WriteString("->>")
		} else {
			b.WriteString("->")
		}
		if isIndex(p) {
			b.WriteString(p)
		} else {
			b.WriteString("'" + strings.ReplaceAll(p, "'", "''") + "'")
		}
	}
	return b.String()
}

// jsonField wraps a JSON reference keeping the final step as jsonb.
func (g *PostgresGrammar) jsonField(st *state, column interface{}) string {
	return strings.Replace(g.wrap(st, column), "->>", "->", 1)
}

func (g *PostgresGrammar) compileJSONContains(st *state, w *ast.Where, not bool) (string, error) {
	doc, err := g.jsonBinding(w.Value)
	if err != nil {
		return "", err
	}
	sql := "(" + g.jsonField(st, w.Column) + ")::jsonb @> " + g.param(st, doc)
	if not {
		sql = "not " + sql
	}
	return sql, nil
}

func (g *PostgresGrammar) compileJSONLength(st *state, w *ast.Where) (string, error) {
	return fmt.Sprintf("jsonb_array_length((%s)::jsonb) %s %s", g.jsonField(st, w.Column), strings.ToLower(w.Operator), g.param(st, w.Value)), nil
}

var postgresLanguages = map[string]bool{
	"simple": true, "arabic": true, "danish": true, "dutch": true, "english": true,
	"finnish": true, "french": true, "german": true, "hungarian": true, "indonesian": true,
	"irish": true, "italian": true, "lithuanian": true, "nepali": true, "norwegian": true,
	"portuguese": true, "romanian": true, "russian": true, "spanish": true, "swedish": true,
	"tamil": true, "turkish": true,
}

func (g *PostgresGrammar) compileFullText(st *state, w *ast.Where) (string, error) {
	language := fullTextOption(w, "language", "english")
	if !postgresLanguages[language] {
		language = "english"
	}

	vectors := make([]string, len(w.Columns))
	for i, c := range w.Columns {
		vectors[i] = fmt.Sprintf("to_tsvector('%s', %s)", language, g.wrap(st, c))
	}

	fn := "plainto_tsquery"
	switch fullTextOption(w, "mode", "plain") {
	case "phrase":
		fn = "phraseto_tsquery"
	case "websearch":
		fn = "websearch_to_tsquery"
	}

	return fmt.Sprintf("(%s) @@ %s('%s', %s)", strings.Join(vectors, " || "), fn, language, g.param(st, w.Value)), nil
}

func (g *PostgresGrammar) compileDatePart(st *state, w *ast.Where) (string, error) {
	col := g.wrap(st, w.Column)
	op := strings.ToLower(w.Operator)
	val := g.param(st, w.Value)

	switch w.Kind {
	case ast.WhereDate:
		return fmt.Sprintf("%s::date %s %s", col, op, val), nil
	case ast.WhereTime:
		return fmt.Sprintf("%s::time %s %s", col, op, val), nil
	default:
		return fmt.Sprintf("extract(%s from %s) %s %s", strings.ToLower(w.Kind.String()), col, op, val), nil
	}
}

// CompileInsertOrIgnore implements Grammar.
func (g *PostgresGrammar) CompileInsertOrIgnore(p *ast.Plan, rows []map[string]interface{}) (*Query, error) {
	q, err := g.CompileInsert(p, rows)
	if err != nil {
		return nil, err
	}
	q.SQL += " on conflict do nothing"
	return q, nil
}

// CompileUpsert implements Grammar.
func (g *PostgresGrammar) CompileUpsert(p *ast.Plan, rows []map[string]interface{}, uniqueBy, update []string) (*Query, error) {
	return g.compileOnConflictUpsert(p, rows, uniqueBy, update)
}

func (g *PostgresGrammar) updateColumn(st *state, key string) string {
	return g.updateColumnUnqualified(key)
}

// CompileTruncate implements Grammar.
func (g *PostgresGrammar) CompileTruncate(p *ast.Plan) (map[string][]interface{}, error) {
	table, err := g.requireTable("truncate", p)
	if err != nil {
		return nil, err
	}
	return map[string][]interface{}{"truncate " + table + " restart identity cascade": {}}, nil
}
