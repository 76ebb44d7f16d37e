// Package sqlgen provides WHERE predicate compilers.
package sqlgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlkit/query/ast"
)

type whereCompiler func(g *base, st *state, w *ast.Where) (string, error)

// whereCompilers is indexed by ast.WhereKind. Filled in init because the
// nested and subquery compilers refer back to the table.
var whereCompilers [ast.WhereKindCount]whereCompiler

func init() {
	whereCompilers = [ast.WhereKindCount]whereCompiler{
		ast.WhereBasic:             (*base).whereBasic,
		ast.WhereIn:                (*base).whereIn,
		ast.WhereNotIn:             (*base).whereNotIn,
		ast.WhereNull:              (*base).whereNull,
		ast.WhereNotNull:           (*base).whereNotNull,
		ast.WhereBetween:           (*base).whereBetween,
		ast.WhereNotBetween:        (*base).whereBetween,
		ast.WhereRaw:               (*base).whereRaw,
		ast.WhereExists:            (*base).whereExists,
		ast.WhereNotExists:         (*base).whereExists,
		ast.WhereNested:            (*base).whereNested,
		ast.WhereColumn:            (*base).whereColumn,
		ast.WhereSub:               (*base).whereSub,
		ast.WhereJSONContains:      (*base).whereJSONContains,
		ast.WhereJSONDoesntContain: (*base).whereJSONContains,
		ast.WhereJSONLength:        (*base).whereJSONLength,
		ast.WhereFullText:          (*base).whereFullText,
		ast.WhereDate:              (*base).whereDatePart,
		ast.WhereTime:              (*base).whereDatePart,
		ast.WhereDay:               (*base).whereDatePart,
		ast.WhereMonth:             (*base).whereDatePart,
		ast.WhereYear:              (*base).whereDatePart,
	}
}

func (g *base) operator(component, op string) (string, error) {
	if !g.validOperator(op) {
		return "", g.errorf(component, ErrInvalidOperator, "%q", op)
	}
	return strings.ToLower(op), nil
}

// scalarOperator is operator for predicates whose left side is not a
// column, where function-style operators make no sense.
func (g *base) scalarOperator(component, op string) (string, error) {
	op, err := g.operator(component, op)
	if err != nil {
		return "", err
	}
	if _, ok := g.callOperators[op]; ok {
		return "", g.errorf(component, ErrInvalidOperator, "%q", op)
	}
	return op, nil
}

// comparison renders left op right, or fn(left, right) for operators the
// dialect spells as a function call.
func (g *base) comparison(left, op, right string) string {
	if fn, ok := g.callOperators[op]; ok {
		return fn + "(" + left + ", " + right + ")"
	}
	return left + " " + op + " " + right
}

func (g *base) whereBasic(st *state, w *ast.Where) (string, error) {
	op, err := g.operator("where", w.Operator)
	if err != nil {
		return "", err
	}
	return g.comparison(g.wrap(st, w.Column), op, g.param(st, w.Value)), nil
}

func (g *base) whereIn(st *state, w *ast.Where) (string, error) {
	if w.Query != nil {
		sub, err := g.compileSelect(st.child(), w.Query)
		if err != nil {
			return "", err
		}
		return g.wrap(st, w.Column) + " in (" + sub + ")", nil
	}
	if len(w.Values) == 0 {
		return "0 = 1", nil
	}
	return g.wrap(st, w.Column) + " in (" + g.params(st, w.Values) + ")", nil
}

func (g *base) whereNotIn(st *state, w *ast.Where) (string, error) {
	if w.Query != nil {
		sub, err := g.compileSelect(st.child(), w.Query)
		if err != nil {
			return "", err
		}
		return g.wrap(st, w.Column) + " not in (" + sub + ")", nil
	}
	if len(w.Values) == 0 {
		return "1 = 1", nil
	}
	return g.wrap(st, w.Column) + " not in (" + g.params(st, w.Values) + ")", nil
}

func (g *base) whereNull(st *state, w *ast.Where) (string, error) {
	return g.wrap(st, w.Column) + " is null", nil
}

func (g *base) whereNotNull(st *state, w *ast.Where) (string, error) {
	return g.wrap(st, w.Column) + " is not null", nil
}

func (g *base) whereBetween(st *state, w *ast.Where) (string, error) {
	kw := "between"
	if w.Kind == ast.WhereNotBetween {
		kw = "not between"
	}
	col := g.wrap(st, w.Column)
	low := g.param(st, w.Low)
	high := g.param(st, w.High)
	return fmt.Sprintf("%s %s %s and %s", col, kw, low, high), nil
}

func (g *base) whereRaw(st *state, w *ast.Where) (string, error) {
	if err := g.checkBindings("whereRaw", w.SQL, w.Bindings); err != nil {
		return "", err
	}
	st.bind(w.Bindings...)
	return w.SQL, nil
}

func (g *base) whereExists(st *state, w *ast.Where) (string, error) {
	if w.Query == nil {
		return "", g.errorf("whereExists", ErrInvalidValues, "no subquery")
	}
	sub, err := g.compileSelect(st.child(), w.Query)
	if err != nil {
		return "", err
	}
	if w.Kind == ast.WhereNotExists {
		return "not exists (" + sub + ")", nil
	}
	return "exists (" + sub + ")", nil
}

// whereNested compiles the child plan's wheres in the parent's context and
// strips the leading "where ".
func (g *base) whereNested(st *state, w *ast.Where) (string, error) {
	if w.Query == nil {
		return "", nil
	}
	sql, err := g.compileWheres(st, w.Query.Wheres, "where")
	if err != nil || sql == "" {
		return "", err
	}
	return "(" + sql[6:] + ")", nil
}

func (g *base) whereColumn(st *state, w *ast.Where) (string, error) {
	op, err := g.operator("whereColumn", w.Operator)
	if err != nil {
		return "", err
	}
	return g.comparison(g.wrap(st, w.First), op, g.wrap(st, w.Second)), nil
}

func (g *base) whereSub(st *state, w *ast.Where) (string, error) {
	op, err := g.operator("whereSub", w.Operator)
	if err != nil {
		return "", err
	}
	if w.Query == nil {
		return "", g.errorf("whereSub", ErrInvalidValues, "no subquery")
	}
	col := g.wrap(st, w.Column)
	sub, err := g.compileSelect(st.child(), w.Query)
	if err != nil {
		return "", err
	}
	return g.comparison(col, op, "("+sub+")"), nil
}

func (g *base) whereJSONContains(st *state, w *ast.Where) (string, error) {
	return g.d.compileJSONContains(st, w, w.Kind == ast.WhereJSONDoesntContain)
}

func (g *base) whereJSONLength(st *state, w *ast.Where) (string, error) {
	if _, err := g.scalarOperator("whereJsonLength", w.Operator); err != nil {
		return "", err
	}
	return g.d.compileJSONLength(st, w)
}

func (g *base) whereFullText(st *state, w *ast.Where) (string, error) {
	if len(w.Columns) == 0 {
		return "", g.errorf("whereFullText", ErrInvalidValues, "no columns")
	}
	return g.d.compileFullText(st, w)
}

func (g *base) whereDatePart(st *state, w *ast.Where) (string, error) {
	if _, err := g.scalarOperator("where"+w.Kind.String(), w.Operator); err != nil {
		return "", err
	}
	return g.d.compileDatePart(st, w)
}

// Dialect defaults.

func (g *base) compileJSONContains(st *state, w *ast.Where, not bool) (string, error) {
	return "", g.errorf("whereJsonContains", ErrUnsupportedFeature, "")
}

func (g *base) compileJSONLength(st *state, w *ast.Where) (string, error) {
	return "", g.errorf("whereJsonLength", ErrUnsupportedFeature, "")
}

func (g *base) compileFullText(st *state, w *ast.Where) (string, error) {
	return "", g.errorf("whereFullText", ErrUnsupportedFeature, "")
}

// compileDatePart renders date(col), time(col), day(col), month(col) or year(col).
func (g *base) compileDatePart(st *state, w *ast.Where) (string, error) {
	fn := strings.ToLower(w.Kind.String())
	return fmt.Sprintf("%s(%s) %s %s", fn, g.wrap(st, w.Column), strings.ToLower(w.Operator), g.param(st, w.Value)), nil
}

// wrapJSONField splits a "col->a->b" reference into the wrapped column and its path.
func (g *base) wrapJSONField(st *state, column interface{}) (string, []string) {
	if _, ok := ast.ExpressionSQL(column); ok {
		return g.wrap(st, column), nil
	}
	field, path := splitJSONSelector(fmt.Sprint(column))
	return g.wrap(st, field), path
}

// fullTextOption reads a string option with a default.
func fullTextOption(w *ast.Where, key, def string) string {
	if v, ok := w.Options[key].(string); ok && v != "" {
		return v
	}
	return def
}

// jsonBinding encodes v as a JSON document for containment checks.
func (g *base) jsonBinding(v interface{}) (interface{}, error) {
	if ast.IsExpression(v) {
		return v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, g.errorf("whereJsonContains", ErrInvalidValues, "%v", err)
	}
	return string(b), nil
}
