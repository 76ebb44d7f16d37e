package builder

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/satishbabariya/sqlkit/internal/placeholder"
	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
)

// operatorValue resolves the (value) / (operator, value) argument forms.
func (b *Builder) operatorValue(component string, args []interface{}) (string, interface{}, bool) {
	switch len(args) {
	case 1:
		return "=", args[0], true
	case 2:
		op, ok := args[0].(string)
		if !ok {
			b.fail(component, sqlgen.ErrInvalidOperator, fmt.Sprintf("%v", args[0]))
			return "", nil, false
		}
		if !b.validOperator(op) {
			b.fail(component, sqlgen.ErrInvalidOperator, op)
			return "", nil, false
		}
		return strings.ToLower(op), args[1], true
	default:
		b.fail(component, sqlgen.ErrInvalidArgumentCount, fmt.Sprintf("expected 1 or 2 arguments after the column, got %d", len(args)))
		return "", nil, false
	}
}

func (b *Builder) addWhere(w ast.Where) *Builder {
	b.plan.Wheres = append(b.plan.Wheres, w)
	return b
}

// Where adds a basic predicate.
//
//	Where("age", 18)       // age = ?
//	Where("age", ">", 18)  // age > ?
//
// A nil value with = or != becomes IS NULL / IS NOT NULL. A *Builder or
// func(*Builder) value compiles as a subquery.
func (b *Builder) Where(column interface{}, args ...interface{}) *Builder {
	return b.where(ast.And, column, args)
}

// OrWhere is Where joined with or.
func (b *Builder) OrWhere(column interface{}, args ...interface{}) *Builder {
	return b.where(ast.Or, column, args)
}

func (b *Builder) where(boolean string, column interface{}, args []interface{}) *Builder {
	op, value, ok := b.operatorValue("where", args)
	if !ok {
		return b
	}

	if value == nil {
		switch op {
		case "=", "is":
			return b.addWhere(ast.Where{Kind: ast.WhereNull, Boolean: boolean, Column: column})
		case "!=", "<>", "is not":
			return b.addWhere(ast.Where{Kind: ast.WhereNotNull, Boolean: boolean, Column: column})
		}
	}

	if isSubquery(value) {
		plan, ok := b.subquery("where", value)
		if !ok {
			return b
		}
		return b.addWhere(ast.Where{Kind: ast.WhereSub, Boolean: boolean, Column: column, Operator: op, Query: plan})
	}

	return b.addWhere(ast.Where{Kind: ast.WhereBasic, Boolean: boolean, Column: column, Operator: op, Value: value})
}

// WhereIn adds "column in (...)". values may be any slice, a *Builder or a func(*Builder).
func (b *Builder) WhereIn(column interface{}, values interface{}) *Builder {
	return b.whereIn(ast.And, ast.WhereIn, column, values)
}

// OrWhereIn is WhereIn joined with or.
func (b *Builder) OrWhereIn(column interface{}, values interface{}) *Builder {
	return b.whereIn(ast.Or, ast.WhereIn, column, values)
}

// WhereNotIn adds "column not in (...)".
func (b *Builder) WhereNotIn(column interface{}, values interface{}) *Builder {
	return b.whereIn(ast.And, ast.WhereNotIn, column, values)
}

// OrWhereNotIn is WhereNotIn joined with or.
func (b *Builder) OrWhereNotIn(column interface{}, values interface{}) *Builder {
	return b.whereIn(ast.Or, ast.WhereNotIn, column, values)
}

func (b *Builder) whereIn(boolean string, kind ast.WhereKind, column, values interface{}) *Builder {
	if isSubquery(values) {
		plan, ok := b.subquery("whereIn", values)
		if !ok {
			return b
		}
		return b.addWhere(ast.Where{Kind: kind, Boolean: boolean, Column: column, Query: plan})
	}

	list, ok := toSlice(values)
	if !ok {
		return b.fail("whereIn", sqlgen.ErrInvalidValues, fmt.Sprintf("%T is not a list", values))
	}
	return b.addWhere(ast.Where{Kind: kind, Boolean: boolean, Column: column, Values: list})
}

// toSlice converts any slice or array to []interface{}. nil is an empty list.
func toSlice(values interface{}) ([]interface{}, bool) {
	if values == nil {
		return []interface{}{}, true
	}
	if list, ok := values.([]interface{}); ok {
		return append([]interface{}{}, list...), true
	}
	v := reflect.ValueOf(values)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out, true
}

// WhereNull adds "column is null".
func (b *Builder) WhereNull(column interface{}) *Builder {
	return b.addWhere(ast.Where{Kind: ast.WhereNull, Boolean: ast.And, Column: column})
}

// OrWhereNull is WhereNull joined with or.
func (b *Builder) OrWhereNull(column interface{}) *Builder {
	return b.addWhere(ast.Where{Kind: ast.WhereNull, Boolean: ast.Or, Column: column})
}

// WhereNotNull adds "column is not null".
func (b *Builder) WhereNotNull(column interface{}) *Builder {
	return b.addWhere(ast.Where{Kind: ast.WhereNotNull, Boolean: ast.And, Column: column})
}

// OrWhereNotNull is WhereNotNull joined with or.
func (b *Builder) OrWhereNotNull(column interface{}) *Builder {
	return b.addWhere(ast.Where{Kind: ast.WhereNotNull, Boolean: ast.Or, Column: column})
}

// WhereBetween adds "column between low and high".
func (b *Builder) WhereBetween(column interface{}, low, high interface{}) *Builder {
	return b.addWhere(ast.Where{Kind: ast.WhereBetween, Boolean: ast.And, Column: column, Low: low, High: high})
}

// OrWhereBetween is WhereBetween joined with or.
func (b *Builder) OrWhereBetween(column interface{}, low, high interface{}) *Builder {
	return b.addWhere(ast.Where{Kind: ast.WhereBetween, Boolean: ast.Or, Column: column, Low: low, High: high})
}

// WhereNotBetween adds "column not between low and high".
func (b *Builder) WhereNotBetween(column interface{}, low, high interface{}) *Builder {
	return b.addWhere(ast.Where{Kind: ast.WhereNotBetween, Boolean: ast.And, Column: column, Low: low, High: high})
}

// OrWhereNotBetween is WhereNotBetween joined with or.
func (b *Builder) OrWhereNotBetween(column interface{}, low, high interface{}) *Builder {
	return b.addWhere(ast.Where{Kind: ast.WhereNotBetween, Boolean: ast.Or, Column: column, Low: low, High: high})
}

// WhereRaw adds a literal predicate. The number of ? must match bindings.
func (b *Builder) WhereRaw(sql string, bindings ...interface{}) *Builder {
	return b.whereRaw(ast.And, sql, bindings)
}

// OrWhereRaw is WhereRaw joined with or.
func (b *Builder) OrWhereRaw(sql string, bindings ...interface{}) *Builder {
	return b.whereRaw(ast.Or, sql, bindings)
}

func (b *Builder) whereRaw(boolean, sql string, bindings []interface{}) *Builder {
	if n := placeholder.Count(sql); n != len(bindings) {
		return b.fail("whereRaw", sqlgen.ErrBindingMismatch, fmt.Sprintf("%d placeholders, %d bindings", n, len(bindings)))
	}
	return b.addWhere(ast.Where{Kind: ast.WhereRaw, Boolean: boolean, SQL: sql, Bindings: bindings})
}

// WhereColumn compares two columns: (first, second) or (first, operator, second).
func (b *Builder) WhereColumn(first interface{}, args ...interface{}) *Builder {
	return b.whereColumn(ast.And, first, args)
}

// OrWhereColumn is WhereColumn joined with or.
func (b *Builder) OrWhereColumn(first interface{}, args ...interface{}) *Builder {
	return b.whereColumn(ast.Or, first, args)
}

func (b *Builder) whereColumn(boolean string, first interface{}, args []interface{}) *Builder {
	op, second, ok := b.operatorValue("whereColumn", args)
	if !ok {
		return b
	}
	return b.addWhere(ast.Where{Kind: ast.WhereColumn, Boolean: boolean, First: first, Operator: op, Second: second})
}

// WhereJSONContains adds a JSON containment predicate.
func (b *Builder) WhereJSONContains(column string, value interface{}) *Builder {
	return b.addWhere(ast.Where{Kind: ast.WhereJSONContains, Boolean: ast.And, Column: column, Value: value})
}

// OrWhereJSONContains is WhereJSONContains joined with or.
func (b *Builder) OrWhereJSONContains(column string, value interface{}) *Builder {
	return b.addWhere(ast.Where{Kind: ast.WhereJSONContains, Boolean: ast.Or, Column: column, Value: value})
}

// WhereJSONDoesntContain negates WhereJSONContains.
func (b *Builder) WhereJSONDoesntContain(column string, value interface{}) *Builder {
	return b.addWhere(ast.Where{Kind: ast.WhereJSONDoesntContain, Boolean: ast.And, Column: column, Value: value})
}

// OrWhereJSONDoesntContain is WhereJSONDoesntContain joined with or.
func (b *Builder) OrWhereJSONDoesntContain(column string, value interface{}) *Builder {
	return b.addWhere(ast.Where{Kind: ast.WhereJSONDoesntContain, Boolean: ast.Or, Column: column, Value: value})
}

// WhereJSONLength compares the length of a JSON array.
func (b *Builder) WhereJSONLength(column string, args ...interface{}) *Builder {
	return b.whereOp(ast.And, ast.WhereJSONLength, "whereJsonLength", column, args)
}

// OrWhereJSONLength is WhereJSONLength joined with or.
func (b *Builder) OrWhereJSONLength(column string, args ...interface{}) *Builder {
	return b.whereOp(ast.Or, ast.WhereJSONLength, "whereJsonLength", column, args)
}

// WhereFullText adds a full-text match over columns. Options are dialect
// specific: "mode" (boolean, phrase, websearch), "language", "expanded".
func (b *Builder) WhereFullText(columns []string, value interface{}, options ...map[string]interface{}) *Builder {
	return b.whereFullText(ast.And, columns, value, options)
}

// OrWhereFullText is WhereFullText joined with or.
func (b *Builder) OrWhereFullText(columns []string, value interface{}, options ...map[string]interface{}) *Builder {
	return b.whereFullText(ast.Or, columns, value, options)
}

func (b *Builder) whereFullText(boolean string, columns []string, value interface{}, options []map[string]interface{}) *Builder {
	if len(columns) == 0 {
		return b.fail("whereFullText", sqlgen.ErrInvalidValues, "no columns")
	}
	w := ast.Where{Kind: ast.WhereFullText, Boolean: boolean, Columns: append([]string(nil), columns...), Value: value}
	if len(options) > 0 {
		w.Options = options[0]
	}
	return b.addWhere(w)
}

// WhereDate compares the date part of column.
func (b *Builder) WhereDate(column string, args ...interface{}) *Builder {
	return b.whereOp(ast.And, ast.WhereDate, "whereDate", column, args)
}

// OrWhereDate is WhereDate joined with or.
func (b *Builder) OrWhereDate(column string, args ...interface{}) *Builder {
	return b.whereOp(ast.Or, ast.WhereDate, "whereDate", column, args)
}

// WhereTime compares the time part of column.
func (b *Builder) WhereTime(column string, args ...interface{}) *Builder {
	return b.whereOp(ast.And, ast.WhereTime, "whereTime", column, args)
}

// OrWhereTime is WhereTime joined with or.
func (b *Builder) OrWhereTime(column string, args ...interface{}) *Builder {
	return b.whereOp(ast.Or, ast.WhereTime, "whereTime", column, args)
}

// WhereDay compares the day of month of column.
func (b *Builder) WhereDay(column string, args ...interface{}) *Builder {
	return b.whereOp(ast.And, ast.WhereDay, "whereDay", column, args)
}

// OrWhereDay is WhereDay joined with or.
func (b *Builder) OrWhereDay(column string, args ...interface{}) *Builder {
	return b.whereOp(ast.Or, ast.WhereDay, "whereDay", column, args)
}

// WhereMonth compares the month of column.
func (b *Builder) WhereMonth(column string, args ...interface{}) *Builder {
	return b.whereOp(ast.And, ast.WhereMonth, "whereMonth", column, args)
}

// OrWhereMonth is WhereMonth joined with or.
func (b *Builder) OrWhereMonth(column string, args ...interface{}) *Builder {
	return b.whereOp(ast.Or, ast.WhereMonth, "whereMonth", column, args)
}

// WhereYear compares the year of column.
func (b *Builder) WhereYear(column string, args ...interface{}) *Builder {
	return b.whereOp(ast.And, ast.WhereYear, "whereYear", column, args)
}

// OrWhereYear is WhereYear joined with or.
func (b *Builder) OrWhereYear(column string, args ...interface{}) *Builder {
	return b.whereOp(ast.Or, ast.WhereYear, "whereYear", column, args)
}

func (b *Builder) whereOp(boolean string, kind ast.WhereKind, component string, column string, args []interface{}) *Builder {
	op, value, ok := b.operatorValue(component, args)
	if !ok {
		return b
	}
	return b.addWhere(ast.Where{Kind: kind, Boolean: boolean, Column: column, Operator: op, Value: datePartValue(kind, value)})
}

// datePartValue formats time values for the date-part predicates and pads
// day and month numbers to two digits.
func datePartValue(kind ast.WhereKind, value interface{}) interface{} {
	if t, ok := value.(time.Time); ok {
		switch kind {
		case ast.WhereDate:
			return t.Format("2006-01-02")
		case ast.WhereTime:
			return t.Format("15:04:05")
		case ast.WhereDay:
			return t.Format("02")
		case ast.WhereMonth:
			return t.Format("01")
		case ast.WhereYear:
			return t.Format("2006")
		}
		return value
	}
	if kind == ast.WhereDay || kind == ast.WhereMonth {
		switch n := value.(type) {
		case int:
			return fmt.Sprintf("%02d", n)
		case int64:
			return fmt.Sprintf("%02d", n)
		}
	}
	return value
}
