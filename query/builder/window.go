package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
)

// Window describes the OVER clause of a window function.
type Window struct {
	partition []string
	orders    []windowOrder
	frame     *frame
}

type windowOrder struct {
	column    string
	direction string
}

type frame struct {
	unit       string
	start, end Bound
}

// Bound is one end of a window frame.
type Bound struct {
	kind   string
	offset int
}

// UnboundedPreceding is the frame bound "unbounded preceding".
func UnboundedPreceding() Bound { return Bound{kind: "unbounded preceding"} }

// Preceding is the frame bound "n preceding".
func Preceding(n int) Bound { return Bound{kind: "preceding", offset: n} }

// CurrentRow is the frame bound "current row".
func CurrentRow() Bound { return Bound{kind: "current row"} }

// Following is the frame bound "n following".
func Following(n int) Bound { return Bound{kind: "following", offset: n} }

// UnboundedFollowing is the frame bound "unbounded following".
func UnboundedFollowing() Bound { return Bound{kind: "unbounded following"} }

func (b Bound) sql() string {
	if b.kind == "preceding" || b.kind == "following" {
		return strconv.Itoa(b.offset) + " " + b.kind
	}
	return b.kind
}

// NewWindow returns an empty window: OVER ().
func NewWindow() *Window {
	return &Window{}
}

// PartitionBy sets the PARTITION BY columns.
func (w *Window) PartitionBy(columns ...string) *Window {
	w.partition = columns
	return w
}

// OrderBy adds an ORDER BY column. Direction defaults to asc.
func (w *Window) OrderBy(column string, direction ...string) *Window {
	w.orders = append(w.orders, windowOrder{column: column, direction: firstOr(direction, "asc")})
	return w
}

// Rows sets a ROWS BETWEEN frame.
func (w *Window) Rows(start, end Bound) *Window {
	w.frame = &frame{unit: "rows", start: start, end: end}
	return w
}

// Range sets a RANGE BETWEEN frame.
func (w *Window) Range(start, end Bound) *Window {
	w.frame = &frame{unit: "range", start: start, end: end}
	return w
}

func (w *Window) compile(g sqlgen.Grammar) (string, error) {
	var parts []string
	if len(w.partition) > 0 {
		cols := make([]string, len(w.partition))
		for i, c := range w.partition {
			cols[i] = g.Wrap(c)
		}
		parts = append(parts, "partition by "+strings.Join(cols, ", "))
	}
	if len(w.orders) > 0 {
		cols := make([]string, len(w.orders))
		for i, o := range w.orders {
			dir := strings.ToLower(o.direction)
			if dir != "asc" && dir != "desc" {
				return "", sqlgen.NewError("window", sqlgen.ErrInvalidDirection, o.direction)
			}
			cols[i] = g.Wrap(o.column) + " " + dir
		}
		parts = append(parts, "order by "+strings.Join(cols, ", "))
	}
	if w.frame != nil {
		parts = append(parts, w.frame.unit+" between "+w.frame.start.sql()+" and "+w.frame.end.sql())
	}
	return "over (" + strings.Join(parts, " ") + ")", nil
}

// windowFunctions maps each supported function to its argument arity.
// -1 allows one to three arguments.
var windowFunctions = map[string]int{
	"row_number":   0,
	"rank":         0,
	"dense_rank":   0,
	"percent_rank": 0,
	"cume_dist":    0,
	"ntile":        1,
	"sum":          1,
	"avg":          1,
	"count":        1,
	"min":          1,
	"max":          1,
	"first_value":  1,
	"last_value":   1,
	"lag":          -1,
	"lead":         -1,
}

// SelectWindow adds "fn(args) over (...) as alias" to the selection.
// String arguments are wrapped as columns and integers are inlined, which
// covers the column of sum/lag/lead and the offsets of lag/lead/ntile.
// Select columns carry no bindings, so other argument types are rejected.
//
//	SelectWindow("row_number", "rn", NewWindow().PartitionBy("dept").OrderBy("salary", "desc"))
//	SelectWindow("lag", "prev", NewWindow().OrderBy("day"), "total", 1)
func (b *Builder) SelectWindow(function, alias string, w *Window, args ...interface{}) *Builder {
	fn := strings.ToLower(function)
	arity, ok := windowFunctions[fn]
	if !ok {
		return b.fail("window", sqlgen.ErrUnsupportedFeature, function)
	}
	if (arity >= 0 && len(args) != arity) || (arity < 0 && (len(args) < 1 || len(args) > 3)) {
		return b.fail("window", sqlgen.ErrInvalidArgumentCount, function)
	}
	if w == nil {
		w = NewWindow()
	}
	over, err := w.compile(b.grammar)
	if err != nil {
		b.absorb(err)
		return b
	}

	rendered := make([]string, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case int:
			rendered[i] = strconv.Itoa(v)
		case string:
			rendered[i] = b.grammar.Wrap(v)
		default:
			return b.fail("window", sqlgen.ErrInvalidValues, fmt.Sprintf("%T argument", a))
		}
	}

	sql := fn + "(" + strings.Join(rendered, ", ") + ") " + over
	if alias != "" {
		sql += " as " + b.grammar.Wrap(alias)
	}
	return b.AddSelect(ast.Raw(sql))
}
