package builder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/cache"
	"github.com/satishbabariya/sqlkit/query/processor"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
)

// Connection executes compiled statements. Rows are returned as column-name
// maps in result order.
type Connection interface {
	Select(ctx context.Context, query string, bindings []interface{}) ([]map[string]interface{}, error)
	Exec(ctx context.Context, query string, bindings []interface{}) (sql.Result, error)
}

var _ processor.Executor = Connection(nil)

func (b *Builder) connection() (Connection, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.conn == nil {
		return nil, ErrNoConnection
	}
	return b.conn, nil
}

func (b *Builder) run(ctx context.Context, q *sqlgen.Query) ([]map[string]interface{}, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	var key string
	if b.remember != nil && b.cache != nil {
		key = cache.Key(q.SQL, q.Args)
		if rows, ok := b.cache.Get(key); ok {
			return rows, nil
		}
	}

	rows, err := conn.Select(ctx, q.SQL, q.Args)
	if err != nil {
		return nil, err
	}
	rows = b.processor.ProcessSelect(rows)
	if key != "" {
		b.cache.Set(key, b.tables(), rows, *b.remember)
	}
	return rows, nil
}

// Get executes the SELECT and returns every row.
func (b *Builder) Get(ctx context.Context) ([]map[string]interface{}, error) {
	if _, err := b.connection(); err != nil {
		return nil, err
	}
	q, err := b.Build()
	if err != nil {
		return nil, err
	}
	return b.run(ctx, q)
}

// Scan executes the SELECT and maps the rows onto dest, a pointer to a
// struct or to a slice of structs.
func (b *Builder) Scan(ctx context.Context, dest interface{}) error {
	rows, err := b.Get(ctx)
	if err != nil {
		return err
	}
	return processor.Scan(rows, dest)
}

// First returns the first row, or sql.ErrNoRows.
func (b *Builder) First(ctx context.Context) (map[string]interface{}, error) {
	rows, err := b.Clone().Limit(1).Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, sql.ErrNoRows
	}
	return rows[0], nil
}

// Value returns a single column of the first row.
func (b *Builder) Value(ctx context.Context, column string) (interface{}, error) {
	row, err := b.Clone().Select(column).First(ctx)
	if err != nil {
		return nil, err
	}
	return columnValue(row, column), nil
}

// Pluck returns a single column of every row.
func (b *Builder) Pluck(ctx context.Context, column string) ([]interface{}, error) {
	rows, err := b.Clone().Select(column).Get(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, len(rows))
	for i, row := range rows {
		out[i] = columnValue(row, column)
	}
	return out, nil
}

// columnValue finds column in row. Drivers report "users.name as n" as "n"
// and "users.name" as "name".
func columnValue(row map[string]interface{}, column string) interface{} {
	if len(row) == 1 {
		for _, v := range row {
			return v
		}
	}
	key := column
	if i := strings.LastIndex(strings.ToLower(key), " as "); i >= 0 {
		key = key[i+4:]
	} else if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[i+1:]
	}
	if v, ok := row[key]; ok {
		return v
	}
	for k, v := range row {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

// Exists reports whether the SELECT returns any row.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	if _, err := b.connection(); err != nil {
		return false, err
	}
	plan, err := b.compiledPlan()
	if err != nil {
		return false, err
	}
	q, err := b.grammar.CompileExists(plan)
	if err != nil {
		return false, err
	}
	b.log(q)
	rows, err := b.run(ctx, q)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	return truthy(columnValue(rows[0], "exists")), nil
}

// DoesntExist is the negation of Exists.
func (b *Builder) DoesntExist(ctx context.Context) (bool, error) {
	ok, err := b.Exists(ctx)
	return !ok, err
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case nil:
		return false
	}
	n, ok := processor.Normalize(v).(int64)
	return ok && n != 0
}

// Count returns the number of rows, or of non-null values of columns.
func (b *Builder) Count(ctx context.Context, columns ...interface{}) (int64, error) {
	v, err := b.aggregate(ctx, ast.Count, columns)
	if err != nil {
		return 0, err
	}
	n, ok := processor.Normalize(v).(int64)
	if !ok {
		return 0, fmt.Errorf("count: unexpected result %T", v)
	}
	return n, nil
}

// Sum returns the sum of column. A sum over no rows is nil.
func (b *Builder) Sum(ctx context.Context, column interface{}) (interface{}, error) {
	return b.aggregate(ctx, ast.Sum, []interface{}{column})
}

// Avg returns the average of column.
func (b *Builder) Avg(ctx context.Context, column interface{}) (interface{}, error) {
	return b.aggregate(ctx, ast.Avg, []interface{}{column})
}

// Min returns the minimum of column.
func (b *Builder) Min(ctx context.Context, column interface{}) (interface{}, error) {
	return b.aggregate(ctx, ast.Min, []interface{}{column})
}

// Max returns the maximum of column.
func (b *Builder) Max(ctx context.Context, column interface{}) (interface{}, error) {
	return b.aggregate(ctx, ast.Max, []interface{}{column})
}

// aggregate runs fn on a clone whose columns and orders are cleared. A
// distinct count without explicit columns counts the selected columns.
func (b *Builder) aggregate(ctx context.Context, fn ast.AggregateFunc, columns []interface{}) (interface{}, error) {
	if len(columns) == 0 && b.plan.Distinct && len(b.plan.Columns) > 0 {
		columns = b.plan.Columns
	}
	c := b.Clone()
	if !c.plan.HasUnions() {
		c.plan.Columns = nil
		c.plan.Orders = nil
	}
	c.plan.UnionOrders = nil
	c.SetAggregate(fn, columns...)

	rows, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	v := columnValue(rows[0], "aggregate")
	if raw, ok := v.([]byte); ok {
		v = string(raw)
	}
	return v, nil
}
