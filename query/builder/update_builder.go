package builder

import (
	"context"
	"fmt"
	"sort"

	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/processor"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
)

// compileWrite compiles a statement against the scoped plan.
func (b *Builder) compileWrite(compile func(*ast.Plan) (*sqlgen.Query, error)) (*sqlgen.Query, error) {
	if _, err := b.connection(); err != nil {
		return nil, err
	}
	plan, err := b.compiledPlan()
	if err != nil {
		return nil, err
	}
	q, err := compile(plan)
	if err != nil {
		return nil, err
	}
	b.log(q)
	return q, nil
}

// affecting executes q and returns the number of affected rows.
func (b *Builder) affecting(ctx context.Context, q *sqlgen.Query) (int64, error) {
	res, err := b.conn.Exec(ctx, q.SQL, q.Args)
	if err != nil {
		return 0, err
	}
	b.forget()
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Insert inserts rows. Every row must have the same columns. Inserting no
// rows is a no-op.
func (b *Builder) Insert(ctx context.Context, rows ...map[string]interface{}) error {
	if len(rows) == 0 {
		return b.err
	}
	q, err := b.compileWrite(func(p *ast.Plan) (*sqlgen.Query, error) {
		return b.grammar.CompileInsert(p, rows)
	})
	if err != nil {
		return err
	}
	if _, err := b.conn.Exec(ctx, q.SQL, q.Args); err != nil {
		return err
	}
	b.forget()
	return nil
}

// InsertStruct inserts the fields of a struct, named by their db tags.
func (b *Builder) InsertStruct(ctx context.Context, v interface{}) error {
	values, err := processor.Values(v)
	if err != nil {
		return err
	}
	return b.Insert(ctx, values)
}

// InsertGetID inserts one row and returns its generated key. sequence
// names the key column and defaults to "id".
func (b *Builder) InsertGetID(ctx context.Context, values map[string]interface{}, sequence ...string) (interface{}, error) {
	seq := firstOr(sequence, "id")
	q, err := b.compileWrite(func(p *ast.Plan) (*sqlgen.Query, error) {
		return b.grammar.CompileInsertGetID(p, values, seq)
	})
	if err != nil {
		return nil, err
	}
	id, err := b.processor.ProcessInsertGetID(ctx, b.conn, q, seq)
	if err != nil {
		return nil, err
	}
	b.forget()
	return id, nil
}

// InsertOrIgnore inserts rows, skipping those that violate a unique
// constraint, and returns the number of inserted rows.
func (b *Builder) InsertOrIgnore(ctx context.Context, rows ...map[string]interface{}) (int64, error) {
	if len(rows) == 0 {
		return 0, b.err
	}
	q, err := b.compileWrite(func(p *ast.Plan) (*sqlgen.Query, error) {
		return b.grammar.CompileInsertOrIgnore(p, rows)
	})
	if err != nil {
		return 0, err
	}
	return b.affecting(ctx, q)
}

// InsertUsing inserts the rows selected by query (a *Builder or
// func(*Builder)) into columns.
func (b *Builder) InsertUsing(ctx context.Context, columns []string, query interface{}) (int64, error) {
	source, ok := b.subquery("insertUsing", query)
	if !ok {
		return 0, b.err
	}
	q, err := b.compileWrite(func(p *ast.Plan) (*sqlgen.Query, error) {
		return b.grammar.CompileInsertUsing(p, columns, source)
	})
	if err != nil {
		return 0, err
	}
	return b.affecting(ctx, q)
}

// Upsert inserts rows and, on a uniqueBy conflict, updates the update
// columns. With no update columns every inserted column is updated.
func (b *Builder) Upsert(ctx context.Context, rows []map[string]interface{}, uniqueBy []string, update ...string) (int64, error) {
	if len(rows) == 0 {
		return 0, b.err
	}
	if len(update) == 0 {
		for k := range rows[0] {
			update = append(update, k)
		}
		sort.Strings(update)
	}
	q, err := b.compileWrite(func(p *ast.Plan) (*sqlgen.Query, error) {
		return b.grammar.CompileUpsert(p, rows, uniqueBy, update)
	})
	if err != nil {
		return 0, err
	}
	return b.affecting(ctx, q)
}

// Update sets values on the matching rows and returns the affected count.
func (b *Builder) Update(ctx context.Context, values map[string]interface{}) (int64, error) {
	q, err := b.compileWrite(func(p *ast.Plan) (*sqlgen.Query, error) {
		return b.grammar.CompileUpdate(p, values)
	})
	if err != nil {
		return 0, err
	}
	return b.affecting(ctx, q)
}

// Increment adds amount to column, also setting extra.
func (b *Builder) Increment(ctx context.Context, column string, amount interface{}, extra ...map[string]interface{}) (int64, error) {
	return b.step(ctx, "+", column, amount, extra)
}

// Decrement subtracts amount from column, also setting extra.
func (b *Builder) Decrement(ctx context.Context, column string, amount interface{}, extra ...map[string]interface{}) (int64, error) {
	return b.step(ctx, "-", column, amount, extra)
}

func (b *Builder) step(ctx context.Context, sign, column string, amount interface{}, extra []map[string]interface{}) (int64, error) {
	switch amount.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
	default:
		b.fail("increment", sqlgen.ErrInvalidValues, fmt.Sprintf("non-numeric amount %T", amount))
		return 0, b.err
	}
	values := map[string]interface{}{
		column: ast.Raw(fmt.Sprintf("%s %s %v", b.grammar.Wrap(column), sign, amount)),
	}
	for _, m := range extra {
		for k, v := range m {
			values[k] = v
		}
	}
	return b.Update(ctx, values)
}

// Delete removes the matching rows and returns the affected count.
func (b *Builder) Delete(ctx context.Context) (int64, error) {
	q, err := b.compileWrite(b.grammar.CompileDelete)
	if err != nil {
		return 0, err
	}
	return b.affecting(ctx, q)
}

// Truncate empties the table. Dialects that need several statements run
// them in sorted order.
func (b *Builder) Truncate(ctx context.Context) error {
	if _, err := b.connection(); err != nil {
		return err
	}
	plan, err := b.compiledPlan()
	if err != nil {
		return err
	}
	stmts, err := b.grammar.CompileTruncate(plan)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(stmts))
	for k := range stmts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == sqlgen.SQLiteSequenceReset {
			ok, err := b.hasSQLiteSequence(ctx)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		}
		q := &sqlgen.Query{SQL: k, Args: stmts[k]}
		b.log(q)
		if _, err := b.conn.Exec(ctx, q.SQL, q.Args); err != nil {
			return err
		}
	}
	b.forget()
	return nil
}

// hasSQLiteSequence reports whether the database has an sqlite_sequence
// table.
func (b *Builder) hasSQLiteSequence(ctx context.Context) (bool, error) {
	rows, err := b.conn.Select(ctx, "select 1 from sqlite_master where type = 'table' and name = 'sqlite_sequence'", nil)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}
