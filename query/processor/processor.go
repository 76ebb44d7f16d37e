// Package processor post-processes the results of executed statements.
//
// Compilation and execution are separate: a Grammar produces SQL text and a
// Processor turns what the driver returned into the values callers see.
package processor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/satishbabariya/sqlkit/query/sqlgen"
)

// ErrNoInsertID is returned when a statement produced no identifier.
var ErrNoInsertID = errors.New("sqlkit: statement returned no insert id")

// Executor runs compiled statements. The query builder's connection satisfies it.
type Executor interface {
	Select(ctx context.Context, query string, bindings []interface{}) ([]map[string]interface{}, error)
	Exec(ctx context.Context, query string, bindings []interface{}) (sql.Result, error)
}

// Processor adjusts raw results after execution.
type Processor interface {
	// ProcessSelect receives the rows of every select.
	ProcessSelect(rows []map[string]interface{}) []map[string]interface{}
	// ProcessInsertGetID executes an insert and returns the generated key.
	ProcessInsertGetID(ctx context.Context, exec Executor, q *sqlgen.Query, sequence string) (interface{}, error)
}

// Default reads generated keys through sql.Result.LastInsertId.
type Default struct{}

// ProcessSelect returns rows unchanged.
func (Default) ProcessSelect(rows []map[string]interface{}) []map[string]interface{} {
	return rows
}

// ProcessInsertGetID executes q and returns LastInsertId.
func (Default) ProcessInsertGetID(ctx context.Context, exec Executor, q *sqlgen.Query, _ string) (interface{}, error) {
	res, err := exec.Exec(ctx, q.SQL, q.Args)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Returning reads generated keys from a "returning" column. It serves
// PostgreSQL and SQLite 3.35+.
type Returning struct{}

// ProcessSelect returns rows unchanged.
func (Returning) ProcessSelect(rows []map[string]interface{}) []map[string]interface{} {
	return rows
}

// ProcessInsertGetID runs q as a query and reads sequence (default "id")
// from the first row.
func (Returning) ProcessInsertGetID(ctx context.Context, exec Executor, q *sqlgen.Query, sequence string) (interface{}, error) {
	if sequence == "" {
		sequence = "id"
	}
	rows, err := exec.Select(ctx, q.SQL, q.Args)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoInsertID
	}
	v, ok := lookup(rows[0], sequence)
	if !ok {
		return nil, fmt.Errorf("%w: column %q missing", ErrNoInsertID, sequence)
	}
	return Normalize(v), nil
}

func lookup(row map[string]interface{}, column string) (interface{}, bool) {
	if v, ok := row[column]; ok {
		return v, true
	}
	for k, v := range row {
		if strings.EqualFold(k, column) {
			return v, true
		}
	}
	return nil, false
}

// For returns the processor matching grammar.
func For(grammar sqlgen.Grammar) Processor {
	if grammar != nil && grammar.SupportsReturning() {
		return Returning{}
	}
	return Default{}
}

// Normalize converts integral numeric values to int64. Integers of every
// width, floats without a fractional part, and numeric strings or byte
// slices are converted; anything else is returned unchanged.
func Normalize(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint:
		return normalizeUint(uint64(n), v)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return normalizeUint(n, v)
	case float32:
		return normalizeFloat(float64(n), v)
	case float64:
		return normalizeFloat(n, v)
	case string:
		return normalizeString(n, v)
	case []byte:
		return normalizeString(string(n), v)
	}
	return v
}

func normalizeUint(n uint64, orig interface{}) interface{} {
	if n > math.MaxInt64 {
		return orig
	}
	return int64(n)
}

func normalizeFloat(f float64, orig interface{}) interface{} {
	if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return orig
	}
	return int64(f)
}

func normalizeString(s string, orig interface{}) interface{} {
	if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return i
	}
	return orig
}
