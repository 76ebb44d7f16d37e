package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/satishbabariya/sqlkit/query/builder"
)

// ErrSavepointsUnsupported is returned by a nested Transaction when the
// grammar has no savepoints.
var ErrSavepointsUnsupported = errors.New("sqlkit: savepoints are not supported")

// IsolationLevel represents transaction isolation levels.
type IsolationLevel int

const (
	// ReadUncommitted allows dirty reads.
	ReadUncommitted IsolationLevel = iota
	// ReadCommitted prevents dirty reads.
	ReadCommitted
	// RepeatableRead prevents dirty and non-repeatable reads.
	RepeatableRead
	// Serializable prevents dirty reads, non-repeatable reads and phantom reads.
	Serializable
)

// SQL converts the level to its database/sql value.
func (level IsolationLevel) SQL() sql.IsolationLevel {
	switch level {
	case ReadUncommitted:
		return sql.LevelReadUncommitted
	case RepeatableRead:
		return sql.LevelRepeatableRead
	case Serializable:
		return sql.LevelSerializable
	default:
		return sql.LevelReadCommitted
	}
}

// NewTxOptions builds sql.TxOptions from an isolation level.
func NewTxOptions(isolation IsolationLevel, readOnly bool) *sql.TxOptions {
	return &sql.TxOptions{Isolation: isolation.SQL(), ReadOnly: readOnly}
}

// Tx is a running transaction. It is a builder Connection, so builders from
// Tx.Table run inside the transaction.
type Tx struct {
	*core
	tx *sql.Tx

	mu    sync.Mutex
	level int
}

// TxFunc runs inside a transaction. Returning an error rolls it back.
type TxFunc func(tx *Tx) error

// Transaction runs fn in a transaction, committing when fn returns nil and
// rolling back on error or panic.
func (c *Client) Transaction(ctx context.Context, fn TxFunc) error {
	return c.TransactionWithOptions(ctx, nil, fn)
}

// TransactionWithIsolation runs fn at the given isolation level.
func (c *Client) TransactionWithIsolation(ctx context.Context, isolation IsolationLevel, fn TxFunc) error {
	return c.TransactionWithOptions(ctx, NewTxOptions(isolation, false), fn)
}

// TransactionWithOptions runs fn in a transaction started with opts.
func (c *Client) TransactionWithOptions(ctx context.Context, opts *sql.TxOptions, fn TxFunc) error {
	sqlTx, err := c.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	tx := &Tx{core: c.core, tx: sqlTx, level: 1}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	if c.cache != nil {
		c.cache.Clear()
	}
	return nil
}

// Transaction runs fn inside a savepoint. An error from fn rolls back to
// the savepoint and leaves the outer transaction usable.
func (tx *Tx) Transaction(ctx context.Context, fn TxFunc) error {
	if !tx.grammar.SupportsSavepoints() {
		return ErrSavepointsUnsupported
	}

	tx.mu.Lock()
	tx.level++
	name := fmt.Sprintf("trans%d", tx.level)
	tx.mu.Unlock()
	defer func() {
		tx.mu.Lock()
		tx.level--
		tx.mu.Unlock()
	}()

	if _, err := tx.Exec(ctx, tx.grammar.CompileSavepoint(name), nil); err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_, _ = tx.Exec(ctx, tx.grammar.CompileSavepointRollBack(name), nil)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if _, rbErr := tx.Exec(ctx, tx.grammar.CompileSavepointRollBack(name), nil); rbErr != nil {
			return fmt.Errorf("%w (rollback to %s: %v)", err, name, rbErr)
		}
		return err
	}
	return nil
}

// Level returns the nesting depth: 1 for the outer transaction.
func (tx *Tx) Level() int {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.level
}

// Query returns a builder bound to the transaction.
func (tx *Tx) Query() *builder.Builder {
	return tx.newBuilder(tx)
}

// Table returns a builder for table bound to the transaction.
func (tx *Tx) Table(table string, alias ...string) *builder.Builder {
	return tx.Query().From(table, alias...)
}

// Select runs a query inside the transaction.
func (tx *Tx) Select(ctx context.Context, query string, bindings []interface{}) ([]map[string]interface{}, error) {
	return tx.selectRows(ctx, tx.tx, true, query, bindings)
}

// Exec runs a statement inside the transaction.
func (tx *Tx) Exec(ctx context.Context, query string, bindings []interface{}) (sql.Result, error) {
	return tx.exec(ctx, tx.tx, true, query, bindings)
}
