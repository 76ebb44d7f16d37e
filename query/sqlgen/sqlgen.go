// Package sqlgen compiles query plans into dialect-specific SQL.
//
// Every dialect shares one structural algorithm (see base); dialects only
// override leaf-level formatting such as identifier quoting, limit/offset,
// locking, JSON and full-text predicates.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/satishbabariya/sqlkit/query/ast"
)

// Query is a compiled statement with its positional bindings.
type Query struct {
	SQL  string
	Args []interface{}
}

// Grammar compiles query plans for one SQL dialect.
type Grammar interface {
	// Name returns the dialect name (mysql, postgres, sqlite).
	Name() string

	// CompileSelect compiles a SELECT statement.
	CompileSelect(p *ast.Plan) (*Query, error)

	// CompileExists wraps the SELECT in an exists() probe.
	CompileExists(p *ast.Plan) (*Query, error)

	// CompileInsert compiles a multi-row INSERT. Columns are emitted in sorted order.
	CompileInsert(p *ast.Plan, rows []map[string]interface{}) (*Query, error)

	// CompileInsertGetID compiles an INSERT that yields the generated key.
	CompileInsertGetID(p *ast.Plan, values map[string]interface{}, sequence string) (*Query, error)

	// CompileInsertOrIgnore compiles an INSERT that skips conflicting rows.
	CompileInsertOrIgnore(p *ast.Plan, rows []map[string]interface{}) (*Query, error)

	// CompileInsertUsing compiles INSERT ... SELECT.
	CompileInsertUsing(p *ast.Plan, columns []string, source *ast.Plan) (*Query, error)

	// CompileUpsert compiles an INSERT that updates the given columns on conflict.
	CompileUpsert(p *ast.Plan, rows []map[string]interface{}, uniqueBy, update []string) (*Query, error)

	// CompileUpdate compiles an UPDATE statement.
	CompileUpdate(p *ast.Plan, values map[string]interface{}) (*Query, error)

	// CompileDelete compiles a DELETE statement.
	CompileDelete(p *ast.Plan) (*Query, error)

	// CompileTruncate returns the statements (SQL to bindings) that empty the table.
	CompileTruncate(p *ast.Plan) (map[string][]interface{}, error)

	// CompileSavepoint returns the SQL that creates a savepoint.
	CompileSavepoint(name string) string

	// CompileSavepointRollBack returns the SQL that rolls back to a savepoint.
	CompileSavepointRollBack(name string) string

	// CompileRandom returns the random-ordering expression.
	CompileRandom(seed string) string

	// Wrap quotes a column reference, applying the table prefix to base tables.
	Wrap(value interface{}) string

	// WrapTable quotes and prefixes a table reference.
	WrapTable(table interface{}) string

	// Parameter returns the placeholder for value, or its literal SQL for expressions.
	Parameter(value interface{}) string

	// Parameterize maps Parameter over values and joins them with ", ".
	Parameterize(values []interface{}) string

	// TablePrefix returns the configured table prefix.
	TablePrefix() string

	// SetTablePrefix changes the table prefix.
	SetTablePrefix(prefix string)

	// Operators returns the comparison operators the dialect accepts.
	Operators() []string

	// SupportsSavepoints reports whether savepoints are available.
	SupportsSavepoints() bool

	// SupportsReturning reports whether INSERT ... RETURNING is available.
	SupportsReturning() bool

	// DateFormat returns the Go layout used for date bindings.
	DateFormat() string
}

// GrammarOption configures a grammar.
type GrammarOption func(*options)

type options struct {
	prefix        string
	serverVersion *version.Version
}

// WithTablePrefix sets the table prefix applied to base table references.
func WithTablePrefix(prefix string) GrammarOption {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithServerVersion records the database server version for feature gating.
// Unparseable versions are ignored.
func WithServerVersion(v string) GrammarOption {
	return func(o *options) {
		if parsed, err := version.NewVersion(v); err == nil {
			o.serverVersion = parsed
		}
	}
}

// NewGrammar returns the grammar for a driver name.
func NewGrammar(driver string, opts ...GrammarOption) (Grammar, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	switch strings.ToLower(driver) {
	case "mysql", "mariadb":
		return newMySQLGrammar(o), nil
	case "postgres", "postgresql", "pgx":
		return newPostgresGrammar(o), nil
	case "sqlite", "sqlite3":
		return newSQLiteGrammar(o), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, driver)
	}
}

// MustGrammar is like NewGrammar but panics on an unknown driver.
func MustGrammar(driver string, opts ...GrammarOption) Grammar {
	g, err := NewGrammar(driver, opts...)
	if err != nil {
		panic(err)
	}
	return g
}

// Dialects returns the supported driver names.
func Dialects() []string {
	return []string{"mysql", "mariadb", "postgres", "postgresql", "pgx", "sqlite", "sqlite3"}
}
