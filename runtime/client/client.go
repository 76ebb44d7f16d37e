// Package client connects the query builder to a database/sql handle.
//
// A Client is the builder's Connection: it owns the *sql.DB, the active
// Grammar, the middleware chain and the query log. Compiled statements keep
// ? placeholders; the client rewrites them to $n for PostgreSQL drivers just
// before they reach the driver.
package client

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver (pgx)
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver (cgo)
	_ "modernc.org/sqlite"             // SQLite driver (pure Go)

	"github.com/satishbabariya/sqlkit/internal/debug"
	"github.com/satishbabariya/sqlkit/query/builder"
	"github.com/satishbabariya/sqlkit/query/cache"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
)

// driverNames maps accepted driver names to registered database/sql drivers.
var driverNames = map[string]string{
	"mysql":      "mysql",
	"mariadb":    "mysql",
	"postgres":   "postgres",
	"postgresql": "postgres",
	"pgx":        "pgx",
	"sqlite3":    "sqlite3",
	"sqlite":     "sqlite",
}

// SQLDriver returns the database/sql driver registered for name.
func SQLDriver(name string) (string, error) {
	d, ok := driverNames[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("%w: %q", sqlgen.ErrUnknownDialect, name)
	}
	return d, nil
}

// Drivers returns the accepted driver names, sorted.
func Drivers() []string {
	names := make([]string, 0, len(driverNames))
	for n := range driverNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Option configures a Client.
type Option func(*settings)

type settings struct {
	grammarOpts []sqlgen.GrammarOption
	logger      *slog.Logger
	registry    *builder.Registry
	middlewares []Middleware
	cache       cache.Cache
}

// WithTablePrefix sets the table prefix of the client's grammar.
func WithTablePrefix(prefix string) Option {
	return func(s *settings) {
		s.grammarOpts = append(s.grammarOpts, sqlgen.WithTablePrefix(prefix))
	}
}

// WithServerVersion records the server version for feature gating.
func WithServerVersion(v string) Option {
	return func(s *settings) {
		s.grammarOpts = append(s.grammarOpts, sqlgen.WithServerVersion(v))
	}
}

// WithLogger sets the logger used for compiled and executed statements.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithRegistry sets the macro registry handed to every builder.
func WithRegistry(r *builder.Registry) Option {
	return func(s *settings) {
		s.registry = r
	}
}

// WithMiddleware appends middleware to the chain.
func WithMiddleware(m ...Middleware) Option {
	return func(s *settings) {
		s.middlewares = append(s.middlewares, m...)
	}
}

// WithCache sets the result cache used by builders that call Remember.
// Builders inside a transaction bypass it; a commit clears it.
func WithCache(c cache.Cache) Option {
	return func(s *settings) {
		s.cache = c
	}
}

// core is the state shared by a client and its transactions.
type core struct {
	driver   string
	grammar  sqlgen.Grammar
	registry *builder.Registry
	logger   *slog.Logger
	cache    cache.Cache
	rebind   bool

	mu          sync.RWMutex
	middlewares []Middleware
	log         queryLog
}

// Client executes builder statements on a database.
type Client struct {
	*core
	db *sql.DB
}

// Open opens a database with the named driver and returns a client.
func Open(driver, dsn string, opts ...Option) (*Client, error) {
	sqlDriver, err := SQLDriver(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	c, err := New(driver, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// New wraps an existing handle. driver selects the grammar.
func New(driver string, db *sql.DB, opts ...Option) (*Client, error) {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}

	grammar, err := sqlgen.NewGrammar(driver, s.grammarOpts...)
	if err != nil {
		return nil, err
	}
	if s.logger == nil {
		s.logger = debug.Logger()
	}
	if s.registry == nil {
		s.registry = builder.NewRegistry()
	}

	c := &Client{
		core: &core{
			driver:   strings.ToLower(driver),
			grammar:  grammar,
			registry: s.registry,
			logger:   s.logger,
			cache:    s.cache,
			rebind:   grammar.Name() == "postgres",
		},
		db: db,
	}
	c.Use(LoggingMiddleware(s.logger))
	c.Use(s.middlewares...)
	return c, nil
}

// Ping verifies the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database.
func (c *Client) Close() error {
	return c.db.Close()
}

// DB returns the underlying handle.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Driver returns the driver name the client was opened with.
func (c *core) Driver() string {
	return c.driver
}

// Grammar returns the active grammar.
func (c *core) Grammar() sqlgen.Grammar {
	return c.grammar
}

// Registry returns the macro registry shared by the client's builders.
func (c *core) Registry() *builder.Registry {
	return c.registry
}

// Query returns a builder bound to the client.
func (c *Client) Query() *builder.Builder {
	if c.cache != nil {
		return c.newBuilder(c, builder.WithCache(c.cache))
	}
	return c.newBuilder(c)
}

// Table returns a builder for table bound to the client.
func (c *Client) Table(table string, alias ...string) *builder.Builder {
	return c.Query().From(table, alias...)
}

// Cache returns the result cache, or nil.
func (c *core) Cache() cache.Cache {
	return c.cache
}

func (c *core) newBuilder(conn builder.Connection, opts ...builder.Option) *builder.Builder {
	opts = append([]builder.Option{
		builder.WithConnection(conn),
		builder.WithRegistry(c.registry),
		builder.WithLogger(c.logger),
	}, opts...)
	return builder.New(c.grammar, opts...)
}

// Select runs a query and returns its rows.
func (c *Client) Select(ctx context.Context, query string, bindings []interface{}) ([]map[string]interface{}, error) {
	return c.selectRows(ctx, c.db, false, query, bindings)
}

// Exec runs a statement.
func (c *Client) Exec(ctx context.Context, query string, bindings []interface{}) (sql.Result, error) {
	return c.exec(ctx, c.db, false, query, bindings)
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (c *core) selectRows(ctx context.Context, q queryer, inTx bool, query string, bindings []interface{}) ([]map[string]interface{}, error) {
	var out []map[string]interface{}
	event := newEvent(KindSelect, query, bindings, inTx)
	err := c.run(ctx, event, func() error {
		rows, err := q.QueryContext(ctx, c.native(query), bindings...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = scanMaps(rows)
		return err
	})
	if err != nil {
		return nil, &QueryError{SQL: query, Bindings: bindings, Cause: err}
	}
	return out, nil
}

func (c *core) exec(ctx context.Context, q queryer, inTx bool, query string, bindings []interface{}) (sql.Result, error) {
	var res sql.Result
	event := newEvent(KindExec, query, bindings, inTx)
	err := c.run(ctx, event, func() error {
		var err error
		res, err = q.ExecContext(ctx, c.native(query), bindings...)
		if err == nil {
			event.RowsAffected, _ = res.RowsAffected()
		}
		return err
	})
	if err != nil {
		return nil, &QueryError{SQL: query, Bindings: bindings, Cause: err}
	}
	return res, nil
}

// native converts placeholders to the driver's syntax.
func (c *core) native(query string) string {
	if c.rebind {
		return Rebind(query)
	}
	return query
}

// scanMaps reads every row into a column-name map. Text returned as []byte
// becomes a string.
func scanMaps(rows *sql.Rows) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
