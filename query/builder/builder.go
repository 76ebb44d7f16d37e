// Package builder provides a fluent query builder API.
//
// A Builder owns exactly one ast.Plan and mutates it through chained calls.
// Validation happens at call time: the first invalid call is recorded and
// returned by Err and by every terminal method, and nothing is compiled
// once an error has been recorded.
package builder

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/cache"
	"github.com/satishbabariya/sqlkit/query/processor"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
)

// ErrNoConnection is returned by execution methods on a builder without a connection.
var ErrNoConnection = errors.New("sqlkit: builder has no connection")

// Builder builds one statement.
type Builder struct {
	grammar   sqlgen.Grammar
	conn      Connection
	processor processor.Processor
	registry  *Registry
	logger    *slog.Logger
	cache     cache.Cache

	plan     *ast.Plan
	remember *time.Duration
	scopes []namedScope
	err    error
}

// Option configures a Builder.
type Option func(*Builder)

// WithConnection sets the connection used by execution methods.
func WithConnection(conn Connection) Option {
	return func(b *Builder) {
		b.conn = conn
	}
}

// WithProcessor sets the post-execution processor.
func WithProcessor(p processor.Processor) Option {
	return func(b *Builder) {
		b.processor = p
	}
}

// WithRegistry sets the macro registry.
func WithRegistry(r *Registry) Option {
	return func(b *Builder) {
		b.registry = r
	}
}

// WithLogger sets the logger that receives every compiled statement at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// WithCache sets the result cache used by Remember.
func WithCache(c cache.Cache) Option {
	return func(b *Builder) {
		b.cache = c
	}
}

// New creates a builder for grammar.
func New(grammar sqlgen.Grammar, opts ...Option) *Builder {
	b := &Builder{
		grammar: grammar,
		plan:    ast.NewPlan(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.processor == nil {
		b.processor = processor.For(grammar)
	}
	return b
}

// newChild returns an empty builder sharing b's collaborators.
func (b *Builder) newChild() *Builder {
	return &Builder{
		grammar:   b.grammar,
		conn:      b.conn,
		processor: b.processor,
		registry:  b.registry,
		logger:    b.logger,
		cache:     b.cache,
		plan:      ast.NewPlan(),
	}
}

// Clone returns a builder with an independent copy of the plan.
func (b *Builder) Clone() *Builder {
	c := b.newChild()
	c.plan = b.plan.Clone()
	c.scopes = append([]namedScope(nil), b.scopes...)
	c.err = b.err
	c.remember = b.remember
	return c
}

// Grammar returns the builder's grammar.
func (b *Builder) Grammar() sqlgen.Grammar {
	return b.grammar
}

// Plan returns the builder's plan. Callers must not mutate it.
func (b *Builder) Plan() *ast.Plan {
	return b.plan
}

// Err returns the first error recorded by a chained call.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) fail(component string, err error, detail string) *Builder {
	if b.err == nil {
		b.err = sqlgen.NewError(component, err, detail)
	}
	return b
}

// absorb records err from a child builder.
func (b *Builder) absorb(err error) {
	if b.err == nil && err != nil {
		b.err = err
	}
}

func (b *Builder) validOperator(op string) bool {
	op = strings.ToLower(op)
	for _, o := range b.grammar.Operators() {
		if o == op {
			return true
		}
	}
	return false
}

// Distinct forces distinct results.
func (b *Builder) Distinct() *Builder {
	b.plan.Distinct = true
	return b
}

// GroupBy adds GROUP BY columns.
func (b *Builder) GroupBy(columns ...interface{}) *Builder {
	b.plan.Groups = append(b.plan.Groups, columns...)
	return b
}

// OrderBy adds an ORDER BY column. Direction defaults to asc.
// After a Union the ordering applies to the combined result.
func (b *Builder) OrderBy(column interface{}, direction ...string) *Builder {
	dir := "asc"
	if len(direction) > 0 {
		dir = strings.ToLower(direction[0])
	}
	if dir != "asc" && dir != "desc" {
		return b.fail("orderBy", sqlgen.ErrInvalidDirection, dir)
	}
	b.addOrder(ast.Order{Column: column, Direction: dir})
	return b
}

// OrderByDesc adds a descending ORDER BY column.
func (b *Builder) OrderByDesc(column interface{}) *Builder {
	return b.OrderBy(column, "desc")
}

// OrderByRaw adds a raw ORDER BY fragment.
func (b *Builder) OrderByRaw(sql string, bindings ...interface{}) *Builder {
	b.addOrder(ast.Order{SQL: sql, Bindings: bindings})
	return b
}

// Latest orders by column (default created_at) descending.
func (b *Builder) Latest(column ...string) *Builder {
	return b.OrderBy(firstOr(column, "created_at"), "desc")
}

// Oldest orders by column (default created_at) ascending.
func (b *Builder) Oldest(column ...string) *Builder {
	return b.OrderBy(firstOr(column, "created_at"), "asc")
}

// InRandomOrder orders by the dialect's random function.
func (b *Builder) InRandomOrder(seed ...string) *Builder {
	return b.OrderByRaw(b.grammar.CompileRandom(firstOr(seed, "")))
}

// Reorder removes every ORDER BY entry.
func (b *Builder) Reorder() *Builder {
	b.plan.Orders = nil
	b.plan.UnionOrders = nil
	return b
}

func (b *Builder) addOrder(o ast.Order) {
	if b.plan.HasUnions() {
		b.plan.UnionOrders = append(b.plan.UnionOrders, o)
		return
	}
	b.plan.Orders = append(b.plan.Orders, o)
}

// Limit sets the maximum number of rows. Negative values are ignored.
func (b *Builder) Limit(n int) *Builder {
	if n < 0 {
		return b
	}
	if b.plan.HasUnions() {
		b.plan.UnionLimit = &n
	} else {
		b.plan.Limit = &n
	}
	return b
}

// Take is an alias for Limit.
func (b *Builder) Take(n int) *Builder {
	return b.Limit(n)
}

// Offset sets the number of rows to skip. Negative values become zero.
func (b *Builder) Offset(n int) *Builder {
	if n < 0 {
		n = 0
	}
	if b.plan.HasUnions() {
		b.plan.UnionOffset = &n
	} else {
		b.plan.Offset = &n
	}
	return b
}

// Skip is an alias for Offset.
func (b *Builder) Skip(n int) *Builder {
	return b.Offset(n)
}

// ForPage sets limit and offset for a 1-based page.
func (b *Builder) ForPage(page, perPage int) *Builder {
	if page < 1 {
		page = 1
	}
	return b.Offset((page - 1) * perPage).Limit(perPage)
}

// Union appends query (a *Builder or func(*Builder)) with UNION.
func (b *Builder) Union(query interface{}) *Builder {
	return b.union(query, false)
}

// UnionAll appends query with UNION ALL.
func (b *Builder) UnionAll(query interface{}) *Builder {
	return b.union(query, true)
}

func (b *Builder) union(query interface{}, all bool) *Builder {
	plan, ok := b.subquery("union", query)
	if !ok {
		return b
	}
	b.plan.Unions = append(b.plan.Unions, ast.Union{Query: plan, All: all})
	return b
}

// LockForUpdate adds an exclusive row lock.
func (b *Builder) LockForUpdate() *Builder {
	b.plan.Lock = &ast.Lock{Mode: ast.LockForUpdate}
	return b
}

// SharedLock adds a shared row lock.
func (b *Builder) SharedLock() *Builder {
	b.plan.Lock = &ast.Lock{Mode: ast.LockShared}
	return b
}

// Lock adds a raw lock clause.
func (b *Builder) Lock(sql string) *Builder {
	b.plan.Lock = &ast.Lock{Mode: ast.LockRaw, SQL: sql}
	return b
}

// SetAggregate sets the aggregate function. Columns default to "*".
func (b *Builder) SetAggregate(fn ast.AggregateFunc, columns ...interface{}) *Builder {
	if !fn.Valid() {
		return b.fail("aggregate", sqlgen.ErrInvalidAggregate, string(fn))
	}
	if len(columns) == 0 {
		columns = []interface{}{"*"}
	}
	b.plan.Aggregate = &ast.Aggregate{Function: fn, Columns: columns}
	return b
}

// compiledPlan returns the plan with every registered scope applied once,
// in registration order, to a copy.
func (b *Builder) compiledPlan() (*ast.Plan, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.scopes) == 0 {
		return b.plan, nil
	}

	c := b.Clone()
	c.scopes = nil
	for _, s := range b.scopes {
		s.scope(c)
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.plan, nil
}

// Build compiles the SELECT statement.
func (b *Builder) Build() (*sqlgen.Query, error) {
	plan, err := b.compiledPlan()
	if err != nil {
		return nil, err
	}
	q, err := b.grammar.CompileSelect(plan)
	if err != nil {
		return nil, err
	}
	b.log(q)
	return q, nil
}

// ToSQL returns the compiled SELECT text.
func (b *Builder) ToSQL() (string, error) {
	q, err := b.Build()
	if err != nil {
		return "", err
	}
	return q.SQL, nil
}

// Bindings returns the bindings of the compiled SELECT in placeholder order.
func (b *Builder) Bindings() ([]interface{}, error) {
	q, err := b.Build()
	if err != nil {
		return nil, err
	}
	return q.Args, nil
}

func (b *Builder) log(q *sqlgen.Query) {
	if b.logger == nil {
		return
	}
	b.logger.Debug("compiled query",
		"dialect", b.grammar.Name(),
		"sql", q.SQL,
		"bindings", len(q.Args),
	)
}

func firstOr(values []string, def string) string {
	if len(values) > 0 && values[0] != "" {
		return values[0]
	}
	return def
}
