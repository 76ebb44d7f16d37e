// Package ast defines the query plan: the structural, pre-SQL form of one statement.
package ast

// Expression marks a value as literal SQL. Expressions are never quoted and never bound.
type Expression struct {
	SQL string
}

// Raw wraps sql as an Expression.
func Raw(sql string) Expression {
	return Expression{SQL: sql}
}

// String returns the literal SQL.
func (e Expression) String() string {
	return e.SQL
}

// IsExpression reports whether v is an Expression (by value or pointer).
func IsExpression(v interface{}) bool {
	switch v.(type) {
	case Expression, *Expression:
		return true
	}
	return false
}

// ExpressionSQL returns the literal SQL of v when v is an Expression.
func ExpressionSQL(v interface{}) (string, bool) {
	switch e := v.(type) {
	case Expression:
		return e.SQL, true
	case *Expression:
		if e != nil {
			return e.SQL, true
		}
	}
	return "", false
}

// Boolean connectors between predicates.
const (
	And = "and"
	Or  = "or"
)

// Plan represents one SELECT/INSERT/UPDATE/DELETE statement being built.
// A Plan is owned by exactly one builder.
type Plan struct {
	Table    interface{} // string ("users", "users as u") or Expression
	Columns  []interface{}
	Distinct bool

	Joins   []*Join
	Wheres  []Where
	Groups  []interface{}
	Havings []Where
	Orders  []Order

	Limit  *int
	Offset *int

	Unions      []Union
	UnionOrders []Order
	UnionLimit  *int
	UnionOffset *int

	Aggregate *Aggregate
	Lock      *Lock

	CTEs []CTE
}

// CTE is a named subquery in the WITH clause of a select.
type CTE struct {
	Name      string
	Columns   []string
	Query     *Plan
	Recursive bool
}

// NewPlan creates an empty plan.
func NewPlan() *Plan {
	return &Plan{}
}

// HasUnions reports whether the plan has union parts.
func (p *Plan) HasUnions() bool {
	return len(p.Unions) > 0
}

// Clone returns a structurally independent copy of the plan.
// Nested plans (subqueries, nested groups, unions) are copied recursively.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}

	c := &Plan{
		Table:       p.Table,
		Columns:     cloneValues(p.Columns),
		Distinct:    p.Distinct,
		Wheres:      cloneWheres(p.Wheres),
		Groups:      cloneValues(p.Groups),
		Havings:     cloneWheres(p.Havings),
		Orders:      cloneOrders(p.Orders),
		Limit:       cloneInt(p.Limit),
		Offset:      cloneInt(p.Offset),
		UnionOrders: cloneOrders(p.UnionOrders),
		UnionLimit:  cloneInt(p.UnionLimit),
		UnionOffset: cloneInt(p.UnionOffset),
	}

	if p.Joins != nil {
		c.Joins = make([]*Join, len(p.Joins))
		for i, j := range p.Joins {
			c.Joins[i] = j.Clone()
		}
	}

	if p.Unions != nil {
		c.Unions = make([]Union, len(p.Unions))
		for i, u := range p.Unions {
			c.Unions[i] = Union{Query: u.Query.Clone(), All: u.All}
		}
	}

	if p.Aggregate != nil {
		c.Aggregate = &Aggregate{
			Function: p.Aggregate.Function,
			Columns:  cloneValues(p.Aggregate.Columns),
		}
	}

	if p.Lock != nil {
		lock := *p.Lock
		c.Lock = &lock
	}

	if p.CTEs != nil {
		c.CTEs = make([]CTE, len(p.CTEs))
		for i, cte := range p.CTEs {
			c.CTEs[i] = CTE{
				Name:      cte.Name,
				Columns:   cloneStrings(cte.Columns),
				Query:     cte.Query.Clone(),
				Recursive: cte.Recursive,
			}
		}
	}

	return c
}

// JoinType represents the kind of join.
type JoinType string

const (
	// InnerJoin is an inner join.
	InnerJoin JoinType = "inner"
	// LeftJoin is a left outer join.
	LeftJoin JoinType = "left"
	// RightJoin is a right outer join.
	RightJoin JoinType = "right"
	// CrossJoin is a cross join.
	CrossJoin JoinType = "cross"
)

// Valid reports whether t is a supported join type.
func (t JoinType) Valid() bool {
	switch t {
	case InnerJoin, LeftJoin, RightJoin, CrossJoin:
		return true
	}
	return false
}

// Join is one join clause with its own predicate list.
type Join struct {
	Type   JoinType
	Table  interface{}
	Wheres []Where
}

// Clone copies the join and its predicates.
func (j *Join) Clone() *Join {
	if j == nil {
		return nil
	}
	return &Join{
		Type:   j.Type,
		Table:  j.Table,
		Wheres: cloneWheres(j.Wheres),
	}
}

// Order is one ORDER BY entry. When SQL is set the entry is raw.
type Order struct {
	Column    interface{}
	Direction string
	SQL       string
	Bindings  []interface{}
}

// IsRaw reports whether the order is a raw SQL fragment.
func (o Order) IsRaw() bool {
	return o.SQL != ""
}

// Union is a nested plan combined with UNION or UNION ALL.
type Union struct {
	Query *Plan
	All   bool
}

// AggregateFunc names an aggregate function.
type AggregateFunc string

const (
	// Count counts rows.
	Count AggregateFunc = "count"
	// Sum sums column values.
	Sum AggregateFunc = "sum"
	// Avg averages column values.
	Avg AggregateFunc = "avg"
	// Min finds the minimum value.
	Min AggregateFunc = "min"
	// Max finds the maximum value.
	Max AggregateFunc = "max"
)

// Valid reports whether f is a supported aggregate function.
func (f AggregateFunc) Valid() bool {
	switch f {
	case Count, Sum, Avg, Min, Max:
		return true
	}
	return false
}

// Aggregate is the aggregate call of a plan.
type Aggregate struct {
	Function AggregateFunc
	Columns  []interface{}
}

// LockMode represents the row-locking mode.
type LockMode int

const (
	// LockForUpdate requests an exclusive row lock.
	LockForUpdate LockMode = iota + 1
	// LockShared requests a shared row lock.
	LockShared
	// LockRaw appends Lock.SQL verbatim.
	LockRaw
)

// Lock is the row-locking clause.
type Lock struct {
	Mode LockMode
	SQL  string
}

func cloneValues(v []interface{}) []interface{} {
	if v == nil {
		return nil
	}
	out := make([]interface{}, len(v))
	copy(out, v)
	return out
}

func cloneOrders(o []Order) []Order {
	if o == nil {
		return nil
	}
	out := make([]Order, len(o))
	for i, order := range o {
		order.Bindings = cloneValues(order.Bindings)
		out[i] = order
	}
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
