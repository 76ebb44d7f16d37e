// Package columns provides typed column references that add predicates to a
// builder.
//
//	age := columns.Int("users", "age")
//	name := columns.String("users", "name")
//	columns.Any(age.Gt(18), name.StartsWith("a")).Apply(b)
package columns

import (
	"time"

	"github.com/satishbabariya/sqlkit/query/builder"
)

// Predicate is a WHERE condition that can be joined to a builder with and
// or with or.
type Predicate struct {
	and func(*builder.Builder)
	or  func(*builder.Builder)
}

// Apply adds the predicate joined with and.
func (p Predicate) Apply(b *builder.Builder) *builder.Builder {
	p.and(b)
	return b
}

// OrApply adds the predicate joined with or.
func (p Predicate) OrApply(b *builder.Builder) *builder.Builder {
	p.or(b)
	return b
}

func where(column string, args ...interface{}) Predicate {
	return Predicate{
		and: func(b *builder.Builder) { b.Where(column, args...) },
		or:  func(b *builder.Builder) { b.OrWhere(column, args...) },
	}
}

// All groups predicates joined with and.
func All(preds ...Predicate) Predicate {
	return group(preds, false)
}

// Any groups predicates joined with or.
func Any(preds ...Predicate) Predicate {
	return group(preds, true)
}

func group(preds []Predicate, or bool) Predicate {
	fill := func(nb *builder.Builder) {
		for i, p := range preds {
			if or && i > 0 {
				p.or(nb)
			} else {
				p.and(nb)
			}
		}
	}
	return Predicate{
		and: func(b *builder.Builder) { b.WhereNested(fill) },
		or:  func(b *builder.Builder) { b.OrWhereNested(fill) },
	}
}

// Column is a reference to a column whose values have type T.
type Column[T any] struct {
	table string
	name  string
}

// New creates a column reference. An empty table leaves the name unqualified.
func New[T any](table, name string) Column[T] {
	return Column[T]{table: table, name: name}
}

// Int creates an int64 column.
func Int(table, name string) Column[int64] { return New[int64](table, name) }

// Float creates a float64 column.
func Float(table, name string) Column[float64] { return New[float64](table, name) }

// Bool creates a bool column.
func Bool(table, name string) Column[bool] { return New[bool](table, name) }

// Time creates a time.Time column.
func Time(table, name string) Column[time.Time] { return New[time.Time](table, name) }

// Name returns the column as the builder expects it, qualified when the
// column has a table.
func (c Column[T]) Name() string {
	if c.table == "" {
		return c.name
	}
	return c.table + "." + c.name
}

func (c Column[T]) Eq(v T) Predicate  { return where(c.Name(), "=", v) }
func (c Column[T]) Ne(v T) Predicate  { return where(c.Name(), "!=", v) }
func (c Column[T]) Gt(v T) Predicate  { return where(c.Name(), ">", v) }
func (c Column[T]) Gte(v T) Predicate { return where(c.Name(), ">=", v) }
func (c Column[T]) Lt(v T) Predicate  { return where(c.Name(), "<", v) }
func (c Column[T]) Lte(v T) Predicate { return where(c.Name(), "<=", v) }

// IsNull matches null values.
func (c Column[T]) IsNull() Predicate {
	name := c.Name()
	return Predicate{
		and: func(b *builder.Builder) { b.WhereNull(name) },
		or:  func(b *builder.Builder) { b.OrWhereNull(name) },
	}
}

// IsNotNull matches non-null values.
func (c Column[T]) IsNotNull() Predicate {
	name := c.Name()
	return Predicate{
		and: func(b *builder.Builder) { b.WhereNotNull(name) },
		or:  func(b *builder.Builder) { b.OrWhereNotNull(name) },
	}
}

// In matches any of values. No values never matches.
func (c Column[T]) In(values ...T) Predicate {
	name := c.Name()
	return Predicate{
		and: func(b *builder.Builder) { b.WhereIn(name, values) },
		or:  func(b *builder.Builder) { b.OrWhereIn(name, values) },
	}
}

// NotIn matches none of values. No values always matches.
func (c Column[T]) NotIn(values ...T) Predicate {
	name := c.Name()
	return Predicate{
		and: func(b *builder.Builder) { b.WhereNotIn(name, values) },
		or:  func(b *builder.Builder) { b.OrWhereNotIn(name, values) },
	}
}

// Between matches low <= value <= high.
func (c Column[T]) Between(low, high T) Predicate {
	name := c.Name()
	return Predicate{
		and: func(b *builder.Builder) { b.WhereBetween(name, low, high) },
		or:  func(b *builder.Builder) { b.OrWhereBetween(name, low, high) },
	}
}

// StringColumn adds pattern predicates to a string column.
type StringColumn struct {
	Column[string]
}

// String creates a string column.
func String(table, name string) StringColumn {
	return StringColumn{New[string](table, name)}
}

// Like matches a raw like pattern.
func (c StringColumn) Like(pattern string) Predicate {
	return where(c.Name(), "like", pattern)
}

// Contains matches values containing s. Wildcards in s keep their meaning.
func (c StringColumn) Contains(s string) Predicate {
	return c.Like("%" + s + "%")
}

// StartsWith matches values starting with s.
func (c StringColumn) StartsWith(s string) Predicate {
	return c.Like(s + "%")
}

// EndsWith matches values ending with s.
func (c StringColumn) EndsWith(s string) Predicate {
	return c.Like("%" + s)
}
