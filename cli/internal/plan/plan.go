// Package plan reads YAML query plans and replays them onto a builder.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/builder"
)

// ErrInvalidPlan is returned for plan files that cannot describe a query.
var ErrInvalidPlan = errors.New("invalid plan")

// File is one query plan.
//
//	table: users
//	select: [id, name]
//	where:
//	  - {column: age, op: ">", value: 18}
//	  - {column: role, in: [admin, owner], or: true}
//	order_by:
//	  - {column: name, direction: desc}
//	limit: 10
type File struct {
	Dialect  string      `yaml:"dialect"`
	Prefix   string      `yaml:"prefix"`
	Table    string      `yaml:"table"`
	Alias    string      `yaml:"alias"`
	Distinct bool        `yaml:"distinct"`
	Select   []string    `yaml:"select"`
	Joins    []Join      `yaml:"joins"`
	Where    []Predicate `yaml:"where"`
	GroupBy  []string    `yaml:"group_by"`
	Having   []Predicate `yaml:"having"`
	OrderBy  []Order     `yaml:"order_by"`
	Limit    *int        `yaml:"limit"`
	Offset   *int        `yaml:"offset"`
	Lock     string      `yaml:"lock"`
	Unions   []Union     `yaml:"unions"`
}

// Join describes one join. Type defaults to inner.
type Join struct {
	Type     string `yaml:"type"`
	Table    string `yaml:"table"`
	First    string `yaml:"first"`
	Operator string `yaml:"op"`
	Second   string `yaml:"second"`
}

// Predicate is one WHERE or HAVING entry. Exactly one form is used, checked
// in this order: group, raw, null, in, not_in, between, then column/op/value.
type Predicate struct {
	Column   string        `yaml:"column"`
	Operator string        `yaml:"op"`
	Value    interface{}   `yaml:"value"`
	In       []interface{} `yaml:"in"`
	NotIn    []interface{} `yaml:"not_in"`
	Between  []interface{} `yaml:"between"`
	Null     *bool         `yaml:"null"`
	Raw      string        `yaml:"raw"`
	Bindings []interface{} `yaml:"bindings"`
	Or       bool          `yaml:"or"`
	Group    []Predicate   `yaml:"group"`
}

// Order is one ORDER BY entry.
type Order struct {
	Column    string `yaml:"column"`
	Direction string `yaml:"direction"`
}

// Union appends another plan with union or union all.
type Union struct {
	All   bool `yaml:"all"`
	Query File `yaml:"query"`
}

// Parse decodes a plan. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidPlan)
		}
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads and parses the plan at path.
func Load(fs afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	return Parse(data)
}

// Validate checks the parts of a plan the builder cannot check itself.
func (f *File) Validate() error {
	if f.Table == "" {
		return fmt.Errorf("%w: table is required", ErrInvalidPlan)
	}
	for _, j := range f.Joins {
		if j.Table == "" {
			return fmt.Errorf("%w: join without table", ErrInvalidPlan)
		}
		if joinType(j.Type) != ast.CrossJoin && (j.First == "" || j.Second == "") {
			return fmt.Errorf("%w: join %s needs first and second", ErrInvalidPlan, j.Table)
		}
	}
	if err := validatePredicates(f.Where); err != nil {
		return err
	}
	if err := validatePredicates(f.Having); err != nil {
		return err
	}
	switch strings.ToLower(f.Lock) {
	case "", "update", "shared":
	default:
		return fmt.Errorf("%w: lock must be update or shared, got %q", ErrInvalidPlan, f.Lock)
	}
	for i := range f.Unions {
		if err := f.Unions[i].Query.Validate(); err != nil {
			return fmt.Errorf("union %d: %w", i, err)
		}
	}
	return nil
}

func validatePredicates(preds []Predicate) error {
	for _, p := range preds {
		switch {
		case len(p.Group) > 0:
			if err := validatePredicates(p.Group); err != nil {
				return err
			}
		case p.Raw != "":
		case p.Column == "":
			return fmt.Errorf("%w: predicate without column", ErrInvalidPlan)
		case p.Between != nil && len(p.Between) != 2:
			return fmt.Errorf("%w: between on %s needs two values", ErrInvalidPlan, p.Column)
		}
	}
	return nil
}

func joinType(s string) ast.JoinType {
	if s == "" {
		return ast.InnerJoin
	}
	return ast.JoinType(strings.ToLower(s))
}

// Apply replays the plan onto b and returns it. Builder errors surface
// through b.Err and the terminal methods.
func (f *File) Apply(b *builder.Builder) *builder.Builder {
	b.From(f.Table, f.Alias)
	if len(f.Select) > 0 {
		b.Select(columns(f.Select)...)
	}
	if f.Distinct {
		b.Distinct()
	}

	for _, j := range f.Joins {
		typ := joinType(j.Type)
		if typ == ast.CrossJoin {
			b.CrossJoin(j.Table)
			continue
		}
		op := j.Operator
		if op == "" {
			op = "="
		}
		b.JoinOfType(typ, j.Table, j.First, op, j.Second)
	}

	applyWheres(b, f.Where)

	if len(f.GroupBy) > 0 {
		b.GroupBy(columns(f.GroupBy)...)
	}
	applyHavings(b, f.Having)

	// ordering and limits after a union apply to the whole compound query
	for _, u := range f.Unions {
		other := u.Query.Apply(builder.New(b.Grammar()))
		if u.All {
			b.UnionAll(other)
		} else {
			b.Union(other)
		}
	}

	for _, o := range f.OrderBy {
		if o.Direction == "" {
			b.OrderBy(o.Column)
		} else {
			b.OrderBy(o.Column, o.Direction)
		}
	}
	if f.Limit != nil {
		b.Limit(*f.Limit)
	}
	if f.Offset != nil {
		b.Offset(*f.Offset)
	}

	switch strings.ToLower(f.Lock) {
	case "update":
		b.LockForUpdate()
	case "shared":
		b.SharedLock()
	}
	return b
}

func columns(names []string) []interface{} {
	out := make([]interface{}, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

func applyWheres(b *builder.Builder, preds []Predicate) {
	for _, p := range preds {
		switch {
		case len(p.Group) > 0:
			group := p.Group
			fn := func(nb *builder.Builder) { applyWheres(nb, group) }
			if p.Or {
				b.OrWhereNested(fn)
			} else {
				b.WhereNested(fn)
			}
		case p.Raw != "":
			if p.Or {
				b.OrWhereRaw(p.Raw, p.Bindings...)
			} else {
				b.WhereRaw(p.Raw, p.Bindings...)
			}
		case p.Null != nil:
			switch {
			case *p.Null && p.Or:
				b.OrWhereNull(p.Column)
			case *p.Null:
				b.WhereNull(p.Column)
			case p.Or:
				b.OrWhereNotNull(p.Column)
			default:
				b.WhereNotNull(p.Column)
			}
		case p.In != nil:
			if p.Or {
				b.OrWhereIn(p.Column, p.In)
			} else {
				b.WhereIn(p.Column, p.In)
			}
		case p.NotIn != nil:
			if p.Or {
				b.OrWhereNotIn(p.Column, p.NotIn)
			} else {
				b.WhereNotIn(p.Column, p.NotIn)
			}
		case p.Between != nil:
			if p.Or {
				b.OrWhereBetween(p.Column, p.Between[0], p.Between[1])
			} else {
				b.WhereBetween(p.Column, p.Between[0], p.Between[1])
			}
		default:
			if p.Or {
				b.OrWhere(p.Column, p.args()...)
			} else {
				b.Where(p.Column, p.args()...)
			}
		}
	}
}

func applyHavings(b *builder.Builder, preds []Predicate) {
	for _, p := range preds {
		switch {
		case len(p.Group) > 0:
			group := p.Group
			b.HavingNested(func(nb *builder.Builder) { applyHavings(nb, group) })
		case p.Raw != "":
			if p.Or {
				b.OrHavingRaw(p.Raw, p.Bindings...)
			} else {
				b.HavingRaw(p.Raw, p.Bindings...)
			}
		case p.Null != nil:
			if *p.Null {
				b.HavingNull(p.Column)
			} else {
				b.HavingNotNull(p.Column)
			}
		case p.Between != nil:
			b.HavingBetween(p.Column, p.Between[0], p.Between[1])
		default:
			if p.Or {
				b.OrHaving(p.Column, p.args()...)
			} else {
				b.Having(p.Column, p.args()...)
			}
		}
	}
}

func (p Predicate) args() []interface{} {
	if p.Operator == "" {
		return []interface{}{p.Value}
	}
	return []interface{}{p.Operator, p.Value}
}
