package plan_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlkit/cli/internal/plan"
	"github.com/satishbabariya/sqlkit/query/builder"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
)

func build(t *testing.T, driver, doc string) (string, []interface{}) {
	t.Helper()
	f, err := plan.Parse([]byte(doc))
	require.NoError(t, err)
	q, err := f.Apply(builder.New(sqlgen.MustGrammar(driver))).Build()
	require.NoError(t, err)
	return q.SQL, q.Args
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		doc    string
		sql    string
		args   []interface{}
	}{
		{
			name:   "select with predicates",
			driver: "sqlite",
			doc: `
table: users
select: [id, name]
where:
  - {column: age, op: ">", value: 18}
  - {column: role, in: [admin, owner], or: true}
  - {column: deleted_at, null: true}
order_by:
  - {column: name, direction: desc}
limit: 10
offset: 20
`,
			sql:  `select "id", "name" from "users" where "age" > ? or "role" in (?, ?) and "deleted_at" is null order by "name" desc limit 10 offset 20`,
			args: []interface{}{18, "admin", "owner"},
		},
		{
			name:   "joins and groups",
			driver: "mysql",
			doc: `
table: orders
alias: o
select: [o.customer_id]
joins:
  - {table: customers, first: customers.id, second: o.customer_id}
  - {type: cross, table: settings}
group_by: [o.customer_id]
having:
  - {raw: "count(*) > ?", bindings: [2]}
`,
			sql: "select `o`.`customer_id` from `orders` as `o` " +
				"inner join `customers` on `customers`.`id` = `o`.`customer_id` " +
				"cross join `settings` group by `o`.`customer_id` having count(*) > ?",
			args: []interface{}{2},
		},
		{
			name:   "nested group and between",
			driver: "postgres",
			doc: `
table: posts
where:
  - {column: published, value: true}
  - group:
      - {column: views, between: [10, 100]}
      - {column: pinned, value: true, or: true}
`,
			sql:  `select * from "posts" where "published" = ? and ("views" between ? and ? or "pinned" = ?)`,
			args: []interface{}{true, 10, 100, true},
		},
		{
			name:   "union with outer ordering",
			driver: "postgres",
			doc: `
table: a
select: [id]
unions:
  - all: true
    query: {table: b, select: [id]}
order_by:
  - {column: id}
limit: 5
`,
			sql: `(select "id" from "a") union all (select "id" from "b") order by "id" asc limit 5`,
		},
		{
			name:   "lock",
			driver: "mysql",
			doc:    "table: jobs\nlock: update\n",
			sql:    "select * from `jobs` for update",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := build(t, tt.driver, tt.doc)
			assert.Equal(t, tt.sql, sql)
			if tt.args == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.args, args)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"missing table", "select: [id]\n"},
		{"join without columns", "table: a\njoins:\n  - {table: b}\n"},
		{"predicate without column", "table: a\nwhere:\n  - {value: 1}\n"},
		{"short between", "table: a\nwhere:\n  - {column: x, between: [1]}\n"},
		{"bad lock", "table: a\nlock: exclusive\n"},
		{"invalid union", "table: a\nunions:\n  - query: {select: [id]}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := plan.Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, plan.ErrInvalidPlan)
		})
	}

	_, err := plan.Parse([]byte("table: a\ncolour: red\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestApply_BuilderErrors(t *testing.T) {
	f, err := plan.Parse([]byte("table: a\nwhere:\n  - {column: x, op: \"~~\", value: 1}\n"))
	require.NoError(t, err)

	b := f.Apply(builder.New(sqlgen.MustGrammar("sqlite")))
	assert.ErrorIs(t, b.Err(), sqlgen.ErrInvalidOperator)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/plans/users.yaml", []byte("table: users\ndialect: mysql\n"), 0o644))

	f, err := plan.Load(fs, "/plans/users.yaml")
	require.NoError(t, err)
	assert.Equal(t, "users", f.Table)
	assert.Equal(t, "mysql", f.Dialect)

	_, err = plan.Load(fs, "/plans/missing.yaml")
	assert.Error(t, err)
}
