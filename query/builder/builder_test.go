package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlkit/internal/placeholder"
	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/builder"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
)

var (
	sqlite   = sqlgen.MustGrammar("sqlite")
	postgres = sqlgen.MustGrammar("postgres")
	mysql    = sqlgen.MustGrammar("mysql")
)

func compiled(t *testing.T, b *builder.Builder) (string, []interface{}) {
	t.Helper()
	q, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, placeholder.Count(q.SQL), len(q.Args), "placeholder count for %q", q.SQL)
	return q.SQL, q.Args
}

func TestWhere_ArgumentForms(t *testing.T) {
	tests := []struct {
		name  string
		build func(*builder.Builder)
		sql   string
		args  []interface{}
	}{
		{
			name:  "value implies equals",
			build: func(b *builder.Builder) { b.Where("age", 18) },
			sql:   `select * from "users" where "age" = ?`,
			args:  []interface{}{18},
		},
		{
			name:  "explicit operator",
			build: func(b *builder.Builder) { b.Where("age", ">", 18) },
			sql:   `select * from "users" where "age" > ?`,
			args:  []interface{}{18},
		},
		{
			name:  "operator is case insensitive",
			build: func(b *builder.Builder) { b.Where("name", "LIKE", "a%") },
			sql:   `select * from "users" where "name" like ?`,
			args:  []interface{}{"a%"},
		},
		{
			name:  "nil becomes is null",
			build: func(b *builder.Builder) { b.Where("deleted_at", nil) },
			sql:   `select * from "users" where "deleted_at" is null`,
		},
		{
			name:  "not equal nil becomes is not null",
			build: func(b *builder.Builder) { b.Where("deleted_at", "!=", nil) },
			sql:   `select * from "users" where "deleted_at" is not null`,
		},
		{
			name:  "or where",
			build: func(b *builder.Builder) { b.Where("a", 1).OrWhere("b", 2) },
			sql:   `select * from "users" where "a" = ? or "b" = ?`,
			args:  []interface{}{1, 2},
		},
		{
			name:  "where in spreads typed slices",
			build: func(b *builder.Builder) { b.WhereIn("id", []int{1, 2, 3}) },
			sql:   `select * from "users" where "id" in (?, ?, ?)`,
			args:  []interface{}{1, 2, 3},
		},
		{
			name:  "empty where in",
			build: func(b *builder.Builder) { b.WhereIn("id", []string{}) },
			sql:   `select * from "users" where 0 = 1`,
		},
		{
			name:  "between",
			build: func(b *builder.Builder) { b.WhereBetween("age", 18, 30).OrWhereNotBetween("score", 1, 2) },
			sql:   `select * from "users" where "age" between ? and ? or "score" not between ? and ?`,
			args:  []interface{}{18, 30, 1, 2},
		},
		{
			name:  "raw",
			build: func(b *builder.Builder) { b.WhereRaw("lower(name) = ?", "ada") },
			sql:   `select * from "users" where lower(name) = ?`,
			args:  []interface{}{"ada"},
		},
		{
			name:  "column comparison",
			build: func(b *builder.Builder) { b.WhereColumn("updated_at", ">", "created_at") },
			sql:   `select * from "users" where "updated_at" > "created_at"`,
		},
		{
			name: "subquery value",
			build: func(b *builder.Builder) {
				b.Where("id", func(q *builder.Builder) { q.From("admins").Select("user_id").Limit(1) })
			},
			sql: `select * from "users" where "id" = (select "user_id" from "admins" limit 1)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := builder.New(sqlite).From("users")
			tt.build(b)
			sql, args := compiled(t, b)
			assert.Equal(t, tt.sql, sql)
			if tt.args == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.args, args)
			}
		})
	}
}

func TestBuilder_RawPlaceholders(t *testing.T) {
	b := builder.New(postgres).From("docs").
		WhereRaw("note <> 'why?' and id = ?", 1).
		WhereRaw("data ?? 'k'").
		HavingRaw("count(*) > ? and tags ??| array['a']", 2)
	sql, args := compiled(t, b)
	assert.Equal(t, `select * from "docs" where note <> 'why?' and id = ? and data ?? 'k' having count(*) > ? and tags ??| array['a']`, sql)
	assert.Equal(t, []interface{}{1, 2}, args)
}

func TestBuilder_CallTimeErrors(t *testing.T) {
	tests := []struct {
		name     string
		build    func(*builder.Builder)
		sentinel error
	}{
		{"unknown operator", func(b *builder.Builder) { b.Where("a", "===", 1) }, sqlgen.ErrInvalidOperator},
		{"non-string operator", func(b *builder.Builder) { b.Where("a", 1, 2) }, sqlgen.ErrInvalidOperator},
		{"too many arguments", func(b *builder.Builder) { b.Where("a", "=", 1, 2) }, sqlgen.ErrInvalidArgumentCount},
		{"no value", func(b *builder.Builder) { b.Where("a") }, sqlgen.ErrInvalidArgumentCount},
		{"raw binding mismatch", func(b *builder.Builder) { b.WhereRaw("a = ? and b = ?", 1) }, sqlgen.ErrBindingMismatch},
		{"having raw mismatch", func(b *builder.Builder) { b.HavingRaw("sum(x) > ?") }, sqlgen.ErrBindingMismatch},
		{"bad direction", func(b *builder.Builder) { b.OrderBy("a", "sideways") }, sqlgen.ErrInvalidDirection},
		{"bad join type", func(b *builder.Builder) { b.JoinOfType("outer", "b", "a.id", "=", "b.id") }, sqlgen.ErrInvalidJoinType},
		{"bad join operator", func(b *builder.Builder) { b.Join("b", "a.id", "~~", "b.id") }, sqlgen.ErrInvalidOperator},
		{"bad aggregate", func(b *builder.Builder) { b.SetAggregate("median", "x") }, sqlgen.ErrInvalidAggregate},
		{"where in scalar", func(b *builder.Builder) { b.WhereIn("id", 5) }, sqlgen.ErrInvalidValues},
		{"unknown macro", func(b *builder.Builder) { b.Macro("nope") }, sqlgen.ErrUnknownMacro},
		{"nested error", func(b *builder.Builder) {
			b.WhereNested(func(q *builder.Builder) { q.Where("x", "nope", 1) })
		}, sqlgen.ErrInvalidOperator},
		{"subquery error", func(b *builder.Builder) {
			b.WhereExists(func(q *builder.Builder) { q.From("p").OrderBy("x", "up") })
		}, sqlgen.ErrInvalidDirection},
		{"unknown window function", func(b *builder.Builder) { b.SelectWindow("median", "m", nil, "x") }, sqlgen.ErrUnsupportedFeature},
		{"window arity", func(b *builder.Builder) { b.SelectWindow("row_number", "rn", nil, "x") }, sqlgen.ErrInvalidArgumentCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := builder.New(sqlite).From("a")
			tt.build(b)
			require.Error(t, b.Err())
			assert.ErrorIs(t, b.Err(), tt.sentinel)

			_, err := b.ToSQL()
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestBuilder_FirstErrorWins(t *testing.T) {
	b := builder.New(sqlite).From("a").
		Where("x", "===", 1).
		OrderBy("y", "sideways").
		Where("z", 1)

	assert.ErrorIs(t, b.Err(), sqlgen.ErrInvalidOperator)
	assert.NotErrorIs(t, b.Err(), sqlgen.ErrInvalidDirection)

	var ge *sqlgen.GrammarError
	require.ErrorAs(t, b.Err(), &ge)
	assert.Equal(t, "where", ge.Component)
}

func TestBuilder_NestedGroups(t *testing.T) {
	b := builder.New(sqlite).From("t").
		Where("a", 1).
		OrWhereNested(func(q *builder.Builder) {
			q.Where("b", 2).OrWhere("c", 3)
		})
	sql, args := compiled(t, b)
	assert.Equal(t, `select * from "t" where "a" = ? or ("b" = ? or "c" = ?)`, sql)
	assert.Equal(t, []interface{}{1, 2, 3}, args)

	b = builder.New(sqlite).From("t").WhereNested(func(*builder.Builder) {}).Where("a", 1)
	sql, _ = compiled(t, b)
	assert.Equal(t, `select * from "t" where "a" = ?`, sql)

	b = builder.New(sqlite).From("t").WhereConditions(
		builder.C("a", "", 1),
		builder.C("b", ">", 2),
	)
	sql, args = compiled(t, b)
	assert.Equal(t, `select * from "t" where ("a" = ? and "b" > ?)`, sql)
	assert.Equal(t, []interface{}{1, 2}, args)

	b = builder.New(sqlite).From("t").WhereConditions(builder.C("a", "", 1), builder.C("b", "??", 2))
	assert.ErrorIs(t, b.Err(), sqlgen.ErrInvalidOperator)
	assert.Empty(t, b.Plan().Wheres)
}

func TestBuilder_Joins(t *testing.T) {
	b := builder.New(sqlite).From("users").
		JoinWith("posts", func(j *builder.JoinClause) {
			j.On("posts.user_id", "=", "users.id").Where("posts.published", true)
		}).
		LeftJoin("teams", "teams.id", "=", "users.team_id").
		CrossJoin("settings").
		Where("users.active", 1)

	sql, args := compiled(t, b)
	assert.Equal(t, `select * from "users" `+
		`inner join "posts" on "posts"."user_id" = "users"."id" and "posts"."published" = ? `+
		`left join "teams" on "teams"."id" = "users"."team_id" `+
		`cross join "settings" `+
		`where "users"."active" = ?`, sql)
	assert.Equal(t, []interface{}{true, 1}, args)
}

func TestBuilder_GroupsAndHavings(t *testing.T) {
	b := builder.New(mysql).From("orders").
		Select("customer_id", ast.Raw("sum(total) as total")).
		GroupBy("customer_id").
		Having("total", ">", 100).
		OrHavingRaw("count(*) > ?", 3).
		HavingNested(func(q *builder.Builder) { q.HavingNull("note") })

	sql, args := compiled(t, b)
	assert.Equal(t, "select `customer_id`, sum(total) as total from `orders` group by `customer_id` "+
		"having `total` > ? or count(*) > ? and (`note` is null)", sql)
	assert.Equal(t, []interface{}{100, 3}, args)
}

func TestBuilder_OrderLimitOffset(t *testing.T) {
	b := builder.New(postgres).From("posts").Latest().OrderBy("id").ForPage(3, 10)
	sql, _ := compiled(t, b)
	assert.Equal(t, `select * from "posts" order by "created_at" desc, "id" asc limit 10 offset 20`, sql)

	b.Reorder()
	sql, _ = compiled(t, b)
	assert.Equal(t, `select * from "posts" limit 10 offset 20`, sql)

	b = builder.New(postgres).From("posts").Limit(-1).Offset(-5)
	sql, _ = compiled(t, b)
	assert.Equal(t, `select * from "posts" offset 0`, sql)

	b = builder.New(mysql).From("posts").InRandomOrder()
	sql, _ = compiled(t, b)
	assert.Equal(t, "select * from `posts` order by RAND()", sql)
}

func TestBuilder_Unions(t *testing.T) {
	b := builder.New(postgres).From("a").Select("id").Where("x", 1).
		UnionAll(func(q *builder.Builder) { q.From("b").Select("id").Where("y", 2) }).
		OrderByDesc("id").
		Limit(5)

	sql, args := compiled(t, b)
	assert.Equal(t, `(select "id" from "a" where "x" = ?) union all (select "id" from "b" where "y" = ?) order by "id" desc limit 5`, sql)
	assert.Equal(t, []interface{}{1, 2}, args)
	assert.Nil(t, b.Plan().Limit)
}

func TestBuilder_SubqueryPredicates(t *testing.T) {
	posts := builder.New(sqlite).From("posts").Select("user_id").Where("votes", ">", 10)

	b := builder.New(sqlite).From("users").Where("active", 1).WhereIn("id", posts)
	sql, args := compiled(t, b)
	assert.Equal(t, `select * from "users" where "active" = ? and "id" in (select "user_id" from "posts" where "votes" > ?)`, sql)
	assert.Equal(t, []interface{}{1, 10}, args)

	// The subquery is copied at call time.
	posts.Where("draft", 0)
	sql2, _ := compiled(t, b)
	assert.Equal(t, sql, sql2)

	b = builder.New(sqlite).From("users as u").WhereNotExists(func(q *builder.Builder) {
		q.From("bans").WhereColumn("bans.user_id", "u.id")
	})
	sql, _ = compiled(t, b)
	assert.Equal(t, `select * from "users" as "u" where not exists (select * from "bans" where "bans"."user_id" = "u"."id")`, sql)

	b = builder.New(sqlite).From("users").WhereSub("score", ">", func(q *builder.Builder) {
		q.From("users").SelectRaw("avg(score)")
	})
	sql, _ = compiled(t, b)
	assert.Equal(t, `select * from "users" where "score" > (select avg(score) from "users")`, sql)
}

func TestBuilder_Scopes(t *testing.T) {
	b := builder.New(sqlite).From("users").
		WithScope("active", func(q *builder.Builder) { q.Where("active", 1) }).
		WithScope("tenant", func(q *builder.Builder) { q.Where("tenant_id", 9) }).
		Where("name", "ada")

	sql, args := compiled(t, b)
	assert.Equal(t, `select * from "users" where "name" = ? and "active" = ? and "tenant_id" = ?`, sql)
	assert.Equal(t, []interface{}{"ada", 1, 9}, args)

	again, _ := compiled(t, b)
	assert.Equal(t, sql, again)
	assert.Len(t, b.Plan().Wheres, 1)
	assert.Equal(t, []string{"active", "tenant"}, b.Scopes())

	b.WithScope("active", func(q *builder.Builder) { q.Where("active", 0) })
	_, args = compiled(t, b)
	assert.Equal(t, []interface{}{"ada", 0, 9}, args)

	b.WithoutScope("tenant")
	sql, _ = compiled(t, b)
	assert.Equal(t, `select * from "users" where "name" = ? and "active" = ?`, sql)

	bad := builder.New(sqlite).From("users").WithScope("bad", func(q *builder.Builder) { q.Where("a", "~~", 1) })
	_, err := bad.ToSQL()
	assert.ErrorIs(t, err, sqlgen.ErrInvalidOperator)
}

func TestBuilder_Macros(t *testing.T) {
	reg := builder.NewRegistry()
	reg.Register("status", func(b *builder.Builder, args ...interface{}) *builder.Builder {
		return b.Where("status", args[0])
	})
	reg.Register("noop", func(*builder.Builder, ...interface{}) *builder.Builder { return nil })
	assert.Equal(t, []string{"noop", "status"}, reg.Names())

	b := builder.New(sqlite, builder.WithRegistry(reg)).From("orders").Macro("status", "paid").Macro("noop")
	sql, args := compiled(t, b)
	assert.Equal(t, `select * from "orders" where "status" = ?`, sql)
	assert.Equal(t, []interface{}{"paid"}, args)

	b = builder.New(sqlite).From("orders").Macro("status", "paid")
	assert.ErrorIs(t, b.Err(), sqlgen.ErrUnknownMacro)
}

func TestBuilder_CloneIsIndependent(t *testing.T) {
	b := builder.New(sqlite).From("users").Where("a", 1)
	c := b.Clone().Where("b", 2).OrderBy("id")

	sql, _ := compiled(t, b)
	assert.Equal(t, `select * from "users" where "a" = ?`, sql)
	sql, _ = compiled(t, c)
	assert.Equal(t, `select * from "users" where "a" = ? and "b" = ? order by "id" asc`, sql)
}

func TestBuilder_Determinism(t *testing.T) {
	b := builder.New(mysql).From("users").Select("id").
		WhereIn("role", []string{"a", "b"}).
		WhereJSONContains("tags", "go").
		OrderBy("id")

	first, firstArgs := compiled(t, b)
	for i := 0; i < 5; i++ {
		sql, args := compiled(t, b)
		assert.Equal(t, first, sql)
		assert.Equal(t, firstArgs, args)
	}
}

func TestBuilder_DateParts(t *testing.T) {
	b := builder.New(mysql).From("events").WhereMonth("starts_at", 3).WhereYear("starts_at", ">=", 2024)
	sql, args := compiled(t, b)
	assert.Equal(t, "select * from `events` where month(`starts_at`) = ? and year(`starts_at`) >= ?", sql)
	assert.Equal(t, []interface{}{"03", 2024}, args)
}

func TestBuilder_Window(t *testing.T) {
	b := builder.New(postgres).From("employees").
		Select("id").
		SelectWindow("row_number", "rn", builder.NewWindow().PartitionBy("dept").OrderBy("salary", "desc")).
		SelectWindow("sum", "running", builder.NewWindow().OrderBy("hired_at").Rows(builder.UnboundedPreceding(), builder.CurrentRow()), "salary").
		SelectWindow("lag", "prev", builder.NewWindow().OrderBy("hired_at"), "salary", 1)

	sql, _ := compiled(t, b)
	assert.Equal(t, `select "id", `+
		`row_number() over (partition by "dept" order by "salary" desc) as "rn", `+
		`sum("salary") over (order by "hired_at" asc rows between unbounded preceding and current row) as "running", `+
		`lag("salary", 1) over (order by "hired_at" asc) as "prev" `+
		`from "employees"`, sql)

	b = builder.New(postgres).From("e").SelectWindow("rank", "r", builder.NewWindow().OrderBy("x", "up"))
	assert.ErrorIs(t, b.Err(), sqlgen.ErrInvalidDirection)
}

func TestBuilder_CTE(t *testing.T) {
	b := builder.New(postgres).
		With("big", func(q *builder.Builder) { q.From("orders").Where("total", ">", 100) }).
		From("big").
		Where("status", "paid")

	sql, args := compiled(t, b)
	assert.Equal(t, `with "big" as (select * from "orders" where "total" > ?) select * from "big" where "status" = ?`, sql)
	assert.Equal(t, []interface{}{100, "paid"}, args)

	b = builder.New(postgres).With("", func(*builder.Builder) {})
	assert.ErrorIs(t, b.Err(), sqlgen.ErrInvalidValues)
}

func TestBuilder_Locks(t *testing.T) {
	sql, _ := compiled(t, builder.New(mysql).From("a").Where("id", 1).LockForUpdate())
	assert.Equal(t, "select * from `a` where `id` = ? for update", sql)

	sql, _ = compiled(t, builder.New(postgres).From("a").SharedLock())
	assert.Equal(t, `select * from "a" for share`, sql)

	sql, _ = compiled(t, builder.New(sqlite).From("a").LockForUpdate())
	assert.Equal(t, `select * from "a"`, sql)
}
