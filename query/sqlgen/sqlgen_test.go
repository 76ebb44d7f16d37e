package sqlgen_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/satishbabariya/sqlkit/query/sqlgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func basic(column string, op string, value interface{}) ast.Where {
	return ast.Where{Kind: ast.WhereBasic, Boolean: ast.And, Column: column, Operator: op, Value: value}
}

func compileSelect(t *testing.T, g sqlgen.Grammar, p *ast.Plan) *sqlgen.Query {
	t.Helper()
	q, err := g.CompileSelect(p)
	require.NoError(t, err)
	assert.Equal(t, strings.Count(q.SQL, "?"), len(q.Args), "placeholder count for %q", q.SQL)
	return q
}

func grammarErr(t *testing.T, err error, sentinel error) *sqlgen.GrammarError {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel), "expected %v, got %v", sentinel, err)
	var ge *sqlgen.GrammarError
	require.True(t, errors.As(err, &ge))
	return ge
}

func TestNewGrammar(t *testing.T) {
	tests := []struct {
		driver string
		name   string
	}{
		{"mysql", "mysql"},
		{"MySQL", "mysql"},
		{"postgres", "postgres"},
		{"postgresql", "postgres"},
		{"pgx", "postgres"},
		{"sqlite", "sqlite"},
		{"sqlite3", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			g, err := sqlgen.NewGrammar(tt.driver)
			require.NoError(t, err)
			assert.Equal(t, tt.name, g.Name())
		})
	}

	_, err := sqlgen.NewGrammar("oracle")
	assert.ErrorIs(t, err, sqlgen.ErrUnknownDialect)
	assert.Panics(t, func() { sqlgen.MustGrammar("oracle") })
}

func TestCompileSelect_Scenarios(t *testing.T) {
	t.Run("select columns with basic where", func(t *testing.T) {
		p := &ast.Plan{
			Table:   "users",
			Columns: []interface{}{"id", "name"},
			Wheres:  []ast.Where{basic("age", ">", 18)},
		}

		q := compileSelect(t, sqlgen.MustGrammar("sqlite"), p)
		assert.Equal(t, `select "id", "name" from "users" where "age" > ?`, q.SQL)
		assert.Equal(t, []interface{}{18}, q.Args)

		q = compileSelect(t, sqlgen.MustGrammar("mysql"), p)
		assert.Equal(t, "select `id`, `name` from `users` where `age` > ?", q.SQL)
		assert.Equal(t, []interface{}{18}, q.Args)
	})

	t.Run("empty where in", func(t *testing.T) {
		p := &ast.Plan{
			Table:  "users",
			Wheres: []ast.Where{{Kind: ast.WhereIn, Boolean: ast.And, Column: "role", Values: []interface{}{}}},
		}
		q := compileSelect(t, sqlgen.MustGrammar("postgres"), p)
		assert.Equal(t, `select * from "users" where 0 = 1`, q.SQL)
		assert.Empty(t, q.Args)
	})

	t.Run("empty where not in", func(t *testing.T) {
		p := &ast.Plan{
			Table:  "users",
			Wheres: []ast.Where{{Kind: ast.WhereNotIn, Boolean: ast.And, Column: "role"}},
		}
		q := compileSelect(t, sqlgen.MustGrammar("postgres"), p)
		assert.Equal(t, `select * from "users" where 1 = 1`, q.SQL)
		assert.Empty(t, q.Args)
	})

	t.Run("join before where", func(t *testing.T) {
		p := &ast.Plan{
			Table: "users",
			Joins: []*ast.Join{{
				Type:   ast.InnerJoin,
				Table:  "posts",
				Wheres: []ast.Where{{Kind: ast.WhereColumn, Boolean: ast.And, First: "posts.user_id", Operator: "=", Second: "users.id"}},
			}},
			Wheres: []ast.Where{basic("posts.title", "=", "x")},
		}

		q := compileSelect(t, sqlgen.MustGrammar("sqlite"), p)
		assert.Equal(t, `select * from "users" inner join "posts" on "posts"."user_id" = "users"."id" where "posts"."title" = ?`, q.SQL)

		q = compileSelect(t, sqlgen.MustGrammar("sqlite", sqlgen.WithTablePrefix("wp_")), p)
		assert.Equal(t, `select * from "wp_users" inner join "wp_posts" on "wp_posts"."user_id" = "wp_users"."id" where "wp_posts"."title" = ?`, q.SQL)
		assert.Equal(t, []interface{}{"x"}, q.Args)
	})

	t.Run("first connector is stripped", func(t *testing.T) {
		first := basic("x", "=", 1)
		first.Boolean = ast.Or
		p := &ast.Plan{Table: "a", Wheres: []ast.Where{first, basic("y", "=", 2)}}

		q := compileSelect(t, sqlgen.MustGrammar("sqlite"), p)
		assert.Equal(t, `select * from "a" where "x" = ? and "y" = ?`, q.SQL)
		assert.Equal(t, []interface{}{1, 2}, q.Args)
	})
}

func TestCompileSelect_NestedGroup(t *testing.T) {
	second := basic("c", "=", 3)
	second.Boolean = ast.Or
	group := &ast.Plan{Wheres: []ast.Where{basic("b", "=", 2), second}}

	p := &ast.Plan{
		Table: "t",
		Wheres: []ast.Where{
			basic("a", "=", 1),
			{Kind: ast.WhereNested, Boolean: ast.Or, Query: group},
		},
	}

	q := compileSelect(t, sqlgen.MustGrammar("sqlite"), p)
	assert.Equal(t, `select * from "t" where "a" = ? or ("b" = ? or "c" = ?)`, q.SQL)
	assert.Equal(t, []interface{}{1, 2, 3}, q.Args)

	only := &ast.Plan{Table: "t", Wheres: []ast.Where{{Kind: ast.WhereNested, Boolean: ast.And, Query: &ast.Plan{
		Wheres: []ast.Where{basic("col1", "=", 1), basic("col2", "=", 2)},
	}}}}
	q = compileSelect(t, sqlgen.MustGrammar("sqlite"), only)
	assert.Equal(t, `select * from "t" where ("col1" = ? and "col2" = ?)`, q.SQL)
}

func TestCompileSelect_NoDoublePrefix(t *testing.T) {
	g := sqlgen.MustGrammar("postgres", sqlgen.WithTablePrefix("wp_"))

	p := &ast.Plan{
		Table: "posts as p",
		Joins: []*ast.Join{{
			Type:   ast.LeftJoin,
			Table:  "comments",
			Wheres: []ast.Where{{Kind: ast.WhereColumn, Boolean: ast.And, First: "wp_comments.post_id", Operator: "=", Second: "p.id"}},
		}},
		Wheres: []ast.Where{basic("p.id", "=", 7)},
	}

	q := compileSelect(t, g, p)
	assert.Equal(t, `select * from "wp_posts" as "p" left join "wp_comments" on "wp_comments"."post_id" = "p"."id" where "p"."id" = ?`, q.SQL)

	assert.Equal(t, `"wp_posts"."id"`, g.Wrap("posts.id"))
	assert.Equal(t, `"wp_posts" as "p"`, g.WrapTable("posts as p"))
}

func TestCompileSelect_JoinTableStartingWithPrefix(t *testing.T) {
	g := sqlgen.MustGrammar("postgres", sqlgen.WithTablePrefix("user_"))

	from := compileSelect(t, g, &ast.Plan{Table: "user_roles"})
	assert.Equal(t, `select * from "user_user_roles"`, from.SQL)

	joined := compileSelect(t, g, &ast.Plan{
		Table: "users",
		Joins: []*ast.Join{{
			Type:   ast.InnerJoin,
			Table:  "user_roles",
			Wheres: []ast.Where{{Kind: ast.WhereColumn, Boolean: ast.And, First: "user_roles.user_id", Operator: "=", Second: "users.id"}},
		}},
	})
	assert.Equal(t, `select * from "user_users" inner join "user_user_roles" on "user_user_roles"."user_id" = "user_users"."id"`, joined.SQL)

	// the prefixed spelling of a joined table is not prefixed again
	spelled := compileSelect(t, g, &ast.Plan{
		Table: "users",
		Joins: []*ast.Join{{
			Type:   ast.InnerJoin,
			Table:  "roles",
			Wheres: []ast.Where{{Kind: ast.WhereColumn, Boolean: ast.And, First: "user_roles.id", Operator: "=", Second: "users.role_id"}},
		}},
	})
	assert.Equal(t, `select * from "user_users" inner join "user_roles" on "user_roles"."id" = "user_users"."role_id"`, spelled.SQL)
}

func TestCompileSelect_Subqueries(t *testing.T) {
	g := sqlgen.MustGrammar("sqlite", sqlgen.WithTablePrefix("wp_"))

	t.Run("where in subquery", func(t *testing.T) {
		p := &ast.Plan{
			Table: "users",
			Wheres: []ast.Where{{Kind: ast.WhereIn, Boolean: ast.And, Column: "id", Query: &ast.Plan{
				Table:   "posts",
				Columns: []interface{}{"user_id"},
				Wheres:  []ast.Where{basic("votes", ">", 10)},
			}}},
		}
		q := compileSelect(t, g, p)
		assert.Equal(t, `select * from "wp_users" where "id" in (select "user_id" from "wp_posts" where "votes" > ?)`, q.SQL)
		assert.Equal(t, []interface{}{10}, q.Args)
	})

	t.Run("correlated exists keeps outer alias", func(t *testing.T) {
		p := &ast.Plan{
			Table: "users as u",
			Wheres: []ast.Where{{Kind: ast.WhereExists, Boolean: ast.And, Query: &ast.Plan{
				Table:  "posts",
				Wheres: []ast.Where{{Kind: ast.WhereColumn, Boolean: ast.And, First: "posts.user_id", Operator: "=", Second: "u.id"}},
			}}},
		}
		q := compileSelect(t, g, p)
		assert.Equal(t, `select * from "wp_users" as "u" where exists (select * from "wp_posts" where "wp_posts"."user_id" = "u"."id")`, q.SQL)
	})

	t.Run("where sub", func(t *testing.T) {
		p := &ast.Plan{
			Table: "users",
			Wheres: []ast.Where{
				basic("active", "=", true),
				{Kind: ast.WhereSub, Boolean: ast.And, Column: "score", Operator: ">", Query: &ast.Plan{
					Table:     "scores",
					Aggregate: &ast.Aggregate{Function: ast.Avg, Columns: []interface{}{"value"}},
				}},
			},
		}
		q := compileSelect(t, sqlgen.MustGrammar("sqlite"), p)
		assert.Equal(t, `select * from "users" where "active" = ? and "score" > (select avg("value") as aggregate from "scores")`, q.SQL)
	})
}

func TestCompileSelect_Components(t *testing.T) {
	g := sqlgen.MustGrammar("sqlite")

	t.Run("distinct group having order limit offset", func(t *testing.T) {
		p := &ast.Plan{
			Table:    "users",
			Columns:  []interface{}{"status", ast.Raw("count(*) as total")},
			Distinct: true,
			Groups:   []interface{}{"status"},
			Havings: []ast.Where{
				{Kind: ast.WhereBasic, Boolean: ast.And, Column: ast.Raw("count(*)"), Operator: ">", Value: 5},
			},
			Orders: []ast.Order{
				{Column: "status", Direction: "desc"},
				{SQL: "length(status) > ?", Bindings: []interface{}{3}},
			},
			Limit:  intp(10),
			Offset: intp(20),
		}
		q := compileSelect(t, g, p)
		assert.Equal(t, `select distinct "status", count(*) as total from "users" group by "status" having count(*) > ? order by "status" desc, length(status) > ? limit 10 offset 20`, q.SQL)
		assert.Equal(t, []interface{}{5, 3}, q.Args)
	})

	t.Run("nested having", func(t *testing.T) {
		upper := ast.Where{Kind: ast.WhereBasic, Boolean: ast.Or, Column: "total", Operator: "<", Value: 10}
		p := &ast.Plan{
			Table:  "orders",
			Groups: []interface{}{"customer_id"},
			Havings: []ast.Where{{Kind: ast.WhereNested, Boolean: ast.And, Query: &ast.Plan{
				Havings: []ast.Where{basic("total", ">", 1), upper},
			}}},
		}
		q := compileSelect(t, g, p)
		assert.Equal(t, `select * from "orders" group by "customer_id" having ("total" > ? or "total" < ?)`, q.SQL)
	})

	t.Run("between null and raw", func(t *testing.T) {
		p := &ast.Plan{
			Table: "events",
			Wheres: []ast.Where{
				{Kind: ast.WhereBetween, Boolean: ast.And, Column: "day", Low: 1, High: 5},
				{Kind: ast.WhereNotBetween, Boolean: ast.Or, Column: "hour", Low: 9, High: 17},
				{Kind: ast.WhereNull, Boolean: ast.And, Column: "deleted_at"},
				{Kind: ast.WhereNotNull, Boolean: ast.And, Column: "published_at"},
				{Kind: ast.WhereRaw, Boolean: ast.And, SQL: "lower(name) = ?", Bindings: []interface{}{"x"}},
			},
		}
		q := compileSelect(t, g, p)
		assert.Equal(t, `select * from "events" where "day" between ? and ? or "hour" not between ? and ? and "deleted_at" is null and "published_at" is not null and lower(name) = ?`, q.SQL)
		assert.Equal(t, []interface{}{1, 5, 9, 17, "x"}, q.Args)
	})

	t.Run("count distinct", func(t *testing.T) {
		p := &ast.Plan{
			Table:     "users",
			Distinct:  true,
			Aggregate: &ast.Aggregate{Function: ast.Count, Columns: []interface{}{"email"}},
		}
		q := compileSelect(t, g, p)
		assert.Equal(t, `select count(distinct "email") as aggregate from "users"`, q.SQL)
	})

	t.Run("expression table and columns", func(t *testing.T) {
		p := &ast.Plan{Table: ast.Raw("generate_series(1, 3) as n"), Columns: []interface{}{ast.Raw("n * 2")}}
		q := compileSelect(t, g, p)
		assert.Equal(t, `select n * 2 from generate_series(1, 3) as n`, q.SQL)
	})
}

func TestCompileSelect_OffsetWithoutLimit(t *testing.T) {
	p := &ast.Plan{Table: "users", Offset: intp(5)}

	tests := map[string]string{
		"mysql":    "select * from `users` limit 18446744073709551615 offset 5",
		"postgres": `select * from "users" offset 5`,
		"sqlite":   `select * from "users" limit -1 offset 5`,
	}
	for driver, want := range tests {
		t.Run(driver, func(t *testing.T) {
			q := compileSelect(t, sqlgen.MustGrammar(driver), p)
			assert.Equal(t, want, q.SQL)
		})
	}
}

func TestCompileSelect_Locks(t *testing.T) {
	tests := []struct {
		driver string
		lock   ast.Lock
		want   string
	}{
		{"mysql", ast.Lock{Mode: ast.LockForUpdate}, "select * from `users` for update"},
		{"mysql", ast.Lock{Mode: ast.LockShared}, "select * from `users` lock in share mode"},
		{"postgres", ast.Lock{Mode: ast.LockForUpdate}, `select * from "users" for update`},
		{"postgres", ast.Lock{Mode: ast.LockShared}, `select * from "users" for share`},
		{"postgres", ast.Lock{Mode: ast.LockRaw, SQL: "for no key update"}, `select * from "users" for no key update`},
		{"sqlite", ast.Lock{Mode: ast.LockForUpdate}, `select * from "users"`},
	}
	for _, tt := range tests {
		lock := tt.lock
		q := compileSelect(t, sqlgen.MustGrammar(tt.driver), &ast.Plan{Table: "users", Lock: &lock})
		assert.Equal(t, tt.want, q.SQL)
	}
}

func TestCompileSelect_Unions(t *testing.T) {
	newPlan := func() *ast.Plan {
		return &ast.Plan{
			Table:  "users",
			Wheres: []ast.Where{basic("id", "=", 1)},
			Unions: []ast.Union{{Query: &ast.Plan{Table: "admins"}, All: true}},
		}
	}

	q := compileSelect(t, sqlgen.MustGrammar("mysql"), newPlan())
	assert.Equal(t, "(select * from `users` where `id` = ?) union all (select * from `admins`)", q.SQL)

	q = compileSelect(t, sqlgen.MustGrammar("sqlite"), newPlan())
	assert.Equal(t, `select * from (select * from "users" where "id" = ?) union all select * from (select * from "admins")`, q.SQL)

	p := newPlan()
	p.UnionOrders = []ast.Order{{Column: "id", Direction: "desc"}}
	p.UnionLimit = intp(5)
	q = compileSelect(t, sqlgen.MustGrammar("postgres"), p)
	assert.Equal(t, `(select * from "users" where "id" = ?) union all (select * from "admins") order by "id" desc limit 5`, q.SQL)

	t.Run("aggregate over union", func(t *testing.T) {
		p := &ast.Plan{
			Table:     "users",
			Unions:    []ast.Union{{Query: &ast.Plan{Table: "admins"}}},
			Aggregate: &ast.Aggregate{Function: ast.Count, Columns: []interface{}{"*"}},
		}
		q := compileSelect(t, sqlgen.MustGrammar("sqlite"), p)
		assert.Equal(t, `select count(*) as aggregate from (select * from (select * from "users") union select * from (select * from "admins")) as "temp_table"`, q.SQL)
		require.NotNil(t, p.Aggregate, "plan must not be mutated")
	})
}

func TestCompileSelect_JSON(t *testing.T) {
	selector := &ast.Plan{Table: "users", Wheres: []ast.Where{basic("options->language", "=", "en")}}

	tests := map[string]string{
		"mysql":    "select * from `users` where json_unquote(json_extract(`options`, '$.\"language\"')) = ?",
		"postgres": `select * from "users" where "options"->>'language' = ?`,
		"sqlite":   `select * from "users" where json_extract("options", '$."language"') = ?`,
	}
	for driver, want := range tests {
		q := compileSelect(t, sqlgen.MustGrammar(driver), selector)
		assert.Equal(t, want, q.SQL, driver)
	}

	contains := &ast.Plan{Table: "users", Wheres: []ast.Where{{
		Kind: ast.WhereJSONContains, Boolean: ast.And, Column: "options->languages", Value: "en",
	}}}

	q := compileSelect(t, sqlgen.MustGrammar("mysql"), contains)
	assert.Equal(t, "select * from `users` where json_contains(`options`, ?, '$.\"languages\"')", q.SQL)
	assert.Equal(t, []interface{}{`"en"`}, q.Args)

	q = compileSelect(t, sqlgen.MustGrammar("postgres"), contains)
	assert.Equal(t, `select * from "users" where ("options"->'languages')::jsonb @> ?`, q.SQL)

	_, err := sqlgen.MustGrammar("sqlite").CompileSelect(contains)
	ge := grammarErr(t, err, sqlgen.ErrUnsupportedFeature)
	assert.Equal(t, "whereJsonContains", ge.Component)
	assert.Equal(t, "sqlite", ge.Dialect)

	unencodable := &ast.Plan{Table: "users", Wheres: []ast.Where{{
		Kind: ast.WhereJSONContains, Boolean: ast.And, Column: "options", Value: make(chan int),
	}}}
	for _, driver := range []string{"mysql", "postgres"} {
		q, err := sqlgen.MustGrammar(driver).CompileSelect(unencodable)
		assert.Nil(t, q)
		ge := grammarErr(t, err, sqlgen.ErrInvalidValues)
		assert.Equal(t, "whereJsonContains", ge.Component)
	}

	length := &ast.Plan{Table: "posts", Wheres: []ast.Where{{
		Kind: ast.WhereJSONLength, Boolean: ast.And, Column: "tags", Operator: ">", Value: 2,
	}}}
	q = compileSelect(t, sqlgen.MustGrammar("postgres"), length)
	assert.Equal(t, `select * from "posts" where jsonb_array_length(("tags")::jsonb) > ?`, q.SQL)
	q = compileSelect(t, sqlgen.MustGrammar("sqlite"), length)
	assert.Equal(t, `select * from "posts" where json_array_length("tags") > ?`, q.SQL)
	q = compileSelect(t, sqlgen.MustGrammar("mysql"), length)
	assert.Equal(t, "select * from `posts` where json_length(`tags`) > ?", q.SQL)
}

func TestCompileSelect_PostgresKeyExists(t *testing.T) {
	g := sqlgen.MustGrammar("postgres")

	tests := []struct {
		op   string
		want string
	}{
		{"?", `select * from "users" where jsonb_exists("tags", ?)`},
		{"?|", `select * from "users" where jsonb_exists_any("tags", ?)`},
		{"?&", `select * from "users" where jsonb_exists_all("tags", ?)`},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			q := compileSelect(t, g, &ast.Plan{Table: "users", Wheres: []ast.Where{basic("tags", tt.op, "admin")}})
			assert.Equal(t, tt.want, q.SQL)
			assert.Equal(t, []interface{}{"admin"}, q.Args)
		})
	}

	q := compileSelect(t, g, &ast.Plan{Table: "users", Havings: []ast.Where{basic("tags", "?", "admin")}})
	assert.Equal(t, `select * from "users" having jsonb_exists("tags", ?)`, q.SQL)

	q = compileSelect(t, g, &ast.Plan{Table: "users", Wheres: []ast.Where{{
		Kind: ast.WhereColumn, Boolean: ast.And, First: "tags", Operator: "?", Second: "key",
	}}})
	assert.Equal(t, `select * from "users" where jsonb_exists("tags", "key")`, q.SQL)

	_, err := g.CompileSelect(&ast.Plan{Table: "posts", Wheres: []ast.Where{{
		Kind: ast.WhereJSONLength, Boolean: ast.And, Column: "tags", Operator: "?", Value: 2,
	}}})
	grammarErr(t, err, sqlgen.ErrInvalidOperator)
}

func TestCompileSelect_FullText(t *testing.T) {
	p := &ast.Plan{Table: "posts", Wheres: []ast.Where{{
		Kind: ast.WhereFullText, Boolean: ast.And, Columns: []string{"title", "body"}, Value: "golang",
	}}}

	q := compileSelect(t, sqlgen.MustGrammar("mysql"), p)
	assert.Equal(t, "select * from `posts` where match (`title`, `body`) against (? in natural language mode)", q.SQL)

	q = compileSelect(t, sqlgen.MustGrammar("postgres"), p)
	assert.Equal(t, `select * from "posts" where (to_tsvector('english', "title") || to_tsvector('english', "body")) @@ plainto_tsquery('english', ?)`, q.SQL)

	p.Wheres[0].Options = map[string]interface{}{"mode": "boolean"}
	q = compileSelect(t, sqlgen.MustGrammar("mysql"), p)
	assert.Equal(t, "select * from `posts` where match (`title`, `body`) against (? in boolean mode)", q.SQL)

	_, err := sqlgen.MustGrammar("sqlite").CompileSelect(p)
	grammarErr(t, err, sqlgen.ErrUnsupportedFeature)
}

func TestCompileSelect_DateParts(t *testing.T) {
	where := func(kind ast.WhereKind) *ast.Plan {
		return &ast.Plan{Table: "posts", Wheres: []ast.Where{{
			Kind: kind, Boolean: ast.And, Column: "created_at", Operator: "=", Value: "2024-01-02",
		}}}
	}

	tests := []struct {
		driver string
		kind   ast.WhereKind
		want   string
	}{
		{"mysql", ast.WhereDate, "select * from `posts` where date(`created_at`) = ?"},
		{"mysql", ast.WhereYear, "select * from `posts` where year(`created_at`) = ?"},
		{"postgres", ast.WhereDate, `select * from "posts" where "created_at"::date = ?`},
		{"postgres", ast.WhereTime, `select * from "posts" where "created_at"::time = ?`},
		{"postgres", ast.WhereMonth, `select * from "posts" where extract(month from "created_at") = ?`},
		{"sqlite", ast.WhereDate, `select * from "posts" where strftime('%Y-%m-%d', "created_at") = cast(? as text)`},
		{"sqlite", ast.WhereDay, `select * from "posts" where strftime('%d', "created_at") = cast(? as text)`},
	}
	for _, tt := range tests {
		q := compileSelect(t, sqlgen.MustGrammar(tt.driver), where(tt.kind))
		assert.Equal(t, tt.want, q.SQL)
	}
}

func TestCompileSelect_Errors(t *testing.T) {
	g := sqlgen.MustGrammar("sqlite")

	tests := []struct {
		name     string
		plan     *ast.Plan
		sentinel error
	}{
		{
			name:     "unknown predicate kind",
			plan:     &ast.Plan{Table: "t", Wheres: []ast.Where{{Boolean: ast.And, Column: "a"}}},
			sentinel: sqlgen.ErrUnsupportedPredicate,
		},
		{
			name:     "having over an unsupported kind",
			plan:     &ast.Plan{Table: "t", Havings: []ast.Where{{Kind: ast.WhereIn, Boolean: ast.And, Column: "a", Values: []interface{}{1}}}},
			sentinel: sqlgen.ErrUnsupportedPredicate,
		},
		{
			name:     "invalid operator",
			plan:     &ast.Plan{Table: "t", Wheres: []ast.Where{basic("a", "===", 1)}},
			sentinel: sqlgen.ErrInvalidOperator,
		},
		{
			name:     "invalid join type",
			plan:     &ast.Plan{Table: "t", Joins: []*ast.Join{{Type: "outer", Table: "u"}}},
			sentinel: sqlgen.ErrInvalidJoinType,
		},
		{
			name:     "invalid aggregate",
			plan:     &ast.Plan{Table: "t", Aggregate: &ast.Aggregate{Function: "median"}},
			sentinel: sqlgen.ErrInvalidAggregate,
		},
		{
			name:     "invalid direction",
			plan:     &ast.Plan{Table: "t", Orders: []ast.Order{{Column: "a", Direction: "up"}}},
			sentinel: sqlgen.ErrInvalidDirection,
		},
		{
			name:     "raw binding mismatch",
			plan:     &ast.Plan{Table: "t", Wheres: []ast.Where{{Kind: ast.WhereRaw, Boolean: ast.And, SQL: "a = ? and b = ?", Bindings: []interface{}{1}}}},
			sentinel: sqlgen.ErrBindingMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := g.CompileSelect(tt.plan)
			assert.Nil(t, q)
			grammarErr(t, err, tt.sentinel)
		})
	}
}

func TestCompileSelect_Deterministic(t *testing.T) {
	p := &ast.Plan{
		Table:   "users as u",
		Columns: []interface{}{"u.id", "u.name as display"},
		Joins: []*ast.Join{{
			Type:   ast.InnerJoin,
			Table:  "posts",
			Wheres: []ast.Where{{Kind: ast.WhereColumn, Boolean: ast.And, First: "posts.user_id", Operator: "=", Second: "u.id"}, basic("posts.draft", "=", false)},
		}},
		Wheres: []ast.Where{
			{Kind: ast.WhereIn, Boolean: ast.And, Column: "u.role", Values: []interface{}{"a", "b"}},
			{Kind: ast.WhereNested, Boolean: ast.Or, Query: &ast.Plan{Wheres: []ast.Where{basic("u.age", ">", 30), basic("u.age", "<", 60)}}},
		},
		Orders: []ast.Order{{Column: "u.id", Direction: "asc"}},
		Limit:  intp(3),
	}

	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		g := sqlgen.MustGrammar(driver, sqlgen.WithTablePrefix("app_"))
		first := compileSelect(t, g, p)
		second := compileSelect(t, g, p)
		assert.Equal(t, first, second, driver)
		assert.Equal(t, []interface{}{false, "a", "b", 30, 60}, first.Args)
	}
}

func TestCompileExists(t *testing.T) {
	q, err := sqlgen.MustGrammar("postgres").CompileExists(&ast.Plan{Table: "users", Wheres: []ast.Where{basic("id", "=", 1)}})
	require.NoError(t, err)
	assert.Equal(t, `select exists(select * from "users" where "id" = ?) as "exists"`, q.SQL)
	assert.Equal(t, []interface{}{1}, q.Args)
}

func TestCompileInsert(t *testing.T) {
	p := &ast.Plan{Table: "users"}
	rows := []map[string]interface{}{
		{"name": "a", "email": "a@x"},
		{"name": "b", "email": "b@x"},
	}

	q, err := sqlgen.MustGrammar("sqlite").CompileInsert(p, rows)
	require.NoError(t, err)
	assert.Equal(t, `insert into "users" ("email", "name") values (?, ?), (?, ?)`, q.SQL)
	assert.Equal(t, []interface{}{"a@x", "a", "b@x", "b"}, q.Args)

	q, err = sqlgen.MustGrammar("mysql").CompileInsert(p, []map[string]interface{}{{"created_at": ast.Raw("now()"), "name": "c"}})
	require.NoError(t, err)
	assert.Equal(t, "insert into `users` (`created_at`, `name`) values (now(), ?)", q.SQL)
	assert.Equal(t, []interface{}{"c"}, q.Args)

	t.Run("empty row", func(t *testing.T) {
		q, err := sqlgen.MustGrammar("mysql").CompileInsert(p, nil)
		require.NoError(t, err)
		assert.Equal(t, "insert into `users` () values ()", q.SQL)

		q, err = sqlgen.MustGrammar("postgres").CompileInsert(p, []map[string]interface{}{{}})
		require.NoError(t, err)
		assert.Equal(t, `insert into "users" default values`, q.SQL)
	})

	t.Run("mismatched rows", func(t *testing.T) {
		_, err := sqlgen.MustGrammar("sqlite").CompileInsert(p, []map[string]interface{}{{"a": 1}, {"b": 2}})
		grammarErr(t, err, sqlgen.ErrInvalidValues)
	})

	t.Run("missing table", func(t *testing.T) {
		_, err := sqlgen.MustGrammar("sqlite").CompileInsert(&ast.Plan{}, rows)
		grammarErr(t, err, sqlgen.ErrMissingTable)
	})
}

func TestCompileInsertVariants(t *testing.T) {
	p := &ast.Plan{Table: "users"}
	row := map[string]interface{}{"name": "a"}

	t.Run("insert get id", func(t *testing.T) {
		q, err := sqlgen.MustGrammar("postgres").CompileInsertGetID(p, row, "")
		require.NoError(t, err)
		assert.Equal(t, `insert into "users" ("name") values (?) returning "id"`, q.SQL)

		q, err = sqlgen.MustGrammar("mysql").CompileInsertGetID(p, row, "")
		require.NoError(t, err)
		assert.Equal(t, "insert into `users` (`name`) values (?)", q.SQL)

		q, err = sqlgen.MustGrammar("sqlite").CompileInsertGetID(p, row, "")
		require.NoError(t, err)
		assert.Equal(t, `insert into "users" ("name") values (?)`, q.SQL)

		modern := sqlgen.MustGrammar("sqlite", sqlgen.WithServerVersion("3.45.1"))
		assert.True(t, modern.SupportsReturning())
		q, err = modern.CompileInsertGetID(p, row, "user_id")
		require.NoError(t, err)
		assert.Equal(t, `insert into "users" ("name") values (?) returning "user_id"`, q.SQL)
	})

	t.Run("insert or ignore", func(t *testing.T) {
		tests := map[string]string{
			"mysql":    "insert ignore into `users` (`name`) values (?)",
			"postgres": `insert into "users" ("name") values (?) on conflict do nothing`,
			"sqlite":   `insert or ignore into "users" ("name") values (?)`,
		}
		for driver, want := range tests {
			q, err := sqlgen.MustGrammar(driver).CompileInsertOrIgnore(p, []map[string]interface{}{row})
			require.NoError(t, err)
			assert.Equal(t, want, q.SQL, driver)
		}
	})

	t.Run("upsert", func(t *testing.T) {
		rows := []map[string]interface{}{{"email": "a@x", "name": "a"}}

		q, err := sqlgen.MustGrammar("postgres").CompileUpsert(p, rows, []string{"email"}, []string{"name"})
		require.NoError(t, err)
		assert.Equal(t, `insert into "users" ("email", "name") values (?, ?) on conflict ("email") do update set "name" = "excluded"."name"`, q.SQL)

		q, err = sqlgen.MustGrammar("mysql").CompileUpsert(p, rows, []string{"email"}, []string{"name"})
		require.NoError(t, err)
		assert.Equal(t, "insert into `users` (`email`, `name`) values (?, ?) on duplicate key update `name` = values(`name`)", q.SQL)

		_, err = sqlgen.MustGrammar("sqlite").CompileUpsert(p, rows, nil, []string{"name"})
		grammarErr(t, err, sqlgen.ErrInvalidValues)
	})

	t.Run("insert using", func(t *testing.T) {
		source := &ast.Plan{Table: "users", Columns: []interface{}{"name"}, Wheres: []ast.Where{basic("active", "=", true)}}
		q, err := sqlgen.MustGrammar("sqlite").CompileInsertUsing(&ast.Plan{Table: "archive"}, []string{"name"}, source)
		require.NoError(t, err)
		assert.Equal(t, `insert into "archive" ("name") select "name" from "users" where "active" = ?`, q.SQL)
		assert.Equal(t, []interface{}{true}, q.Args)
	})
}

func TestCompileUpdate(t *testing.T) {
	p := &ast.Plan{Table: "users", Wheres: []ast.Where{basic("id", "=", 1)}}
	values := map[string]interface{}{"name": "x", "users.votes": ast.Raw(`"votes" + 1`)}

	q, err := sqlgen.MustGrammar("sqlite").CompileUpdate(p, values)
	require.NoError(t, err)
	assert.Equal(t, `update "users" set "name" = ?, "votes" = "votes" + 1 where "id" = ?`, q.SQL)
	assert.Equal(t, []interface{}{"x", 1}, q.Args)

	joined := &ast.Plan{
		Table: "users",
		Joins: []*ast.Join{{
			Type:   ast.InnerJoin,
			Table:  "posts",
			Wheres: []ast.Where{{Kind: ast.WhereColumn, Boolean: ast.And, First: "posts.user_id", Operator: "=", Second: "users.id"}},
		}},
		Wheres: []ast.Where{basic("posts.flagged", "=", 1)},
	}
	q, err = sqlgen.MustGrammar("mysql").CompileUpdate(joined, map[string]interface{}{"users.active": false})
	require.NoError(t, err)
	assert.Equal(t, "update `users` inner join `posts` on `posts`.`user_id` = `users`.`id` set `users`.`active` = ? where `posts`.`flagged` = ?", q.SQL)
	assert.Equal(t, []interface{}{false, 1}, q.Args)

	_, err = sqlgen.MustGrammar("postgres").CompileUpdate(joined, map[string]interface{}{"active": false})
	ge := grammarErr(t, err, sqlgen.ErrUnsupportedFeature)
	assert.Equal(t, "update", ge.Component)

	_, err = sqlgen.MustGrammar("postgres").CompileUpdate(p, nil)
	grammarErr(t, err, sqlgen.ErrInvalidValues)
}

func TestCompileDelete(t *testing.T) {
	q, err := sqlgen.MustGrammar("sqlite").CompileDelete(&ast.Plan{Table: "users", Wheres: []ast.Where{basic("id", "=", 1)}})
	require.NoError(t, err)
	assert.Equal(t, `delete from "users" where "id" = ?`, q.SQL)

	joined := &ast.Plan{
		Table: "users as u",
		Joins: []*ast.Join{{
			Type:   ast.InnerJoin,
			Table:  "posts",
			Wheres: []ast.Where{{Kind: ast.WhereColumn, Boolean: ast.And, First: "posts.user_id", Operator: "=", Second: "u.id"}},
		}},
		Wheres: []ast.Where{basic("posts.spam", "=", 1)},
	}
	q, err = sqlgen.MustGrammar("mysql").CompileDelete(joined)
	require.NoError(t, err)
	assert.Equal(t, "delete `u` from `users` as `u` inner join `posts` on `posts`.`user_id` = `u`.`id` where `posts`.`spam` = ?", q.SQL)

	_, err = sqlgen.MustGrammar("sqlite").CompileDelete(joined)
	grammarErr(t, err, sqlgen.ErrUnsupportedFeature)
}

func TestCompileTruncate(t *testing.T) {
	p := &ast.Plan{Table: "users"}

	got, err := sqlgen.MustGrammar("mysql").CompileTruncate(p)
	require.NoError(t, err)
	assert.Equal(t, map[string][]interface{}{"truncate table `users`": {}}, got)

	got, err = sqlgen.MustGrammar("postgres").CompileTruncate(p)
	require.NoError(t, err)
	assert.Equal(t, map[string][]interface{}{`truncate "users" restart identity cascade`: {}}, got)

	got, err = sqlgen.MustGrammar("sqlite", sqlgen.WithTablePrefix("wp_")).CompileTruncate(p)
	require.NoError(t, err)
	assert.Equal(t, map[string][]interface{}{
		"delete from sqlite_sequence where name = ?": {"wp_users"},
		`delete from "wp_users"`:                     {},
	}, got)
}

func TestWrapAndParameter(t *testing.T) {
	my := sqlgen.MustGrammar("mysql")
	lite := sqlgen.MustGrammar("sqlite")

	assert.Equal(t, "`users`.`name` as `n`", my.Wrap("users.name AS n"))
	assert.Equal(t, "`a``b`", my.Wrap("a`b"))
	assert.Equal(t, `"we""ird"`, lite.Wrap(`we"ird`))
	assert.Equal(t, "*", lite.Wrap("*"))
	assert.Equal(t, `"users".*`, lite.Wrap("users.*"))
	assert.Equal(t, "count(*)", lite.Wrap(ast.Raw("count(*)")))

	assert.Equal(t, "?", lite.Parameter(1))
	assert.Equal(t, "now()", lite.Parameter(ast.Raw("now()")))
	assert.Equal(t, "?, now(), ?", lite.Parameterize([]interface{}{1, ast.Raw("now()"), "x"}))

	lite.SetTablePrefix("t_")
	assert.Equal(t, "t_", lite.TablePrefix())
	assert.Equal(t, `"t_users"`, lite.WrapTable("users"))
	assert.Equal(t, `"main"."t_users"`, lite.WrapTable("main.users"))
}

func TestDialectText(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		g := sqlgen.MustGrammar(driver)
		assert.True(t, g.SupportsSavepoints())
		assert.Equal(t, "SAVEPOINT trans2", g.CompileSavepoint("trans2"))
		assert.Equal(t, "ROLLBACK TO SAVEPOINT trans2", g.CompileSavepointRollBack("trans2"))
		assert.Contains(t, g.Operators(), "=")
		assert.NotEmpty(t, g.DateFormat())
	}

	assert.Equal(t, "RAND(5)", sqlgen.MustGrammar("mysql").CompileRandom("5"))
	assert.Equal(t, "RANDOM()", sqlgen.MustGrammar("postgres").CompileRandom(""))
	assert.Contains(t, sqlgen.MustGrammar("postgres").Operators(), "@>")
	assert.NotContains(t, sqlgen.MustGrammar("sqlite").Operators(), "@>")
}

func TestGrammarError_Message(t *testing.T) {
	err := &sqlgen.GrammarError{Dialect: "sqlite", Component: "whereFullText", Err: sqlgen.ErrUnsupportedFeature}
	assert.Equal(t, "sqlkit: unsupported feature in whereFullText (sqlite)", err.Error())

	err = sqlgen.NewError("join", sqlgen.ErrInvalidJoinType, `"outer"`)
	assert.Equal(t, `sqlkit: invalid join type in join: "outer"`, err.Error())
	assert.ErrorIs(t, err, sqlgen.ErrInvalidJoinType)
}

func TestCompileSelect_CTE(t *testing.T) {
	g := sqlgen.MustGrammar("postgres")

	p := &ast.Plan{
		Table:  "recent",
		Wheres: []ast.Where{basic("total", ">", 5)},
		CTEs: []ast.CTE{{
			Name:    "recent",
			Columns: []string{"id", "total"},
			Query: &ast.Plan{
				Table:   "orders",
				Columns: []interface{}{"id", "total"},
				Wheres:  []ast.Where{basic("day", ">=", "2024-01-01")},
			},
		}},
	}
	q := compileSelect(t, g, p)
	assert.Equal(t, `with "recent" ("id", "total") as (select "id", "total" from "orders" where "day" >= ?) select * from "recent" where "total" > ?`, q.SQL)
	assert.Equal(t, []interface{}{"2024-01-01", 5}, q.Args)

	rec := &ast.Plan{
		Table: "nums",
		CTEs: []ast.CTE{{
			Name:      "nums",
			Recursive: true,
			Query: &ast.Plan{
				Columns: []interface{}{ast.Raw("1 as n")},
				Unions: []ast.Union{{All: true, Query: &ast.Plan{
					Table:   "nums",
					Columns: []interface{}{ast.Raw("n + 1")},
					Wheres:  []ast.Where{basic("n", "<", 5)},
				}}},
			},
		}},
	}
	q = compileSelect(t, g, rec)
	assert.Equal(t, `with recursive "nums" as ((select 1 as n) union all (select n + 1 from "nums" where "n" < ?)) select * from "nums"`, q.SQL)
	assert.Equal(t, []interface{}{5}, q.Args)

	_, err := g.CompileSelect(&ast.Plan{Table: "t", CTEs: []ast.CTE{{Name: "x"}}})
	grammarErr(t, err, sqlgen.ErrInvalidValues)
}
