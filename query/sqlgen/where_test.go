package sqlgen

import (
	"testing"

	"github.com/satishbabariya/sqlkit/query/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhereCompilers_CoverEveryKind(t *testing.T) {
	for k := ast.WhereBasic; k < ast.WhereKindCount; k++ {
		assert.NotNil(t, whereCompilers[k], "no compiler for %s", k)
	}
	assert.Nil(t, whereCompilers[0])
}

func TestRemoveLeadingBoolean(t *testing.T) {
	tests := map[string]string{
		"and a = ?":          "a = ?",
		"or a = ? or b = ?":  "a = ? or b = ?",
		"OR a = ?":           "a = ?",
		"a = ? and b = ?":    "a = ? and b = ?",
		"order = ? and x":    "order = ? and x",
		"and and_flag = ?":   "and_flag = ?",
		"android = ? or b=?": "android = ? or b=?",
	}
	for in, want := range tests {
		assert.Equal(t, want, removeLeadingBoolean(in), in)
	}
}

func TestState_ChildInheritsAliases(t *testing.T) {
	parent := newState()
	parent.scan(&ast.Plan{
		Table: "users as u",
		Joins: []*ast.Join{{Type: ast.InnerJoin, Table: "posts as p"}, {Type: ast.LeftJoin, Table: "tags"}},
	})
	assert.True(t, parent.isAlias("u"))
	assert.True(t, parent.isAlias("p"))
	assert.True(t, parent.isJoined("posts"))
	assert.True(t, parent.isJoined("tags"))

	child := parent.child()
	child.scan(&ast.Plan{Table: "comments as c"})
	child.bind(1)

	assert.True(t, child.isAlias("u"))
	assert.True(t, child.isAlias("c"))
	assert.False(t, parent.isAlias("c"), "child aliases must not leak into the parent")
	require.Len(t, parent.args(), 1, "bindings are shared")
}

func TestSplitJSONSelector(t *testing.T) {
	field, path := splitJSONSelector("meta->'tags'->0")
	assert.Equal(t, "meta", field)
	assert.Equal(t, []string{"tags", "0"}, path)
	assert.Equal(t, `'$."tags"[0]'`, jsonPath(path))
}
