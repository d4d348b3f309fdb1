package exprsql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxgen/sqlxgen/dialect"
	"github.com/sqlxgen/sqlxgen/exprsql"
	"github.com/sqlxgen/sqlxgen/typesys"
)

func testEntity() *typesys.Entity {
	return &typesys.Entity{
		TypeName:  "User",
		TableName: "user",
		Properties: []typesys.Property{
			{MemberName: "Id", ColumnName: "id", IsIdentity: true, IsReadable: true},
			{MemberName: "Name", ColumnName: "name", IsReadable: true},
			{MemberName: "Age", ColumnName: "age", IsReadable: true},
			{MemberName: "IsActive", ColumnName: "is_active", IsReadable: true,
				Class: &typesys.Classification{Category: typesys.CategoryScalar, ScalarKind: typesys.ScalarBool}},
		},
	}
}

func TestRenderBinaryAndLogical(t *testing.T) {
	e := testEntity()
	expr := exprsql.And(
		exprsql.Gte(exprsql.Col("Age"), exprsql.Lit(18)),
		exprsql.Col("IsActive"),
	)
	sql, params, err := exprsql.Render(dialect.Lookup(dialect.SQLServer), e, expr, exprsql.ModeLiteral)
	require.NoError(t, err)
	assert.Equal(t, "[age] >= 18 AND [is_active] = 1", sql)
	assert.Empty(t, params)
}

func TestRenderBareBoolMemberPredicate(t *testing.T) {
	e := testEntity()
	sql, _, err := exprsql.Render(dialect.Lookup(dialect.PostgreSQL), e, exprsql.Col("IsActive"), exprsql.ModeLiteral)
	require.NoError(t, err)
	assert.Equal(t, `"is_active" = TRUE`, sql)
}

func TestRenderNotBoolMember(t *testing.T) {
	e := testEntity()
	sql, _, err := exprsql.Render(dialect.Lookup(dialect.SQLServer), e, exprsql.Not(exprsql.Col("IsActive")), exprsql.ModeLiteral)
	require.NoError(t, err)
	assert.Equal(t, "NOT ([is_active] = 1)", sql)
}

func TestRenderNullRewrite(t *testing.T) {
	e := testEntity()
	expr := exprsql.Eq(exprsql.Col("Name"), exprsql.Null())
	sql, _, err := exprsql.Render(dialect.Lookup(dialect.PostgreSQL), e, expr, exprsql.ModeLiteral)
	require.NoError(t, err)
	assert.Equal(t, `"name" IS NULL`, sql)
}

func TestRenderParameterizeMode(t *testing.T) {
	e := testEntity()
	expr := exprsql.Eq(exprsql.Col("Name"), exprsql.Capture("name", "Ada"))
	sql, params, err := exprsql.Render(dialect.Lookup(dialect.PostgreSQL), e, expr, exprsql.ModeParameterize)
	require.NoError(t, err)
	assert.Contains(t, sql, "$1")
	require.Len(t, params, 1)
	assert.Equal(t, "Ada", params[0].Value)
}

func TestRenderContainsCall(t *testing.T) {
	e := testEntity()
	expr := exprsql.CallNode{Kind: exprsql.CallContains, Recv: exprsql.Col("Name"), Args: []exprsql.Node{exprsql.Lit("ada")}}
	sql, _, err := exprsql.Render(dialect.Lookup(dialect.MySQL), e, expr, exprsql.ModeLiteral)
	require.NoError(t, err)
	assert.Contains(t, sql, "LIKE")
	assert.Contains(t, sql, "%ada%")
}

func TestRenderInCall(t *testing.T) {
	e := testEntity()
	expr := exprsql.CallNode{Kind: exprsql.CallIn, Recv: exprsql.Col("Age"), Args: []exprsql.Node{exprsql.Capture("ages", []int{1, 2, 3})}}
	sql, params, err := exprsql.Render(dialect.Lookup(dialect.MySQL), e, expr, exprsql.ModeParameterize)
	require.NoError(t, err)
	assert.Contains(t, sql, "IN (")
	require.Len(t, params, 3)
}

func TestRenderUnsupportedNodeNamesKind(t *testing.T) {
	e := testEntity()
	_, _, err := exprsql.Render(dialect.Lookup(dialect.MySQL), e, exprsql.CallNode{Kind: "Frobnicate"}, exprsql.ModeLiteral)
	require.Error(t, err)
	assert.ErrorIs(t, err, exprsql.ErrUnsupportedExpression)
	assert.Contains(t, err.Error(), "Frobnicate")
}

func TestRenderConditionalAndCoalesce(t *testing.T) {
	e := testEntity()
	cond := exprsql.ConditionalNode{Cond: exprsql.Col("IsActive"), Then: exprsql.Lit("active"), Else: exprsql.Lit("inactive")}
	sql, _, err := exprsql.Render(dialect.Lookup(dialect.MySQL), e, cond, exprsql.ModeLiteral)
	require.NoError(t, err)
	assert.Contains(t, sql, "CASE WHEN")

	coal := exprsql.CoalesceNode{Args: []exprsql.Node{exprsql.Col("Name"), exprsql.Lit("unknown")}}
	sql, _, err = exprsql.Render(dialect.Lookup(dialect.MySQL), e, coal, exprsql.ModeLiteral)
	require.NoError(t, err)
	assert.Contains(t, sql, "COALESCE(")
}
