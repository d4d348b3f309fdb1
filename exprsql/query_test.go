package exprsql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxgen/sqlxgen/dialect"
	"github.com/sqlxgen/sqlxgen/exprsql"
)

func TestQueryWhereOrderByTake(t *testing.T) {
	e := testEntity()
	r, err := exprsql.ForDialect(dialect.Lookup(dialect.SQLServer)).
		For(e).
		Where(exprsql.Gte(exprsql.Col("Age"), exprsql.Lit(18))).
		Where(exprsql.Col("IsActive")).
		OrderBy("Name", false).
		Take(10).
		Render()
	require.NoError(t, err)
	assert.Equal(t, `WHERE [age] >= 18 AND [is_active] = 1 ORDER BY [name] ASC OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY`, r.SQL)
	assert.Empty(t, r.Warnings)
}

func TestQuerySkipWithoutOrderByWarnsAndFallsBackToIdentity(t *testing.T) {
	e := testEntity()
	r, err := exprsql.ForDialect(dialect.Lookup(dialect.PostgreSQL)).
		For(e).
		Skip(20).
		Take(10).
		Render()
	require.NoError(t, err)
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "GEN050")
	assert.Contains(t, r.SQL, `ORDER BY "id" ASC`)
}

func TestQueryGroupByHaving(t *testing.T) {
	e := testEntity()
	r, err := exprsql.ForDialect(dialect.Lookup(dialect.MySQL)).
		For(e).
		GroupBy("Age").
		Having(exprsql.Gt(exprsql.AggregateNode{Kind: exprsql.AggCount}, exprsql.Lit(1))).
		Render()
	require.NoError(t, err)
	assert.Contains(t, r.SQL, "GROUP BY")
	assert.Contains(t, r.SQL, "HAVING")
	assert.Contains(t, r.SQL, "COUNT(*)")
}

func TestQueryParameterizeCollectsParamsInOrder(t *testing.T) {
	e := testEntity()
	r, err := exprsql.ForDialect(dialect.Lookup(dialect.MySQL)).
		For(e).
		Parameterize().
		Where(exprsql.Eq(exprsql.Col("Name"), exprsql.Capture("name", "Ada"))).
		Where(exprsql.Gte(exprsql.Col("Age"), exprsql.Capture("minAge", 18))).
		Render()
	require.NoError(t, err)
	require.Len(t, r.Params, 2)
	assert.Equal(t, "Ada", r.Params[0].Value)
	assert.Equal(t, 18, r.Params[1].Value)
}
