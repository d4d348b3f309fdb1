package sqltemplate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxgen/sqlxgen/dialect"
	"github.com/sqlxgen/sqlxgen/sqltemplate"
	"github.com/sqlxgen/sqlxgen/typesys"
)

func userEntity(t *testing.T) *typesys.Entity {
	t.Helper()
	a := typesys.NewAnalyzer()
	e := &typesys.Entity{
		TypeName:  "User",
		TableName: "user",
		Properties: []typesys.Property{
			{MemberName: "Id", ColumnName: "id", IsIdentity: true, IsReadable: true},
			{MemberName: "Name", ColumnName: "name", IsReadable: true},
			{MemberName: "Email", ColumnName: "email", IsReadable: true},
			{MemberName: "Age", ColumnName: "age", IsReadable: true},
		},
	}
	_ = a
	return e
}

func TestExpandColumnsTableWhereId(t *testing.T) {
	exp := &sqltemplate.Expander{Dialect: dialect.Lookup(dialect.SQLServer), Entity: userEntity(t)}
	sql, params, unknown, err := exp.Expand("SELECT {{columns:auto}} FROM {{table}} WHERE {{where:id}}")
	require.NoError(t, err)
	assert.Empty(t, unknown)
	assert.Equal(t, "SELECT id, name, email, age FROM [user] WHERE [id] = @id", sql)
	require.Len(t, params, 1)
	assert.Equal(t, "id", params[0].Name)
}

func TestExpandSetAuto(t *testing.T) {
	exp := &sqltemplate.Expander{Dialect: dialect.Lookup(dialect.PostgreSQL), Entity: userEntity(t)}
	sql, params, _, err := exp.Expand("UPDATE {{table}} SET {{set:auto}} WHERE {{where:id}}")
	require.NoError(t, err)
	assert.Contains(t, sql, `"name" = $1`)
	assert.Len(t, params, 4) // name, email, age, id
}

func TestExpandColumnsInsertExcludesIdentity(t *testing.T) {
	exp := &sqltemplate.Expander{Dialect: dialect.Lookup(dialect.SQLite), Entity: userEntity(t)}
	sql, params, _, err := exp.Expand("INSERT INTO {{table}} ({{columns:insert}}) VALUES ({{values:auto}})")
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "user" (name, email, age) VALUES (@name, @email, @age)`, sql)
	require.Len(t, params, 3)
	assert.Equal(t, "name", params[0].Name)
}

func TestExpandUnknownOpPreservedVerbatim(t *testing.T) {
	exp := &sqltemplate.Expander{Dialect: dialect.Lookup(dialect.MySQL), Entity: userEntity(t)}
	sql, _, unknown, err := exp.Expand("SELECT 1 {{bogus:arg}}")
	require.NoError(t, err)
	require.Len(t, unknown, 1)
	assert.Contains(t, sql, "{{bogus:arg}}")
}

func TestExpandBetweenAndLike(t *testing.T) {
	exp := &sqltemplate.Expander{Dialect: dialect.Lookup(dialect.MySQL), Entity: userEntity(t)}
	sql, params, _, err := exp.Expand("SELECT * FROM {{table}} WHERE {{between:age|min=lo|max=hi}} AND {{like:name|pattern=p}}")
	require.NoError(t, err)
	assert.Contains(t, sql, "BETWEEN")
	assert.Contains(t, sql, "LIKE")
	require.Len(t, params, 3)
}

func TestExpandAggregateAndDistinct(t *testing.T) {
	exp := &sqltemplate.Expander{Dialect: dialect.Lookup(dialect.PostgreSQL), Entity: userEntity(t)}
	sql, _, _, err := exp.Expand("SELECT {{count}}, {{distinct:name}} FROM {{table}}")
	require.NoError(t, err)
	assert.Contains(t, sql, "COUNT(*)")
	assert.Contains(t, sql, `DISTINCT "name"`)
}
