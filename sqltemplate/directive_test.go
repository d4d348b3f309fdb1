package sqltemplate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxgen/sqlxgen/dialect"
	"github.com/sqlxgen/sqlxgen/sqltemplate"
)

func TestParseDirectiveTemplate_IfAndVar(t *testing.T) {
	p, err := sqltemplate.ParseDirectiveTemplate("SELECT * FROM t WHERE 1=1 {{if active}}AND active = {{active}}{{endif}}")
	require.NoError(t, err)
	assert.True(t, p.OK)

	sql, params, err := sqltemplate.Render(p, dialect.Lookup(dialect.PostgreSQL), sqltemplate.Scope{"active": true}, sqltemplate.ModeParameterize)
	require.NoError(t, err)
	assert.Contains(t, sql, "AND active = p0")
	require.Len(t, params, 1)
	assert.Equal(t, true, params[0])
}

func TestParseDirectiveTemplate_IfFalseSkipsBody(t *testing.T) {
	p, err := sqltemplate.ParseDirectiveTemplate("{{if flag}}X{{endif}}Y")
	require.NoError(t, err)
	sql, _, err := sqltemplate.Render(p, dialect.Lookup(dialect.MySQL), sqltemplate.Scope{"flag": false}, sqltemplate.ModeLiteral)
	require.NoError(t, err)
	assert.Equal(t, "Y", sql)
}

func TestParseDirectiveTemplate_Each(t *testing.T) {
	p, err := sqltemplate.ParseDirectiveTemplate("{{each x in items}}[{{x}}]{{endeach}}")
	require.NoError(t, err)
	sql, _, err := sqltemplate.Render(p, dialect.Lookup(dialect.MySQL), sqltemplate.Scope{"items": []any{"a", "b"}}, sqltemplate.ModeLiteral)
	require.NoError(t, err)
	assert.Equal(t, "['a']['b']", sql)
}

func TestParseDirectiveTemplate_Nested(t *testing.T) {
	p, err := sqltemplate.ParseDirectiveTemplate("{{each x in items}}{{if x}}Y{{endif}}{{endeach}}")
	require.NoError(t, err)
	assert.True(t, p.OK)
}

func TestParseDirectiveTemplate_UnclosedBrace(t *testing.T) {
	_, err := sqltemplate.ParseDirectiveTemplate("SELECT {{if x")
	assert.ErrorIs(t, err, sqltemplate.ErrTemplateSyntax)
}

func TestParseDirectiveTemplate_UnclosedBlock(t *testing.T) {
	_, err := sqltemplate.ParseDirectiveTemplate("{{if x}}no endif")
	assert.ErrorIs(t, err, sqltemplate.ErrTemplateSyntax)
}

func TestParseDirectiveTemplate_EachWithoutIn(t *testing.T) {
	_, err := sqltemplate.ParseDirectiveTemplate("{{each x items}}{{endeach}}")
	assert.ErrorIs(t, err, sqltemplate.ErrTemplateSyntax)
}

func TestEngineCache(t *testing.T) {
	e := sqltemplate.NewEngine()
	p1, err := e.Parse("{{var}}", dialect.Lookup(dialect.MySQL))
	require.NoError(t, err)
	p2, err := e.Parse("{{var}}", dialect.Lookup(dialect.MySQL))
	require.NoError(t, err)
	assert.Same(t, p1, p2)
}
