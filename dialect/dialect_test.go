package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sqlxgen/sqlxgen/dialect"
)

func TestWrapIdent(t *testing.T) {
	assert.Equal(t, "[User]", dialect.WrapIdent(dialect.Lookup(dialect.SQLServer), "User"))
	assert.Equal(t, "`user`", dialect.WrapIdent(dialect.Lookup(dialect.MySQL), "user"))
	assert.Equal(t, `"user"`, dialect.WrapIdent(dialect.Lookup(dialect.PostgreSQL), "user"))
	assert.Equal(t, `"s"."t"`, dialect.WrapIdent(dialect.Lookup(dialect.PostgreSQL), "s.t"))
}

func TestWrapString(t *testing.T) {
	got := dialect.WrapString(dialect.Lookup(dialect.MySQL), "O'Brien")
	assert.Equal(t, "'O''Brien'", got)
}

func TestParamRef(t *testing.T) {
	assert.Equal(t, "@id", dialect.ParamRef(dialect.Lookup(dialect.SQLServer), "id", 1))
	assert.Equal(t, ":1", dialect.ParamRef(dialect.Lookup(dialect.Oracle), "id", 1))
	assert.Equal(t, "$1", dialect.ParamRef(dialect.Lookup(dialect.PostgreSQL), "id", 1))
	assert.Equal(t, "?", dialect.ParamRef(dialect.Lookup(dialect.DB2), "id", 3))
	assert.Equal(t, "?", dialect.ParamRef(dialect.Lookup(dialect.MySQL), "id", 1))
}

func TestPaging(t *testing.T) {
	sqlserver := dialect.Lookup(dialect.SQLServer)
	p := dialect.Paging(sqlserver, 0, 10)
	assert.Equal(t, "OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY", p.Suffix)

	mysql := dialect.Lookup(dialect.MySQL)
	p = dialect.Paging(mysql, 20, 10)
	assert.Equal(t, "LIMIT 10 OFFSET 20", p.Suffix)

	oracle := dialect.Lookup(dialect.Oracle)
	p = dialect.Paging(oracle, 0, 5)
	assert.Equal(t, "ROWNUM <= 5", p.Predicate)
	p = dialect.Paging(oracle, 10, 5)
	assert.Equal(t, "ROWNUM <= 15 AND ROWNUM > 10", p.Predicate)

	assert.Equal(t, dialect.Page{}, dialect.Paging(mysql, 0, 0))
}

func TestBoolLiteral(t *testing.T) {
	assert.Equal(t, "1", dialect.BoolLiteral(dialect.Lookup(dialect.SQLServer), true))
	assert.Equal(t, "TRUE", dialect.BoolLiteral(dialect.Lookup(dialect.MySQL), true))
	assert.Equal(t, "FALSE", dialect.BoolLiteral(dialect.Lookup(dialect.PostgreSQL), false))
}

func TestEscapeLikeWildcards(t *testing.T) {
	d := dialect.Lookup(dialect.PostgreSQL)
	assert.Equal(t, `100\%`, dialect.EscapeLikeWildcards(d, "100%"))
	assert.Equal(t, `a\_b`, dialect.EscapeLikeWildcards(d, "a_b"))
}
