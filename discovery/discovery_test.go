package discovery

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, src string) *ast.CommentGroup {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "fixture.go", "package p\n"+src, parser.ParseComments)
	require.NoError(t, err)
	for _, decl := range file.Decls {
		if gd, ok := decl.(*ast.GenDecl); ok && gd.Doc != nil {
			return gd.Doc
		}
	}
	return nil
}

func TestParseDirectivesExtractsNameValue(t *testing.T) {
	doc := parseDoc(t, "// +sqlxgen:sql-template \"SELECT {{columns:auto}} FROM {{table}}\"\n// +sqlxgen:table \"users\"\ntype X int\n")
	d := parseDirectives(doc)
	require.NotNil(t, d)
	assert.Equal(t, "SELECT {{columns:auto}} FROM {{table}}", d["sql-template"])
	assert.Equal(t, "users", d["table"])
}

func TestParseDirectivesIgnoresOrdinaryComments(t *testing.T) {
	doc := parseDoc(t, "// X does a thing.\ntype X int\n")
	assert.Nil(t, parseDirectives(doc))
}

func TestParseOpKind(t *testing.T) {
	k, ok := parseOpKind("BatchCommand")
	require.True(t, ok)
	assert.Equal(t, 7, int(k))

	_, ok = parseOpKind("nonsense")
	assert.False(t, ok)
}

func TestDirectiveDialect(t *testing.T) {
	doc := parseDoc(t, "// +sqlxgen:dialect sqlserver\ntype X int\n")
	d, ok := directiveDialect(doc)
	require.True(t, ok)
	assert.Equal(t, "SqlServer", d.Kind.String())
}

func TestTypeRefNameRecognizesSqlDB(t *testing.T) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "fixture.go", `package p
type R struct {
	conn *sql.DB
}
`, parser.ParseComments)
	require.NoError(t, err)
	st := file.Decls[0].(*ast.GenDecl).Specs[0].(*ast.TypeSpec).Type.(*ast.StructType)
	assert.True(t, hasConnectionField(st))
}
