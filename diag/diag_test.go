package diag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sqlxgen/sqlxgen/diag"
)

func TestSinkMethodFailedIsolatesPerMethod(t *testing.T) {
	s := diag.NewSink()
	s.Errorf(diag.CodeUnsupportedExpression, diag.Span{File: "repo.go", Line: 10}, "GetUser", "bad node %s", "Foo")
	s.Warnf(diag.CodeSkipWithoutOrderBy, diag.Span{}, "ListUsers", "skip without order by")

	assert.True(t, s.MethodFailed("GetUser"))
	assert.False(t, s.MethodFailed("ListUsers"))
	assert.True(t, s.HasErrors())
	assert.Len(t, s.All(), 2)
}

func TestDiagnosticStringIncludesSpan(t *testing.T) {
	d := diag.Diagnostic{Code: diag.CodeMissingConnection, Severity: diag.Error, Message: "no connection field", Span: diag.Span{File: "r.go", Line: 3, Column: 1}}
	assert.Contains(t, d.String(), "r.go:3:1")
	assert.Contains(t, d.String(), "GEN006")
}
