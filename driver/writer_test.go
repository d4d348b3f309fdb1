package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxgen/sqlxgen/config"
	"github.com/sqlxgen/sqlxgen/driver"
)

func TestWriterWritesAndFormats(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.New(config.WithOutDir(dir))
	require.NoError(t, err)

	w := driver.NewWriter(cfg)
	src := "package gen\n\nfunc  Foo( )  {\n}\n"
	err = w.WriteAll(context.Background(), []driver.Generated{
		{FileName: "user_sqlxgen.go", Source: []byte(src)},
	})
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(dir, "user_sqlxgen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "func Foo()")
}

func TestWriterWritesHeader(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.New(config.WithOutDir(dir), config.WithHeader("// Code generated. DO NOT EDIT."), config.WithFormat(false))
	require.NoError(t, err)

	w := driver.NewWriter(cfg)
	err = w.WriteAll(context.Background(), []driver.Generated{
		{FileName: "user_sqlxgen.go", Source: []byte("package gen\n")},
	})
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(dir, "user_sqlxgen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "DO NOT EDIT")
}
