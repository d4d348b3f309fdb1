package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxgen/sqlxgen/config"
	"github.com/sqlxgen/sqlxgen/dialect"
)

func TestNewAppliesDefaults(t *testing.T) {
	c, err := config.New()
	require.NoError(t, err)
	assert.Equal(t, dialect.PostgreSQL, c.DefaultDialect.Kind)
	assert.Equal(t, ".", c.OutDir)
	assert.True(t, c.Format)
}

func TestWithOutDirRejectsEmpty(t *testing.T) {
	_, err := config.New(config.WithOutDir(""))
	require.Error(t, err)
	var cerr *config.ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestWithDefaultDialectOverrides(t *testing.T) {
	c, err := config.New(config.WithDefaultDialect(dialect.MySQL), config.WithPackageName("gen"))
	require.NoError(t, err)
	assert.Equal(t, dialect.MySQL, c.DefaultDialect.Kind)
	assert.Equal(t, "gen", c.PackageName)
}
