package driver_test

import (
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/sqlxgen/sqlxgen/config"
	"github.com/sqlxgen/sqlxgen/dialect"
	"github.com/sqlxgen/sqlxgen/discovery"
	"github.com/sqlxgen/sqlxgen/driver"
)

func TestRunSkipsAttrsSurfaceWhenAlreadyImported(t *testing.T) {
	cfg, err := config.New(config.WithPackageName("gen"))
	require.NoError(t, err)

	target := types.NewPackage("example.com/app", "app")
	attrs := types.NewPackage("github.com/sqlxgen/sqlxgen/attrs", "attrs")
	target.SetImports([]*types.Package{attrs})

	repo := userRepository(dialect.PostgreSQL)
	repo.Package = &packages.Package{Types: target}

	d := driver.New(cfg, zap.NewNop())
	out, err := d.Run([]*discovery.Repository{repo})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "userRepository_sqlxgen.go", out[0].FileName)
}
