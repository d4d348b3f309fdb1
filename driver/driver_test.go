package driver_test

import (
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sqlxgen/sqlxgen/config"
	"github.com/sqlxgen/sqlxgen/dialect"
	"github.com/sqlxgen/sqlxgen/discovery"
	"github.com/sqlxgen/sqlxgen/driver"
	"github.com/sqlxgen/sqlxgen/opinfer"
	"github.com/sqlxgen/sqlxgen/typesys"
)

func userNamed() *types.Named {
	pkg := types.NewPackage("example.com/app", "app")
	idField := types.NewField(token.NoPos, pkg, "ID", types.Typ[types.Int64], false)
	nameField := types.NewField(token.NoPos, pkg, "Name", types.Typ[types.String], false)
	st := types.NewStruct([]*types.Var{idField, nameField}, []string{"", ""})
	obj := types.NewTypeName(token.NoPos, pkg, "User", nil)
	return types.NewNamed(obj, st, nil)
}

func userRepository(dialectKind dialect.Kind) *discovery.Repository {
	return &discovery.Repository{
		ImplName: "userRepository",
		Dialect:  dialect.Lookup(dialectKind),
		Methods: []discovery.Method{
			{
				Name: "GetById",
				Params: []discovery.Param{
					{Name: "id", Class: &typesys.Classification{Category: typesys.CategoryScalar, ScalarKind: typesys.ScalarInt}},
				},
				Return: &typesys.Classification{Category: typesys.CategoryEntity, GoType: userNamed()},
			},
			{
				Name: "Insert",
				Params: []discovery.Param{
					{Name: "u", Class: &typesys.Classification{Category: typesys.CategoryEntity, GoType: userNamed()}},
				},
				Return: &typesys.Classification{Category: typesys.CategoryScalar, ScalarKind: typesys.ScalarInt},
			},
		},
	}
}

func TestRunSynthesizesBothMethods(t *testing.T) {
	cfg, err := config.New(config.WithPackageName("gen"))
	require.NoError(t, err)

	d := driver.New(cfg, zap.NewNop())
	out, err := d.Run([]*discovery.Repository{userRepository(dialect.PostgreSQL)})
	require.NoError(t, err)
	// One file per repository, plus the auto-emitted attribute surface
	// copy since the fixture repository carries no *packages.Package
	// (and so is treated as not already importing attrs).
	require.Len(t, out, 2)
	assert.Equal(t, "userRepository_sqlxgen.go", out[0].FileName)
	assert.Equal(t, "sqlxgen_attrs_gen.go", out[1].FileName)
	assert.Contains(t, string(out[1].Source), "RepositoryFor")

	src := string(out[0].Source)
	assert.Contains(t, src, "func (r *userRepository) GetById")
	assert.Contains(t, src, "func (r *userRepository) Insert")
	assert.False(t, d.Sink().HasErrors())
}

func TestRunRejectsDuplicateOutputFile(t *testing.T) {
	cfg, err := config.New()
	require.NoError(t, err)
	d := driver.New(cfg, nil)

	repo := userRepository(dialect.MySQL)
	_, err = d.Run([]*discovery.Repository{repo, repo})
	assert.Error(t, err)
}

func TestRunIsolatesFailingMethod(t *testing.T) {
	cfg, err := config.New()
	require.NoError(t, err)
	d := driver.New(cfg, nil)

	batchKind := opinfer.BatchCommand
	repo := &discovery.Repository{
		ImplName: "badRepository",
		Dialect:  dialect.Lookup(dialect.MySQL),
		Methods: []discovery.Method{
			{
				Name:       "BulkDelete",
				ExplicitOp: &batchKind,
				Params: []discovery.Param{
					{Name: "id", Class: &typesys.Classification{Category: typesys.CategoryScalar, ScalarKind: typesys.ScalarInt}},
				},
			},
			{
				Name: "GetById",
				Params: []discovery.Param{
					{Name: "id", Class: &typesys.Classification{Category: typesys.CategoryScalar, ScalarKind: typesys.ScalarInt}},
				},
				Return: &typesys.Classification{Category: typesys.CategoryEntity, GoType: userNamed()},
			},
		},
	}

	out, err := d.Run([]*discovery.Repository{repo})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Contains(t, string(out[0].Source), "func (r *badRepository) GetById")
	assert.NotContains(t, string(out[0].Source), "BulkDelete")
	assert.True(t, d.Sink().HasErrors())
}
