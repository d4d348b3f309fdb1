package opinfer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxgen/sqlxgen/opinfer"
)

func kindPtr(k opinfer.Kind) *opinfer.Kind { return &k }

func TestInferExplicitAttributeWins(t *testing.T) {
	k, err := opinfer.Infer(opinfer.Method{ExplicitKind: kindPtr(opinfer.Delete), Name: "GetUser", SQLText: "SELECT 1"})
	require.NoError(t, err)
	assert.Equal(t, opinfer.Delete, k)
}

func TestInferFromSQLKeyword(t *testing.T) {
	k, err := opinfer.Infer(opinfer.Method{Name: "DoThing", SQLText: "  update user set name = ?"})
	require.NoError(t, err)
	assert.Equal(t, opinfer.Update, k)
}

func TestInferFromNamePrefix(t *testing.T) {
	cases := map[string]opinfer.Kind{
		"GetUserById":    opinfer.Select,
		"FindAll":        opinfer.Select,
		"CountActive":    opinfer.Scalar,
		"ExistsByEmail":  opinfer.Exists,
		"AddUser":        opinfer.Insert,
		"CreateOrder":    opinfer.Insert,
		"UpdateAddress":  opinfer.Update,
		"DeleteSession":  opinfer.Delete,
		"RemoveExpired":  opinfer.Delete,
	}
	for name, want := range cases {
		k, err := opinfer.Infer(opinfer.Method{Name: name})
		require.NoError(t, err)
		assert.Equalf(t, want, k, "name=%s", name)
	}
}

func TestInferDefaultsToSelect(t *testing.T) {
	k, err := opinfer.Infer(opinfer.Method{Name: "Whatever"})
	require.NoError(t, err)
	assert.Equal(t, opinfer.Select, k)
}

func TestInferBatchCommandRequiresCollection(t *testing.T) {
	_, err := opinfer.Infer(opinfer.Method{ExplicitKind: kindPtr(opinfer.BatchCommand), Name: "RunBatch", HasSequenceArg: false})
	assert.ErrorIs(t, err, opinfer.ErrBatchRequiresCollection)

	k, err := opinfer.Infer(opinfer.Method{ExplicitKind: kindPtr(opinfer.BatchCommand), Name: "RunBatch", HasSequenceArg: true})
	require.NoError(t, err)
	assert.Equal(t, opinfer.BatchCommand, k)
}
