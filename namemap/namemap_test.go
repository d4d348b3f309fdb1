package namemap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sqlxgen/sqlxgen/namemap"
)

func TestMap(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"Id":             "id",
		"UserId":         "user_id",
		"XMLHttpRequest": "x_m_l_http_request",
		"CreatedAt":      "created_at",
		"already_snake":  "already_snake",
		"ID":             "id",
		"HTTP_PROXY":     "http_proxy",
		"name":           "name",
	}
	for in, want := range cases {
		assert.Equal(t, want, namemap.Map(in), "input %q", in)
	}
}

func TestMapIdempotent(t *testing.T) {
	for _, in := range []string{"UserId", "XMLHttpRequest", "ID", "already_snake", "A", ""} {
		assert.True(t, namemap.Idempotent(in), "input %q", in)
	}
}

func TestMapPtr(t *testing.T) {
	name := "UserId"
	got, err := namemap.MapPtr(&name)
	assert.NoError(t, err)
	assert.Equal(t, "user_id", got)

	_, err = namemap.MapPtr(nil)
	assert.ErrorIs(t, err, namemap.ErrInvalidName)
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "users", namemap.TableName("User", ""))
	assert.Equal(t, "my_table", namemap.TableName("User", "my_table"))
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "user_id", namemap.ColumnName("UserId", ""))
	assert.Equal(t, "uid", namemap.ColumnName("UserId", "uid"))
}
