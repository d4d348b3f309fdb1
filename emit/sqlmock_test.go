package emit_test

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// TestEmittedCallShapesAgainstMockDriver drives the exact database/sql call
// sequences methodBody builds for each operation kind (scalarBody,
// nonQueryBody, readerBody in emit.go) against a mocked driver connection,
// confirming the shapes the Emitter writes — QueryRow+Scan for Scalar/Exists,
// Exec+RowsAffected for non-query, Query+rows.Next loop for a reader query —
// are ones database/sql itself accepts.
func TestEmittedCallShapesAgainstMockDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t.Run("scalarBody shape", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM user WHERE email = \?`).
			WithArgs("ada@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		var v int
		err := db.QueryRow("SELECT COUNT(*) FROM user WHERE email = ?", "ada@example.com").Scan(&v)
		require.NoError(t, err)
		require.Equal(t, 1, v)
	})

	t.Run("nonQueryBody shape", func(t *testing.T) {
		mock.ExpectExec(`UPDATE user SET name = \? WHERE id = \?`).
			WithArgs("Ada", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		res, err := db.Exec("UPDATE user SET name = ? WHERE id = ?", "Ada", 1)
		require.NoError(t, err)
		n, err := res.RowsAffected()
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
	})

	t.Run("readerBody shape", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name FROM user WHERE age >= \?`).
			WithArgs(18).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(1, "Ada").
				AddRow(2, "Grace"))

		rows, err := db.Query("SELECT id, name FROM user WHERE age >= ?", 18)
		require.NoError(t, err)
		defer rows.Close()

		var got []string
		for rows.Next() {
			var id int
			var name string
			require.NoError(t, rows.Scan(&id, &name))
			got = append(got, name)
		}
		require.NoError(t, rows.Err())
		require.Equal(t, []string{"Ada", "Grace"}, got)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
