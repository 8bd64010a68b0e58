package sql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/apigen/dialect"
)

func TestOpenDB(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
	}{
		{"Postgres", dialect.Postgres},
		{"MySQL", dialect.MySQL},
		{"SQLite", dialect.SQLite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			drv := OpenDB(tt.dialect, db)
			assert.NotNil(t, drv)
			assert.Equal(t, tt.dialect, drv.Dialect())
			assert.Equal(t, db, drv.DB())
		})
	}
}

func TestOpen(t *testing.T) {
	_, err := Open("oracle", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported dialect "oracle"`)
}

func TestDriverExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.MySQL, db)

	t.Run("no result", func(t *testing.T) {
		mock.ExpectExec("CREATE TABLE `user`").WillReturnResult(sqlmock.NewResult(0, 0))
		require.NoError(t, drv.Exec(context.Background(), "CREATE TABLE `user` (`id` bigint)", nil, nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("result", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO `user`").WithArgs(1).WillReturnResult(sqlmock.NewResult(1, 1))
		var res sql.Result
		require.NoError(t, drv.Exec(context.Background(), "INSERT INTO `user` (`id`) VALUES (?)", []any{1}, &res))
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid destination", func(t *testing.T) {
		var rows int
		err := drv.Exec(context.Background(), "DELETE FROM `user`", nil, &rows)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expect *sql.Result")
	})

	t.Run("error", func(t *testing.T) {
		mock.ExpectExec("DROP TABLE").WillReturnError(errors.New("locked"))
		err := drv.Exec(context.Background(), "DROP TABLE `user`", nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "locked")
	})
}

func TestDriverTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	t.Run("successful_commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)

		err = tx.Exec(context.Background(), `CREATE TABLE "tag" ("id" bigint)`, nil, nil)
		require.NoError(t, err)

		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("error"))
		mock.ExpectRollback()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)

		err = tx.Exec(context.Background(), `CREATE TABLE "tag" ("id" bigint)`, nil, nil)
		require.Error(t, err)

		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin error", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("no connection"))
		_, err := drv.Tx(context.Background())
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
