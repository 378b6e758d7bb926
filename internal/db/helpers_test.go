package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"collegetour/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapWriteErrorDuplicate(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	err := MapWriteError(dup, "bus", "bus number already exists")

	require.True(t, domain.IsConflict(err))
	assert.Equal(t, domain.ReasonDuplicate, domain.Reason(err))
	assert.ErrorIs(t, err, dup)

	other := errors.New("boom")
	assert.Equal(t, other, MapWriteError(other, "bus", ""))
	assert.NoError(t, MapWriteError(nil, "bus", ""))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE buses").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = WithTx(context.Background(), conn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(context.Background(), "UPDATE buses SET booked_seats = 0"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxCommits(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	err = WithTx(context.Background(), conn, func(*sql.Tx) error { return nil })
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaCreatesMissingTables(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	for i, table := range Tables() {
		rows := sqlmock.NewRows([]string{"table_name"})
		if i == 0 {
			rows.AddRow(table)
		}
		mock.ExpectQuery("information_schema\\.tables").WithArgs(table).WillReturnRows(rows)
		if i > 0 {
			mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + table).WillReturnResult(sqlmock.NewResult(0, 0))
		}
	}

	require.NoError(t, EnsureSchema(context.Background(), conn))
	assert.NoError(t, mock.ExpectationsWereMet())
}
