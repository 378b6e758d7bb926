package db

import (
	"context"
	"database/sql"
	"errors"

	"collegetour/internal/domain"

	"github.com/go-sql-driver/mysql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx so repositories run inside or
// outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type QueryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

// NullIfEmpty helps store optional strings as NULL.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func HasTable(q QueryRower, table string) bool {
	var name sql.NullString
	err := q.QueryRow(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

const mysqlDuplicateEntry = 1062

// IsDuplicate reports a unique key violation.
func IsDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// MapWriteError turns a duplicate key error into a ConflictError on resource
// and passes anything else through.
func MapWriteError(err error, resource, msg string) error {
	if err == nil {
		return nil
	}
	if IsDuplicate(err) {
		return domain.ConflictError{Resource: resource, Reason: domain.ReasonDuplicate, Msg: msg, Err: err}
	}
	return err
}

// WithTx runs fn inside a transaction, rolling back when fn fails.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
