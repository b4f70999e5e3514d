package repository

import (
	"context"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// now is the timestamp format stored in *_at columns.
func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// insertID runs an INSERT written with ? placeholders and returns the new
// row id.  Postgres has no LastInsertId, so the statement is extended with
// RETURNING there.
func insertID(ctx context.Context, ext sqlx.ExtContext, q string, args ...interface{}) (uint64, error) {
	if ext.DriverName() == "postgres" {
		var id uint64
		err := ext.QueryRowxContext(ctx, ext.Rebind(q+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := ext.ExecContext(ctx, ext.Rebind(q), args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// inTx runs fn in a transaction, rolling back when it fails.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// isUniqueViolation reports whether err is a duplicate key error from any
// of the supported drivers.
func isUniqueViolation(err error) bool {
	var my *mysql.MySQLError
	if errors.As(err, &my) {
		return my.Number == 1062
	}
	var pg *pq.Error
	if errors.As(err, &pg) {
		return pg.Code == "23505"
	}
	var lite *sqlite.Error
	if errors.As(err, &lite) {
		code := lite.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// retryOnConflict runs fn again once when it lost an insert race, so the
// second attempt sees the winner's row.
func retryOnConflict(fn func() error) error {
	err := fn()
	if isUniqueViolation(err) {
		return fn()
	}
	return err
}
