// Package sqlite contains an embedded single-node backend built on sqlx and modernc.org/sqlite.
//
// All access goes through one connection, so transactions are serialized; compare-and-swap
// statements guard state the same way the postgres backend does.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/and161185/garagesale/internal/migrate"
	"github.com/and161185/garagesale/internal/repository"
)

// timeLayout keeps stored timestamps lexically ordered.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DB wraps an sqlx handle.
type DB struct{ X *sqlx.DB }

var _ repository.Transactor = (*DB)(nil)

// Open opens (or creates) the database at path and applies migrations. Use ":memory:" for tests.
func Open(ctx context.Context, path string) (*DB, error) {
	x, err := sqlx.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	x.SetMaxOpenConns(1)
	x.SetMaxIdleConns(1)
	x.SetConnMaxLifetime(0)

	if err := x.PingContext(ctx); err != nil {
		_ = x.Close()
		return nil, err
	}
	if err := migrate.UpDB(ctx, x.DB, migrate.DriverSQLite); err != nil {
		_ = x.Close()
		return nil, err
	}
	return &DB{X: x}, nil
}

func dsn(path string) string {
	const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path == ":memory:" || path == "" {
		return "file::memory:?" + pragmas
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + strings.TrimPrefix(path, "file:") + sep + pragmas
}

// Close releases the handle.
func (db *DB) Close() error { return db.X.Close() }

// WithinTx runs fn in one transaction; any error rolls back.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) (err error) {
	tx, err := db.X.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if e := tx.Commit(); e != nil {
			err = e
		}
	}()
	return fn(ctx, txRepos{q: tx})
}

type txRepos struct{ q sqlx.ExtContext }

func (t txRepos) Products() repository.ProductRepository   { return &ProductRepo{q: t.q} }
func (t txRepos) Purchases() repository.PurchaseRepository { return &PurchaseRepo{q: t.q} }

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func isForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: bad timestamp %q: %w", s, err)
	}
	return t, nil
}
