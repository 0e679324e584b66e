// Package database centralises sqlx connection helpers and the small query
// abstraction the entity layer is built on.  The default driver is
// go-sql-driver/mysql, which also works with MariaDB.
//
// Public entry points:
//
//	Open(ctx, dsn)                    – quick helper with conservative pool sizes.
//	OpenWithOptions(ctx, dsn, opts)   – fine-grained control.
//	New(x)                            – wrap an existing *sqlx.DB (tests, sqlmock).
//
// Queries use named bindings (`:name`) resolved from a map.  A failed query
// is reported as a non-nil error; a query that ran but matched nothing
// yields a Result with zero rows.  The distinction matters to callers.
//
// Every DSN is opened with parseTime=true and loc=Local, whatever it says.
// The entity layer reads and writes DATETIME values in time.Local, and the
// driver must agree or each save shifts the stored time by the UTC offset.
package database

import (
	"context"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Executor runs one statement.  *DB and the transaction handle passed to
// Transaction callbacks both satisfy it.
type Executor interface {
	Execute(ctx context.Context, query string, bindings map[string]any) (*Result, error)
}

// Database is an Executor that can also open transactions.
type Database interface {
	Executor
	Transaction(ctx context.Context, fn func(Executor) error) error
}

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB wraps *sqlx.DB.  Safe for concurrent use.
type DB struct {
	x *sqlx.DB
}

var _ Database = (*DB)(nil)

// Open returns a *DB with sane defaults: 15 max open, 5 idle, and a
// 30-minute connection lifetime.
func Open(ctx context.Context, dsn string) (*DB, error) {
	return OpenWithOptions(ctx, dsn, Options{
		MaxOpenConns:    15,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	})
}

// OpenWithOptions opens a MySQL pool and pings it so callers can fail fast
// during bootstrap.
func OpenWithOptions(ctx context.Context, dsn string, opts Options) (*DB, error) {
	dsn, err := localDSN(dsn)
	if err != nil {
		return nil, err
	}
	x, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}

	x.SetMaxOpenConns(opts.MaxOpenConns)
	x.SetMaxIdleConns(opts.MaxIdleConns)
	x.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := x.PingContext(ctx); err != nil {
		_ = x.Close()
		return nil, errors.Wrap(err, "ping mysql")
	}
	return &DB{x: x}, nil
}

// localDSN rewrites dsn so the driver parses and binds DATETIME values in
// time.Local.
func localDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", errors.Wrap(err, "parse mysql dsn")
	}
	cfg.ParseTime = true
	cfg.Loc = time.Local
	return cfg.FormatDSN(), nil
}

// New wraps an already-open *sqlx.DB.
func New(x *sqlx.DB) *DB { return &DB{x: x} }

// Execute runs query with bindings against the pool.
func (d *DB) Execute(ctx context.Context, query string, bindings map[string]any) (*Result, error) {
	return execute(ctx, d.x, query, bindings)
}

// Transaction runs fn inside a transaction.  The transaction commits when fn
// returns nil and rolls back on an error or panic.
func (d *DB) Transaction(ctx context.Context, fn func(Executor) error) (err error) {
	tx, err := d.x.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txExecutor{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rollback failed: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}

// Ping checks connectivity.
func (d *DB) Ping(ctx context.Context) error { return d.x.PingContext(ctx) }

// Close releases the pool.
func (d *DB) Close() error { return d.x.Close() }

type txExecutor struct {
	tx *sqlx.Tx
}

func (t txExecutor) Execute(ctx context.Context, query string, bindings map[string]any) (*Result, error) {
	return execute(ctx, t.tx, query, bindings)
}
