// Package pgxutil runs native pgx calls on connections borrowed from a database/sql pool.
package pgxutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// TxConfig describes a pgx transaction. The zero value is read-write at the server's default isolation.
type TxConfig struct {
	ReadOnly bool
	IsoLevel pgx.TxIsoLevel
	Fn       func(pgx.Tx) error
}

func (c TxConfig) options() pgx.TxOptions {
	opts := pgx.TxOptions{IsoLevel: c.IsoLevel, AccessMode: pgx.ReadWrite}
	if c.ReadOnly {
		opts.AccessMode = pgx.ReadOnly
	}
	return opts
}

// ErrNotPgx is returned when the pool was not opened with the "pgx" driver.
var ErrNotPgx = errors.New("pgxutil: driver connection is not *stdlib.Conn")

// WithPgxConn pins one pooled connection and hands fn its underlying *pgx.Conn.
func WithPgxConn(ctx context.Context, db *sql.DB, fn func(*pgx.Conn) error) (err error) {
	if db == nil {
		return errors.New("pgxutil: nil *sql.DB")
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get conn from pool: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil && !errors.Is(closeErr, sql.ErrConnDone) {
			err = errors.Join(err, fmt.Errorf("return conn to pool: %w", closeErr))
		}
	}()

	return conn.Raw(func(driverConn any) error {
		std, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return ErrNotPgx
		}
		return fn(std.Conn())
	})
}

// WithPgxTx runs cfg.Fn in a transaction, committing when it returns nil.
func WithPgxTx(ctx context.Context, db *sql.DB, cfg TxConfig) error {
	if cfg.Fn == nil {
		return errors.New("pgxutil: TxConfig.Fn is required")
	}
	return WithPgxConn(ctx, db, func(conn *pgx.Conn) (err error) {
		tx, err := conn.BeginTx(ctx, cfg.options())
		if err != nil {
			return fmt.Errorf("begin pgx tx: %w", err)
		}
		defer func() {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}()
		if err = cfg.Fn(tx); err != nil {
			return err
		}
		if err = tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit pgx tx: %w", err)
		}
		return nil
	})
}

// Querier is satisfied by *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CollectStructs scans every row into T by column name.
func CollectStructs[T any](ctx context.Context, q Querier, query string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

// CollectStruct scans exactly one row into T. No rows yields pgx.ErrNoRows.
func CollectStruct[T any](ctx context.Context, q Querier, query string, args ...any) (T, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
}
