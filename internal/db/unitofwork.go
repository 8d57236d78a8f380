package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UnitOfWork runs fn inside one transaction. Repositories built from the tx
// argument share it; a non-nil error from fn rolls everything back.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// TxOption configures a SQLiteUnitOfWork.
type TxOption func(*SQLiteUnitOfWork)

// WithTxWrapper decorates the handle passed to fn, e.g. to inject faults in tests.
func WithTxWrapper(wrap func(DBTX) DBTX) TxOption {
	return func(u *SQLiteUnitOfWork) { u.wrap = wrap }
}

type SQLiteUnitOfWork struct {
	db   *sql.DB
	wrap func(DBTX) DBTX
}

func NewSQLiteUnitOfWork(db *sql.DB, opts ...TxOption) *SQLiteUnitOfWork {
	u := &SQLiteUnitOfWork{db: db}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *SQLiteUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schedule transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) && err != nil {
			err = fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
	}()

	var handle DBTX = tx
	if u.wrap != nil {
		handle = u.wrap(tx)
	}
	if err = fn(ctx, handle); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit schedule transaction: %w", err)
	}
	committed = true
	return nil
}
