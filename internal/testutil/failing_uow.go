package testutil

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/alexanderramin/gantry/internal/db"
)

// NewFailOnNthExecUoW returns a unit of work whose Nth write (counting from 1)
// inside each transaction fails with err. Reads pass through. Use it to check
// that multi-row writes such as an applied cascade roll back as a whole.
func NewFailOnNthExecUoW(database *sql.DB, n int32, err error) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database, db.WithTxWrapper(func(tx db.DBTX) db.DBTX {
		return &execFault{DBTX: tx, failOn: n, err: err}
	}))
}

type execFault struct {
	db.DBTX
	writes atomic.Int32
	failOn int32
	err    error
}

func (f *execFault) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.writes.Add(1) == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
