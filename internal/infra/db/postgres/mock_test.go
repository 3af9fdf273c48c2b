//go:build !integration

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

// --- Fakes for pgx transactions ---

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (b *fakeBeginner) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

// fakeTx records what happened to it. Methods it does not override panic
// through the nil embedded interface, which flags unexpected calls.
type fakeTx struct {
	pgx.Tx

	commitErr   error
	rollbackErr error
	committed   bool
	rolledBack  bool
	rollbackCtx context.Context

	queryFn func(sql string, args ...interface{}) (pgx.Rows, error)
	execFn  func(sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rollbackCtx = ctx
	if t.committed {
		return pgx.ErrTxClosed
	}
	if t.rollbackErr != nil {
		return t.rollbackErr
	}
	t.rolledBack = true
	return nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return t.queryFn(sql, args...)
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return t.execFn(sql, args...)
}

// fakeRows serves fixed values through Scan.
type fakeRows struct {
	pgx.Rows

	data    [][]interface{}
	i       int
	err     error
	scanErr error
	closed  bool
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.data) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...interface{}) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.i-1]
	if len(row) != len(dest) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = row[i].(int64)
		case *string:
			*p = row[i].(string)
		case *bool:
			*p = row[i].(bool)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close()     { r.closed = true }
