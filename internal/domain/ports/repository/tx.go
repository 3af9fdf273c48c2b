package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside a database transaction and passes the
// underlying handle through tx (pgx.Tx for Postgres).
//
// fn returning an error rolls the transaction back; so does a panic or a
// cancelled ctx. A failed rollback is reported alongside the original error
// and matches domain.ErrRollbackFailed.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
