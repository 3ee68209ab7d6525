package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes fn within a storage transaction, passing the
// underlying handle via tx.
//
// Repositories receive the same ctx and tx and use tx-bound statements
// (SELECT ... FOR UPDATE, conditional UPDATE) when one is present. The concrete
// type of tx is infra-defined (pgx.Tx for Postgres, a marker for the in-memory
// store). Repositories MUST accept a nil tx (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
