package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle passed through use cases. The concrete
// type is infra-defined (pgx.Tx for Postgres). Repositories MUST accept nil
// (non-transactional path).
type Tx interface{}

// NoTX is the explicit "no transaction" handle.
var NoTX Tx

// TransactionManager executes a function within a storage transaction,
// passing the transaction handle via tx. Keeping the handle opaque keeps
// use-case signatures free of driver types.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
