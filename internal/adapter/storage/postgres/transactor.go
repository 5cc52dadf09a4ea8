package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Transactor implements ports.DBTransactor on the connection pool. Every
// ledger mutation runs inside one of its transactions: the wallet row lock
// taken via the repos' ForUpdate queries lives for the duration of the tx,
// which is what serializes writers per wallet.
type Transactor struct {
	pool Pool
}

// NewTransactor creates a new Transactor wrapping the connection pool.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin starts a new database transaction at the default isolation level.
// Read committed is sufficient: correctness comes from row locks, not from
// snapshot isolation.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.pool.Begin(ctx)
}
