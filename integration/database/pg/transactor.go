package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/mediator/core/bus"
)

// beginner abstracts pool.Begin so the transactor can be tested without a
// live database. *pgxpool.Pool satisfies it.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Transactor opens pgx transactions for the bus transactional middleware.
// The context it returns carries the transaction (see WithTx), so command
// handlers and repositories join the same transaction automatically.
type Transactor struct {
	db beginner
}

// NewTransactor creates a transactor backed by a pgx connection pool.
func NewTransactor(pool *pgxpool.Pool) *Transactor {
	return &Transactor{db: pool}
}

// Begin opens a transaction and returns a context carrying it.
func (t *Transactor) Begin(ctx context.Context) (context.Context, bus.Tx, error) {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return ctx, nil, err
	}
	return WithTx(ctx, tx), pgxTx{tx: tx}, nil
}

// pgxTx adapts pgx.Tx to the bus.Tx contract.
type pgxTx struct {
	tx pgx.Tx
}

func (t pgxTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t pgxTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
