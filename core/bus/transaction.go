package bus

import "context"

// Tx is an in-flight transaction controlled by the transactional middleware.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Transactor opens transactions for the transactional middleware. The
// returned context should carry the transaction so handlers can join it
// (see integration/database/pg).
type Transactor interface {
	Begin(ctx context.Context) (context.Context, Tx, error)
}

// transactionMiddleware wraps command handling in a transaction boundary.
// Queries pass through untouched. On success the transaction commits and
// the result is returned; on any downstream error it rolls back and
// re-returns the original error unchanged. Rollback is cleanup, not a
// retry: a rollback failure does not replace the handler's error.
type transactionMiddleware struct {
	transactor Transactor
}

// NewTransactionMiddleware creates the transactional middleware.
//
// Example:
//
//	cb := bus.NewCommandBus(
//	    bus.WithMiddleware(bus.NewTransactionMiddleware(pg.NewTransactor(pool))),
//	)
func NewTransactionMiddleware(transactor Transactor) Middleware {
	return &transactionMiddleware{transactor: transactor}
}

func (m *transactionMiddleware) Handle(ctx context.Context, msg Message, next Next) (any, error) {
	if msg.Kind != KindCommand {
		return next(ctx)
	}

	txCtx, tx, err := m.transactor.Begin(ctx)
	if err != nil {
		return nil, err
	}

	result, err := next(txCtx)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}
