// Package pg provides the PostgreSQL side of the mediator's transactional
// middleware, built on the pgx driver.
//
// It contains a pgxpool-backed bus.Transactor, context helpers to propagate
// the open transaction to command handlers, and a Connect helper with
// environment-based configuration and retry logic.
//
// # Transactional commands
//
// Wire the transactor into the command bus and every command handler runs
// inside a transaction that commits on success and rolls back on error:
//
//	pool, err := pg.Connect(ctx, pg.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	cb := bus.NewCommandBus(
//		bus.WithMiddleware(bus.NewTransactionMiddleware(pg.NewTransactor(pool))),
//	)
//
// Handlers and repositories join the transaction through the context:
//
//	func (s *Storage) CreateUser(ctx context.Context, email string) error {
//		const q = `INSERT INTO users (email) VALUES ($1)`
//		if tx, ok := pg.TxFromContext(ctx); ok {
//			_, err := tx.Exec(ctx, q, email)
//			return err
//		}
//		_, err := s.pool.Exec(ctx, q, email)
//		return err
//	}
//
// A repository written this way works identically inside and outside a
// command dispatch; only the transaction boundary moves.
package pg
