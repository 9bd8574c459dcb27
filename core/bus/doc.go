// Package bus provides an in-process mediator that routes commands and
// queries to exactly one registered handler each, through a composable
// middleware pipeline, with optional pre-dispatch validation for commands.
//
// Commands express intent to change state and map to exactly one handler;
// a missing handler is an error. Queries express read-only requests and
// return a result. Both capabilities share one dispatch algorithm; the two
// bus constructors differ only in kind and in whether validation runs.
//
// # Quick Start
//
//	import "github.com/dmitrymomot/mediator/core/bus"
//
//	type CreateUser struct {
//	    Email string
//	    Name  string
//	}
//
//	type GetUser struct {
//	    ID string
//	}
//
//	cb := bus.NewCommandBus()
//	cb.Register(bus.NewCommandHandler(func(ctx context.Context, cmd CreateUser) error {
//	    return repo.Insert(ctx, cmd.Email, cmd.Name)
//	}))
//
//	qb := bus.NewQueryBus()
//	qb.Register(bus.NewQueryHandler(func(ctx context.Context, q GetUser) (User, error) {
//	    return repo.Find(ctx, q.ID)
//	}))
//
//	err := bus.Execute(ctx, cb, CreateUser{Email: "user@example.com"})
//	user, err := bus.Ask[User](ctx, qb, GetUser{ID: "123"})
//
// # Dispatch Algorithm
//
// Each Dispatch call is a single synchronous operation:
//
//  1. Command bus with validation attached: the command's validator runs
//     first; an invalid result fails dispatch with a *ValidationError
//     before any handler resolution or middleware execution.
//  2. The handler is resolved: a direct registration wins; otherwise a
//     lazy registration's factory is invoked once and its result promoted
//     to the direct map; otherwise dispatch fails with a *NotFoundError.
//  3. The middleware chain wraps the terminal handler call, first
//     registered outermost. With zero middleware, dispatch reduces to a
//     direct handler invocation.
//
// Handler and middleware errors propagate to the caller unmodified; the
// bus never logs, retries, or swallows them.
//
// # Registration
//
// Registration is expected during a single-threaded bootstrap phase; after
// bootstrap the bus state is read-mostly and Dispatch is safe for
// concurrent use. A later registration for the same message type silently
// replaces the earlier one (last write wins), which keeps test doubles and
// hot-swapping cheap.
//
// Lazy registration defers handler construction to first use:
//
//	cb.RegisterLazy(bus.NameOf[CreateUser](), func() (bus.Handler, error) {
//	    return newCreateUserHandler(deps), nil
//	})
//
// The Resolver bridges lazy registration and dependency-injection
// containers, with memoized resolution and explicit precedence (instance,
// factory, container entry):
//
//	resolver := bus.NewResolver(bus.WithContainer(container))
//	cb.RegisterLazy(bus.NameOf[CreateUser](), resolver.Factory("CreateUserHandler"))
//
// # Middleware
//
// Middleware implements a single contract and may short-circuit (never
// calling next), proceed (calling next once), or augment the context:
//
//	type auditMiddleware struct{}
//
//	func (auditMiddleware) Handle(ctx context.Context, msg bus.Message, next bus.Next) (any, error) {
//	    audit.Record(ctx, msg.Name)
//	    return next(ctx)
//	}
//
// Two reference middlewares ship with the package: NewLoggingMiddleware
// emits dispatched/completed/failed events with durations and a payload
// snapshot that masks sensitive fields, and NewTransactionMiddleware wraps
// command handling in a transaction that commits on success and rolls back
// on error (queries pass through untouched). A Redis-backed query cache
// middleware lives in integration/database/redis.
//
// # Validation
//
// Attach a validator registry to the command bus and commands are checked
// before their handler resolves:
//
//	validators := validation.NewRegistry()
//	validators.Register(validation.NewValidator(func(ctx context.Context, cmd CreateUser) validation.Result {
//	    if cmd.Email == "" {
//	        return validation.WithError("email", "is required")
//	    }
//	    return validation.Valid()
//	}))
//
//	cb := bus.NewCommandBus(bus.WithValidation(validators))
//
// A failed validation carries the full field-error map:
//
//	var verr *bus.ValidationError
//	if errors.As(err, &verr) {
//	    for _, field := range verr.Result.Fields() {
//	        log.Printf("%s: %v", field, verr.Result.ErrorsFor(field))
//	    }
//	}
package bus
