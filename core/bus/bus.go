package bus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/mediator/core/validation"
)

// Bus routes messages to their registered handlers through the middleware
// chain. Two instances with the same dispatch algorithm cover the two
// message capabilities: NewCommandBus adds pre-dispatch validation,
// NewQueryBus does not.
//
// Registration is expected during a single-threaded bootstrap phase; after
// that the bus is read-mostly and safe for concurrent Dispatch calls.
//
// Example:
//
//	cb := bus.NewCommandBus(
//	    bus.WithValidation(validators),
//	    bus.WithMiddleware(bus.NewLoggingMiddleware(logger)),
//	)
//	cb.Register(bus.NewCommandHandler(createUserHandler))
//	err := bus.Execute(ctx, cb, CreateUser{Email: "user@example.com"})
type Bus struct {
	kind       Kind
	handlers   map[string]Handler
	lazy       map[string]HandlerFactory
	middleware []Middleware
	validators *validation.Registry
	logger     *slog.Logger
	mu         sync.RWMutex
}

// Option configures a Bus.
type Option func(*Bus)

// WithMiddleware appends middleware at construction time, in order.
// Equivalent to calling Use for each.
func WithMiddleware(mw ...Middleware) Option {
	return func(b *Bus) {
		b.middleware = append(b.middleware, mw...)
	}
}

// WithValidation attaches a validator registry. Validators run before
// handler resolution and middleware, and only on the command bus; the
// query bus ignores this option.
func WithValidation(registry *validation.Registry) Option {
	return func(b *Bus) {
		b.validators = registry
	}
}

// WithLogger sets the logger used for bus bookkeeping (lazy promotion,
// registration overwrites). Dispatch itself never logs; observability is
// opt-in via middleware. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewCommandBus creates a bus for command messages.
func NewCommandBus(opts ...Option) *Bus {
	return newBus(KindCommand, opts...)
}

// NewQueryBus creates a bus for query messages. Validation options are
// ignored: queries are never validated.
func NewQueryBus(opts ...Option) *Bus {
	b := newBus(KindQuery, opts...)
	b.validators = nil
	return b
}

func newBus(kind Kind, opts ...Option) *Bus {
	b := &Bus{
		kind:     kind,
		handlers: make(map[string]Handler),
		lazy:     make(map[string]HandlerFactory),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Kind returns the message capability this bus routes.
func (b *Bus) Kind() Kind {
	return b.kind
}

// Register stores a direct handler for its message type. A later call for
// the same type silently replaces any prior registration, direct or lazy
// (last write wins).
func (b *Bus) Register(h Handler) {
	name := h.MessageName()

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.handlers[name]; exists {
		b.logger.Debug("handler registration replaced", slog.String("message", name))
	}
	b.handlers[name] = h
	delete(b.lazy, name)
}

// RegisterLazy stores a factory for a message type. The factory is invoked
// on the first dispatch of the type and the result cached as a direct
// handler; it is never invoked again. A later registration for the same
// type replaces any prior one.
func (b *Bus) RegisterLazy(name string, factory HandlerFactory) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lazy[name] = factory
	delete(b.handlers, name)
}

// HasHandler reports whether a direct or lazy registration exists for the
// message name.
func (b *Bus) HasHandler(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.handlers[name]; ok {
		return true
	}
	_, ok := b.lazy[name]
	return ok
}

// Use appends middleware to the chain. The first middleware registered is
// outermost; all subsequent dispatches see the updated chain.
func (b *Bus) Use(mw ...Middleware) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.middleware = append(b.middleware, mw...)
}

// Dispatch routes a message to its handler and returns the handler's
// result. Commands are validated first when a validator registry is
// attached; then the handler is resolved (promoting lazy registrations);
// then the middleware chain wraps the terminal handler call, outermost
// first. Handler and middleware errors propagate unmodified.
func (b *Bus) Dispatch(ctx context.Context, payload any) (any, error) {
	if payload == nil {
		return nil, ErrNilPayload
	}

	msg := newMessage(b.kind, payload)

	if b.kind == KindCommand && b.validators != nil {
		if result := b.validators.Validate(ctx, payload); result.IsInvalid() {
			return nil, &ValidationError{Name: msg.Name, Result: result}
		}
	}

	handler, middleware, err := b.resolve(msg.Name)
	if err != nil {
		return nil, err
	}

	terminal := func(ctx context.Context) (any, error) {
		return safeHandle(handler, ctx, payload)
	}

	return chain(msg, middleware, terminal)(ctx)
}

// resolve finds the handler for a message name, promoting a lazy
// registration to the direct map on first use. It also snapshots the
// middleware chain under the same lock so one dispatch sees a consistent
// pipeline.
func (b *Bus) resolve(name string) (Handler, []Middleware, error) {
	b.mu.RLock()
	handler, ok := b.handlers[name]
	middleware := b.middleware
	b.mu.RUnlock()

	if ok {
		return handler, middleware, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Re-check: another dispatch may have promoted the entry while we
	// waited for the write lock.
	if handler, ok := b.handlers[name]; ok {
		return handler, b.middleware, nil
	}

	factory, ok := b.lazy[name]
	if !ok {
		return nil, nil, &NotFoundError{Name: name, Kind: b.kind}
	}

	handler, err := factory()
	if err != nil {
		return nil, nil, &ResolutionError{Name: name, Err: err}
	}
	if handler == nil {
		return nil, nil, &ResolutionError{Name: name, Err: fmt.Errorf("factory returned nil handler")}
	}

	b.handlers[name] = handler
	delete(b.lazy, name)
	b.logger.Debug("lazy handler promoted", slog.String("message", name))

	return handler, b.middleware, nil
}

// Execute dispatches a command and discards the (nil) result.
func Execute(ctx context.Context, b *Bus, cmd any) error {
	_, err := b.Dispatch(ctx, cmd)
	return err
}

// Ask dispatches a query and returns its result as type R.
//
// Example:
//
//	user, err := bus.Ask[User](ctx, qb, GetUser{ID: id})
func Ask[R any](ctx context.Context, b *Bus, query any) (R, error) {
	var zero R

	result, err := b.Dispatch(ctx, query)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(R)
	if !ok {
		return zero, fmt.Errorf("unexpected result type for %s: got %T", messageNameOf(query), result)
	}
	return typed, nil
}
