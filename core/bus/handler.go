package bus

import (
	"context"
	"fmt"
	"reflect"
)

// Handler processes messages of a single type.
type Handler interface {
	// MessageName returns the unique message name this handler processes.
	MessageName() string

	// Handle executes the handler with the given message payload.
	// The payload must be of the type expected by this handler.
	// Command handlers return a nil result; query handlers return the
	// query's answer.
	Handle(ctx context.Context, payload any) (any, error)
}

// HandlerFactory produces a handler on first use. Factories back lazy
// registrations: the bus invokes the factory once, caches the handler, and
// never calls the factory again for that message type.
type HandlerFactory func() (Handler, error)

// handlerFunc adapts a typed function into a Handler. The message name is
// derived from the payload type, so registration needs no explicit key.
type handlerFunc[T any] struct {
	name string
	fn   func(ctx context.Context, payload T) (any, error)
}

// NewCommandHandler creates a type-safe handler for commands of type C.
//
// Example:
//
//	h := bus.NewCommandHandler(func(ctx context.Context, cmd CreateUser) error {
//	    return repo.Insert(ctx, cmd.Email, cmd.Name)
//	})
//	cb.Register(h)
func NewCommandHandler[C any](fn func(ctx context.Context, cmd C) error) Handler {
	var zero C
	return &handlerFunc[C]{
		name: messageName(reflect.TypeOf(zero)),
		fn: func(ctx context.Context, cmd C) (any, error) {
			return nil, fn(ctx, cmd)
		},
	}
}

// NewQueryHandler creates a type-safe handler for queries of type Q
// returning results of type R.
//
// Example:
//
//	h := bus.NewQueryHandler(func(ctx context.Context, q GetUser) (User, error) {
//	    return repo.Find(ctx, q.ID)
//	})
//	qb.Register(h)
func NewQueryHandler[Q any, R any](fn func(ctx context.Context, q Q) (R, error)) Handler {
	var zero Q
	return &handlerFunc[Q]{
		name: messageName(reflect.TypeOf(zero)),
		fn: func(ctx context.Context, q Q) (any, error) {
			return fn(ctx, q)
		},
	}
}

// MessageName returns the message name this handler processes.
func (h *handlerFunc[T]) MessageName() string {
	return h.name
}

// Handle executes the handler with the given payload.
func (h *handlerFunc[T]) Handle(ctx context.Context, payload any) (any, error) {
	typed, ok := payload.(T)
	if !ok {
		return nil, fmt.Errorf("invalid payload type for %s: got %T", h.name, payload)
	}
	return h.fn(ctx, typed)
}

// safeHandle executes a handler with panic recovery. A panicking handler
// surfaces as an error to the dispatch caller instead of unwinding through
// the middleware chain.
func safeHandle(handler Handler, ctx context.Context, payload any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("handler %s panicked: %v", handler.MessageName(), r)
		}
	}()
	return handler.Handle(ctx, payload)
}
