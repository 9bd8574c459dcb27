package bus

import "context"

// Next is the continuation a middleware invokes to run the rest of the
// pipeline, ending in the handler. A middleware must call it zero times
// (short-circuit) or exactly once; calling it more than once is undefined.
// The context passed to Next flows to downstream middleware and the handler,
// which lets middleware attach values such as an open transaction.
type Next func(ctx context.Context) (any, error)

// Middleware wraps one dispatch around the terminal handler call.
// Middleware can observe the message, short-circuit the pipeline, or
// augment the context; errors from downstream propagate upward unless a
// middleware explicitly handles them.
type Middleware interface {
	Handle(ctx context.Context, msg Message, next Next) (any, error)
}

// MiddlewareFunc adapts a plain function into a Middleware.
type MiddlewareFunc func(ctx context.Context, msg Message, next Next) (any, error)

// Handle calls the function.
func (f MiddlewareFunc) Handle(ctx context.Context, msg Message, next Next) (any, error) {
	return f(ctx, msg, next)
}

// chain folds the middleware list around the terminal continuation.
// Reverse iteration is required: wrapping innermost first makes the
// first-registered middleware outermost, so it executes first. With an
// empty list the terminal continuation is returned untouched and dispatch
// reduces to a direct handler call.
func chain(msg Message, middleware []Middleware, terminal Next) Next {
	next := terminal
	for i := len(middleware) - 1; i >= 0; i-- {
		mw := middleware[i]
		downstream := next
		next = func(ctx context.Context) (any, error) {
			return mw.Handle(ctx, msg, downstream)
		}
	}
	return next
}
