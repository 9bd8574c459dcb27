package bus

import (
	"fmt"
	"sync"
)

// Container is the dependency-injection contract the Resolver consumes.
// Implementations report whether they can supply a named entry and build it
// on demand.
type Container interface {
	Has(name string) bool
	Get(name string) (any, error)
}

// Resolver turns handler type names into live handler instances,
// abstracting over direct instances, factories, and a backing container.
// Every successful resolution is memoized, so repeated resolutions of the
// same name cost one map lookup.
//
// Resolution precedence, highest first:
//  1. previously cached instance
//  2. registered factory
//  3. backing container entry
//
// There is no implicit zero-argument construction fallback: a handler type
// must be registered through one of the three paths or resolution fails.
type Resolver struct {
	mu        sync.Mutex
	container Container
	factories map[string]func() (any, error)
	instances map[string]Handler
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithContainer sets the backing DI container consulted when no instance
// or factory is registered for a name.
func WithContainer(c Container) ResolverOption {
	return func(r *Resolver) {
		r.container = c
	}
}

// NewResolver creates a resolver, optionally backed by a container.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		factories: make(map[string]func() (any, error)),
		instances: make(map[string]Handler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterInstance seeds the cache with an already-built handler.
func (r *Resolver) RegisterInstance(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[name] = h
}

// RegisterFactory stores a factory for a handler type name. The factory
// runs at most once; its result is cached.
func (r *Resolver) RegisterFactory(name string, fn func() (any, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = fn
}

// Resolve returns the handler instance for a type name, building and
// caching it on first use. Fails with a ResolutionError when no cache
// entry, factory, or container entry covers the name, or when the entry
// produced is not a Handler.
func (r *Resolver) Resolve(name string) (Handler, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.instances[name]; ok {
		return h, nil
	}

	if factory, ok := r.factories[name]; ok {
		built, err := factory()
		if err != nil {
			return nil, &ResolutionError{Name: name, Err: err}
		}
		return r.cache(name, built)
	}

	if r.container != nil && r.container.Has(name) {
		built, err := r.container.Get(name)
		if err != nil {
			return nil, &ResolutionError{Name: name, Err: err}
		}
		return r.cache(name, built)
	}

	return nil, &ResolutionError{Name: name}
}

// cache asserts the built value is a Handler and memoizes it.
// Callers must hold r.mu.
func (r *Resolver) cache(name string, built any) (Handler, error) {
	h, ok := built.(Handler)
	if !ok {
		return nil, &ResolutionError{Name: name, Err: fmt.Errorf("resolved value %T does not implement Handler", built)}
	}
	r.instances[name] = h
	delete(r.factories, name)
	return h, nil
}

// Factory adapts a resolver entry into a HandlerFactory for RegisterLazy,
// so bus wiring can defer handler construction to the resolver.
//
// Example:
//
//	cb.RegisterLazy(bus.NameOf[CreateUser](), resolver.Factory("CreateUserHandler"))
func (r *Resolver) Factory(name string) HandlerFactory {
	return func() (Handler, error) {
		return r.Resolve(name)
	}
}
