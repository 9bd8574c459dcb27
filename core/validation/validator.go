package validation

import (
	"context"
	"reflect"
	"sync"
)

// Validator validates commands of a single message type before dispatch.
type Validator interface {
	// MessageName returns the name of the command type this validator
	// supports. Must match the name the command bus derives for the type.
	MessageName() string

	// Validate inspects the command and returns the outcome. The command
	// is guaranteed to be of the supported type when called through a
	// Registry.
	Validate(ctx context.Context, cmd any) Result
}

// ValidatorFunc is a type-safe validator for commands of type C.
// The message name is derived from C, matching the bus registration key.
type ValidatorFunc[C any] struct {
	name string
	fn   func(ctx context.Context, cmd C) Result
}

// NewValidator creates a validator from a typed function.
//
// Example:
//
//	v := validation.NewValidator(func(ctx context.Context, cmd CreatePayment) validation.Result {
//	    if cmd.Amount <= 0 {
//	        return validation.WithError("amount", "must be positive")
//	    }
//	    return validation.Valid()
//	})
func NewValidator[C any](fn func(ctx context.Context, cmd C) Result) Validator {
	var zero C
	return &ValidatorFunc[C]{
		name: typeName(reflect.TypeOf(zero)),
		fn:   fn,
	}
}

// MessageName returns the supported command name.
func (v *ValidatorFunc[C]) MessageName() string {
	return v.name
}

// Validate runs the typed function. A command of an unexpected type is
// reported as trivially valid rather than panicking; the registry only
// routes matching types here.
func (v *ValidatorFunc[C]) Validate(ctx context.Context, cmd any) Result {
	typed, ok := cmd.(C)
	if !ok {
		return Valid()
	}
	return v.fn(ctx, typed)
}

// Registry holds at most one validator per command type.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]Validator
}

// NewRegistry creates an empty validator registry.
func NewRegistry() *Registry {
	return &Registry{validators: make(map[string]Validator)}
}

// Register stores a validator for its command type. A second registration
// for the same type silently replaces the first, mirroring bus handler
// registration policy.
func (r *Registry) Register(v Validator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[v.MessageName()] = v
}

// Has reports whether a validator is registered for the command name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.validators[name]
	return ok
}

// Validate looks up a validator by the command's concrete type name and
// runs it. Commands with no registered validator are trivially valid.
func (r *Registry) Validate(ctx context.Context, cmd any) Result {
	r.mu.RLock()
	v, ok := r.validators[typeName(reflect.TypeOf(cmd))]
	r.mu.RUnlock()

	if !ok {
		return Valid()
	}
	return v.Validate(ctx, cmd)
}

// typeName derives the registry key for a command type. Pointers are
// dereferenced so a *CreateUser validator matches CreateUser commands.
// Must stay in sync with the bus message name derivation.
func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
