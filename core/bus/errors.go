package bus

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/mediator/core/validation"
)

var (
	// ErrHandlerNotFound is returned when a message has no direct or lazy
	// registration on the dispatching bus.
	ErrHandlerNotFound = errors.New("no handler registered for message")

	// ErrValidationFailed is returned by the command bus when a registered
	// validator reports an invalid command.
	ErrValidationFailed = errors.New("command validation failed")

	// ErrResolutionFailed is returned when a handler type cannot be resolved
	// from an instance, factory, or container entry.
	ErrResolutionFailed = errors.New("handler resolution failed")

	// ErrNilPayload is returned when dispatching a nil message payload.
	ErrNilPayload = errors.New("message payload cannot be nil")
)

// NotFoundError reports a dispatch that found no registration for a message.
// It carries the message name and whether it was a command or a query, and
// matches ErrHandlerNotFound via errors.Is.
type NotFoundError struct {
	Name string
	Kind Kind
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrHandlerNotFound, e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrHandlerNotFound
}

// ValidationError reports a command rejected before handler resolution.
// It carries the full validation result, not just the first message, and
// matches ErrValidationFailed via errors.Is.
type ValidationError struct {
	Name   string
	Result validation.Result
}

func (e *ValidationError) Error() string {
	if msg, ok := e.Result.FirstError(); ok {
		return fmt.Sprintf("%s: %s: %s", ErrValidationFailed, e.Name, msg)
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, e.Name)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// ResolutionError reports a handler type that could not be turned into a
// live handler instance. Err holds the underlying cause when a factory or
// container lookup failed; it is nil when nothing was registered at all.
// Matches ErrResolutionFailed via errors.Is.
type ResolutionError struct {
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", ErrResolutionFailed, e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrResolutionFailed, e.Name)
}

func (e *ResolutionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrResolutionFailed}
	}
	return []error{ErrResolutionFailed, e.Err}
}
