package bus

import (
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the two message capabilities routed by a bus.
type Kind string

const (
	// KindCommand marks a message expressing intent to change state.
	KindCommand Kind = "command"

	// KindQuery marks a message expressing a read-only request.
	KindQuery Kind = "query"
)

// Message is the envelope a bus wraps around a caller's payload for the
// duration of one dispatch. The payload itself stays a plain data value and
// is never inspected beyond its runtime type for routing.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// newMessage builds an envelope with an auto-generated ID and timestamp.
// The message name is derived from the payload's concrete type.
func newMessage(kind Kind, payload any) Message {
	return Message{
		ID:        uuid.New().String(),
		Name:      messageNameOf(payload),
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

// messageNameCache caches reflection results for message name lookups.
// Key is reflect.Type, value is the message name string.
var messageNameCache sync.Map

// messageName derives a stable identifier from a reflect.Type.
// Pointers are dereferenced so *CreateUser and CreateUser share a name.
// Results are cached to avoid repeated reflection overhead; after the first
// dispatch of a type, lookup is a single sync.Map read.
func messageName(t reflect.Type) string {
	if name, ok := messageNameCache.Load(t); ok {
		return name.(string)
	}

	original := t
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	var name string
	if t.Name() != "" {
		name = t.Name()
	} else {
		name = t.String()
	}

	messageNameCache.Store(original, name)
	return name
}

// messageNameOf returns the message name for a payload instance.
func messageNameOf(payload any) string {
	return messageName(reflect.TypeOf(payload))
}

// MessageNameOf returns the stable message name for a payload instance.
// This is the same identifier the buses key their registrations by, which
// makes it useful for RegisterLazy, HasHandler checks, and logging.
func MessageNameOf(payload any) string {
	return messageNameOf(payload)
}

// NameOf returns the message name for the type T without needing an instance.
//
// Example:
//
//	qb.RegisterLazy(bus.NameOf[GetUser](), factory)
func NameOf[T any]() string {
	var zero T
	return messageName(reflect.TypeOf(zero))
}
