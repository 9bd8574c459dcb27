package bus_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mediator/core/bus"
	"github.com/dmitrymomot/mediator/core/validation"
)

type CreateOrder struct {
	CustomerID string
	Total      int
}

type GetOrder struct {
	ID string
}

type Order struct {
	ID    string
	Total int
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	t.Run("returns not found for unregistered message", func(t *testing.T) {
		t.Parallel()

		cb := bus.NewCommandBus()

		_, err := cb.Dispatch(context.Background(), CreateOrder{CustomerID: "c1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, bus.ErrHandlerNotFound)

		var nfe *bus.NotFoundError
		require.ErrorAs(t, err, &nfe)
		assert.Equal(t, "CreateOrder", nfe.Name)
		assert.Equal(t, bus.KindCommand, nfe.Kind)
	})

	t.Run("not found on query bus names the query kind", func(t *testing.T) {
		t.Parallel()

		qb := bus.NewQueryBus()

		_, err := qb.Dispatch(context.Background(), GetOrder{ID: "o1"})
		var nfe *bus.NotFoundError
		require.ErrorAs(t, err, &nfe)
		assert.Equal(t, bus.KindQuery, nfe.Kind)
	})

	t.Run("invokes registered handler exactly once", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		cb := bus.NewCommandBus()
		cb.Register(bus.NewCommandHandler(func(ctx context.Context, cmd CreateOrder) error {
			calls.Add(1)
			return nil
		}))

		require.NoError(t, bus.Execute(context.Background(), cb, CreateOrder{CustomerID: "c1"}))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("returns handler result unchanged", func(t *testing.T) {
		t.Parallel()

		qb := bus.NewQueryBus()
		qb.Register(bus.NewQueryHandler(func(ctx context.Context, q GetOrder) (Order, error) {
			return Order{ID: q.ID, Total: 42}, nil
		}))

		result, err := qb.Dispatch(context.Background(), GetOrder{ID: "o1"})
		require.NoError(t, err)
		assert.Equal(t, Order{ID: "o1", Total: 42}, result)
	})

	t.Run("propagates handler error unmodified", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		cb := bus.NewCommandBus()
		cb.Register(bus.NewCommandHandler(func(ctx context.Context, cmd CreateOrder) error {
			return boom
		}))

		err := bus.Execute(context.Background(), cb, CreateOrder{})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "boom", err.Error())
	})

	t.Run("converts handler panic to error", func(t *testing.T) {
		t.Parallel()

		cb := bus.NewCommandBus()
		cb.Register(bus.NewCommandHandler(func(ctx context.Context, cmd CreateOrder) error {
			panic("exploded")
		}))

		err := bus.Execute(context.Background(), cb, CreateOrder{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panicked")
	})

	t.Run("rejects nil payload", func(t *testing.T) {
		t.Parallel()

		cb := bus.NewCommandBus()
		_, err := cb.Dispatch(context.Background(), nil)
		assert.ErrorIs(t, err, bus.ErrNilPayload)
	})
}

func TestRegistration(t *testing.T) {
	t.Parallel()

	t.Run("last registration wins", func(t *testing.T) {
		t.Parallel()

		var first, second atomic.Int32
		cb := bus.NewCommandBus()
		cb.Register(bus.NewCommandHandler(func(ctx context.Context, cmd CreateOrder) error {
			first.Add(1)
			return nil
		}))
		cb.Register(bus.NewCommandHandler(func(ctx context.Context, cmd CreateOrder) error {
			second.Add(1)
			return nil
		}))

		require.NoError(t, bus.Execute(context.Background(), cb, CreateOrder{}))
		assert.Equal(t, int32(0), first.Load())
		assert.Equal(t, int32(1), second.Load())
	})

	t.Run("direct registration replaces lazy entry", func(t *testing.T) {
		t.Parallel()

		var factoryCalls atomic.Int32
		cb := bus.NewCommandBus()
		cb.RegisterLazy(bus.NameOf[CreateOrder](), func() (bus.Handler, error) {
			factoryCalls.Add(1)
			return bus.NewCommandHandler(func(ctx context.Context, cmd CreateOrder) error { return nil }), nil
		})
		cb.Register(bus.NewCommandHandler(func(ctx context.Context, cmd CreateOrder) error { return nil }))

		require.NoError(t, bus.Execute(context.Background(), cb, CreateOrder{}))
		assert.Equal(t, int32(0), factoryCalls.Load())
	})

	t.Run("has handler covers direct and lazy registrations", func(t *testing.T) {
		t.Parallel()

		cb := bus.NewCommandBus()
		assert.False(t, cb.HasHandler("CreateOrder"))

		cb.RegisterLazy(bus.NameOf[CreateOrder](), func() (bus.Handler, error) {
			return bus.NewCommandHandler(func(ctx context.Context, cmd CreateOrder) error { return nil }), nil
		})
		assert.True(t, cb.HasHandler("CreateOrder"))

		cb.Register(bus.NewCommandHandler(func(ctx context.Context, cmd CreateOrder) error { return nil }))
		assert.True(t, cb.HasHandler("CreateOrder"))
		assert.False(t, cb.HasHandler("GetOrder"))
	})
}

func TestLazyRegistration(t *testing.T) {
	t.Parallel()

	t.Run("factory invoked once across dispatches", func(t *testing.T) {
		t.Parallel()

		var factoryCalls, handlerCalls atomic.Int32
		cb := bus.NewCommandBus()
		cb.RegisterLazy(bus.NameOf[CreateOrder](), func() (bus.Handler, error) {
			factoryCalls.Add(1)
			return bus.NewCommandHandler(func(ctx context.Context, cmd CreateOrder) error {
				handlerCalls.Add(1)
				return nil
			}), nil
		})

		for i := 0; i < 3; i++ {
			require.NoError(t, bus.Execute(context.Background(), cb, CreateOrder{}))
		}
		assert.Equal(t, int32(1), factoryCalls.Load())
		assert.Equal(t, int32(3), handlerCalls.Load())
	})

	t.Run("factory error surfaces as resolution failure", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("container exploded")
		cb := bus.NewCommandBus()
		cb.RegisterLazy(bus.NameOf[CreateOrder](), func() (bus.Handler, error) {
			return nil, cause
		})

		err := bus.Execute(context.Background(), cb, CreateOrder{})
		assert.ErrorIs(t, err, bus.ErrResolutionFailed)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("nil handler from factory is a resolution failure", func(t *testing.T) {
		t.Parallel()

		cb := bus.NewCommandBus()
		cb.RegisterLazy(bus.NameOf[CreateOrder](), func() (bus.Handler, error) {
			return nil, nil
		})

		err := bus.Execute(context.Background(), cb, CreateOrder{})
		assert.ErrorIs(t, err, bus.ErrResolutionFailed)
	})
}

func TestValidation(t *testing.T) {
	t.Parallel()

	newValidatedBus := func() (*bus.Bus, *atomic.Int32) {
		var handled atomic.Int32

		validators := validation.NewRegistry()
		validators.Register(validation.NewValidator(func(ctx context.Context, cmd CreateOrder) validation.Result {
			if cmd.Total <= 0 {
				return validation.WithError("price", "must be positive")
			}
			return validation.Valid()
		}))

		cb := bus.NewCommandBus(bus.WithValidation(validators))
		cb.Register(bus.NewCommandHandler(func(ctx context.Context, cmd CreateOrder) error {
			handled.Add(1)
			return nil
		}))
		return cb, &handled
	}

	t.Run("invalid command fails before handler runs", func(t *testing.T) {
		t.Parallel()

		cb, handled := newValidatedBus()

		err := bus.Execute(context.Background(), cb, CreateOrder{Total: -5})
		require.Error(t, err)
		assert.ErrorIs(t, err, bus.ErrValidationFailed)
		assert.Equal(t, int32(0), handled.Load())

		var verr *bus.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "CreateOrder", verr.Name)
		assert.Equal(t, []string{"must be positive"}, verr.Result.ErrorsFor("price"))
	})

	t.Run("valid command dispatches normally", func(t *testing.T) {
		t.Parallel()

		cb, handled := newValidatedBus()

		require.NoError(t, bus.Execute(context.Background(), cb, CreateOrder{Total: 10}))
		assert.Equal(t, int32(1), handled.Load())
	})

	t.Run("command without validator dispatches normally", func(t *testing.T) {
		t.Parallel()

		type UnvalidatedCommand struct{ V string }

		validators := validation.NewRegistry()
		cb := bus.NewCommandBus(bus.WithValidation(validators))
		cb.Register(bus.NewCommandHandler(func(ctx context.Context, cmd UnvalidatedCommand) error {
			return nil
		}))

		assert.NoError(t, bus.Execute(context.Background(), cb, UnvalidatedCommand{V: "x"}))
	})

	t.Run("validation failure happens before resolution", func(t *testing.T) {
		t.Parallel()

		validators := validation.NewRegistry()
		validators.Register(validation.NewValidator(func(ctx context.Context, cmd CreateOrder) validation.Result {
			return validation.WithError("total", "always invalid")
		}))

		// No handler registered: validation must win over not-found.
		cb := bus.NewCommandBus(bus.WithValidation(validators))

		err := bus.Execute(context.Background(), cb, CreateOrder{})
		assert.ErrorIs(t, err, bus.ErrValidationFailed)
		assert.NotErrorIs(t, err, bus.ErrHandlerNotFound)
	})

	t.Run("query bus ignores validation", func(t *testing.T) {
		t.Parallel()

		validators := validation.NewRegistry()
		validators.Register(validation.NewValidator(func(ctx context.Context, q GetOrder) validation.Result {
			return validation.WithError("id", "never valid")
		}))

		qb := bus.NewQueryBus(bus.WithValidation(validators))
		qb.Register(bus.NewQueryHandler(func(ctx context.Context, q GetOrder) (Order, error) {
			return Order{ID: q.ID}, nil
		}))

		_, err := qb.Dispatch(context.Background(), GetOrder{ID: "o1"})
		assert.NoError(t, err)
	})
}

func TestAsk(t *testing.T) {
	t.Parallel()

	t.Run("returns typed result", func(t *testing.T) {
		t.Parallel()

		qb := bus.NewQueryBus()
		qb.Register(bus.NewQueryHandler(func(ctx context.Context, q GetOrder) (Order, error) {
			return Order{ID: q.ID, Total: 7}, nil
		}))

		order, err := bus.Ask[Order](context.Background(), qb, GetOrder{ID: "o1"})
		require.NoError(t, err)
		assert.Equal(t, 7, order.Total)
	})

	t.Run("reports result type mismatch", func(t *testing.T) {
		t.Parallel()

		qb := bus.NewQueryBus()
		qb.Register(bus.NewQueryHandler(func(ctx context.Context, q GetOrder) (string, error) {
			return "not an order", nil
		}))

		_, err := bus.Ask[Order](context.Background(), qb, GetOrder{ID: "o1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected result type")
	})
}

func TestMessageNames(t *testing.T) {
	t.Parallel()

	t.Run("pointer and value payloads share a name", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, bus.MessageNameOf(CreateOrder{}), bus.MessageNameOf(&CreateOrder{}))
		assert.Equal(t, "CreateOrder", bus.NameOf[CreateOrder]())
	})
}
