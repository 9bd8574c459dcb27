package redis_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mediator/core/bus"
	"github.com/dmitrymomot/mediator/integration/database/redis"
)

type GetProduct struct {
	SKU string
}

type Product struct {
	SKU   string
	Price int
}

type ArchiveProduct struct {
	SKU string
}

type fakeStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	gets   int
	sets   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (s *fakeStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	data, ok := s.data[key]
	return data, ok, nil
}

func (s *fakeStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	s.data[key] = value
	s.ttls[key] = ttl
	return nil
}

func newCachedQueryBus(store redis.CacheStore, handled *atomic.Int32, opts ...redis.CacheOption) *bus.Bus {
	opts = append([]redis.CacheOption{redis.WithCachedQuery[GetProduct, Product]()}, opts...)

	qb := bus.NewQueryBus(bus.WithMiddleware(redis.NewQueryCache(store, opts...)))
	qb.Register(bus.NewQueryHandler(func(ctx context.Context, q GetProduct) (Product, error) {
		handled.Add(1)
		return Product{SKU: q.SKU, Price: 100}, nil
	}))
	return qb
}

func TestQueryCache(t *testing.T) {
	t.Parallel()

	t.Run("miss dispatches and populates the store", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		var handled atomic.Int32
		qb := newCachedQueryBus(store, &handled)

		product, err := bus.Ask[Product](context.Background(), qb, GetProduct{SKU: "p1"})
		require.NoError(t, err)
		assert.Equal(t, 100, product.Price)
		assert.Equal(t, int32(1), handled.Load())
		assert.Equal(t, 1, store.sets)
	})

	t.Run("hit short-circuits without invoking the handler", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		var handled atomic.Int32
		qb := newCachedQueryBus(store, &handled)

		first, err := bus.Ask[Product](context.Background(), qb, GetProduct{SKU: "p1"})
		require.NoError(t, err)

		second, err := bus.Ask[Product](context.Background(), qb, GetProduct{SKU: "p1"})
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), handled.Load())
	})

	t.Run("distinct payloads use distinct keys", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		var handled atomic.Int32
		qb := newCachedQueryBus(store, &handled)

		_, err := bus.Ask[Product](context.Background(), qb, GetProduct{SKU: "p1"})
		require.NoError(t, err)
		_, err = bus.Ask[Product](context.Background(), qb, GetProduct{SKU: "p2"})
		require.NoError(t, err)

		assert.Equal(t, int32(2), handled.Load())
		assert.Len(t, store.data, 2)
	})

	t.Run("unregistered query types pass through", func(t *testing.T) {
		t.Parallel()

		type ListProducts struct{ Page int }

		store := newFakeStore()
		qb := bus.NewQueryBus(bus.WithMiddleware(redis.NewQueryCache(store,
			redis.WithCachedQuery[GetProduct, Product]())))
		qb.Register(bus.NewQueryHandler(func(ctx context.Context, q ListProducts) ([]Product, error) {
			return []Product{{SKU: "p1"}}, nil
		}))

		_, err := qb.Dispatch(context.Background(), ListProducts{Page: 1})
		require.NoError(t, err)
		assert.Equal(t, 0, store.gets)
		assert.Equal(t, 0, store.sets)
	})

	t.Run("commands bypass the cache entirely", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		cb := bus.NewCommandBus(bus.WithMiddleware(redis.NewQueryCache(store,
			redis.WithCachedQuery[ArchiveProduct, Product]())))
		cb.Register(bus.NewCommandHandler(func(ctx context.Context, cmd ArchiveProduct) error {
			return nil
		}))

		require.NoError(t, bus.Execute(context.Background(), cb, ArchiveProduct{SKU: "p1"}))
		assert.Equal(t, 0, store.gets)
	})

	t.Run("store failure degrades to pass-through", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		store.getErr = errors.New("connection refused")
		var handled atomic.Int32
		qb := newCachedQueryBus(store, &handled)

		product, err := bus.Ask[Product](context.Background(), qb, GetProduct{SKU: "p1"})
		require.NoError(t, err)
		assert.Equal(t, "p1", product.SKU)
		assert.Equal(t, int32(1), handled.Load())
	})

	t.Run("handler errors are never cached", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		boom := errors.New("boom")

		qb := bus.NewQueryBus(bus.WithMiddleware(redis.NewQueryCache(store,
			redis.WithCachedQuery[GetProduct, Product]())))
		qb.Register(bus.NewQueryHandler(func(ctx context.Context, q GetProduct) (Product, error) {
			return Product{}, boom
		}))

		_, err := qb.Dispatch(context.Background(), GetProduct{SKU: "p1"})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, store.sets)
	})

	t.Run("configured ttl reaches the store", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		var handled atomic.Int32
		qb := newCachedQueryBus(store, &handled, redis.WithTTL(5*time.Minute))

		_, err := bus.Ask[Product](context.Background(), qb, GetProduct{SKU: "p1"})
		require.NoError(t, err)

		for _, ttl := range store.ttls {
			assert.Equal(t, 5*time.Minute, ttl)
		}
	})
}
