package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore is the minimal key-value contract consumed by the query cache
// middleware. Get reports a miss with a false second return value rather
// than an error, so misses stay on the happy path.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Store adapts a go-redis client to the CacheStore contract.
type Store struct {
	client redis.UniversalClient
}

// NewStore creates a CacheStore backed by a Redis client.
func NewStore(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

// Get fetches a cached value. A redis.Nil reply is a miss, not an error.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value with the given TTL. A zero TTL stores without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}
