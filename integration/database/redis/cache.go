package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrymomot/mediator/core/bus"
)

// defaultTTL bounds staleness when no TTL is configured.
const defaultTTL = time.Minute

// QueryCache is a query-bus middleware that serves repeated queries from
// the cache store. On a hit the rest of the pipeline, including the
// handler, never runs. Caching is opt-in per query type; commands and
// unregistered queries pass through untouched. Store failures degrade to a
// pass-through dispatch rather than failing the query.
type QueryCache struct {
	store    CacheStore
	ttl      time.Duration
	prefix   string
	decoders map[string]func([]byte) (any, error)
}

// CacheOption configures a QueryCache.
type CacheOption func(*QueryCache)

// WithTTL sets how long cached results live. Defaults to one minute.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *QueryCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces cache keys, e.g. per application or tenant.
func WithKeyPrefix(prefix string) CacheOption {
	return func(c *QueryCache) {
		c.prefix = prefix
	}
}

// WithCachedQuery enables caching for queries of type Q with results of
// type R. R must round-trip through encoding/json.
func WithCachedQuery[Q any, R any]() CacheOption {
	return func(c *QueryCache) {
		c.decoders[bus.NameOf[Q]()] = func(data []byte) (any, error) {
			var result R
			if err := json.Unmarshal(data, &result); err != nil {
				return nil, err
			}
			return result, nil
		}
	}
}

// NewQueryCache creates the cache middleware.
func NewQueryCache(store CacheStore, opts ...CacheOption) *QueryCache {
	c := &QueryCache{
		store:    store,
		ttl:      defaultTTL,
		prefix:   "mediator:query",
		decoders: make(map[string]func([]byte) (any, error)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle implements bus.Middleware.
func (c *QueryCache) Handle(ctx context.Context, msg bus.Message, next bus.Next) (any, error) {
	if msg.Kind != bus.KindQuery {
		return next(ctx)
	}

	decode, ok := c.decoders[msg.Name]
	if !ok {
		return next(ctx)
	}

	key, err := c.key(msg)
	if err != nil {
		return next(ctx)
	}

	if data, hit, err := c.store.Get(ctx, key); err == nil && hit {
		if result, err := decode(data); err == nil {
			return result, nil
		}
	}

	result, err := next(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		_ = c.store.Set(ctx, key, data, c.ttl)
	}
	return result, nil
}

// key derives a cache key from the query name and a content hash of its
// payload, so distinct parameter values never collide.
func (c *QueryCache) key(msg bus.Message) (string, error) {
	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%s:%s:%s", c.prefix, msg.Name, hex.EncodeToString(sum[:])), nil
}
