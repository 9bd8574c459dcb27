// Package redis provides the Redis side of the mediator's query caching:
// a go-redis client initializer with environment-based configuration and a
// CacheStore adapter for the query-result cache middleware.
//
// # Query result caching
//
// The cache middleware short-circuits query dispatch on a hit, so the
// handler (and everything downstream of the middleware) never runs:
//
//	client, err := redis.Connect(ctx, redis.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	qb := bus.NewQueryBus(
//		bus.WithMiddleware(redis.NewQueryCache(
//			redis.NewStore(client),
//			redis.WithTTL(time.Minute),
//			redis.WithCachedQuery[GetUser, User](),
//		)),
//	)
//
// Caching is opt-in per query type via WithCachedQuery; queries without a
// registration pass through untouched. Cached results are stored as JSON,
// so result types must round-trip through encoding/json.
package redis
