// Package cache implements AutoLRU, a self-populating LRU cache.
//
// Values are computed on a miss by a caller supplied Loader. Concurrent misses
// for the same key are coalesced into one load episode: the first caller runs
// the loader outside the cache lock and every other caller waits for the
// episode's outcome.
//
//	c := cache.MustNew(func(ctx context.Context, key int) (string, error) {
//		return fetch(ctx, key)
//	}, 128)
//	value, err := c.Load(ctx, 42)
//
// Failed loads are never cached or retried. Every caller of a failed episode
// receives the same *LoadError, and the next Load starts a fresh episode.
// Clear(true) abandons in-flight episodes; their callers receive ErrAbandoned.
package cache
