package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Amund211/autolru/internal/logging"
	"go.opentelemetry.io/otel/codes"
)

// Load returns the value for key, invoking the loader if key is not cached.
//
// If a load of key is already in flight, Load waits for its outcome instead of
// starting another one. Every caller of a load episode observes the same result:
//   - the loaded value
//   - a *LoadError wrapping the loader's error
//   - ErrAbandoned if the episode was discarded by Clear(true)
//
// A caller that joined an in-flight load returns ctx.Err() if ctx is done
// before the outcome is published. The caller that started the load always
// waits for the loader, which runs with a context that is not canceled along
// with ctx since its result is shared by every caller.
func (c *AutoLRU[K, V]) Load(ctx context.Context, key K) (V, error) {
	logger := logging.FromContext(ctx)

	c.mu.Lock()
	if value, ok := c.store.lookup(key); ok {
		c.mu.Unlock()

		metrics.hits.Add(ctx, 1, c.attributes)
		logger.DebugContext(ctx, "Loading from cache", "cache", "hit", "key", key)
		return value, nil
	}

	if episode, ok := c.pending[key]; ok {
		episode.waiters++
		waiters := episode.waiters
		c.mu.Unlock()

		metrics.coalesced.Add(ctx, 1, c.attributes)
		logger.DebugContext(ctx, "Waiting for cache", "key", key, "waiters", waiters)
		return episode.wait(ctx)
	}

	episode := newPendingLoad[V]()
	c.pending[key] = episode
	onLoad := c.onLoad
	c.mu.Unlock()

	metrics.misses.Add(ctx, 1, c.attributes)
	logger.InfoContext(ctx, "Loading from cache", "cache", "miss", "key", key)

	return c.runLoader(ctx, key, episode, onLoad)
}

func (c *AutoLRU[K, V]) runLoader(ctx context.Context, key K, episode *pendingLoad[V], onLoad func(K)) (V, error) {
	loadCtx, span := c.tracer.Start(context.WithoutCancel(ctx), "AutoLRU.load")
	metrics.loads.Add(ctx, 1, c.attributes)

	start := time.Now()
	value, panicValue, err := c.invoke(loadCtx, key, onLoad)
	metrics.loadDuration.Record(ctx, time.Since(start).Seconds(), c.attributes)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "loader failed")
	}
	span.End()

	c.mu.Lock()
	current := c.pending[key] == episode
	var evictions []evicted[K, V]
	if current {
		delete(c.pending, key)
		if err != nil {
			var empty V
			episode.publish(empty, &LoadError{Key: key, Err: err})
		} else {
			evictions = c.store.commit(key, value)
			episode.publish(value, nil)
		}
	}
	onEvict := c.onEvict
	// Published under the lock either above or by Clear
	value, err = episode.value, episode.err
	c.mu.Unlock()

	c.notifyEvictions(ctx, evictions, onEvict)

	logger := logging.FromContext(ctx)
	if !current {
		logger.InfoContext(ctx, "Discarding result of abandoned load", "key", key)
	} else if err != nil {
		metrics.loadFailures.Add(ctx, 1, c.attributes)
		logger.WarnContext(ctx, "Failed to load cache entry", "key", key, slog.String("error", err.Error()))
	}

	if panicValue != nil {
		panic(panicValue)
	}

	return value, err
}

// invoke calls the OnLoad hook and the loader, converting a panic in either
// into an error so the episode can be published before the panic is propagated
func (c *AutoLRU[K, V]) invoke(ctx context.Context, key K, onLoad func(K)) (value V, panicValue any, err error) {
	defer func() {
		if r := recover(); r != nil {
			var empty V
			value = empty
			panicValue = r
			err = fmt.Errorf("%w: %v", ErrLoaderPanicked, r)
		}
	}()

	if onLoad != nil {
		onLoad(key)
	}

	value, err = c.loader(ctx, key)
	return value, nil, err
}
