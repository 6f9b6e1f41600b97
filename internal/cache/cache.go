package cache

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const defaultName = "autolru"

// Loader computes the value for a key on a cache miss.
//
// It may be invoked concurrently for different keys, but never concurrently
// for the same key within one AutoLRU.
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

// AutoLRU is a capacity bound LRU cache that loads missing values with a Loader.
//
// Concurrent loads of the same missing key share a single loader invocation.
// An AutoLRU must be created with New or MustNew.
type AutoLRU[K comparable, V any] struct {
	loader   Loader[K, V]
	capacity int
	name     string

	attributes metric.MeasurementOption
	tracer     trace.Tracer

	// mu guards the store, the pending table and the hooks as a single unit
	mu      sync.Mutex
	store   store[K, V]
	pending map[K]*pendingLoad[V]
	onLoad  func(key K)
	onEvict func(key K, value V)

	closeOnce sync.Once
}

// New returns an AutoLRU holding at most capacity committed entries, loaded with loader.
// It returns ErrNilLoader if loader is nil and ErrInvalidCapacity if capacity is less than 1.
func New[K comparable, V any](loader Loader[K, V], capacity int, opts ...Option) (*AutoLRU[K, V], error) {
	if loader == nil {
		return nil, ErrNilLoader
	}
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}

	o := options{name: defaultName}
	for _, opt := range opts {
		opt(&o)
	}

	var s store[K, V]
	if o.ttl > 0 {
		s = newTTLStore[K, V](capacity, o.ttl)
	} else {
		s = newLRUStore[K, V](capacity)
	}

	return &AutoLRU[K, V]{
		loader:   loader,
		capacity: capacity,
		name:     o.name,

		attributes: metric.WithAttributes(attribute.String("cache", o.name)),
		tracer:     otel.Tracer("autolru/cache"),

		store:   s,
		pending: make(map[K]*pendingLoad[V]),
	}, nil
}

// MustNew is like New, but panics on invalid arguments
func MustNew[K comparable, V any](loader Loader[K, V], capacity int, opts ...Option) *AutoLRU[K, V] {
	c, err := New(loader, capacity, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Clear removes every committed entry.
//
// If discardLoads is true every in-flight load episode is abandoned as well:
// its callers receive ErrAbandoned and the result of the still running loader
// is ignored when it arrives. Otherwise in-flight loads complete normally and
// commit their results after the clear.
func (c *AutoLRU[K, V]) Clear(discardLoads bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.purge()

	if !discardLoads || len(c.pending) == 0 {
		return
	}

	var empty V
	for _, episode := range c.pending {
		episode.publish(empty, ErrAbandoned)
	}
	metrics.abandoned.Add(context.Background(), int64(len(c.pending)), c.attributes)
	clear(c.pending)
}

// Peek returns the committed value for key without loading it or changing its recency
func (c *AutoLRU[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.peek(key)
}

// Contains reports whether key has a committed entry. Like Peek, it does not change recency.
func (c *AutoLRU[K, V]) Contains(key K) bool {
	_, ok := c.Peek(key)
	return ok
}

// Forget removes the committed entry for key. In-flight loads of key are unaffected.
func (c *AutoLRU[K, V]) Forget(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.remove(key)
}

// Len returns the number of committed entries. In-flight loads are not counted.
func (c *AutoLRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.len()
}

// Capacity returns the maximum number of committed entries
func (c *AutoLRU[K, V]) Capacity() int {
	return c.capacity
}

// Keys returns the committed keys from most to least recently used
func (c *AutoLRU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.keys()
}

// Pending returns the number of in-flight load episodes
func (c *AutoLRU[K, V]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}

// OnLoad registers a function that is called once for every loader invocation
func (c *AutoLRU[K, V]) OnLoad(f func(key K)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onLoad = f
}

// OnEvict registers a function that is called for every entry evicted due to
// capacity or expiry. Clear and Forget do not count as evictions.
//
// The function is called without any cache lock held, possibly from multiple
// goroutines at once.
func (c *AutoLRU[K, V]) OnEvict(f func(key K, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onEvict = f
}

// Close stops background expiry. It is safe to call multiple times.
func (c *AutoLRU[K, V]) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.store.close()
	})
	return nil
}

func (c *AutoLRU[K, V]) notifyEvictions(ctx context.Context, evictions []evicted[K, V], onEvict func(K, V)) {
	if len(evictions) == 0 {
		return
	}

	metrics.evictions.Add(ctx, int64(len(evictions)), c.attributes)

	if onEvict == nil {
		return
	}
	for _, e := range evictions {
		onEvict(e.key, e.value)
	}
}
