package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// ttlStore keeps entries in a ttlcache, using its recency list for LRU order
// and its expiry loop for TTLs.
//
// Capacity is enforced here rather than by ttlcache, since ttlcache delivers
// eviction callbacks on their own goroutines and commit must report its
// evictions synchronously. Expired entries are reported asynchronously and
// handed out on a later commit.
type ttlStore[K comparable, V any] struct {
	cache    *ttlcache.Cache[K, V]
	capacity int
	started  bool

	unsubscribe func()

	expiredLock sync.Mutex
	expired     []evicted[K, V]
}

func (s *ttlStore[K, V]) lookup(key K) (V, bool) {
	item := s.cache.Get(key)
	if item == nil {
		var empty V
		return empty, false
	}
	return item.Value(), true
}

// peek walks the recency list instead of using Get, since Get always moves the item to the front
func (s *ttlStore[K, V]) peek(key K) (V, bool) {
	var value V
	found := false
	s.cache.Range(func(item *ttlcache.Item[K, V]) bool {
		if item.Key() == key {
			value = item.Value()
			found = true
			return false
		}
		return true
	})
	return value, found
}

func (s *ttlStore[K, V]) commit(key K, value V) []evicted[K, V] {
	var evictions []evicted[K, V]
	if !s.cache.Has(key) {
		for s.cache.Len() >= s.capacity {
			tail, ok := s.leastRecentlyUsed()
			if !ok {
				break
			}
			// Deletions are not reported by recordExpiry
			s.cache.Delete(tail.key)
			evictions = append(evictions, tail)
		}
	}

	s.cache.Set(key, value, ttlcache.DefaultTTL)

	s.expiredLock.Lock()
	defer s.expiredLock.Unlock()

	evictions = append(evictions, s.expired...)
	s.expired = nil
	return evictions
}

func (s *ttlStore[K, V]) leastRecentlyUsed() (evicted[K, V], bool) {
	var tail evicted[K, V]
	found := false
	s.cache.RangeBackwards(func(item *ttlcache.Item[K, V]) bool {
		tail = evicted[K, V]{key: item.Key(), value: item.Value()}
		found = true
		return false
	})
	return tail, found
}

func (s *ttlStore[K, V]) remove(key K) bool {
	if !s.cache.Has(key) {
		return false
	}
	s.cache.Delete(key)
	return true
}

func (s *ttlStore[K, V]) purge() {
	s.cache.DeleteAll()
}

func (s *ttlStore[K, V]) len() int {
	return s.cache.Len()
}

func (s *ttlStore[K, V]) keys() []K {
	keys := make([]K, 0, s.cache.Len())
	s.cache.Range(func(item *ttlcache.Item[K, V]) bool {
		keys = append(keys, item.Key())
		return true
	})
	return keys
}

func (s *ttlStore[K, V]) close() {
	if s.started {
		s.cache.Stop()
		s.started = false
	}
	if s.unsubscribe != nil {
		// Waits for in-flight callbacks
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *ttlStore[K, V]) recordExpiry(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[K, V]) {
	if reason != ttlcache.EvictionReasonExpired {
		return
	}

	s.expiredLock.Lock()
	defer s.expiredLock.Unlock()

	s.expired = append(s.expired, evicted[K, V]{key: item.Key(), value: item.Value()})
}

func newTTLStore[K comparable, V any](capacity int, ttl time.Duration) *ttlStore[K, V] {
	cache := ttlcache.New[K, V](
		ttlcache.WithTTL[K, V](ttl),
		ttlcache.WithDisableTouchOnHit[K, V](),
	)

	s := &ttlStore[K, V]{cache: cache, capacity: capacity}
	s.unsubscribe = cache.OnEviction(s.recordExpiry)

	if ttl > 0 {
		// Proactively remove expired entries so they don't hold on to memory
		go cache.Start()
		s.started = true
	}

	return s
}
