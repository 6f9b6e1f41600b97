package cache

type evicted[K comparable, V any] struct {
	key   K
	value V
}

// store holds the committed entries of an AutoLRU and their recency order.
//
// Implementations are not safe for concurrent use; the AutoLRU lock guards every call.
type store[K comparable, V any] interface {
	// lookup returns the value for key and marks it as most recently used
	lookup(key K) (V, bool)
	// peek returns the value for key without touching the recency order
	peek(key K) (V, bool)
	// commit inserts or refreshes key as the most recently used entry and
	// evicts least recently used entries until the store is within capacity.
	// The entry being committed is never evicted.
	commit(key K, value V) []evicted[K, V]
	remove(key K) bool
	// purge drops every entry without reporting them as evicted
	purge()
	len() int
	// keys returns the resident keys from most to least recently used
	keys() []K
	close()
}
