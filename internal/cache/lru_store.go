package cache

import "container/list"

type lruStoreEntry[K comparable, V any] struct {
	key   K
	value V
}

type lruStore[K comparable, V any] struct {
	capacity int
	items    map[K]*list.Element
	recency  *list.List // Front is the most recently used entry
}

func (s *lruStore[K, V]) lookup(key K) (V, bool) {
	element, ok := s.items[key]
	if !ok {
		var empty V
		return empty, false
	}

	s.recency.MoveToFront(element)
	return element.Value.(*lruStoreEntry[K, V]).value, true
}

func (s *lruStore[K, V]) peek(key K) (V, bool) {
	element, ok := s.items[key]
	if !ok {
		var empty V
		return empty, false
	}

	return element.Value.(*lruStoreEntry[K, V]).value, true
}

func (s *lruStore[K, V]) commit(key K, value V) []evicted[K, V] {
	if element, ok := s.items[key]; ok {
		element.Value.(*lruStoreEntry[K, V]).value = value
		s.recency.MoveToFront(element)
		return nil
	}

	s.items[key] = s.recency.PushFront(&lruStoreEntry[K, V]{key: key, value: value})

	var evictions []evicted[K, V]
	for len(s.items) > s.capacity {
		// capacity >= 1 and the new entry is at the front, so Back is never the new entry
		oldest := s.recency.Back()
		entry := oldest.Value.(*lruStoreEntry[K, V])
		s.recency.Remove(oldest)
		delete(s.items, entry.key)
		evictions = append(evictions, evicted[K, V]{key: entry.key, value: entry.value})
	}

	return evictions
}

func (s *lruStore[K, V]) remove(key K) bool {
	element, ok := s.items[key]
	if !ok {
		return false
	}

	s.recency.Remove(element)
	delete(s.items, key)
	return true
}

func (s *lruStore[K, V]) purge() {
	s.items = make(map[K]*list.Element, s.capacity)
	s.recency.Init()
}

func (s *lruStore[K, V]) len() int {
	return len(s.items)
}

func (s *lruStore[K, V]) keys() []K {
	keys := make([]K, 0, len(s.items))
	for element := s.recency.Front(); element != nil; element = element.Next() {
		keys = append(keys, element.Value.(*lruStoreEntry[K, V]).key)
	}
	return keys
}

func (s *lruStore[K, V]) close() {
}

func newLRUStore[K comparable, V any](capacity int) *lruStore[K, V] {
	return &lruStore[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		recency:  list.New(),
	}
}
