package cache

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// mockLoader counts invocations per key and can be made to block, fail or panic
type mockLoader[K comparable] struct {
	lock       sync.Mutex
	calls      map[K]int
	release    chan struct{}
	err        error
	panicValue any
}

func newMockLoader[K comparable]() *mockLoader[K] {
	return &mockLoader[K]{
		calls: make(map[K]int),
	}
}

func (m *mockLoader[K]) load(ctx context.Context, key K) (string, error) {
	m.lock.Lock()
	m.calls[key]++
	release := m.release
	err := m.err
	panicValue := m.panicValue
	m.lock.Unlock()

	if release != nil {
		<-release
	}

	if panicValue != nil {
		panic(panicValue)
	}

	if err != nil {
		return "", err
	}

	return fmt.Sprintf("R(%v)", key), nil
}

// block makes subsequent loads wait until unblock is called
func (m *mockLoader[K]) block() {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.release = make(chan struct{})
}

func (m *mockLoader[K]) unblock() {
	m.lock.Lock()
	defer m.lock.Unlock()

	close(m.release)
	m.release = nil
}

func (m *mockLoader[K]) setErr(err error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.err = err
}

func (m *mockLoader[K]) setPanic(value any) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.panicValue = value
}

func (m *mockLoader[K]) callsFor(key K) int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.calls[key]
}

func (m *mockLoader[K]) allCalls() map[K]int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return maps.Clone(m.calls)
}
