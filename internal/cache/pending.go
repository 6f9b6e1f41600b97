package cache

import "context"

// pendingLoad is one load episode for a key that is not yet in the store.
//
// value and err are written exactly once, under the cache lock, right before
// done is closed. They are only read after done is closed.
type pendingLoad[V any] struct {
	done    chan struct{}
	waiters int

	value V
	err   error
}

func newPendingLoad[V any]() *pendingLoad[V] {
	return &pendingLoad[V]{
		done: make(chan struct{}),
	}
}

// NOTE: Must be called with the cache lock held
func (p *pendingLoad[V]) publish(value V, err error) {
	p.value = value
	p.err = err
	close(p.done)
}

// wait blocks until the outcome is published or ctx is done.
// Giving up on the wait does not affect the episode or its other waiters.
func (p *pendingLoad[V]) wait(ctx context.Context) (V, error) {
	select {
	case <-p.done:
		return p.value, p.err
	default:
	}

	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var empty V
		return empty, ctx.Err()
	}
}
