package valuerepository

import (
	"context"
	"sync"

	"github.com/Amund211/autolru/internal/domain"
)

// InMemory is a ValueRepository for development and tests
type InMemory struct {
	mu     sync.RWMutex
	values map[string]domain.Value
}

func NewInMemory(values ...domain.Value) *InMemory {
	r := &InMemory{values: make(map[string]domain.Value, len(values))}
	for _, value := range values {
		r.values[value.Key] = value
	}
	return r
}

func (r *InMemory) GetValue(ctx context.Context, key string) (domain.Value, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.values[key]
	if !ok {
		return domain.Value{}, domain.ErrValueNotFound
	}
	return value, nil
}

func (r *InMemory) StoreValue(ctx context.Context, value domain.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[value.Key] = value
	return nil
}

func (r *InMemory) DeleteValue(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.values, key)
	return nil
}

var _ ValueRepository = (*InMemory)(nil)
