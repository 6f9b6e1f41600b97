package cache

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCapacity = errors.New("capacity must be at least 1")
	ErrNilLoader       = errors.New("loader must not be nil")

	// ErrLoadFailed matches every error returned for a failed load episode
	ErrLoadFailed = errors.New("cache load failed")
	// ErrAbandoned is returned to every caller of a load episode that was discarded by Clear(true)
	ErrAbandoned = errors.New("cache load abandoned")
	// ErrLoaderPanicked is the cause of a LoadError when the loader panicked
	ErrLoaderPanicked = errors.New("loader panicked")
)

// LoadError is returned to the initiating caller and every waiter of a load
// episode whose loader failed.
//
// errors.Is matches both ErrLoadFailed and the error returned by the loader.
type LoadError struct {
	Key any
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %v: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrLoadFailed, e.Err}
}
