package cache

import "time"

type options struct {
	name string
	ttl  time.Duration
}

type Option func(*options)

// WithTTL expires committed entries after ttl. Expired entries are reloaded on the next Load.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithName sets the name the cache reports its metrics and logs under
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}
