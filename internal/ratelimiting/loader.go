package ratelimiting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Amund211/autolru/internal/cache"
	"golang.org/x/time/rate"
)

var ErrLoadRateLimited = errors.New("load rate limited")

// LimitLoader makes every invocation of loader take a token from limiter.
//
// Invocations that cannot get a token within maxWait fail with ErrLoadRateLimited
// without calling loader.
func LimitLoader[K comparable, V any](limiter *rate.Limiter, maxWait time.Duration, loader cache.Loader[K, V]) cache.Loader[K, V] {
	return func(ctx context.Context, key K) (V, error) {
		waitCtx, cancel := context.WithTimeout(ctx, maxWait)
		defer cancel()

		if err := limiter.Wait(waitCtx); err != nil {
			var empty V
			return empty, fmt.Errorf("%w: %w", ErrLoadRateLimited, err)
		}

		return loader(ctx, key)
	}
}
