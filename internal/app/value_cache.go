package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Amund211/autolru/internal/adapters/valuerepository"
	"github.com/Amund211/autolru/internal/cache"
	"github.com/Amund211/autolru/internal/domain"
	"github.com/Amund211/autolru/internal/logging"
	"github.com/Amund211/autolru/internal/ratelimiting"
	"github.com/Amund211/autolru/internal/reporting"
)

const maxKeyLength = 256

// ValueCache is the subset of *cache.AutoLRU used by the application
type ValueCache interface {
	Load(ctx context.Context, key string) (domain.Value, error)
	Clear(discardLoads bool)
	Len() int
	Capacity() int
	Pending() int
}

var _ ValueCache = (*cache.AutoLRU[string, domain.Value])(nil)

// BuildValueLoader returns the loader used to populate the value cache.
//
// The loader runs detached from any single request, so it gets its own deadline.
func BuildValueLoader(repo valuerepository.ValueRepository, timeout time.Duration) cache.Loader[string, domain.Value] {
	return func(ctx context.Context, key string) (domain.Value, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		value, err := repo.GetValue(ctx, key)
		if err != nil {
			// NOTE: ValueRepository implementations handle their own error reporting
			return domain.Value{}, fmt.Errorf("could not get value: %w", err)
		}

		return value, nil
	}
}

type GetValueWithCache func(ctx context.Context, key string) (domain.Value, error)

func BuildGetValueWithCache(valueCache ValueCache) GetValueWithCache {
	return func(ctx context.Context, key string) (domain.Value, error) {
		if key == "" || len(key) > maxKeyLength {
			return domain.Value{}, fmt.Errorf("%w: length %d", domain.ErrInvalidKey, len(key))
		}

		value, err := valueCache.Load(ctx, key)
		if err == nil {
			return value, nil
		}

		switch {
		case errors.Is(err, domain.ErrValueNotFound), errors.Is(err, domain.ErrTemporarilyUnavailable):
			// Already classified by the repository
			return domain.Value{}, err
		case errors.Is(err, cache.ErrAbandoned), errors.Is(err, ratelimiting.ErrLoadRateLimited):
			return domain.Value{}, fmt.Errorf("%w: %w", domain.ErrTemporarilyUnavailable, err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Either the request went away while waiting, or the loader timed out
			return domain.Value{}, fmt.Errorf("%w: %w", domain.ErrTemporarilyUnavailable, err)
		}

		err = fmt.Errorf("failed to load value: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"key": key,
		})
		return domain.Value{}, err
	}
}

type ClearCache func(ctx context.Context, discardLoads bool)

func BuildClearCache(valueCache ValueCache) ClearCache {
	return func(ctx context.Context, discardLoads bool) {
		pending := valueCache.Pending()
		valueCache.Clear(discardLoads)

		logging.FromContext(ctx).InfoContext(
			ctx,
			"Cleared cache",
			slog.Bool("discardLoads", discardLoads),
			slog.Int("pendingLoads", pending),
		)
	}
}

type CacheStats struct {
	Len      int
	Capacity int
	Pending  int
}

type GetCacheStats func(ctx context.Context) CacheStats

func BuildGetCacheStats(valueCache ValueCache) GetCacheStats {
	return func(ctx context.Context) CacheStats {
		return CacheStats{
			Len:      valueCache.Len(),
			Capacity: valueCache.Capacity(),
			Pending:  valueCache.Pending(),
		}
	}
}
