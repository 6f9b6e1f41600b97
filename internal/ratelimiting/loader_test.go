package ratelimiting

import (
	"context"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestLimitLoader(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var calls atomic.Int32
		loader := func(ctx context.Context, key string) (string, error) {
			calls.Add(1)
			return "value-" + key, nil
		}

		// One load per second, no burst beyond the first
		limited := LimitLoader(rate.NewLimiter(1, 1), 500*time.Millisecond, loader)

		value, err := limited(t.Context(), "a")
		require.NoError(t, err)
		require.Equal(t, "value-a", value)

		// The next token is a full second away
		_, err = limited(t.Context(), "b")
		require.ErrorIs(t, err, ErrLoadRateLimited)
		require.Equal(t, int32(1), calls.Load())

		time.Sleep(time.Second)

		value, err = limited(t.Context(), "b")
		require.NoError(t, err)
		require.Equal(t, "value-b", value)
		require.Equal(t, int32(2), calls.Load())
	})
}
