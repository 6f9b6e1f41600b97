package cache

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type cacheMetricsCollection struct {
	hits         metric.Int64Counter
	misses       metric.Int64Counter
	coalesced    metric.Int64Counter
	loads        metric.Int64Counter
	loadFailures metric.Int64Counter
	abandoned    metric.Int64Counter
	evictions    metric.Int64Counter
	loadDuration metric.Float64Histogram
}

var metrics cacheMetricsCollection

func init() {
	const name = "autolru/cache"
	meter := otel.Meter(name)

	counter := func(name, description string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(description))
		if err != nil {
			panic(fmt.Errorf("failed to create %s metric: %w", name, err))
		}
		return c
	}

	loadDuration, err := meter.Float64Histogram(
		"autolru/cache/load_duration_seconds",
		metric.WithDescription("Time spent in the loader"),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create load duration metric: %w", err))
	}

	metrics = cacheMetricsCollection{
		hits:         counter("autolru/cache/hits", "Loads served from a committed entry"),
		misses:       counter("autolru/cache/misses", "Loads that started a new load episode"),
		coalesced:    counter("autolru/cache/coalesced", "Loads that joined an in-flight load episode"),
		loads:        counter("autolru/cache/loads", "Loader invocations"),
		loadFailures: counter("autolru/cache/load_failures", "Loader invocations that failed"),
		abandoned:    counter("autolru/cache/abandoned", "Load episodes discarded by a clear"),
		evictions:    counter("autolru/cache/evictions", "Entries evicted due to capacity or expiry"),
		loadDuration: loadDuration,
	}
}
