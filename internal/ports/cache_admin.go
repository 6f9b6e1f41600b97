package ports

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Amund211/autolru/internal/app"
	"github.com/Amund211/autolru/internal/logging"
	"github.com/Amund211/autolru/internal/ratelimiting"
	"github.com/Amund211/autolru/internal/reporting"
)

type cacheStatsResponse struct {
	Len      int `json:"len"`
	Capacity int `json:"capacity"`
	Pending  int `json:"pending"`
}

func newAdminMiddleware(
	operation string,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) func(http.HandlerFunc) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(1),
		ratelimiting.BurstSize(10),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ipLimiter,
		ratelimiting.IPKeyFunc,
	)

	return ComposeMiddlewares(
		buildMetricsMiddleware(operation),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware(operation),
		NewRateLimitMiddleware(ipRateLimiter, writeRateLimitExceeded),
	)
}

func MakeClearCacheHandler(
	clearCache app.ClearCache,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := newAdminMiddleware("clear_cache", rootLogger, sentryMiddleware)

	handler := func(w http.ResponseWriter, r *http.Request) {
		discardLoads := false
		if raw := r.URL.Query().Get("discardLoads"); raw != "" {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, []byte(`{"success":false,"cause":"invalid discardLoads"}`))
				return
			}
			discardLoads = parsed
		}

		clearCache(r.Context(), discardLoads)

		w.WriteHeader(http.StatusNoContent)
	}

	return middleware(handler)
}

func MakeCacheStatsHandler(
	getCacheStats app.GetCacheStats,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := newAdminMiddleware("cache_stats", rootLogger, sentryMiddleware)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stats := getCacheStats(ctx)

		response, err := json.Marshal(cacheStatsResponse{
			Len:      stats.Len,
			Capacity: stats.Capacity,
			Pending:  stats.Pending,
		})
		if err != nil {
			reporting.Report(ctx, fmt.Errorf("failed to marshal cache stats: %w", err))
			writeInternalServerError(w)
			return
		}

		writeJSON(w, http.StatusOK, response)
	}

	return middleware(handler)
}
