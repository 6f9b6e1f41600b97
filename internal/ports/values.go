package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Amund211/autolru/internal/app"
	"github.com/Amund211/autolru/internal/domain"
	"github.com/Amund211/autolru/internal/logging"
	"github.com/Amund211/autolru/internal/ratelimiting"
	"github.com/Amund211/autolru/internal/reporting"
)

type valueResponse struct {
	Success   bool   `json:"success"`
	Key       string `json:"key,omitempty"`
	Data      string `json:"data,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	Cause     string `json:"cause,omitempty"`
}

func MakeGetValueHandler(
	getValue app.GetValueWithCache,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(8),
		ratelimiting.BurstSize(480),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ipLimiter,
		ratelimiting.IPKeyFunc,
	)
	userIDLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(2),
		ratelimiting.BurstSize(120),
	)
	userIDRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		// NOTE: Rate limiting based on user controlled value
		userIDLimiter,
		ratelimiting.UserIDKeyFunc,
	)

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("get_value"),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("get_value"),
		BuildCORSMiddleware(allowedOrigins),
		NewRateLimitMiddleware(ipRateLimiter, writeRateLimitExceeded),
		NewRateLimitMiddleware(userIDRateLimiter, writeRateLimitExceeded),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := r.PathValue("key")

		handleError := func(ctx context.Context, cause string, statusCode int) {
			response, err := makeValueResponse(valueResponse{Success: false, Key: key, Cause: cause})
			if err != nil {
				reporting.Report(ctx, fmt.Errorf("failed to marshal error response: %w", err))
				writeInternalServerError(w)
				return
			}

			writeJSON(w, statusCode, response)
		}

		ctx = reporting.AddExtrasToContext(ctx,
			map[string]string{
				"key": key,
			},
		)

		value, err := getValue(ctx, key)
		if errors.Is(err, domain.ErrInvalidKey) {
			handleError(ctx, "invalid key", http.StatusBadRequest)
			return
		} else if errors.Is(err, domain.ErrValueNotFound) {
			handleError(ctx, "not found", http.StatusNotFound)
			return
		} else if errors.Is(err, domain.ErrTemporarilyUnavailable) {
			handleError(ctx, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}

		if err != nil {
			// NOTE: GetValueWithCache handles its own error reporting
			handleError(ctx, "internal server error", http.StatusInternalServerError)
			return
		}

		response, err := makeValueResponse(valueResponse{
			Success:   true,
			Key:       value.Key,
			Data:      value.Data,
			UpdatedAt: value.UpdatedAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			reporting.Report(ctx, fmt.Errorf("failed to create success response: %w", err))
			handleError(ctx, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, response)
	}

	return middleware(handler)
}

func makeValueResponse(resp valueResponse) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return data, nil
}
