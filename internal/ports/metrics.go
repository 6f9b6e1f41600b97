package ports

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type portsMetricsCollection struct {
	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
}

var metrics portsMetricsCollection

func init() {
	meter := otel.Meter("autolru/ports")

	requests, err := meter.Int64Counter(
		"autolru/ports/requests",
		metric.WithDescription("Requests handled, by operation and response status"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create requests metric: %w", err))
	}

	requestDuration, err := meter.Float64Histogram(
		"autolru/ports/request_duration_seconds",
		metric.WithDescription("Time spent handling requests, including waiting for cache loads"),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create request duration metric: %w", err))
	}

	metrics = portsMetricsCollection{
		requests:        requests,
		requestDuration: requestDuration,
	}
}

// statusRecorder remembers the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	if r.statusCode == 0 {
		r.statusCode = statusCode
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) status() int {
	if r.statusCode == 0 {
		return http.StatusOK
	}
	return r.statusCode
}

func buildMetricsMiddleware(operation string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w}

			next(recorder, r)

			userAgent := r.UserAgent()
			if userAgent == "" {
				userAgent = "<missing>"
			}

			attributes := metric.WithAttributes(
				attribute.String("operation", operation),
				attribute.String("method", r.Method),
				attribute.String("pattern", r.Pattern),
				attribute.String("status_code", strconv.Itoa(recorder.status())),
				attribute.String("user_agent", userAgent),
			)

			ctx := r.Context()
			metrics.requests.Add(ctx, 1, attributes)
			metrics.requestDuration.Record(ctx, time.Since(start).Seconds(), attributes)
		}
	}
}
