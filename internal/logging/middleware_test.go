package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Amund211/autolru/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type StringAttr struct {
	Key   string
	Value string
}

func TestRequestLoggerMiddleware(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T, request *http.Request) []StringAttr {
		t.Helper()

		buf := &bytes.Buffer{}
		middleware := logging.NewRequestLoggerMiddleware(slog.New(slog.NewJSONHandler(buf, nil)))

		logRequest := func(w http.ResponseWriter, r *http.Request) {
			logging.FromContext(r.Context()).Info("test")
		}

		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/values/{key}", middleware(logRequest))
		mux.HandleFunc("POST /v1/cache/clear", middleware(logRequest))

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, request)

		var logEntry map[string]any
		err := json.Unmarshal(buf.Bytes(), &logEntry)
		require.NoError(t, err)
		attrs := make([]StringAttr, 0)

		foundBase := 0
		for key, value := range logEntry {
			switch key {
			case "msg":
				assert.Equal(t, "test", value)
				foundBase++
			case "level":
				assert.Equal(t, "INFO", value)
				foundBase++
			case "time", "correlationID":
				foundBase++
			default:
				attrs = append(attrs, StringAttr{Key: key, Value: value.(string)})
			}
		}

		assert.Equal(t, 4, foundBase)

		return attrs
	}

	t.Run("all props", func(t *testing.T) {
		t.Parallel()

		request := httptest.NewRequest(http.MethodGet, "http://example.com/v1/values/my-key", nil)
		request.Header.Set("X-User-Id", "user-id")
		request.Header.Set("User-Agent", "user-agent/1.0")

		attrs := run(t, request)

		assert.ElementsMatch(t, []StringAttr{
			{Key: "key", Value: "my-key"},
			{Key: "userId", Value: "user-id"},
			{Key: "userAgent", Value: "user-agent/1.0"},
			{Key: "methodPath", Value: "GET /v1/values/my-key"},
		}, attrs)
	})

	t.Run("missing props", func(t *testing.T) {
		t.Parallel()

		request := httptest.NewRequest(http.MethodPost, "http://example.com/v1/cache/clear", nil)
		request.Header.Del("User-Agent")

		attrs := run(t, request)

		assert.ElementsMatch(t, []StringAttr{
			{Key: "key", Value: "<missing>"},
			{Key: "userId", Value: "<missing>"},
			{Key: "userAgent", Value: "<missing>"},
			{Key: "methodPath", Value: "POST /v1/cache/clear"},
		}, attrs)
	})

	t.Run("without middleware", func(t *testing.T) {
		t.Parallel()

		logging.FromContext(context.Background()).Info("don't crash when no logger in context")
	})
}
