package ports

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Amund211/autolru/internal/ratelimiting"
	"github.com/stretchr/testify/require"
)

type mockedRateLimiter struct {
	t           *testing.T
	allow       bool
	expectedKey string
	consumed    int
}

func (m *mockedRateLimiter) Consume(key string) bool {
	m.t.Helper()
	require.Equal(m.t, m.expectedKey, key)
	m.consumed++
	return m.allow
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	for name, allow := range map[string]bool{"allowed": true, "not allowed": false} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			limiter := &mockedRateLimiter{
				t:           t,
				allow:       allow,
				expectedKey: "ip: 12.12.123.123",
			}
			middleware := NewRateLimitMiddleware(
				ratelimiting.NewRequestBasedRateLimiter(limiter, ratelimiting.IPKeyFunc),
				writeRateLimitExceeded,
			)

			handlerCalled := false
			handler := middleware(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/v1/values/a", nil)
			req.RemoteAddr = "169.254.169.126:58418"
			req.Header.Set("X-Forwarded-For", "12.12.123.123,34.111.7.239")
			w := httptest.NewRecorder()

			handler(w, req)

			require.Equal(t, 1, limiter.consumed)
			require.Equal(t, allow, handlerCalled)
			if allow {
				require.Equal(t, http.StatusOK, w.Code)
				return
			}
			require.Equal(t, http.StatusTooManyRequests, w.Code)
			require.Equal(t, "application/json", w.Header().Get("Content-Type"))
			require.JSONEq(t, `{"success":false,"cause":"rate limit exceeded"}`, w.Body.String())
		})
	}
}

func TestComposeMiddlewares(t *testing.T) {
	t.Parallel()

	tracing := func(name string, trace *[]string) func(http.HandlerFunc) http.HandlerFunc {
		return func(next http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				*trace = append(*trace, name+" pre")
				next(w, r)
				*trace = append(*trace, name+" post")
			}
		}
	}

	tests := map[string]struct {
		names    []string
		expected []string
	}{
		"single middleware": {
			names:    []string{"a"},
			expected: []string{"a pre", "handler", "a post"},
		},
		"multiple middleware": {
			names:    []string{"a", "b", "c"},
			expected: []string{"a pre", "b pre", "c pre", "handler", "c post", "b post", "a post"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			trace := []string{}
			middlewares := make([]func(http.HandlerFunc) http.HandlerFunc, 0, len(tc.names))
			for _, name := range tc.names {
				middlewares = append(middlewares, tracing(name, &trace))
			}

			handler := ComposeMiddlewares(middlewares...)(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, "handler")
			})
			handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, tc.expected, trace)
		})
	}
}

func TestWriteHelpers(t *testing.T) {
	t.Parallel()

	t.Run("writeJSON", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		writeJSON(w, http.StatusAccepted, []byte(`{"ok":true}`))

		require.Equal(t, http.StatusAccepted, w.Code)
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))
		require.JSONEq(t, `{"ok":true}`, w.Body.String())
	})

	t.Run("writeInternalServerError", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		writeInternalServerError(w)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.True(t, strings.Contains(w.Body.String(), `"success":false`))
	})
}
