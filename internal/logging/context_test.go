package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/Amund211/autolru/internal/logging"
	"github.com/stretchr/testify/require"
)

// decodeEntries parses every JSON log line written to buf, dropping the timestamp
func decodeEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	entries := []map[string]any{}
	for line := range strings.Lines(buf.String()) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		require.Contains(t, entry, "time")
		delete(entry, "time")
		entries = append(entries, entry)
	}
	buf.Reset()
	return entries
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("stored logger", func(t *testing.T) {
		t.Parallel()

		logger := logging.NewJSONLogger(&bytes.Buffer{})
		ctx := logging.AddToContext(t.Context(), logger)

		require.Same(t, logger, logging.FromContext(ctx))
	})

	t.Run("fallback", func(t *testing.T) {
		t.Parallel()

		fallback := logging.FromContext(t.Context())
		require.NotNil(t, fallback)
		require.Same(t, fallback, logging.FromContext(t.Context()))

		// A nil logger in the context is treated as missing
		ctx := logging.AddToContext(t.Context(), nil)
		require.Same(t, fallback, logging.FromContext(ctx))
	})
}

func TestAddMetaToContext(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	rootLogger := logging.NewJSONLogger(buf).With(slog.String("cache", "values"))
	ctx := logging.AddToContext(t.Context(), rootLogger)

	withKey := logging.AddMetaToContext(ctx, slog.String("key", "a"))
	withOtherKey := logging.AddMetaToContext(withKey, slog.String("key", "b"), slog.Int("waiters", 2))

	require.Same(t, rootLogger, logging.FromContext(logging.AddMetaToContext(ctx)))

	logging.FromContext(ctx).Info("root")
	logging.FromContext(withKey).Info("first")
	logging.FromContext(withOtherKey).Info("second")

	require.Equal(t, []map[string]any{
		{"level": "INFO", "msg": "root", "cache": "values"},
		{"level": "INFO", "msg": "first", "cache": "values", "key": "a"},
		{"level": "INFO", "msg": "second", "cache": "values", "key": "b", "waiters": float64(2)},
	}, decodeEntries(t, buf))
}
