package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTTLStore(t *testing.T) {
	t.Parallel()

	t.Run("lookup and peek", func(t *testing.T) {
		t.Parallel()

		s := newTTLStore[string, int](2, time.Hour)
		t.Cleanup(s.close)

		s.commit("a", 1)
		s.commit("b", 2)

		value, ok := s.peek("a")
		require.True(t, ok)
		require.Equal(t, 1, value)
		require.Equal(t, []string{"b", "a"}, s.keys())

		value, ok = s.lookup("a")
		require.True(t, ok)
		require.Equal(t, 1, value)
		require.Equal(t, []string{"a", "b"}, s.keys())

		_, ok = s.lookup("missing")
		require.False(t, ok)
	})

	t.Run("capacity is respected", func(t *testing.T) {
		t.Parallel()

		s := newTTLStore[string, int](2, time.Hour)
		t.Cleanup(s.close)

		s.commit("a", 1)
		s.commit("b", 2)
		s.lookup("a")
		s.commit("c", 3)

		require.Equal(t, 2, s.len())
		require.ElementsMatch(t, []string{"a", "c"}, s.keys())
	})

	t.Run("commit reports capacity evictions", func(t *testing.T) {
		t.Parallel()

		s := newTTLStore[string, int](2, time.Hour)
		t.Cleanup(s.close)

		require.Empty(t, s.commit("a", 1))
		require.Empty(t, s.commit("b", 2))
		s.lookup("a")

		require.Equal(t, []evicted[string, int]{{key: "b", value: 2}}, s.commit("c", 3))
		require.Equal(t, []string{"c", "a"}, s.keys())

		// Refreshing a resident key evicts nothing
		require.Empty(t, s.commit("a", 10))
		require.Equal(t, []string{"a", "c"}, s.keys())
	})

	t.Run("remove and purge", func(t *testing.T) {
		t.Parallel()

		s := newTTLStore[string, int](3, time.Hour)
		t.Cleanup(s.close)

		s.commit("a", 1)
		s.commit("b", 2)

		require.True(t, s.remove("a"))
		require.False(t, s.remove("a"))
		require.Equal(t, 1, s.len())

		s.purge()
		require.Zero(t, s.len())
		require.Empty(t, s.keys())
	})

	t.Run("expired entries are not returned", func(t *testing.T) {
		t.Parallel()

		s := newTTLStore[string, int](2, 20*time.Millisecond)
		t.Cleanup(s.close)

		s.commit("a", 1)
		_, ok := s.lookup("a")
		require.True(t, ok)

		time.Sleep(100 * time.Millisecond)

		_, ok = s.lookup("a")
		require.False(t, ok)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		s := newTTLStore[string, int](2, time.Hour)
		s.close()
		s.close()
	})
}
