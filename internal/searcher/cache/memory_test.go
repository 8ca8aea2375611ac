package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2, time.Minute)

	_, err := s.Get(ctx, "search:a")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "search:a", []byte("1"), 0))
	require.NoError(t, s.Set(ctx, "search:b", []byte("2"), 0))
	require.NoError(t, s.Set(ctx, "search:c", []byte("3"), 0))
	assert.Equal(t, 2, s.Len())

	_, err = s.Get(ctx, "search:a")
	assert.ErrorIs(t, err, ErrMiss, "least recently used entry is evicted")

	v, err := s.Get(ctx, "search:c")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), v)

	require.NoError(t, s.Set(ctx, "other:x", []byte("x"), 0))
	n, err := s.FlushByPattern(ctx, "search:*")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, s.Len())
}

func TestCachedSearcherWithMemoryStore(t *testing.T) {
	_, inner, _, engine := setup(t)
	c := New(inner, engine, NewMemoryStore(16, time.Minute), config.RedisConfig{}, nil)

	first, err := c.FindTopDocumentsByStatus("cat", index.StatusActual)
	require.NoError(t, err)
	second, err := c.FindTopDocumentsByStatus("cat", index.StatusActual)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
}
