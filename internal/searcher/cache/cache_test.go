package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
	sets int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.data[key]
	if !ok {
		return nil, goredis.Nil
	}
	return v, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	f.sets++
	return nil
}

func (f *fakeStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			delete(f.data, k)
			n++
		}
	}
	return n, nil
}

type countingSearcher struct {
	*executor.Executor
	mu    sync.Mutex
	calls int
}

func (s *countingSearcher) FindTopDocumentsByStatus(raw string, status index.Status) ([]ranker.ScoredDoc, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.Executor.FindTopDocumentsByStatus(raw, status)
}

func setup(t *testing.T) (*CachedSearcher, *countingSearcher, *fakeStore, *indexer.Engine) {
	t.Helper()
	engine, err := indexer.NewEngine(config.IndexerConfig{StopWordsText: "and with"}, nil)
	require.NoError(t, err)
	require.NoError(t, engine.AddDocument(1, "white cat and collar", index.StatusActual, []int{4}))
	require.NoError(t, engine.AddDocument(2, "fluffy cat fluffy tail", index.StatusActual, []int{7}))
	require.NoError(t, engine.AddDocument(3, "dog with eyes", index.StatusBanned, []int{1}))

	ex, err := executor.New(engine, config.SearchConfig{}, nil)
	require.NoError(t, err)
	inner := &countingSearcher{Executor: ex}
	store := newFakeStore()
	return New(inner, engine, store, config.RedisConfig{}, nil), inner, store, engine
}

func TestCachedSearcherHitAfterMiss(t *testing.T) {
	c, inner, _, _ := setup(t)

	first, err := c.FindTopDocumentsByStatus("fluffy cat", index.StatusActual)
	require.NoError(t, err)
	second, err := c.FindTopDocumentsByStatus("cat fluffy fluffy", index.StatusActual)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses)
}

func TestCachedSearcherKeyIncludesStatus(t *testing.T) {
	c, inner, _, _ := setup(t)

	actual, err := c.FindTopDocumentsByStatus("cat dog", index.StatusActual)
	require.NoError(t, err)
	banned, err := c.FindTopDocumentsByStatus("cat dog", index.StatusBanned)
	require.NoError(t, err)

	assert.Len(t, actual, 2)
	require.Len(t, banned, 1)
	assert.Equal(t, 3, banned[0].ID)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSearcherMissesAfterIndexChange(t *testing.T) {
	c, inner, _, engine := setup(t)

	_, err := c.FindTopDocumentsByStatus("cat", index.StatusActual)
	require.NoError(t, err)
	require.NoError(t, engine.AddDocument(4, "black cat", index.StatusActual, []int{9}))

	docs, err := c.FindTopDocumentsByStatus("cat", index.StatusActual)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Len(t, docs, 3)
}

func TestCachedSearcherEmptyResultCached(t *testing.T) {
	c, inner, _, _ := setup(t)

	for i := 0; i < 2; i++ {
		docs, err := c.FindTopDocumentsByStatus("unicorn", index.StatusActual)
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCachedSearcherStoreFailureFallsBack(t *testing.T) {
	c, inner, store, _ := setup(t)
	store.err = errors.New("connection refused")

	for i := 0; i < 2; i++ {
		docs, err := c.FindTopDocumentsByStatus("cat", index.StatusActual)
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	}
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSearcherParseErrorNotCached(t *testing.T) {
	c, _, store, _ := setup(t)

	_, err := c.FindTopDocumentsByStatus("cat --dog", index.StatusActual)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuerySyntax)
	assert.Equal(t, 0, store.sets)
}

func TestCachedSearcherPredicateBypassesCache(t *testing.T) {
	c, _, store, _ := setup(t)

	docs, err := c.FindTopDocuments("cat", func(id int, _ index.Status, _ int) bool { return id == 1 })
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 0, store.sets)
}

func TestCachedSearcherInvalidate(t *testing.T) {
	c, inner, store, _ := setup(t)

	_, err := c.FindTopDocumentsByStatus("cat", index.StatusActual)
	require.NoError(t, err)
	require.Len(t, store.data, 1)

	require.NoError(t, c.Invalidate(context.Background()))
	assert.Empty(t, store.data)

	_, err = c.FindTopDocumentsByStatus("cat", index.StatusActual)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

type countingStore struct {
	*fakeStore
	gets int
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.gets++
	return s.fakeStore.Get(ctx, key)
}

func TestCachedSearcherBreakerStopsCallingDeadStore(t *testing.T) {
	c, inner, _, engine := setup(t)
	store := &countingStore{fakeStore: newFakeStore()}
	store.err = errors.New("connection refused")
	c = New(inner, engine, store, config.RedisConfig{}, nil)

	for i := 0; i < 10; i++ {
		_, err := c.FindTopDocumentsByStatus("cat", index.StatusActual)
		require.NoError(t, err)
	}
	// Each search makes two Gets and one Set until five consecutive
	// failures open the circuit.
	assert.Less(t, store.gets, 10)
}

type fixedSearcher struct {
	*executor.Executor
	docs []ranker.ScoredDoc
}

func (s *fixedSearcher) FindTopDocumentsByStatus(string, index.Status) ([]ranker.ScoredDoc, error) {
	return s.docs, nil
}

func TestCachedSearcherReturnsPrivateCopy(t *testing.T) {
	_, inner, store, engine := setup(t)
	shared := []ranker.ScoredDoc{{ID: 2, Relevance: 0.5, Rating: 7}, {ID: 1, Relevance: 0.1, Rating: 4}}
	c := New(&fixedSearcher{Executor: inner.Executor, docs: shared}, engine, store, config.RedisConfig{}, nil)

	got, err := c.FindTopDocumentsByStatus("cat", index.StatusActual)
	require.NoError(t, err)
	require.Len(t, got, 2)
	got[0].ID = 99

	assert.Equal(t, 2, shared[0].ID)
	again, err := c.FindTopDocumentsByStatus("cat", index.StatusActual)
	require.NoError(t, err)
	assert.Equal(t, 2, again[0].ID)
}
