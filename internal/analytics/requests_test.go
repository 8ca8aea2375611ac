package analytics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

func newSearcher(t *testing.T) *executor.Executor {
	t.Helper()
	engine, err := indexer.NewEngine(config.IndexerConfig{StopWordsText: "and in at"}, nil)
	require.NoError(t, err)
	docs := []string{
		"curly cat curly tail",
		"curly dog and fancy collar",
		"big cat fancy collar ",
		"big dog sparrow Eugene",
		"big dog sparrow Vasiliy",
	}
	for i, text := range docs {
		require.NoError(t, engine.AddDocument(i+1, text, index.StatusActual, []int{1, 2, 3}))
	}
	ex, err := executor.New(engine, config.SearchConfig{Mode: "sequential"}, nil)
	require.NoError(t, err)
	return ex
}

func TestRequestQueueSlidingWindow(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_no_result_requests"})
	q := NewRequestQueue(newSearcher(t), DefaultWindow, WithGauge(gauge))

	for i := 0; i < 1439; i++ {
		docs, err := q.AddFindRequestDefault("empty request")
		require.NoError(t, err)
		require.Empty(t, docs)
	}
	assert.Equal(t, 1439, q.NoResultRequests())

	_, err := q.AddFindRequestDefault("curly dog")
	require.NoError(t, err)
	_, err = q.AddFindRequestDefault("big collar")
	require.NoError(t, err)
	_, err = q.AddFindRequestDefault("sparrow")
	require.NoError(t, err)

	assert.Equal(t, 1437, q.NoResultRequests())
	assert.Equal(t, 1437.0, testutil.ToFloat64(gauge))
}

func TestRequestQueueSmallWindow(t *testing.T) {
	q := NewRequestQueue(newSearcher(t), 2)

	_, err := q.AddFindRequestDefault("nothing")
	require.NoError(t, err)
	_, err = q.AddFindRequestDefault("nothing")
	require.NoError(t, err)
	assert.Equal(t, 2, q.NoResultRequests())

	_, err = q.AddFindRequest("curly", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, q.NoResultRequests())

	_, err = q.AddFindRequestByStatus("curly", index.StatusBanned)
	require.NoError(t, err)
	assert.Equal(t, 1, q.NoResultRequests())
}

func TestRequestQueueFailedSearchNotRecorded(t *testing.T) {
	q := NewRequestQueue(newSearcher(t), 3)

	_, err := q.AddFindRequestDefault("cat --dog")
	require.ErrorIs(t, err, apperrors.ErrInvalidQuerySyntax)
	assert.Equal(t, 0, q.NoResultRequests())

	_, err = q.AddFindRequestDefault("nothing")
	require.NoError(t, err)
	assert.Equal(t, 1, q.NoResultRequests())
}

func TestRequestQueueConcurrentCallers(t *testing.T) {
	q := NewRequestQueue(newSearcher(t), 100)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := q.AddFindRequestDefault("nothing")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, q.NoResultRequests())
}

func TestRequestQueueTrack(t *testing.T) {
	q := NewRequestQueue(newSearcher(t), 5)

	docs, err := q.Track("custom", "", func() ([]ranker.ScoredDoc, error) {
		return []ranker.ScoredDoc{}, nil
	})
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 1, q.NoResultRequests())

	_, err = q.Track("broken", "", func() ([]ranker.ScoredDoc, error) {
		return nil, apperrors.ErrInternal
	})
	assert.ErrorIs(t, err, apperrors.ErrInternal)
	assert.Equal(t, 1, q.NoResultRequests())
}
