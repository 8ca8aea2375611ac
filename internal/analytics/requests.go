// Package analytics tracks recent search requests in a sliding window and
// optionally publishes each of them as an event to Kafka.
package analytics

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultWindow is the number of requests, one per minute of a day, that a
// RequestQueue remembers.
const DefaultWindow = 1440

// Searcher is what a RequestQueue forwards queries to. Both the executor
// and the cached searcher satisfy it.
type Searcher interface {
	FindTopDocuments(raw string, pred ranker.Predicate) ([]ranker.ScoredDoc, error)
	FindTopDocumentsByStatus(raw string, status index.Status) ([]ranker.ScoredDoc, error)
}

type requestRecord struct {
	tick    uint64
	results int
}

type QueueOption func(*RequestQueue)

// WithCollector hands every recorded request to c.
func WithCollector(c *Collector) QueueOption {
	return func(q *RequestQueue) { q.collector = c }
}

// WithGauge mirrors the zero-result count into g.
func WithGauge(g prometheus.Gauge) QueueOption {
	return func(q *RequestQueue) { q.gauge = g }
}

// RequestQueue runs searches and remembers the result count of the last
// window requests. Each successful request advances the tick by one.
type RequestQueue struct {
	searcher  Searcher
	window    uint64
	collector *Collector
	gauge     prometheus.Gauge
	logger    *slog.Logger

	mu        sync.Mutex
	tick      uint64
	records   []requestRecord
	noResults int
}

// NewRequestQueue tracks requests to searcher. A window <= 0 selects
// DefaultWindow.
func NewRequestQueue(searcher Searcher, window int, opts ...QueueOption) *RequestQueue {
	if window <= 0 {
		window = DefaultWindow
	}
	q := &RequestQueue{
		searcher: searcher,
		window:   uint64(window),
		records:  make([]requestRecord, 0, window),
		logger:   slog.Default().With("component", "request-queue"),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *RequestQueue) AddFindRequest(raw string, pred ranker.Predicate) ([]ranker.ScoredDoc, error) {
	return q.Track(raw, "", func() ([]ranker.ScoredDoc, error) {
		return q.searcher.FindTopDocuments(raw, pred)
	})
}

func (q *RequestQueue) AddFindRequestByStatus(raw string, status index.Status) ([]ranker.ScoredDoc, error) {
	return q.Track(raw, status.String(), func() ([]ranker.ScoredDoc, error) {
		return q.searcher.FindTopDocumentsByStatus(raw, status)
	})
}

// Track runs search and records its result count under the query raw. A
// failed search is returned unrecorded.
func (q *RequestQueue) Track(raw, status string, search func() ([]ranker.ScoredDoc, error)) ([]ranker.ScoredDoc, error) {
	start := time.Now()
	docs, err := search()
	if err != nil {
		return nil, err
	}
	q.record(raw, status, len(docs), time.Since(start))
	return docs, nil
}

func (q *RequestQueue) AddFindRequestDefault(raw string) ([]ranker.ScoredDoc, error) {
	return q.AddFindRequestByStatus(raw, index.StatusActual)
}

// NoResultRequests returns how many requests in the window found nothing.
func (q *RequestQueue) NoResultRequests() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.noResults
}

func (q *RequestQueue) record(raw, status string, results int, latency time.Duration) {
	q.mu.Lock()
	q.tick++
	tick := q.tick
	evict := 0
	for evict < len(q.records) && tick-q.records[evict].tick >= q.window {
		if q.records[evict].results == 0 {
			q.noResults--
		}
		evict++
	}
	if evict > 0 {
		q.records = append(q.records[:0], q.records[evict:]...)
	}
	q.records = append(q.records, requestRecord{tick: tick, results: results})
	if results == 0 {
		q.noResults++
	}
	noResults := q.noResults
	q.mu.Unlock()

	if q.gauge != nil {
		q.gauge.Set(float64(noResults))
	}
	if q.collector != nil {
		eventType := EventSearch
		if results == 0 {
			eventType = EventZeroResult
		}
		q.collector.Track(SearchEvent{
			Type:      eventType,
			Query:     raw,
			Status:    status,
			Results:   results,
			Tick:      tick,
			LatencyMs: latency.Milliseconds(),
			Timestamp: time.Now().UTC(),
		})
	}
	q.logger.Debug("request recorded", "tick", tick, "results", results, "no_result_requests", noResults)
}
