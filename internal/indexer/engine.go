// Package indexer owns the document store of a running server and
// serialises every mutation of it.
package indexer

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

// Engine guards an index.Store with a RWMutex: AddDocument and
// RemoveDocument take the write lock, everything else the read lock.
type Engine struct {
	mu      sync.RWMutex
	store   *index.Store
	version atomic.Uint64
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewEngine builds an empty engine whose stop-words come from cfg. m may be
// nil.
func NewEngine(cfg config.IndexerConfig, m *metrics.Metrics) (*Engine, error) {
	words := slices.Clone(cfg.StopWords)
	if cfg.StopWordsText != "" {
		words = append(words, tokenizer.SplitIntoWords(cfg.StopWordsText)...)
	}
	stopWords, err := tokenizer.NewStopWords(words)
	if err != nil {
		return nil, fmt.Errorf("building stop words: %w", err)
	}
	e := &Engine{
		store:   index.NewStore(stopWords),
		metrics: m,
		logger:  slog.Default().With("component", "indexer"),
	}
	e.logger.Info("engine initialized", "stop_words", stopWords.Len())
	return e, nil
}

func (e *Engine) AddDocument(id int, text string, status index.Status, ratings []int) error {
	e.mu.Lock()
	err := e.store.Add(id, text, status, ratings)
	count := e.store.DocumentCount()
	if err == nil {
		e.published(count)
	}
	e.mu.Unlock()

	if err != nil {
		if e.metrics != nil {
			e.metrics.DocsRejectedTotal.Inc()
		}
		e.logger.Debug("document rejected", "doc_id", id, "error", err)
		return err
	}
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Inc()
	}
	e.logger.Debug("document indexed",
		"doc_id", id,
		"status", status,
		"doc_count", count,
	)
	return nil
}

// RemoveDocument is idempotent.
func (e *Engine) RemoveDocument(id int) {
	e.mu.Lock()
	_, exists := e.store.Document(id)
	e.store.Remove(id)
	count := e.store.DocumentCount()
	if exists {
		e.published(count)
	}
	e.mu.Unlock()

	if !exists {
		return
	}
	if e.metrics != nil {
		e.metrics.DocsRemovedTotal.Inc()
	}
	e.logger.Debug("document removed", "doc_id", id, "doc_count", count)
}

// published bumps the version and the document gauge. Callers hold the
// write lock so readers never see a changed store under the old version.
func (e *Engine) published(count int) {
	e.version.Add(1)
	if e.metrics != nil {
		e.metrics.DocumentCount.Set(float64(count))
	}
}

// WordFrequencies returns a copy of the term frequencies of id; empty when
// the document does not exist.
func (e *Engine) WordFrequencies(id int) map[string]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.store.WordFrequencies(id))
}

func (e *Engine) DocumentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.DocumentCount()
}

// DocumentIDs returns a copy of the ids in ascending order.
func (e *Engine) DocumentIDs() []int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.store.DocumentIDs())
}

// View runs fn under the read lock. fn must not retain the store or any map
// it returns after View returns.
func (e *Engine) View(fn func(s *index.Store)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.store)
}

func (e *Engine) StopWords() *tokenizer.StopWords {
	return e.store.StopWords()
}

// Version changes whenever a document is added or removed.
func (e *Engine) Version() uint64 {
	return e.version.Load()
}
