// Package batch runs many queries concurrently against one searcher.
package batch

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
)

// Searcher is satisfied by the executor, the cached searcher and the
// request queue.
type Searcher interface {
	FindTopDocumentsByStatus(raw string, status index.Status) ([]ranker.ScoredDoc, error)
}

type options struct {
	limit int
}

type Option func(*options)

// WithLimit caps the number of queries searched at once. Non-positive values
// fall back to GOMAXPROCS.
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

// ProcessQueries searches every query for ACTUAL documents, at most
// GOMAXPROCS at a time unless WithLimit says otherwise. The i-th result
// belongs to the i-th query. The first failing query aborts the batch.
func ProcessQueries(searcher Searcher, queries []string, opts ...Option) ([][]ranker.ScoredDoc, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.limit <= 0 {
		o.limit = runtime.GOMAXPROCS(0)
	}

	results := make([][]ranker.ScoredDoc, len(queries))
	var g errgroup.Group
	g.SetLimit(o.limit)
	for i, query := range queries {
		g.Go(func() error {
			docs, err := searcher.FindTopDocumentsByStatus(query, index.StatusActual)
			if err != nil {
				return fmt.Errorf("query %d %q: %w", i, query, err)
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ProcessQueriesJoined flattens the results of ProcessQueries in query
// order.
func ProcessQueriesJoined(searcher Searcher, queries []string, opts ...Option) ([]ranker.ScoredDoc, error) {
	perQuery, err := ProcessQueries(searcher, queries, opts...)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, docs := range perQuery {
		total += len(docs)
	}
	joined := make([]ranker.ScoredDoc, 0, total)
	for _, docs := range perQuery {
		joined = append(joined, docs...)
	}
	return joined, nil
}
