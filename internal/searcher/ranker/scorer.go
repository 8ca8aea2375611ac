// Package ranker computes TF-IDF relevance for parsed queries and orders the
// matching documents.
package ranker

import (
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/accumulator"
)

// DefaultWorkers is the number of goroutines the Parallel scorer splits the
// required terms across when Workers is unset.
const DefaultWorkers = 4

// Scorer computes the relevance of every eligible document for a set of
// required terms.
type Scorer interface {
	Score(corpus Corpus, terms []string, pred Predicate) map[int]float64
}

// Sequential scores terms one after another in the calling goroutine.
type Sequential struct{}

func (Sequential) Score(corpus Corpus, terms []string, pred Predicate) map[int]float64 {
	scores := make(map[int]float64)
	add := func(id int, delta float64) {
		scores[id] += delta
	}
	for _, term := range terms {
		scoreTerm(corpus, term, pred, add)
	}
	return scores
}

// Parallel partitions the terms across Workers goroutines that add into a
// sharded accumulator with Shards shards.
type Parallel struct {
	Workers int
	Shards  int
}

func (p Parallel) Score(corpus Corpus, terms []string, pred Predicate) map[int]float64 {
	acc := accumulator.New[int](p.Shards)
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var g errgroup.Group
	for _, part := range partition(terms, workers) {
		g.Go(func() error {
			for _, term := range part {
				scoreTerm(corpus, term, pred, acc.Add)
			}
			return nil
		})
	}
	// workers never fail; Wait is the barrier before the snapshot
	_ = g.Wait()
	return acc.Snapshot()
}

// partition splits terms into at most n contiguous, non-empty parts.
func partition(terms []string, n int) [][]string {
	if len(terms) == 0 {
		return nil
	}
	if n > len(terms) {
		n = len(terms)
	}
	size := (len(terms) + n - 1) / n
	parts := make([][]string, 0, n)
	for start := 0; start < len(terms); start += size {
		end := min(start+size, len(terms))
		parts = append(parts, terms[start:end])
	}
	return parts
}
