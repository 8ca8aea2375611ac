// Package dedup removes documents whose set of terms repeats that of a
// document with a smaller id.
package dedup

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Index is the part of the engine the duplicate scan reads and mutates.
type Index interface {
	DocumentIDs() []int
	WordFrequencies(id int) map[string]float64
	RemoveDocument(id int)
}

type Option func(*remover)

// WithCounter counts every removed duplicate on c.
func WithCounter(c prometheus.Counter) Option {
	return func(r *remover) { r.removed = c }
}

type remover struct {
	logger  *slog.Logger
	removed prometheus.Counter
}

// RemoveDuplicates walks the documents in ascending id order and removes
// each one whose term set, ignoring frequencies, was already seen. It
// returns the removed ids in ascending order.
func RemoveDuplicates(idx Index, opts ...Option) []int {
	r := &remover{logger: slog.Default().With("component", "dedup")}
	for _, opt := range opts {
		opt(r)
	}

	seen := make(map[string]struct{})
	var duplicates []int
	for _, id := range idx.DocumentIDs() {
		key := termSetKey(idx.WordFrequencies(id))
		if _, ok := seen[key]; ok {
			duplicates = append(duplicates, id)
			continue
		}
		seen[key] = struct{}{}
	}

	for _, id := range duplicates {
		idx.RemoveDocument(id)
		r.logger.Info("found duplicate document", "doc_id", id)
		if r.removed != nil {
			r.removed.Inc()
		}
	}
	return duplicates
}

func termSetKey(freqs map[string]float64) string {
	terms := make([]string, 0, len(freqs))
	for term := range freqs {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return strings.Join(terms, " ")
}
