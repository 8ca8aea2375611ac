// Package parser turns raw query text into the required and excluded term
// sets used by the ranker.
package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// QueryPlan holds the deduplicated, ascending required and excluded terms of
// a query. Stop-words never appear in either set.
type QueryPlan struct {
	Terms        []string
	ExcludeTerms []string
	RawQuery     string
}

type queryWord struct {
	term    string
	exclude bool
	stop    bool
}

// Parse validates every word of query. A word prefixed by '-' is excluded.
func Parse(query string, stopWords *tokenizer.StopWords) (*QueryPlan, error) {
	plan := &QueryPlan{
		Terms:        make([]string, 0),
		ExcludeTerms: make([]string, 0),
		RawQuery:     query,
	}
	for _, word := range tokenizer.SplitIntoWords(query) {
		qw, err := parseWord(word, stopWords)
		if err != nil {
			return nil, err
		}
		if qw.stop {
			continue
		}
		if qw.exclude {
			plan.ExcludeTerms = append(plan.ExcludeTerms, qw.term)
		} else {
			plan.Terms = append(plan.Terms, qw.term)
		}
	}
	plan.Terms = uniqueSorted(plan.Terms)
	plan.ExcludeTerms = uniqueSorted(plan.ExcludeTerms)
	return plan, nil
}

func parseWord(word string, stopWords *tokenizer.StopWords) (queryWord, error) {
	term, exclude := strings.CutPrefix(word, "-")
	if term == "" {
		return queryWord{}, fmt.Errorf("query word %q has no term after '-': %w", word, apperrors.ErrInvalidQuerySyntax)
	}
	if strings.HasPrefix(term, "-") {
		return queryWord{}, fmt.Errorf("query word %q starts with a double minus: %w", word, apperrors.ErrInvalidQuerySyntax)
	}
	if !tokenizer.IsValidWord(term) {
		return queryWord{}, fmt.Errorf("query word %q: %w", word, apperrors.ErrInvalidWord)
	}
	return queryWord{
		term:    term,
		exclude: exclude,
		stop:    stopWords.Contains(term),
	}, nil
}

func uniqueSorted(terms []string) []string {
	if len(terms) < 2 {
		return terms
	}
	sort.Strings(terms)
	out := terms[:1]
	for _, term := range terms[1:] {
		if term != out[len(out)-1] {
			out = append(out, term)
		}
	}
	return out
}
