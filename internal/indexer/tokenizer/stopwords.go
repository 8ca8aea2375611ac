package tokenizer

import (
	"fmt"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// StopWords is an immutable set of terms excluded from indexing and from
// queries. A nil *StopWords behaves as an empty set.
type StopWords struct {
	words map[string]struct{}
}

// NewStopWords builds a set from words, skipping empty strings. Every word
// must pass IsValidWord.
func NewStopWords(words []string) (*StopWords, error) {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		if word == "" {
			continue
		}
		if !IsValidWord(word) {
			return nil, fmt.Errorf("stop word %q: %w", word, apperrors.ErrInvalidWord)
		}
		set[word] = struct{}{}
	}
	return &StopWords{words: set}, nil
}

// ParseStopWords builds a set from whitespace-separated text.
func ParseStopWords(text string) (*StopWords, error) {
	return NewStopWords(SplitIntoWords(text))
}

func (s *StopWords) Contains(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.words[word]
	return ok
}

func (s *StopWords) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}

// Words returns the stop-words in ascending order.
func (s *StopWords) Words() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.words))
	for word := range s.words {
		out = append(out, word)
	}
	sort.Strings(out)
	return out
}
