// Package tokenizer splits document and query text into terms and holds the
// stop-word set shared by the indexer and the query parser.
package tokenizer

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// SplitIntoWords breaks text on runs of whitespace. Control bytes that are
// not whitespace stay inside the words so IsValidWord can reject them.
func SplitIntoWords(text string) []string {
	return strings.Fields(text)
}

// IsValidWord reports whether word is free of control characters.
func IsValidWord(word string) bool {
	for i := 0; i < len(word); i++ {
		if word[i] < ' ' {
			return false
		}
	}
	return true
}

// Tokenize splits text, validates every word and drops stop-words. It fails
// on the first invalid word without returning partial output.
func Tokenize(text string, stopWords *StopWords) ([]string, error) {
	words := SplitIntoWords(text)
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if !IsValidWord(word) {
			return nil, fmt.Errorf("word %q: %w", word, apperrors.ErrInvalidWord)
		}
		if stopWords.Contains(word) {
			continue
		}
		terms = append(terms, word)
	}
	return terms, nil
}
