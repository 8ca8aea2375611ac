// Package index holds the in-memory document store: document metadata and
// the bidirectional term/document frequency index.
package index

import (
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Store is not safe for concurrent mutation. Callers serialise Add and
// Remove against each other and against readers.
type Store struct {
	stopWords      *tokenizer.StopWords
	wordToDocFreqs map[string]map[int]float64
	docToWordFreqs map[int]map[string]float64
	documents      map[int]DocumentData
	ids            []int
}

func NewStore(stopWords *tokenizer.StopWords) *Store {
	return &Store{
		stopWords:      stopWords,
		wordToDocFreqs: make(map[string]map[int]float64),
		docToWordFreqs: make(map[int]map[string]float64),
		documents:      make(map[int]DocumentData),
	}
}

// Add indexes text under id. The call is atomic: on error the store is left
// unchanged.
func (s *Store) Add(id int, text string, status Status, ratings []int) error {
	if id < 0 {
		return fmt.Errorf("document id %d is negative: %w", id, apperrors.ErrInvalidDocumentID)
	}
	if _, exists := s.documents[id]; exists {
		return fmt.Errorf("document id %d already exists: %w", id, apperrors.ErrInvalidDocumentID)
	}
	terms, err := tokenizer.Tokenize(text, s.stopWords)
	if err != nil {
		return fmt.Errorf("indexing document %d: %w", id, err)
	}

	freqs := make(map[string]float64, len(terms))
	if len(terms) > 0 {
		inc := 1.0 / float64(len(terms))
		for _, term := range terms {
			freqs[term] += inc
		}
	}
	for term, tf := range freqs {
		docs, ok := s.wordToDocFreqs[term]
		if !ok {
			docs = make(map[int]float64)
			s.wordToDocFreqs[term] = docs
		}
		docs[id] = tf
	}
	s.docToWordFreqs[id] = freqs
	s.documents[id] = DocumentData{
		Rating: averageRating(ratings),
		Status: status,
		Text:   text,
	}
	pos := sort.SearchInts(s.ids, id)
	s.ids = append(s.ids, 0)
	copy(s.ids[pos+1:], s.ids[pos:])
	s.ids[pos] = id
	return nil
}

// Remove deletes every trace of id. Removing an unknown id is a no-op.
func (s *Store) Remove(id int) {
	if _, exists := s.documents[id]; !exists {
		return
	}
	for term := range s.docToWordFreqs[id] {
		docs := s.wordToDocFreqs[term]
		delete(docs, id)
		if len(docs) == 0 {
			delete(s.wordToDocFreqs, term)
		}
	}
	delete(s.docToWordFreqs, id)
	delete(s.documents, id)
	pos := sort.SearchInts(s.ids, id)
	if pos < len(s.ids) && s.ids[pos] == id {
		s.ids = append(s.ids[:pos], s.ids[pos+1:]...)
	}
}

// WordFrequencies returns the term frequencies of id, or an empty map when
// the document does not exist. The returned map must not be modified.
func (s *Store) WordFrequencies(id int) map[string]float64 {
	if freqs, ok := s.docToWordFreqs[id]; ok {
		return freqs
	}
	return map[string]float64{}
}

// Postings returns document id -> term frequency for term, or nil when no
// document contains it. The returned map must not be modified.
func (s *Store) Postings(term string) map[int]float64 {
	return s.wordToDocFreqs[term]
}

func (s *Store) Document(id int) (DocumentData, bool) {
	doc, ok := s.documents[id]
	return doc, ok
}

func (s *Store) DocumentCount() int {
	return len(s.documents)
}

// DocumentIDs returns the ids in ascending order. The slice is owned by the
// store.
func (s *Store) DocumentIDs() []int {
	return s.ids
}

func (s *Store) TermCount() int {
	return len(s.wordToDocFreqs)
}

func (s *Store) StopWords() *tokenizer.StopWords {
	return s.stopWords
}
