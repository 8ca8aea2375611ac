package ranker

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
)

const (
	MaxResultDocumentCount = 5
	// RelevanceEpsilon is the distance under which two relevances count as
	// equal and the rating decides the order.
	RelevanceEpsilon = 1e-6
)

// Predicate decides whether a document may collect relevance. Predicates
// passed to the Parallel scorer are called from several goroutines.
type Predicate func(id int, status index.Status, rating int) bool

func StatusIs(status index.Status) Predicate {
	return func(_ int, docStatus index.Status, _ int) bool {
		return docStatus == status
	}
}

type ScoredDoc struct {
	ID        int     `json:"id"`
	Relevance float64 `json:"relevance"`
	Rating    int     `json:"rating"`
}

// Corpus is the read-only view of the index that ranking needs.
// *index.Store satisfies it.
type Corpus interface {
	DocumentCount() int
	Postings(term string) map[int]float64
	Document(id int) (index.DocumentData, bool)
}

// Rank scores plan against corpus with scorer, drops every document that
// contains an excluded term, and returns at most MaxResultDocumentCount
// documents ordered by relevance then rating.
func Rank(corpus Corpus, plan *parser.QueryPlan, pred Predicate, scorer Scorer) []ScoredDoc {
	if len(plan.Terms) == 0 {
		return []ScoredDoc{}
	}
	scores := scorer.Score(corpus, plan.Terms, pred)
	for _, term := range plan.ExcludeTerms {
		for id := range corpus.Postings(term) {
			delete(scores, id)
		}
	}

	ids := make([]int, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	result := make([]ScoredDoc, 0, len(ids))
	for _, id := range ids {
		doc, _ := corpus.Document(id)
		result = append(result, ScoredDoc{
			ID:        id,
			Relevance: scores[id],
			Rating:    doc.Rating,
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		if math.Abs(result[i].Relevance-result[j].Relevance) < RelevanceEpsilon {
			return result[i].Rating > result[j].Rating
		}
		return result[i].Relevance > result[j].Relevance
	})
	if len(result) > MaxResultDocumentCount {
		result = result[:MaxResultDocumentCount]
	}
	return result
}

// inverseDocumentFreq is ln(N / df). It reports false for terms no document
// contains.
func inverseDocumentFreq(corpus Corpus, docs map[int]float64) (float64, bool) {
	if len(docs) == 0 {
		return 0, false
	}
	return math.Log(float64(corpus.DocumentCount()) / float64(len(docs))), true
}

// scoreTerm hands tf*idf of term to add for every eligible document.
func scoreTerm(corpus Corpus, term string, pred Predicate, add func(id int, delta float64)) {
	docs := corpus.Postings(term)
	idf, ok := inverseDocumentFreq(corpus, docs)
	if !ok {
		return
	}
	for id, tf := range docs {
		doc, ok := corpus.Document(id)
		if !ok {
			continue
		}
		if pred == nil || pred(id, doc.Status, doc.Rating) {
			add(id, tf*idf)
		}
	}
}
