// Package executor exposes the query entry points of the search server:
// top-document search and per-document matching.
package executor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

// Mode selects the ranking path. Both modes return identical results.
type Mode int

const (
	ModeSequential Mode = iota
	ModeParallel
)

func (m Mode) String() string {
	if m == ModeParallel {
		return "parallel"
	}
	return "sequential"
}

func ParseMode(text string) (Mode, error) {
	switch text {
	case "", "sequential", "seq":
		return ModeSequential, nil
	case "parallel", "par":
		return ModeParallel, nil
	default:
		return 0, fmt.Errorf("unknown execution mode %q: %w", text, apperrors.ErrInvalidInput)
	}
}

type Executor struct {
	engine  *indexer.Engine
	mode    Mode
	scorers map[Mode]ranker.Scorer
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds an executor over engine. m may be nil.
func New(engine *indexer.Engine, cfg config.SearchConfig, m *metrics.Metrics) (*Executor, error) {
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	return &Executor{
		engine: engine,
		mode:   mode,
		scorers: map[Mode]ranker.Scorer{
			ModeSequential: ranker.Sequential{},
			ModeParallel: ranker.Parallel{
				Workers: cfg.Workers,
				Shards:  cfg.AccumulatorShards,
			},
		},
		metrics: m,
		logger:  slog.Default().With("component", "query-executor"),
	}, nil
}

func (e *Executor) Mode() Mode {
	return e.mode
}

// FindTopDocuments ranks raw with the configured mode.
func (e *Executor) FindTopDocuments(raw string, pred ranker.Predicate) ([]ranker.ScoredDoc, error) {
	return e.FindTopDocumentsWithMode(e.mode, raw, pred)
}

func (e *Executor) FindTopDocumentsByStatus(raw string, status index.Status) ([]ranker.ScoredDoc, error) {
	return e.FindTopDocuments(raw, ranker.StatusIs(status))
}

// FindTopDocumentsDefault only considers ACTUAL documents.
func (e *Executor) FindTopDocumentsDefault(raw string) ([]ranker.ScoredDoc, error) {
	return e.FindTopDocumentsByStatus(raw, index.StatusActual)
}

// FindTopDocumentsWithMode parses raw and ranks it under the read lock of
// the engine, so no document is added or removed while scoring.
func (e *Executor) FindTopDocumentsWithMode(mode Mode, raw string, pred ranker.Predicate) ([]ranker.ScoredDoc, error) {
	start := time.Now()
	plan, err := parser.Parse(raw, e.engine.StopWords())
	if err != nil {
		e.observe(mode, "error", 0, start)
		return nil, fmt.Errorf("parsing query: %w", err)
	}
	scorer, ok := e.scorers[mode]
	if !ok {
		return nil, fmt.Errorf("unknown execution mode %d: %w", int(mode), apperrors.ErrInvalidInput)
	}

	var docs []ranker.ScoredDoc
	e.engine.View(func(s *index.Store) {
		docs = ranker.Rank(s, plan, pred, scorer)
	})

	resultType := "hit"
	if len(docs) == 0 {
		resultType = "zero_result"
	}
	e.observe(mode, resultType, len(docs), start)
	e.logger.Debug("query executed",
		"query", raw,
		"mode", mode,
		"terms", plan.Terms,
		"exclude_terms", plan.ExcludeTerms,
		"results", len(docs),
	)
	return docs, nil
}

// MatchDocument returns the required terms of raw found in document id, or
// no terms when the document contains any excluded term.
// A missing document is reported before the query is parsed.
func (e *Executor) MatchDocument(raw string, id int) ([]string, index.Status, error) {
	var (
		matched  []string
		status   index.Status
		found    bool
		parseErr error
	)
	e.engine.View(func(s *index.Store) {
		doc, ok := s.Document(id)
		if !ok {
			return
		}
		found = true
		status = doc.Status
		plan, err := parser.Parse(raw, s.StopWords())
		if err != nil {
			parseErr = err
			return
		}
		freqs := s.WordFrequencies(id)
		for _, term := range plan.ExcludeTerms {
			if _, ok := freqs[term]; ok {
				matched = []string{}
				return
			}
		}
		matched = make([]string, 0, len(plan.Terms))
		for _, term := range plan.Terms {
			if _, ok := freqs[term]; ok {
				matched = append(matched, term)
			}
		}
	})
	if !found {
		return nil, 0, fmt.Errorf("matching document %d: %w", id, apperrors.ErrDocumentNotFound)
	}
	if parseErr != nil {
		return nil, 0, fmt.Errorf("parsing query: %w", parseErr)
	}
	return matched, status, nil
}

func (e *Executor) observe(mode Mode, resultType string, results int, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	if resultType != "error" {
		e.metrics.SearchLatency.WithLabelValues(mode.String()).Observe(time.Since(start).Seconds())
		e.metrics.SearchResultsCount.Observe(float64(results))
	}
}
