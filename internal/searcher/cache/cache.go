// Package cache serves status-filtered searches from Redis. Keys include
// the index version, so any mutation of the index makes older entries
// unreachable until their TTL expires. Store calls go through a circuit
// breaker; while it is open every search is computed directly.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
)

const (
	keyPrefix        = "search:"
	defaultTTL       = 5 * time.Minute
	defaultOpTimeout = 200 * time.Millisecond
)

// Store is the key-value backend. *pkgredis.Client and *MemoryStore satisfy
// it. A missing key is reported as ErrMiss or as a Redis nil error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type Searcher interface {
	FindTopDocuments(raw string, pred ranker.Predicate) ([]ranker.ScoredDoc, error)
	FindTopDocumentsByStatus(raw string, status index.Status) ([]ranker.ScoredDoc, error)
}

// Index exposes what the key needs from the engine.
type Index interface {
	Version() uint64
	StopWords() *tokenizer.StopWords
}

type CachedSearcher struct {
	inner     Searcher
	index     Index
	store     Store
	ttl       time.Duration
	opTimeout time.Duration
	group     singleflight.Group
	breaker   *resilience.Breaker
	metrics   *metrics.Metrics
	logger    *slog.Logger
	hits      atomic.Int64
	misses    atomic.Int64
}

// New wraps inner. m may be nil.
func New(inner Searcher, idx Index, store Store, cfg config.RedisConfig, m *metrics.Metrics) *CachedSearcher {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	opTimeout := cfg.OpTimeout
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &CachedSearcher{
		inner:     inner,
		index:     idx,
		store:     store,
		ttl:       ttl,
		opTimeout: opTimeout,
		breaker:   resilience.NewBreaker("redis-cache", resilience.BreakerConfig{}),
		metrics:   m,
		logger:    slog.Default().With("component", "query-cache"),
	}
}

// FindTopDocuments is never cached: predicates have no stable identity.
func (c *CachedSearcher) FindTopDocuments(raw string, pred ranker.Predicate) ([]ranker.ScoredDoc, error) {
	return c.inner.FindTopDocuments(raw, pred)
}

func (c *CachedSearcher) FindTopDocumentsByStatus(raw string, status index.Status) ([]ranker.ScoredDoc, error) {
	plan, err := parser.Parse(raw, c.index.StopWords())
	if err != nil {
		// The inner searcher reports the same parse error.
		return c.inner.FindTopDocumentsByStatus(raw, status)
	}
	key := c.buildKey(plan, status)

	if docs, ok := c.get(key); ok {
		return docs, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		if docs, ok := c.get(key); ok {
			return docs, nil
		}
		docs, err := c.inner.FindTopDocumentsByStatus(raw, status)
		if err != nil {
			return nil, err
		}
		c.set(key, docs)
		return docs, nil
	})
	if err != nil {
		return nil, err
	}
	// Callers sharing one flight get their own copy.
	return slices.Clone(val.([]ranker.ScoredDoc)), nil
}

// Invalidate deletes every cached result.
func (c *CachedSearcher) Invalidate(ctx context.Context) error {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *CachedSearcher) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *CachedSearcher) get(key string) ([]ranker.ScoredDoc, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()

	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.store.Get(ctx, key)
		if isMiss(err) {
			data = nil
			return nil
		}
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	if data == nil {
		c.miss()
		return nil, false
	}
	var docs []ranker.ScoredDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	if docs == nil {
		docs = []ranker.ScoredDoc{}
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "key", key)
	return docs, true
}

func (c *CachedSearcher) set(key string, docs []ranker.ScoredDoc) {
	data, err := json.Marshal(docs)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()
	err = c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func isMiss(err error) bool {
	return errors.Is(err, ErrMiss) || pkgredis.IsNilError(err)
}

func (c *CachedSearcher) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func (c *CachedSearcher) buildKey(plan *parser.QueryPlan, status index.Status) string {
	raw := fmt.Sprintf("%s|%s|%d", normalizeQuery(plan), status, c.index.Version())
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// normalizeQuery renders the sorted, deduplicated terms of plan, so that
// reordered or repeated words share a key.
func normalizeQuery(plan *parser.QueryPlan) string {
	parts := []string{strings.Join(plan.Terms, ",")}
	if len(plan.ExcludeTerms) > 0 {
		parts = append(parts, "NOT:"+strings.Join(plan.ExcludeTerms, ","))
	}
	return strings.Join(parts, "|")
}
