package cache

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const DefaultMemorySize = 1024

// ErrMiss is returned by MemoryStore.Get for an absent or expired key.
var ErrMiss = errors.New("cache miss")

// MemoryStore is an in-process Store backed by an expiring LRU. It serves
// single-instance deployments that run without Redis.
type MemoryStore struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryStore keeps at most size entries, each for ttl.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = DefaultMemorySize
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryStore{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := m.lru.Get(key); ok {
		return v, nil
	}
	return nil, ErrMiss
}

// Set stores value. The per-call ttl is ignored in favour of the store-wide
// one.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.lru.Add(key, value)
	return nil
}

// FlushByPattern removes every key matching the glob pattern.
func (m *MemoryStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	var n int64
	for _, key := range m.lru.Keys() {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return n, err
		}
		if matched && m.lru.Remove(key) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Len() int {
	return m.lru.Len()
}
