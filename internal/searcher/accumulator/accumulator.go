// Package accumulator provides a sharded key to float64 sum map that lets
// ranking workers add partial relevance without sharing a single lock.
package accumulator

import "sync"

// DefaultShards is the shard count used when New is given a non-positive
// count.
const DefaultShards = 8

// Integer is the set of key types a Map can be sharded by.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type shard[K Integer] struct {
	mu   sync.Mutex
	sums map[K]float64
}

// Map is safe for concurrent Add calls. Snapshot is not a concurrent
// operation: call it once every writer has returned.
type Map[K Integer] struct {
	shards []shard[K]
}

func New[K Integer](shards int) *Map[K] {
	if shards <= 0 {
		shards = DefaultShards
	}
	m := &Map[K]{shards: make([]shard[K], shards)}
	for i := range m.shards {
		m.shards[i].sums = make(map[K]float64)
	}
	return m
}

func (m *Map[K]) shardFor(key K) *shard[K] {
	return &m.shards[uint64(key)%uint64(len(m.shards))]
}

// Add increases the sum stored under key by delta, creating it at zero.
func (m *Map[K]) Add(key K, delta float64) {
	s := m.shardFor(key)
	s.mu.Lock()
	s.sums[key] += delta
	s.mu.Unlock()
}

// Snapshot merges every shard into one ordinary map.
func (m *Map[K]) Snapshot() map[K]float64 {
	size := 0
	for i := range m.shards {
		size += len(m.shards[i].sums)
	}
	out := make(map[K]float64, size)
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for key, sum := range s.sums {
			out[key] = sum
		}
		s.mu.Unlock()
	}
	return out
}

func (m *Map[K]) ShardCount() int {
	return len(m.shards)
}
