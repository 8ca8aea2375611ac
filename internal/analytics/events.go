package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
)

// SearchEvent describes one request recorded by a RequestQueue.
type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Status    string    `json:"status,omitempty"`
	Results   int       `json:"results"`
	Tick      uint64    `json:"tick"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}
