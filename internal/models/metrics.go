package models

import "time"

// MetricsSnapshot aggregates instrumentation counters for the stats endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	Reconciliations          map[string]uint64 `json:"reconciliations"`
	NoMatchTotal             uint64            `json:"no_match_total"`
	MalformedTotal           uint64            `json:"malformed_total"`
	SyncSuccesses            uint64            `json:"sync_successes"`
	SyncFailures             uint64            `json:"sync_failures"`
	CacheHits                uint64            `json:"cache_hits"`
	CacheMisses              uint64            `json:"cache_misses"`
	StoreRevision            uint64            `json:"store_revision"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generated_at"`
}
