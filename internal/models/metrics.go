package models

import "time"

// SystemMetrics is a lightweight snapshot of process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	StoreOperations          uint64    `json:"store_operations"`
	AverageStoreOpDurationMs float64   `json:"average_store_op_duration_ms"`
	ReschedulesCommitted     uint64    `json:"reschedules_committed"`
	ReschedulesRejected      uint64    `json:"reschedules_rejected"`
	ReschedulesCancelled     uint64    `json:"reschedules_cancelled"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
