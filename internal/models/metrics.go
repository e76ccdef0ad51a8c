package models

import "time"

// MetricsSnapshot summarises in-process counters for the metrics summary endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64           `json:"requests_total"`
	AverageRequestDurationMs float64          `json:"average_request_duration_ms"`
	CacheHitRatio            float64          `json:"cache_hit_ratio"`
	SessionsGenerated        uint64           `json:"sessions_generated"`
	MeetingLinkFailures      uint64           `json:"meeting_link_failures"`
	Conflicts                map[string]int64 `json:"conflicts"`
	Goroutines               int              `json:"goroutines"`
	GeneratedAt              time.Time        `json:"generated_at"`
}
