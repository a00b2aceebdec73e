package dto

import "time"

// AutoSummary counts reports by their last recommendation outcome.
type AutoSummary struct {
	AutoDone       int64 `json:"auto_done"`
	ManualRequired int64 `json:"manual_required"`
	Pending        int64 `json:"pending"`
}

// DashboardResponse aggregates the admin report dashboard.
type DashboardResponse struct {
	StatusCounts      map[string]int64 `json:"status_counts"`
	PriorityCounts    map[string]int64 `json:"priority_counts"`
	Auto              AutoSummary      `json:"auto"`
	AutoSuccessRate   float64          `json:"auto_success_rate"`
	CompletedLastWeek int64            `json:"completed_last_week"`
	GeneratedAt       time.Time        `json:"generated_at"`
	CacheHit          bool             `json:"cache_hit"`
}
