package models

import "time"

// -----------------------------------------------------------------------------
// Dashboard Stats Snapshot
// -----------------------------------------------------------------------------

// MCategoryStat is one (category, summed value) pair of the top-categories list.
type MCategoryStat struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// MStatsSnapshot is one consistent aggregation pass over the store.
// All fields come from the same logical query time; it is never assembled
// field-by-field from different passes.
type MStatsSnapshot struct {
	TotalTransactions int64           `json:"total_transactions"`
	TodayRevenue      float64         `json:"today_revenue"`
	TodayCount        int64           `json:"today_count"`
	RecentCount       int64           `json:"recent_count"`
	TopCategories     []MCategoryStat `json:"top_categories"`
}

// ZeroSnapshot is the well-formed default served when the store is
// unreachable and no cached snapshot exists.
func ZeroSnapshot() MStatsSnapshot {
	return MStatsSnapshot{TopCategories: []MCategoryStat{}}
}

// -----------------------------------------------------------------------------

// MCacheEntry pairs a snapshot with its computation time.
type MCacheEntry struct {
	Snapshot   MStatsSnapshot
	ComputedAt time.Time
}
