package models

// -----------------------------------------------------------------------------
// Analytics / Summary / Trends (REST reporting endpoints)
// -----------------------------------------------------------------------------

// MSalesOverview is the single-group aggregate over a set of records.
type MSalesOverview struct {
	TotalSales        float64 `json:"totalSales"`
	TotalTransactions int64   `json:"totalTransactions"`
	AvgTransaction    float64 `json:"avgTransaction"`
	MinTransaction    float64 `json:"minTransaction"`
	MaxTransaction    float64 `json:"maxTransaction"`
}

// MGroupStat is one aggregate bucket keyed by category or region.
type MGroupStat struct {
	Key        string  `json:"key"`
	TotalSales float64 `json:"totalSales"`
	Count      int64   `json:"count"`
	AvgSale    float64 `json:"avgSale"`
}

// MTrendPoint is one time bucket of the trends series.
type MTrendPoint struct {
	Bucket  string  `json:"bucket"`
	Sales   float64 `json:"sales"`
	Count   int64   `json:"count"`
	AvgSale float64 `json:"avgSale"`
}

// MAnalytics bundles the full analytics response.
type MAnalytics struct {
	Overview          MSalesOverview `json:"overview"`
	CategoryBreakdown []MGroupStat   `json:"categoryBreakdown"`
	RegionBreakdown   []MGroupStat   `json:"regionBreakdown"`
	RecentTrends      []MTrendPoint  `json:"recentTrends"`
}
