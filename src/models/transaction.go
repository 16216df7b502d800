package models

import "time"

// -----------------------------------------------------------------------------
// Sales Transaction (owned by the store, observed by the dashboard core)
// -----------------------------------------------------------------------------

// MTransaction represents one stored sales record.
type MTransaction struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	Value      float64   `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
	Region     string    `json:"region"`
	CustomerID string    `json:"customer_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// -----------------------------------------------------------------------------
// Fixed enumerations
// -----------------------------------------------------------------------------

var Categories = []string{
	"Electronics", "Clothing", "Home & Garden", "Sports",
	"Books", "Health & Beauty", "Automotive", "Toys",
}

var Regions = []string{"North", "South", "East", "West", "Central"}

// MaxTransactionValue bounds a single sale at $10,000.
const MaxTransactionValue = 10000.0

// -----------------------------------------------------------------------------
// Query filter (list/summary endpoints)
// -----------------------------------------------------------------------------

// MTransactionFilter carries the optional list-query constraints.
type MTransactionFilter struct {
	Category  string
	Region    string
	StartDate *time.Time
	EndDate   *time.Time
	MinValue  *float64
	MaxValue  *float64
	Sort      string // "-timestamp" (default), "timestamp", "-value", "value"
	Page      int
	Limit     int
}

// Offset returns the row offset implied by page/limit.
func (f MTransactionFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// -----------------------------------------------------------------------------

// MPagination is the list-response paging envelope.
type MPagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	Limit       int   `json:"limit"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}
