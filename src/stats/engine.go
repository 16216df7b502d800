package stats

import (
	"context"
	"time"

	"sales-observer/src/helpers"
	"sales-observer/src/models"
)

// -----------------------------------------------------------------------------
// Aggregation Engine
// -----------------------------------------------------------------------------

// SnapshotStore is the one store call the engine needs: all four dashboard
// sub-aggregates computed in a single consistent pass.
type SnapshotStore interface {
	DashboardStats(ctx context.Context, now time.Time, recentWindow time.Duration, topLimit int) (models.MStatsSnapshot, error)
}

// -----------------------------------------------------------------------------

// Engine computes the dashboard snapshot. It is a pure function of "now" and
// store contents; the store round trip is timeout-bounded so a hung store
// surfaces as an AggregationError rather than blocking the hub.
type Engine struct {
	store        SnapshotStore
	recentWindow time.Duration
	topLimit     int
	timeout      time.Duration
}

// -----------------------------------------------------------------------------

func NewEngine(store SnapshotStore, dash models.MDashboardConfig) *Engine {
	return &Engine{
		store:        store,
		recentWindow: dash.RecentWindow(),
		topLimit:     dash.TopCategoriesLimit,
		timeout:      dash.ComputeTimeout(),
	}
}

// -----------------------------------------------------------------------------

// ComputeStats runs the aggregation pass. On any store failure the snapshot
// is discarded whole; no partial result is ever returned.
func (e *Engine) ComputeStats(ctx context.Context, now time.Time) (models.MStatsSnapshot, error) {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	snap, err := e.store.DashboardStats(cctx, now, e.recentWindow, e.topLimit)
	if err != nil {
		return models.MStatsSnapshot{}, helpers.NewAggregationError("dashboard aggregation failed", err)
	}

	if snap.TopCategories == nil {
		snap.TopCategories = []models.MCategoryStat{}
	}
	return snap, nil
}
