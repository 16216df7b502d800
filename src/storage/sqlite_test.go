package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"sales-observer/src/logger"
	"sales-observer/src/models"
)

// -----------------------------------------------------------------------------
// Dashboard snapshot against the real store
// -----------------------------------------------------------------------------

func newTestSQLiteDB(t *testing.T) *SQLiteDB {
	t.Helper()

	cfg := &models.MConfig{}
	cfg.Storage.DBType = "sqlite"
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "sales.db")

	db, err := NewSQLiteDB(cfg, logger.NewLogger("ERROR", "test"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustInsert(t *testing.T, db *SQLiteDB, tx models.MTransaction) {
	t.Helper()
	if _, err := db.InsertTransaction(context.Background(), tx); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
}

// -----------------------------------------------------------------------------

func TestSQLiteDashboardStats(t *testing.T) {
	db := newTestSQLiteDB(t)

	// Synthetic noon keeps every offset on the same calendar day.
	now := dayStart(time.Now()).Add(12 * time.Hour)

	mustInsert(t, db, models.MTransaction{
		Category: "Electronics", Value: 100, Region: "North",
		CustomerID: "CUST_000001", Timestamp: now.Add(-time.Minute),
	})
	mustInsert(t, db, models.MTransaction{
		Category: "Books", Value: 50, Region: "East",
		CustomerID: "CUST_000002", Timestamp: now.Add(-10 * time.Minute),
	})
	// Yesterday: counted in the lifetime total only.
	mustInsert(t, db, models.MTransaction{
		Category: "Electronics", Value: 999.99, Region: "West",
		CustomerID: "CUST_000003", Timestamp: now.Add(-24 * time.Hour),
	})

	snap, err := db.DashboardStats(context.Background(), now, 5*time.Minute, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.TotalTransactions != 3 {
		t.Fatalf("expected 3 lifetime records, got %d", snap.TotalTransactions)
	}
	if snap.TodayCount != 2 {
		t.Fatalf("expected 2 records today, got %d", snap.TodayCount)
	}
	if snap.TodayRevenue != 150 {
		t.Fatalf("yesterday's sale must not count toward today's revenue, got %v", snap.TodayRevenue)
	}
	if snap.RecentCount != 1 {
		t.Fatalf("only the last-5-minutes record is recent, got %d", snap.RecentCount)
	}

	// Top categories: today only, summed, descending.
	if len(snap.TopCategories) != 2 {
		t.Fatalf("expected 2 categories today, got %+v", snap.TopCategories)
	}
	if snap.TopCategories[0].Category != "Electronics" || snap.TopCategories[0].Total != 100 {
		t.Fatalf("expected Electronics 100 first, got %+v", snap.TopCategories[0])
	}
	if snap.TopCategories[1].Category != "Books" || snap.TopCategories[1].Total != 50 {
		t.Fatalf("expected Books 50 second, got %+v", snap.TopCategories[1])
	}
}

func TestSQLiteDashboardStatsTopCategoriesLimit(t *testing.T) {
	db := newTestSQLiteDB(t)

	now := dayStart(time.Now()).Add(12 * time.Hour)

	// One sale per category, distinct values so ordering is unambiguous.
	for i, category := range models.Categories {
		mustInsert(t, db, models.MTransaction{
			Category: category, Value: float64(80 - 10*i), Region: "North",
			CustomerID: fmt.Sprintf("CUST_%06d", i), Timestamp: now.Add(-time.Minute),
		})
	}

	snap, err := db.DashboardStats(context.Background(), now, 5*time.Minute, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(snap.TopCategories) != 5 {
		t.Fatalf("expected the list capped at 5, got %d", len(snap.TopCategories))
	}
	for i := 1; i < len(snap.TopCategories); i++ {
		if snap.TopCategories[i].Total > snap.TopCategories[i-1].Total {
			t.Fatalf("totals must be descending, got %+v", snap.TopCategories)
		}
	}
	if snap.TopCategories[0].Total != 80 {
		t.Fatalf("expected the largest category first, got %+v", snap.TopCategories[0])
	}
}

func TestSQLiteDashboardStatsEmptyStore(t *testing.T) {
	db := newTestSQLiteDB(t)

	snap, err := db.DashboardStats(context.Background(), time.Now(), 5*time.Minute, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.TotalTransactions != 0 || snap.TodayCount != 0 || snap.RecentCount != 0 {
		t.Fatalf("expected zero counters on an empty store, got %+v", snap)
	}
	if snap.TopCategories == nil || len(snap.TopCategories) != 0 {
		t.Fatalf("expected an empty category list, got %+v", snap.TopCategories)
	}
}
