package interfaces

import (
	"context"
	"time"

	"sales-observer/src/models"
)

// -----------------------------------------------------------------------------
// IDatabase defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the schema, indexes and the insert-notification hook.
	Initialize() error

	// -----------------------------------------------------------------------------
	// CRUD operations over the sales_data table

	InsertTransaction(ctx context.Context, tx models.MTransaction) (models.MTransaction, error)

	InsertTransactionsBulk(ctx context.Context, txs []models.MTransaction) ([]models.MTransaction, error)

	GetTransaction(ctx context.Context, id string) (models.MTransaction, error)

	ListTransactions(ctx context.Context, filter models.MTransactionFilter) ([]models.MTransaction, int64, error)

	UpdateTransaction(ctx context.Context, id string, tx models.MTransaction) (models.MTransaction, error)

	DeleteTransaction(ctx context.Context, id string) error

	// -----------------------------------------------------------------------------
	// DashboardStats runs the four dashboard sub-aggregates (total count,
	// today revenue/count, trailing recent count, top categories) in one
	// consistent pass and never returns a partial snapshot.
	DashboardStats(ctx context.Context, now time.Time, recentWindow time.Duration, topLimit int) (models.MStatsSnapshot, error)

	// -----------------------------------------------------------------------------
	// Reporting aggregates for the REST layer

	Analytics(ctx context.Context, now time.Time) (models.MAnalytics, error)

	Summary(ctx context.Context, filter models.MTransactionFilter) (models.MSalesOverview, error)

	Trends(ctx context.Context, groupBy string, start, end *time.Time) ([]models.MTrendPoint, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
