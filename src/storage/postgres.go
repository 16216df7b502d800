package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"sales-observer/src/helpers"
	"sales-observer/src/logger"
	"sales-observer/src/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// insertChannel is the pg_notify channel fed by the insert trigger.
const insertChannel = "sales_inserts"

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	return &PostgresDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if err := d.createTables(); err != nil {
		return err
	}
	if err := d.createNotifyTrigger(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	// CRUD data is persistent; create only when missing.
	query := `
		CREATE TABLE IF NOT EXISTS sales_data (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			region TEXT NOT NULL,
			customer_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create sales_data: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_sales_timestamp ON sales_data (timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_category ON sales_data (category)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_region ON sales_data (region)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_customer ON sales_data (customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_timestamp_category ON sales_data (timestamp, category)`,
	}
	for _, idx := range indexes {
		if _, err := d.DB.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// createNotifyTrigger wires the insert-notification stream: every insert is
// published as JSON on the sales_inserts channel.
func (d *PostgresDB) createNotifyTrigger() error {
	fn := `
		CREATE OR REPLACE FUNCTION sales_notify_insert() RETURNS trigger AS $$
		BEGIN
			PERFORM pg_notify('sales_inserts', row_to_json(NEW)::text);
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql;
	`
	if _, err := d.DB.Exec(fn); err != nil {
		return fmt.Errorf("failed to create notify function: %w", err)
	}

	trigger := `
		DROP TRIGGER IF EXISTS sales_insert_notify ON sales_data;
		CREATE TRIGGER sales_insert_notify
			AFTER INSERT ON sales_data
			FOR EACH ROW EXECUTE FUNCTION sales_notify_insert();
	`
	if _, err := d.DB.Exec(trigger); err != nil {
		return fmt.Errorf("failed to create notify trigger: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------
// CRUD
// -----------------------------------------------------------------------------

const txColumns = "id, category, value, timestamp, region, customer_id, created_at, updated_at"

func (d *PostgresDB) InsertTransaction(ctx context.Context, tx models.MTransaction) (models.MTransaction, error) {
	tx = withWriteDefaults(tx)

	query := fmt.Sprintf(`INSERT INTO sales_data (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, txColumns)
	_, err := d.DB.ExecContext(ctx, query,
		tx.ID, tx.Category, tx.Value, tx.Timestamp, tx.Region, tx.CustomerID, tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		return models.MTransaction{}, err
	}
	return tx, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) InsertTransactionsBulk(ctx context.Context, txs []models.MTransaction) ([]models.MTransaction, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	dbTx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback()

	query := fmt.Sprintf(`INSERT INTO sales_data (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, txColumns)
	stmt, err := dbTx.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	out := make([]models.MTransaction, 0, len(txs))
	for _, tx := range txs {
		tx = withWriteDefaults(tx)
		if _, err := stmt.ExecContext(ctx,
			tx.ID, tx.Category, tx.Value, tx.Timestamp, tx.Region, tx.CustomerID, tx.CreatedAt, tx.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}

	return out, dbTx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) GetTransaction(ctx context.Context, id string) (models.MTransaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM sales_data WHERE id = $1`, txColumns)
	row := d.DB.QueryRowContext(ctx, query, id)

	tx, err := scanPgTransaction(row)
	if err == sql.ErrNoRows {
		return models.MTransaction{}, helpers.NewNotFoundError("sales record not found")
	}
	return tx, err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) ListTransactions(ctx context.Context, filter models.MTransactionFilter) ([]models.MTransaction, int64, error) {
	where, args := buildFilterWhere(filter, pgPlaceholder, func(t time.Time) interface{} { return t })

	var total int64
	if err := d.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM sales_data"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM sales_data%s ORDER BY %s LIMIT $%d OFFSET $%d",
		txColumns, where, sortClause(filter.Sort), len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.MTransaction
	for rows.Next() {
		tx, err := scanPgTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, tx)
	}
	return out, total, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) UpdateTransaction(ctx context.Context, id string, tx models.MTransaction) (models.MTransaction, error) {
	query := `
		UPDATE sales_data
		SET category = $1, value = $2, timestamp = $3, region = $4, customer_id = $5, updated_at = $6
		WHERE id = $7
	`
	res, err := d.DB.ExecContext(ctx, query,
		tx.Category, tx.Value, tx.Timestamp, tx.Region, tx.CustomerID, time.Now().UTC(), id)
	if err != nil {
		return models.MTransaction{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.MTransaction{}, helpers.NewNotFoundError("sales record not found")
	}

	return d.GetTransaction(ctx, id)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) DeleteTransaction(ctx context.Context, id string) error {
	res, err := d.DB.ExecContext(ctx, `DELETE FROM sales_data WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return helpers.NewNotFoundError("sales record not found")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Dashboard snapshot (one consistent aggregation pass)
// -----------------------------------------------------------------------------

func (d *PostgresDB) DashboardStats(ctx context.Context, now time.Time, recentWindow time.Duration, topLimit int) (models.MStatsSnapshot, error) {
	snap := models.ZeroSnapshot()

	// REPEATABLE READ pins all four sub-aggregates to the same DB snapshot,
	// so concurrent inserts cannot tear the result.
	dbTx, err := d.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return models.MStatsSnapshot{}, err
	}
	defer dbTx.Rollback()

	today := dayStart(now)
	recentStart := now.Add(-recentWindow)

	if err := dbTx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sales_data`).Scan(&snap.TotalTransactions); err != nil {
		return models.MStatsSnapshot{}, err
	}

	if err := dbTx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(value), 0), COUNT(*) FROM sales_data WHERE timestamp >= $1`,
		today).Scan(&snap.TodayRevenue, &snap.TodayCount); err != nil {
		return models.MStatsSnapshot{}, err
	}

	if err := dbTx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sales_data WHERE timestamp >= $1`,
		recentStart).Scan(&snap.RecentCount); err != nil {
		return models.MStatsSnapshot{}, err
	}

	rows, err := dbTx.QueryContext(ctx, `
		SELECT category, SUM(value) AS total
		FROM sales_data
		WHERE timestamp >= $1
		GROUP BY category
		ORDER BY total DESC, category ASC
		LIMIT $2
	`, today, topLimit)
	if err != nil {
		return models.MStatsSnapshot{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var cs models.MCategoryStat
		if err := rows.Scan(&cs.Category, &cs.Total); err != nil {
			return models.MStatsSnapshot{}, err
		}
		snap.TopCategories = append(snap.TopCategories, cs)
	}
	if err := rows.Err(); err != nil {
		return models.MStatsSnapshot{}, err
	}

	if err := dbTx.Commit(); err != nil {
		return models.MStatsSnapshot{}, err
	}
	return snap, nil
}

// -----------------------------------------------------------------------------
// Reporting aggregates
// -----------------------------------------------------------------------------

func (d *PostgresDB) Analytics(ctx context.Context, now time.Time) (models.MAnalytics, error) {
	var out models.MAnalytics

	if err := d.DB.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(value), 0), COUNT(*), COALESCE(AVG(value), 0),
		       COALESCE(MIN(value), 0), COALESCE(MAX(value), 0)
		FROM sales_data
	`).Scan(&out.Overview.TotalSales, &out.Overview.TotalTransactions,
		&out.Overview.AvgTransaction, &out.Overview.MinTransaction, &out.Overview.MaxTransaction); err != nil {
		return models.MAnalytics{}, err
	}

	var err error
	if out.CategoryBreakdown, err = d.groupStats(ctx, "category"); err != nil {
		return models.MAnalytics{}, err
	}
	if out.RegionBreakdown, err = d.groupStats(ctx, "region"); err != nil {
		return models.MAnalytics{}, err
	}

	monthAgo := now.AddDate(0, 0, -30)
	if out.RecentTrends, err = d.Trends(ctx, "day", &monthAgo, &now); err != nil {
		return models.MAnalytics{}, err
	}

	return out, nil
}

// -----------------------------------------------------------------------------

// groupStats aggregates by category or region. column is caller-controlled
// and never user input.
func (d *PostgresDB) groupStats(ctx context.Context, column string) ([]models.MGroupStat, error) {
	query := fmt.Sprintf(`
		SELECT %s, SUM(value), COUNT(*), AVG(value)
		FROM sales_data
		GROUP BY %s
		ORDER BY SUM(value) DESC
	`, column, column)

	rows, err := d.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.MGroupStat{}
	for rows.Next() {
		var g models.MGroupStat
		if err := rows.Scan(&g.Key, &g.TotalSales, &g.Count, &g.AvgSale); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Summary(ctx context.Context, filter models.MTransactionFilter) (models.MSalesOverview, error) {
	where, args := buildFilterWhere(filter, pgPlaceholder, func(t time.Time) interface{} { return t })

	var out models.MSalesOverview
	query := `
		SELECT COALESCE(SUM(value), 0), COUNT(*), COALESCE(AVG(value), 0),
		       COALESCE(MIN(value), 0), COALESCE(MAX(value), 0)
		FROM sales_data
	` + where
	err := d.DB.QueryRowContext(ctx, query, args...).Scan(
		&out.TotalSales, &out.TotalTransactions, &out.AvgTransaction,
		&out.MinTransaction, &out.MaxTransaction)
	return out, err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Trends(ctx context.Context, groupBy string, start, end *time.Time) ([]models.MTrendPoint, error) {
	var format string
	switch groupBy {
	case "hour":
		format = "YYYY-MM-DD HH24:00"
	case "month":
		format = "YYYY-MM"
	default: // day
		format = "YYYY-MM-DD"
	}

	var conds string
	var args []interface{}
	if start != nil {
		args = append(args, *start)
		conds += fmt.Sprintf(" AND timestamp >= $%d", len(args)+1)
	}
	if end != nil {
		args = append(args, *end)
		conds += fmt.Sprintf(" AND timestamp <= $%d", len(args)+1)
	}

	query := fmt.Sprintf(`
		SELECT to_char(timestamp, $1) AS bucket, SUM(value), COUNT(*), AVG(value)
		FROM sales_data
		WHERE TRUE%s
		GROUP BY bucket
		ORDER BY bucket ASC
	`, conds)

	rows, err := d.DB.QueryContext(ctx, query, append([]interface{}{format}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.MTrendPoint{}
	for rows.Next() {
		var p models.MTrendPoint
		if err := rows.Scan(&p.Bucket, &p.Sales, &p.Count, &p.AvgSale); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------
// Change-notification stream (LISTEN/NOTIFY)
// -----------------------------------------------------------------------------

// Subscribe opens a fresh LISTEN connection and streams inserted rows. The
// channel closes on any stream disruption; the consumer resubscribes.
func (d *PostgresDB) Subscribe(ctx context.Context) (<-chan models.MTransaction, error) {
	listener := pq.NewListener(d.Config.Storage.DBConnectionString,
		10*time.Second, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				d.Logger.Warning("change stream listener event %d: %v", ev, err)
			}
		})

	if err := listener.Listen(insertChannel); err != nil {
		listener.Close()
		return nil, helpers.NewListenerError("LISTEN "+insertChannel+" failed", err)
	}

	out := make(chan models.MTransaction, 256)

	go func() {
		defer close(out)
		defer listener.Close()

		for {
			select {
			case n, ok := <-listener.Notify:
				if !ok {
					return
				}
				if n == nil {
					// Connection was re-established; notifications in between
					// are lost, so force the consumer to resubscribe.
					return
				}

				var tx models.MTransaction
				if err := json.Unmarshal([]byte(n.Extra), &tx); err != nil {
					d.Logger.Warning("malformed insert notification: %v", err)
					continue
				}

				select {
				case out <- tx:
				case <-ctx.Done():
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPgTransaction(row rowScanner) (models.MTransaction, error) {
	var tx models.MTransaction
	err := row.Scan(&tx.ID, &tx.Category, &tx.Value, &tx.Timestamp,
		&tx.Region, &tx.CustomerID, &tx.CreatedAt, &tx.UpdatedAt)
	return tx, err
}

// withWriteDefaults assigns a fresh id and audit timestamps for new records.
func withWriteDefaults(tx models.MTransaction) models.MTransaction {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	return tx
}
