package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"sales-observer/src/helpers"
	"sales-observer/src/logger"
	"sales-observer/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------
// SQLiteDB is the embedded fallback store. Timestamps are stored as unix
// seconds (INTEGER); the driver has no native time type.
// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger

	// In-process insert fan-out; SQLite has no server-side notification
	// primitive, so the store publishes inserts itself.
	subMu sync.Mutex
	subs  map[chan models.MTransaction]struct{}
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*SQLiteDB, error) {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
		subs:   make(map[chan models.MTransaction]struct{}),
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	db, err := sql.Open("sqlite", d.Config.Storage.DBPath)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("SQLiteDB initialized successfully (%s)", d.Config.Storage.DBPath)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS sales_data (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			value REAL NOT NULL,
			timestamp INTEGER NOT NULL,
			region TEXT NOT NULL,
			customer_id TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
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
// CRUD
// -----------------------------------------------------------------------------

func (d *SQLiteDB) InsertTransaction(ctx context.Context, tx models.MTransaction) (models.MTransaction, error) {
	tx = withWriteDefaults(tx)

	query := fmt.Sprintf(`INSERT INTO sales_data (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, txColumns)
	_, err := d.DB.ExecContext(ctx, query,
		tx.ID, tx.Category, tx.Value, tx.Timestamp.Unix(), tx.Region, tx.CustomerID,
		tx.CreatedAt.Unix(), tx.UpdatedAt.Unix())
	if err != nil {
		return models.MTransaction{}, err
	}

	d.publish(tx)
	return tx, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) InsertTransactionsBulk(ctx context.Context, txs []models.MTransaction) ([]models.MTransaction, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	dbTx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback()

	query := fmt.Sprintf(`INSERT INTO sales_data (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, txColumns)
	stmt, err := dbTx.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	out := make([]models.MTransaction, 0, len(txs))
	for _, tx := range txs {
		tx = withWriteDefaults(tx)
		if _, err := stmt.ExecContext(ctx,
			tx.ID, tx.Category, tx.Value, tx.Timestamp.Unix(), tx.Region, tx.CustomerID,
			tx.CreatedAt.Unix(), tx.UpdatedAt.Unix()); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, err
	}

	for _, tx := range out {
		d.publish(tx)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) GetTransaction(ctx context.Context, id string) (models.MTransaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM sales_data WHERE id = ?`, txColumns)
	row := d.DB.QueryRowContext(ctx, query, id)

	tx, err := scanSQLiteTransaction(row)
	if err == sql.ErrNoRows {
		return models.MTransaction{}, helpers.NewNotFoundError("sales record not found")
	}
	return tx, err
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) ListTransactions(ctx context.Context, filter models.MTransactionFilter) ([]models.MTransaction, int64, error) {
	where, args := buildFilterWhere(filter, sqlitePlaceholder, func(t time.Time) interface{} { return t.Unix() })

	var total int64
	if err := d.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM sales_data"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM sales_data%s ORDER BY %s LIMIT ? OFFSET ?",
		txColumns, where, sortClause(filter.Sort))
	args = append(args, filter.Limit, filter.Offset())

	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.MTransaction
	for rows.Next() {
		tx, err := scanSQLiteTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, tx)
	}
	return out, total, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) UpdateTransaction(ctx context.Context, id string, tx models.MTransaction) (models.MTransaction, error) {
	query := `
		UPDATE sales_data
		SET category = ?, value = ?, timestamp = ?, region = ?, customer_id = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := d.DB.ExecContext(ctx, query,
		tx.Category, tx.Value, tx.Timestamp.Unix(), tx.Region, tx.CustomerID, time.Now().UTC().Unix(), id)
	if err != nil {
		return models.MTransaction{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.MTransaction{}, helpers.NewNotFoundError("sales record not found")
	}

	return d.GetTransaction(ctx, id)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) DeleteTransaction(ctx context.Context, id string) error {
	res, err := d.DB.ExecContext(ctx, `DELETE FROM sales_data WHERE id = ?`, id)
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

func (d *SQLiteDB) DashboardStats(ctx context.Context, now time.Time, recentWindow time.Duration, topLimit int) (models.MStatsSnapshot, error) {
	snap := models.ZeroSnapshot()

	// A single transaction gives all four sub-aggregates the same snapshot
	// of the database.
	dbTx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.MStatsSnapshot{}, err
	}
	defer dbTx.Rollback()

	today := dayStart(now).Unix()
	recentStart := now.Add(-recentWindow).Unix()

	if err := dbTx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sales_data`).Scan(&snap.TotalTransactions); err != nil {
		return models.MStatsSnapshot{}, err
	}

	if err := dbTx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(value), 0), COUNT(*) FROM sales_data WHERE timestamp >= ?`,
		today).Scan(&snap.TodayRevenue, &snap.TodayCount); err != nil {
		return models.MStatsSnapshot{}, err
	}

	if err := dbTx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sales_data WHERE timestamp >= ?`,
		recentStart).Scan(&snap.RecentCount); err != nil {
		return models.MStatsSnapshot{}, err
	}

	rows, err := dbTx.QueryContext(ctx, `
		SELECT category, SUM(value) AS total
		FROM sales_data
		WHERE timestamp >= ?
		GROUP BY category
		ORDER BY total DESC, category ASC
		LIMIT ?
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

func (d *SQLiteDB) Analytics(ctx context.Context, now time.Time) (models.MAnalytics, error) {
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

func (d *SQLiteDB) groupStats(ctx context.Context, column string) ([]models.MGroupStat, error) {
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

func (d *SQLiteDB) Summary(ctx context.Context, filter models.MTransactionFilter) (models.MSalesOverview, error) {
	where, args := buildFilterWhere(filter, sqlitePlaceholder, func(t time.Time) interface{} { return t.Unix() })

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

func (d *SQLiteDB) Trends(ctx context.Context, groupBy string, start, end *time.Time) ([]models.MTrendPoint, error) {
	var format string
	switch groupBy {
	case "hour":
		format = "%Y-%m-%d %H:00"
	case "month":
		format = "%Y-%m"
	default: // day
		format = "%Y-%m-%d"
	}

	var conds string
	var args []interface{}
	args = append(args, format)
	if start != nil {
		conds += " AND timestamp >= ?"
		args = append(args, start.Unix())
	}
	if end != nil {
		conds += " AND timestamp <= ?"
		args = append(args, end.Unix())
	}

	query := fmt.Sprintf(`
		SELECT strftime(?, timestamp, 'unixepoch', 'localtime') AS bucket,
		       SUM(value), COUNT(*), AVG(value)
		FROM sales_data
		WHERE TRUE%s
		GROUP BY bucket
		ORDER BY bucket ASC
	`, conds)

	rows, err := d.DB.QueryContext(ctx, query, args...)
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
// Change-notification stream (in-process fan-out)
// -----------------------------------------------------------------------------

// Subscribe registers an insert-event channel. The channel closes when ctx
// is cancelled.
func (d *SQLiteDB) Subscribe(ctx context.Context) (<-chan models.MTransaction, error) {
	ch := make(chan models.MTransaction, 256)

	d.subMu.Lock()
	d.subs[ch] = struct{}{}
	d.subMu.Unlock()

	go func() {
		<-ctx.Done()
		d.subMu.Lock()
		delete(d.subs, ch)
		d.subMu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// -----------------------------------------------------------------------------

// publish pushes an inserted record to all subscribers, dropping on a full
// buffer rather than blocking the write path.
func (d *SQLiteDB) publish(tx models.MTransaction) {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	for ch := range d.subs {
		select {
		case ch <- tx:
		default:
			d.Logger.Warning("insert notification dropped: subscriber buffer full")
		}
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func scanSQLiteTransaction(row rowScanner) (models.MTransaction, error) {
	var tx models.MTransaction
	var ts, created, updated int64
	if err := row.Scan(&tx.ID, &tx.Category, &tx.Value, &ts,
		&tx.Region, &tx.CustomerID, &created, &updated); err != nil {
		return models.MTransaction{}, err
	}
	tx.Timestamp = time.Unix(ts, 0).Local()
	tx.CreatedAt = time.Unix(created, 0).UTC()
	tx.UpdatedAt = time.Unix(updated, 0).UTC()
	return tx, nil
}
