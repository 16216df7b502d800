package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sales-observer/src/helpers"
	"sales-observer/src/logger"
	"sales-observer/src/models"
)

// -----------------------------------------------------------------------------
// Fake store
// -----------------------------------------------------------------------------

type fakeDB struct {
	insertFn     func(ctx context.Context, tx models.MTransaction) (models.MTransaction, error)
	insertBulkFn func(ctx context.Context, txs []models.MTransaction) ([]models.MTransaction, error)
	getFn        func(ctx context.Context, id string) (models.MTransaction, error)
	listFn       func(ctx context.Context, filter models.MTransactionFilter) ([]models.MTransaction, int64, error)
	updateFn     func(ctx context.Context, id string, tx models.MTransaction) (models.MTransaction, error)
	deleteFn     func(ctx context.Context, id string) error
	trendsFn     func(ctx context.Context, groupBy string, start, end *time.Time) ([]models.MTrendPoint, error)
}

func (f *fakeDB) Initialize() error { return nil }
func (f *fakeDB) Close() error      { return nil }

func (f *fakeDB) InsertTransaction(ctx context.Context, tx models.MTransaction) (models.MTransaction, error) {
	return f.insertFn(ctx, tx)
}

func (f *fakeDB) InsertTransactionsBulk(ctx context.Context, txs []models.MTransaction) ([]models.MTransaction, error) {
	return f.insertBulkFn(ctx, txs)
}

func (f *fakeDB) GetTransaction(ctx context.Context, id string) (models.MTransaction, error) {
	return f.getFn(ctx, id)
}

func (f *fakeDB) ListTransactions(ctx context.Context, filter models.MTransactionFilter) ([]models.MTransaction, int64, error) {
	return f.listFn(ctx, filter)
}

func (f *fakeDB) UpdateTransaction(ctx context.Context, id string, tx models.MTransaction) (models.MTransaction, error) {
	return f.updateFn(ctx, id, tx)
}

func (f *fakeDB) DeleteTransaction(ctx context.Context, id string) error {
	return f.deleteFn(ctx, id)
}

func (f *fakeDB) DashboardStats(context.Context, time.Time, time.Duration, int) (models.MStatsSnapshot, error) {
	return models.ZeroSnapshot(), nil
}

func (f *fakeDB) Analytics(context.Context, time.Time) (models.MAnalytics, error) {
	return models.MAnalytics{}, nil
}

func (f *fakeDB) Summary(context.Context, models.MTransactionFilter) (models.MSalesOverview, error) {
	return models.MSalesOverview{}, nil
}

func (f *fakeDB) Trends(ctx context.Context, groupBy string, start, end *time.Time) ([]models.MTrendPoint, error) {
	if f.trendsFn == nil {
		return nil, nil
	}
	return f.trendsFn(ctx, groupBy, start, end)
}

// -----------------------------------------------------------------------------

func newTestServer(db *fakeDB) *DashboardServer {
	cfg := &models.MConfig{
		Name:     "test",
		Host:     "127.0.0.1",
		Port:     8080,
		LogLevel: "ERROR",
	}
	cfg.API.DefaultPageSize = 100
	cfg.API.MaxPageSize = 1000
	cfg.API.BulkInsertLimit = 3
	cfg.Storage.DBType = "sqlite"

	hub := newTestHub(&countingStore{})
	return NewDashboardServer(cfg, logger.NewLogger("ERROR", "test"), db, hub)
}

func doRequest(s *DashboardServer, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response: %v (%s)", err, w.Body.String())
	}
	return out
}

// -----------------------------------------------------------------------------
// Create
// -----------------------------------------------------------------------------

func TestCreateSales(t *testing.T) {
	var inserted models.MTransaction
	db := &fakeDB{insertFn: func(_ context.Context, tx models.MTransaction) (models.MTransaction, error) {
		tx.ID = "generated-id"
		inserted = tx
		return tx, nil
	}}
	srv := newTestServer(db)

	w := doRequest(srv, http.MethodPost, "/api/sales",
		`{"category":"Electronics","value":199.999,"region":"North","customer_id":"cust_123456"}`)

	if w.Code != 201 {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if inserted.CustomerID != "CUST_123456" {
		t.Fatalf("customer id must be normalized before insert, got %q", inserted.CustomerID)
	}
	if inserted.Value != 200.00 {
		t.Fatalf("value must be rounded to cents, got %v", inserted.Value)
	}
	if inserted.Timestamp.IsZero() {
		t.Fatalf("omitted timestamp must default to now")
	}

	body := decodeBody(t, w)
	if body["success"] != true {
		t.Fatalf("expected success envelope, got %v", body)
	}
}

func TestCreateSalesRejectsInvalidRecord(t *testing.T) {
	srv := newTestServer(&fakeDB{})

	w := doRequest(srv, http.MethodPost, "/api/sales",
		`{"category":"Groceries","value":-5,"region":"North","customer_id":"CUST_123456"}`)

	if w.Code != 400 {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	details, ok := body["details"].([]interface{})
	if !ok || len(details) < 2 {
		t.Fatalf("expected per-field details, got %v", body)
	}
}

func TestCreateSalesRejectsFutureTimestamp(t *testing.T) {
	srv := newTestServer(&fakeDB{})

	future := time.Now().Add(time.Hour).Format(time.RFC3339)
	w := doRequest(srv, http.MethodPost, "/api/sales",
		fmt.Sprintf(`{"category":"Books","value":10,"region":"East","customer_id":"CUST_000001","timestamp":"%s"}`, future))

	if w.Code != 400 {
		t.Fatalf("expected 400 for a future timestamp, got %d", w.Code)
	}
}

func TestCreateSalesRejectsMissingFields(t *testing.T) {
	srv := newTestServer(&fakeDB{})

	w := doRequest(srv, http.MethodPost, "/api/sales", `{"value":10}`)
	if w.Code != 400 {
		t.Fatalf("expected 400 for missing required fields, got %d", w.Code)
	}
}

// -----------------------------------------------------------------------------
// Bulk create
// -----------------------------------------------------------------------------

func TestCreateBulkSales(t *testing.T) {
	db := &fakeDB{insertBulkFn: func(_ context.Context, txs []models.MTransaction) ([]models.MTransaction, error) {
		return txs, nil
	}}
	srv := newTestServer(db)

	w := doRequest(srv, http.MethodPost, "/api/sales/bulk",
		`{"data":[
			{"category":"Books","value":10,"region":"East","customer_id":"CUST_000001"},
			{"category":"Toys","value":20,"region":"West","customer_id":"CUST_000002"}
		]}`)

	if w.Code != 201 {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateBulkSalesOverLimit(t *testing.T) {
	srv := newTestServer(&fakeDB{}) // bulk limit is 3 in the test config

	item := `{"category":"Books","value":10,"region":"East","customer_id":"CUST_000001"}`
	w := doRequest(srv, http.MethodPost, "/api/sales/bulk",
		fmt.Sprintf(`{"data":[%s,%s,%s,%s]}`, item, item, item, item))

	if w.Code != 400 {
		t.Fatalf("expected 400 over the bulk limit, got %d", w.Code)
	}
}

func TestCreateBulkSalesIndexesFieldErrors(t *testing.T) {
	srv := newTestServer(&fakeDB{})

	w := doRequest(srv, http.MethodPost, "/api/sales/bulk",
		`{"data":[
			{"category":"Books","value":10,"region":"East","customer_id":"CUST_000001"},
			{"category":"Nope","value":10,"region":"East","customer_id":"CUST_000002"}
		]}`)

	if w.Code != 400 {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "data[1].category") {
		t.Fatalf("field errors must carry the record index, got %s", w.Body.String())
	}
}

func TestCreateBulkSalesEmptyArray(t *testing.T) {
	srv := newTestServer(&fakeDB{})

	w := doRequest(srv, http.MethodPost, "/api/sales/bulk", `{"data":[]}`)
	if w.Code != 400 {
		t.Fatalf("expected 400 for an empty array, got %d", w.Code)
	}
}

// -----------------------------------------------------------------------------
// Read
// -----------------------------------------------------------------------------

func TestGetSalesNotFound(t *testing.T) {
	db := &fakeDB{getFn: func(_ context.Context, id string) (models.MTransaction, error) {
		return models.MTransaction{}, helpers.NewNotFoundError("sales record not found")
	}}
	srv := newTestServer(db)

	w := doRequest(srv, http.MethodGet, "/api/sales/ghost", "")
	if w.Code != 404 {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListSalesPagination(t *testing.T) {
	var gotFilter models.MTransactionFilter
	db := &fakeDB{listFn: func(_ context.Context, filter models.MTransactionFilter) ([]models.MTransaction, int64, error) {
		gotFilter = filter
		return []models.MTransaction{{ID: "t1"}}, 250, nil
	}}
	srv := newTestServer(db)

	w := doRequest(srv, http.MethodGet, "/api/sales?page=2&limit=100&category=Books", "")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if gotFilter.Page != 2 || gotFilter.Limit != 100 || gotFilter.Category != "Books" {
		t.Fatalf("unexpected filter: %+v", gotFilter)
	}

	body := decodeBody(t, w)
	pagination, ok := body["pagination"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing pagination envelope: %v", body)
	}
	if pagination["totalPages"] != float64(3) || pagination["totalCount"] != float64(250) {
		t.Fatalf("unexpected pagination: %v", pagination)
	}
	if pagination["hasNextPage"] != true || pagination["hasPrevPage"] != true {
		t.Fatalf("page 2 of 3 must have both neighbours: %v", pagination)
	}
}

func TestListSalesRejectsBadLimit(t *testing.T) {
	srv := newTestServer(&fakeDB{})

	w := doRequest(srv, http.MethodGet, "/api/sales?limit=5000", "")
	if w.Code != 400 {
		t.Fatalf("expected 400 for limit over maximum, got %d", w.Code)
	}
}

func TestListSalesRejectsBadDateRange(t *testing.T) {
	srv := newTestServer(&fakeDB{})

	w := doRequest(srv, http.MethodGet, "/api/sales?startDate=2026-02-01&endDate=2026-01-01", "")
	if w.Code != 400 {
		t.Fatalf("expected 400 for an inverted range, got %d", w.Code)
	}
}

// -----------------------------------------------------------------------------
// Update / Delete
// -----------------------------------------------------------------------------

func TestUpdateSales(t *testing.T) {
	db := &fakeDB{updateFn: func(_ context.Context, id string, tx models.MTransaction) (models.MTransaction, error) {
		tx.ID = id
		return tx, nil
	}}
	srv := newTestServer(db)

	w := doRequest(srv, http.MethodPut, "/api/sales/t1",
		`{"category":"Books","value":15,"region":"East","customer_id":"CUST_000001"}`)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDeleteSalesNotFound(t *testing.T) {
	db := &fakeDB{deleteFn: func(_ context.Context, id string) error {
		return helpers.NewNotFoundError("sales record not found")
	}}
	srv := newTestServer(db)

	w := doRequest(srv, http.MethodDelete, "/api/sales/ghost", "")
	if w.Code != 404 {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

// -----------------------------------------------------------------------------
// Reporting and operational endpoints
// -----------------------------------------------------------------------------

func TestGetTrendsRejectsUnknownGroupBy(t *testing.T) {
	srv := newTestServer(&fakeDB{})

	w := doRequest(srv, http.MethodGet, "/api/sales/trends?groupBy=week", "")
	if w.Code != 400 {
		t.Fatalf("expected 400 for unknown groupBy, got %d", w.Code)
	}
}

func TestGetTrendsPassesGroupBy(t *testing.T) {
	var gotGroupBy string
	db := &fakeDB{trendsFn: func(_ context.Context, groupBy string, _, _ *time.Time) ([]models.MTrendPoint, error) {
		gotGroupBy = groupBy
		return []models.MTrendPoint{}, nil
	}}
	srv := newTestServer(db)

	w := doRequest(srv, http.MethodGet, "/api/sales/trends?groupBy=hour", "")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotGroupBy != "hour" {
		t.Fatalf("expected groupBy hour, got %q", gotGroupBy)
	}
}

func TestGetHealth(t *testing.T) {
	srv := newTestServer(&fakeDB{})

	w := doRequest(srv, http.MethodGet, "/api/health", "")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["status"] != "ok" || body["db_type"] != "sqlite" {
		t.Fatalf("unexpected health payload: %v", body)
	}
}
