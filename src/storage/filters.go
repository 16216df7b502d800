package storage

import (
	"fmt"
	"strings"
	"time"

	"sales-observer/src/models"
)

// -----------------------------------------------------------------------------
// Shared query-building helpers (both dialects)
// -----------------------------------------------------------------------------

// timeBinder converts a time.Time into the driver value the dialect stores
// (time.Time for postgres, unix seconds for sqlite).
type timeBinder func(t time.Time) interface{}

// placeholder renders the i-th (1-based) bind marker ("$1" or "?").
type placeholder func(i int) string

// -----------------------------------------------------------------------------

func pgPlaceholder(i int) string { return fmt.Sprintf("$%d", i) }

func sqlitePlaceholder(int) string { return "?" }

// -----------------------------------------------------------------------------

// buildFilterWhere renders the optional list-filter constraints into a WHERE
// clause. Returns an empty clause when no filter is set.
func buildFilterWhere(f models.MTransactionFilter, ph placeholder, bindTime timeBinder) (string, []interface{}) {
	var conds []string
	var args []interface{}

	next := func() string { return ph(len(args)) }

	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, "category = "+next())
	}
	if f.Region != "" {
		args = append(args, f.Region)
		conds = append(conds, "region = "+next())
	}
	if f.StartDate != nil {
		args = append(args, bindTime(*f.StartDate))
		conds = append(conds, "timestamp >= "+next())
	}
	if f.EndDate != nil {
		args = append(args, bindTime(*f.EndDate))
		conds = append(conds, "timestamp <= "+next())
	}
	if f.MinValue != nil {
		args = append(args, *f.MinValue)
		conds = append(conds, "value >= "+next())
	}
	if f.MaxValue != nil {
		args = append(args, *f.MaxValue)
		conds = append(conds, "value <= "+next())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// -----------------------------------------------------------------------------

// sortClause whitelists the supported sort keys. Unknown values fall back to
// newest-first.
func sortClause(sort string) string {
	switch sort {
	case "timestamp":
		return "timestamp ASC"
	case "-timestamp", "":
		return "timestamp DESC"
	case "value":
		return "value ASC"
	case "-value":
		return "value DESC"
	default:
		return "timestamp DESC"
	}
}

// -----------------------------------------------------------------------------

// dayStart returns local midnight of now's calendar day.
func dayStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
