package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"sales-observer/src/models"
)

// -----------------------------------------------------------------------------
// Record Validation (pure predicate: record -> ok | field errors)
// -----------------------------------------------------------------------------

var customerIDPattern = regexp.MustCompile(`^CUST_\d{6}$`)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// -----------------------------------------------------------------------------

// ValidateTransaction checks a record against the fixed domain rules.
// now is injected so the future-timestamp rule is deterministic under test.
func ValidateTransaction(tx models.MTransaction, now time.Time) []FieldError {
	var errs []FieldError

	if !contains(models.Categories, tx.Category) {
		errs = append(errs, FieldError{"category", "category must be one of the predefined values"})
	}

	if tx.Value <= 0 {
		errs = append(errs, FieldError{"value", "value must be greater than 0"})
	} else if tx.Value > models.MaxTransactionValue {
		errs = append(errs, FieldError{"value", fmt.Sprintf("value cannot exceed $%.0f", models.MaxTransactionValue)})
	}

	if tx.Timestamp.IsZero() {
		errs = append(errs, FieldError{"timestamp", "timestamp is required"})
	} else if tx.Timestamp.After(now) {
		errs = append(errs, FieldError{"timestamp", "timestamp cannot be in the future"})
	}

	if !contains(models.Regions, tx.Region) {
		errs = append(errs, FieldError{"region", "region must be one of the predefined values"})
	}

	if !customerIDPattern.MatchString(strings.ToUpper(strings.TrimSpace(tx.CustomerID))) {
		errs = append(errs, FieldError{"customer_id", "customer ID must follow format CUST_XXXXXX"})
	}

	return errs
}

// -----------------------------------------------------------------------------

// Normalize applies the write-side canonicalisation: customer id uppercased,
// value rounded to cents.
func Normalize(tx models.MTransaction) models.MTransaction {
	tx.CustomerID = strings.ToUpper(strings.TrimSpace(tx.CustomerID))
	tx.Value = math.Round(tx.Value*100) / 100
	return tx
}

// -----------------------------------------------------------------------------
// Query validation (list/summary/trends parameters)
// -----------------------------------------------------------------------------

const maxDateRange = 365 * 24 * time.Hour

// ValidateFilter checks the optional list-query constraints.
func ValidateFilter(f models.MTransactionFilter) []FieldError {
	var errs []FieldError

	if f.Category != "" && !contains(models.Categories, f.Category) {
		errs = append(errs, FieldError{"category", "invalid category"})
	}
	if f.Region != "" && !contains(models.Regions, f.Region) {
		errs = append(errs, FieldError{"region", "invalid region"})
	}
	if err := ValidateDateRange(f.StartDate, f.EndDate); err != nil {
		errs = append(errs, *err)
	}

	return errs
}

// -----------------------------------------------------------------------------

// ValidateDateRange enforces start <= end and a range of at most one year.
func ValidateDateRange(start, end *time.Time) *FieldError {
	if start == nil || end == nil {
		return nil
	}
	if start.After(*end) {
		return &FieldError{"startDate", "start date cannot be after end date"}
	}
	if end.Sub(*start) > maxDateRange {
		return &FieldError{"endDate", "date range cannot exceed 1 year"}
	}
	return nil
}

// -----------------------------------------------------------------------------

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
