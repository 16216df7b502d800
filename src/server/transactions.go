package server

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"sales-observer/src/helpers"
	"sales-observer/src/models"
	"sales-observer/src/validation"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Request/Response Shapes
// -----------------------------------------------------------------------------

// transactionRequest is the JSON body of create/update calls. Shape checks
// live in the binding tags; the domain rules (enums, bounds, regex, future
// timestamps) live in the validation package.
type transactionRequest struct {
	Category   string    `json:"category" binding:"required"`
	Value      float64   `json:"value" binding:"required"`
	Timestamp  time.Time `json:"timestamp"`
	Region     string    `json:"region" binding:"required"`
	CustomerID string    `json:"customer_id" binding:"required"`
}

func (r transactionRequest) toModel() models.MTransaction {
	return models.MTransaction{
		Category:   r.Category,
		Value:      r.Value,
		Timestamp:  r.Timestamp,
		Region:     r.Region,
		CustomerID: r.CustomerID,
	}
}

// -----------------------------------------------------------------------------

func respondError(c *gin.Context, err error) {
	var notFound *helpers.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(404, gin.H{"success": false, "error": notFound.Message})
		return
	}
	c.JSON(500, gin.H{"success": false, "error": "internal server error"})
}

func respondValidation(c *gin.Context, details []validation.FieldError) {
	c.JSON(400, gin.H{"success": false, "error": "Validation failed", "details": details})
}

// -----------------------------------------------------------------------------
// GET /api/sales
// -----------------------------------------------------------------------------

func (s *DashboardServer) listSales(c *gin.Context) {
	filter, fieldErrs := s.parseFilter(c)
	if len(fieldErrs) > 0 {
		respondValidation(c, fieldErrs)
		return
	}

	records, total, err := s.db.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		s.Logger.Error("list query failed: %v", err)
		respondError(c, err)
		return
	}
	if records == nil {
		records = []models.MTransaction{}
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	c.JSON(200, gin.H{
		"success": true,
		"data":    records,
		"pagination": models.MPagination{
			CurrentPage: filter.Page,
			TotalPages:  totalPages,
			TotalCount:  total,
			Limit:       filter.Limit,
			HasNextPage: filter.Page < totalPages,
			HasPrevPage: filter.Page > 1,
		},
	})
}

// -----------------------------------------------------------------------------

// parseFilter reads the optional query constraints shared by the list and
// summary endpoints.
func (s *DashboardServer) parseFilter(c *gin.Context) (models.MTransactionFilter, []validation.FieldError) {
	var errs []validation.FieldError

	filter := models.MTransactionFilter{
		Category: c.Query("category"),
		Region:   c.Query("region"),
		Sort:     c.DefaultQuery("sort", "-timestamp"),
		Page:     1,
		Limit:    s.Config.API.DefaultPageSize,
	}

	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			filter.Page = n
		} else {
			errs = append(errs, validation.FieldError{Field: "page", Message: "page must be a positive integer"})
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= s.Config.API.MaxPageSize {
			filter.Limit = n
		} else {
			errs = append(errs, validation.FieldError{Field: "limit", Message: fmt.Sprintf("limit must be between 1 and %d", s.Config.API.MaxPageSize)})
		}
	}
	if t, fieldErr := parseTimeParam(c, "startDate"); fieldErr != nil {
		errs = append(errs, *fieldErr)
	} else {
		filter.StartDate = t
	}
	if t, fieldErr := parseTimeParam(c, "endDate"); fieldErr != nil {
		errs = append(errs, *fieldErr)
	} else {
		filter.EndDate = t
	}
	if f, fieldErr := parseFloatParam(c, "minValue"); fieldErr != nil {
		errs = append(errs, *fieldErr)
	} else {
		filter.MinValue = f
	}
	if f, fieldErr := parseFloatParam(c, "maxValue"); fieldErr != nil {
		errs = append(errs, *fieldErr)
	} else {
		filter.MaxValue = f
	}

	errs = append(errs, validation.ValidateFilter(filter)...)
	return filter, errs
}

// -----------------------------------------------------------------------------
// GET /api/sales/:id
// -----------------------------------------------------------------------------

func (s *DashboardServer) getSales(c *gin.Context) {
	record, err := s.db.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"success": true, "data": record})
}

// -----------------------------------------------------------------------------
// POST /api/sales
// -----------------------------------------------------------------------------

func (s *DashboardServer) createSales(c *gin.Context) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "error": err.Error()})
		return
	}

	record := req.toModel()
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	if fieldErrs := validation.ValidateTransaction(record, time.Now()); len(fieldErrs) > 0 {
		respondValidation(c, fieldErrs)
		return
	}

	record, err := s.db.InsertTransaction(c.Request.Context(), validation.Normalize(record))
	if err != nil {
		s.Logger.Error("insert failed: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(201, gin.H{"success": true, "data": record})
}

// -----------------------------------------------------------------------------
// POST /api/sales/bulk
// -----------------------------------------------------------------------------

func (s *DashboardServer) createBulkSales(c *gin.Context) {
	var req struct {
		Data []transactionRequest `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "error": err.Error()})
		return
	}

	if len(req.Data) == 0 {
		c.JSON(400, gin.H{"success": false, "error": "Data must be a non-empty array"})
		return
	}
	if len(req.Data) > s.Config.API.BulkInsertLimit {
		c.JSON(400, gin.H{"success": false, "error": fmt.Sprintf("Cannot create more than %d records at once", s.Config.API.BulkInsertLimit)})
		return
	}

	now := time.Now()
	records := make([]models.MTransaction, 0, len(req.Data))
	var details []validation.FieldError
	for i, item := range req.Data {
		record := item.toModel()
		if record.Timestamp.IsZero() {
			record.Timestamp = now
		}
		for _, fieldErr := range validation.ValidateTransaction(record, now) {
			fieldErr.Field = fmt.Sprintf("data[%d].%s", i, fieldErr.Field)
			details = append(details, fieldErr)
		}
		records = append(records, validation.Normalize(record))
	}
	if len(details) > 0 {
		respondValidation(c, details)
		return
	}

	inserted, err := s.db.InsertTransactionsBulk(c.Request.Context(), records)
	if err != nil {
		s.Logger.Error("bulk insert failed: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(201, gin.H{
		"success": true,
		"message": fmt.Sprintf("Created %d sales records", len(inserted)),
		"data":    inserted,
	})
}

// -----------------------------------------------------------------------------
// PUT /api/sales/:id
// -----------------------------------------------------------------------------

func (s *DashboardServer) updateSales(c *gin.Context) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "error": err.Error()})
		return
	}

	record := req.toModel()
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	if fieldErrs := validation.ValidateTransaction(record, time.Now()); len(fieldErrs) > 0 {
		respondValidation(c, fieldErrs)
		return
	}

	record, err := s.db.UpdateTransaction(c.Request.Context(), c.Param("id"), validation.Normalize(record))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{"success": true, "data": record})
}

// -----------------------------------------------------------------------------
// DELETE /api/sales/:id
// -----------------------------------------------------------------------------

func (s *DashboardServer) deleteSales(c *gin.Context) {
	if err := s.db.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"success": true, "message": "Sales record deleted successfully"})
}

// -----------------------------------------------------------------------------
// Query param helpers
// -----------------------------------------------------------------------------

func parseTimeParam(c *gin.Context, name string) (*time.Time, *validation.FieldError) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
		return &t, nil
	}
	return nil, &validation.FieldError{Field: name, Message: "must be a valid ISO 8601 date"}
}

func parseFloatParam(c *gin.Context, name string) (*float64, *validation.FieldError) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, &validation.FieldError{Field: name, Message: "must be a number"}
	}
	return &f, nil
}
