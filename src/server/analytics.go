package server

import (
	"time"

	"sales-observer/src/validation"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// GET /api/sales/analytics
// -----------------------------------------------------------------------------

func (s *DashboardServer) getAnalytics(c *gin.Context) {
	analytics, err := s.db.Analytics(c.Request.Context(), time.Now())
	if err != nil {
		s.Logger.Error("analytics query failed: %v", err)
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"success": true, "data": analytics})
}

// -----------------------------------------------------------------------------
// GET /api/sales/summary
// -----------------------------------------------------------------------------

func (s *DashboardServer) getSummary(c *gin.Context) {
	filter, fieldErrs := s.parseFilter(c)
	if len(fieldErrs) > 0 {
		respondValidation(c, fieldErrs)
		return
	}

	summary, err := s.db.Summary(c.Request.Context(), filter)
	if err != nil {
		s.Logger.Error("summary query failed: %v", err)
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"success": true, "data": summary})
}

// -----------------------------------------------------------------------------
// GET /api/sales/trends
// -----------------------------------------------------------------------------

func (s *DashboardServer) getTrends(c *gin.Context) {
	groupBy := c.DefaultQuery("groupBy", "day")
	switch groupBy {
	case "hour", "day", "month":
	default:
		respondValidation(c, []validation.FieldError{{Field: "groupBy", Message: "groupBy must be one of: hour, day, month"}})
		return
	}

	start, fieldErr := parseTimeParam(c, "startDate")
	if fieldErr != nil {
		respondValidation(c, []validation.FieldError{*fieldErr})
		return
	}
	end, fieldErr := parseTimeParam(c, "endDate")
	if fieldErr != nil {
		respondValidation(c, []validation.FieldError{*fieldErr})
		return
	}
	if rangeErr := validation.ValidateDateRange(start, end); rangeErr != nil {
		respondValidation(c, []validation.FieldError{*rangeErr})
		return
	}

	trends, err := s.db.Trends(c.Request.Context(), groupBy, start, end)
	if err != nil {
		s.Logger.Error("trends query failed: %v", err)
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"success": true, "data": trends})
}
