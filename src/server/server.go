package server

import (
	"fmt"
	"strings"
	"time"

	"sales-observer/src/interfaces"
	"sales-observer/src/logger"
	"sales-observer/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// DashboardServer
// -----------------------------------------------------------------------------

type DashboardServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	engine *gin.Engine

	hub *Hub
	db  interfaces.IDatabase
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewDashboardServer(cfg *models.MConfig, log *logger.Logger, db interfaces.IDatabase, hub *Hub) *DashboardServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &DashboardServer{
		Config: cfg,
		Logger: log,
		engine: gin.Default(),
		hub:    hub,
		db:     db,
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *DashboardServer) setupRoutes() {
	// CRUD + reporting endpoints
	sales := s.engine.Group("/api/sales")
	{
		sales.GET("", s.listSales)
		sales.GET("/analytics", s.getAnalytics)
		sales.GET("/summary", s.getSummary)
		sales.GET("/trends", s.getTrends)
		sales.GET("/:id", s.getSales)
		sales.POST("", s.createSales)
		sales.POST("/bulk", s.createBulkSales)
		sales.PUT("/:id", s.updateSales)
		sales.DELETE("/:id", s.deleteSales)
	}

	// Operational endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/config", s.getConfig)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *DashboardServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------
// Operational Handlers
// -----------------------------------------------------------------------------

func (s *DashboardServer) getHealth(c *gin.Context) {
	payload := gin.H{
		"status":      "ok",
		"connections": s.hub.ClientCount(),
		"db_type":     s.Config.Storage.DBType,
		"time":        time.Now().UTC(),
	}
	if age, ok := s.hub.SnapshotAge(); ok {
		payload["snapshot_age_seconds"] = age.Seconds()
	}
	c.JSON(200, payload)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getConfig(c *gin.Context) {
	// The dashboard UI reads its refresh cadence from here
	c.JSON(200, gin.H{
		"stats_interval_seconds":  s.Config.Dashboard.StatsIntervalSeconds,
		"recent_window_minutes":   s.Config.Dashboard.RecentWindowMinutes,
		"top_categories_limit":    s.Config.Dashboard.TopCategoriesLimit,
		"throttle_window_seconds": s.Config.Dashboard.ThrottleWindowSeconds,
	})
}
